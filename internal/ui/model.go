package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/esterm/internal/config"
	"github.com/unkn0wn-root/esterm/internal/conn"
	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/history"
	"github.com/unkn0wn-root/esterm/internal/telemetry"
	"github.com/unkn0wn-root/esterm/internal/theme"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

var _ tea.Model = (*Model)(nil)

type tabID int

const (
	tabConnections tabID = iota
	tabBrowse
	tabQuery
	tabConsole
	tabIndices
	tabCount
)

var tabTitles = [tabCount]string{
	"Connections",
	"Browse",
	"Query",
	"Console",
	"Indices",
}

// Config wires the model to everything the binary constructed. NewClient
// is the only way the model reaches the network; tests inject fakes.
type Config struct {
	Theme          *theme.Theme
	ThemeCatalog   theme.Catalog
	ActiveThemeKey string
	Settings       config.Settings
	SettingsHandle config.SettingsHandle
	Profiles       *conn.Store
	Secrets        *conn.SecretStore
	History        *history.Store
	Instrumenter   telemetry.Instrumenter
	NewClient      func(conn.Descriptor) (wire.Client, error)
	InitialProfile string
	Version        string
}

// surfaceClients are the per-tab decorations of one base client. Every
// surface shares the observer; spans carry the surface name.
type surfaceClients struct {
	cluster wire.Client
	browse  wire.Client
	query   wire.Client
	console wire.Client
	indices wire.Client
}

type Model struct {
	cfg            Config
	theme          theme.Theme
	themeCatalog   theme.Catalog
	activeThemeKey string
	settings       config.Settings
	settingsHandle config.SettingsHandle

	profiles     *conn.Store
	secrets      *conn.SecretStore
	historyStore *history.Store
	inst         telemetry.Instrumenter
	newClient    func(conn.Descriptor) (wire.Client, error)

	trace *traceLog

	connected bool
	active    conn.Profile
	desc      conn.Descriptor
	clients   surfaceClients

	clusterInfo   *esapi.ClusterInfo
	clusterHealth *esapi.ClusterHealth

	tab    tabID
	width  int
	height int
	ready  bool

	conns   connState
	browse  browseState
	query   queryState
	console consoleState
	indices indicesState

	export exportState

	statusMessage statusMsg
	progressChan  chan tea.Msg

	version string
}

func New(cfg Config) Model {
	th := theme.DarkTheme()
	if cfg.Theme != nil {
		th = *cfg.Theme
	}
	activeTheme := cfg.ActiveThemeKey
	if activeTheme == "" {
		activeTheme = "dark"
	}

	m := Model{
		cfg:            cfg,
		theme:          th,
		themeCatalog:   cfg.ThemeCatalog,
		activeThemeKey: activeTheme,
		settings:       cfg.Settings,
		settingsHandle: cfg.SettingsHandle,
		profiles:       cfg.Profiles,
		secrets:        cfg.Secrets,
		historyStore:   cfg.History,
		inst:           cfg.Instrumenter,
		newClient:      cfg.NewClient,
		trace:          newTraceLog(traceCapacity),
		tab:            tabConnections,
		progressChan:   make(chan tea.Msg, 64),
		version:        cfg.Version,
	}

	m.conns = newConnState(th)
	m.browse = newBrowseState(th, cfg.Settings.DefaultPageSize)
	m.query = newQueryState(th)
	m.console = newConsoleState(th)
	m.indices = newIndicesState(th)
	m.export = newExportState()

	m.syncProfileList()
	m.syncHistoryList(nil)

	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.nextProgressCmd()}
	if m.cfg.InitialProfile != "" {
		cmds = append(cmds, func() tea.Msg {
			return autoConnectMsg{profileID: m.cfg.InitialProfile}
		})
	}
	return tea.Batch(cmds...)
}

// nextProgressCmd re-arms the progress drain. Producers send through
// progressChan without blocking; this command delivers one message and is
// re-issued by Update after each delivery.
func (m Model) nextProgressCmd() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		return <-ch
	}
}

type autoConnectMsg struct {
	profileID string
}

const (
	probeTimeout   = 10 * time.Second
	requestTimeout = 90 * time.Second
)

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (m *Model) setStatus(level statusLevel, format string, args ...any) {
	m.statusMessage = statusMsg{text: fmt.Sprintf(format, args...), level: level}
}
