package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/esterm/internal/config"
	"github.com/unkn0wn-root/esterm/internal/conn"
	"github.com/unkn0wn-root/esterm/internal/history"
	"github.com/unkn0wn-root/esterm/internal/kubefwd"
	"github.com/unkn0wn-root/esterm/internal/sshx"
	"github.com/unkn0wn-root/esterm/internal/telemetry"
	"github.com/unkn0wn-root/esterm/internal/theme"
	"github.com/unkn0wn-root/esterm/internal/ui"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		profileName  string
		timeout      time.Duration
		showVersion  bool
		otelEndpoint string
		otelInsecure bool
		otelService  string
	)

	envCfg := telemetry.ConfigFromEnv(os.Getenv)
	otelEndpoint = envCfg.Endpoint
	otelInsecure = envCfg.Insecure
	otelService = envCfg.ServiceName

	flag.StringVar(&profileName, "profile", "", "Connection profile to open at startup (name or id)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout for the direct backend")
	flag.BoolVar(&showVersion, "version", false, "Show esterm version")
	flag.StringVar(
		&otelEndpoint,
		"telemetry-endpoint",
		otelEndpoint,
		"OTLP collector endpoint for request spans",
	)
	flag.BoolVar(
		&otelInsecure,
		"telemetry-insecure",
		otelInsecure,
		"Disable TLS for OTLP span export",
	)
	flag.StringVar(
		&otelService,
		"telemetry-service",
		otelService,
		"Override service.name resource attribute on exported spans",
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), heredoc.Doc(`
			esterm browses and administers Elasticsearch-style clusters from the
			terminal: connection profiles, deep pagination past the result window,
			a query tab, a batch console and index management.

			Usage:
			  esterm [flags]

			Profiles, settings, themes and history live under the config directory;
			ESTERM_CONFIG_DIR overrides the platform default. Credentials go to the
			OS keyring, with an encrypted file fallback when no keyring is available.

			Flags:
		`))
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("esterm %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		if sum, err := executableChecksum(); err == nil {
			fmt.Printf("  sha256: %s\n", sum)
		} else {
			fmt.Printf("  sha256: unavailable (%v)\n", err)
		}
		os.Exit(0)
	}

	settings, settingsHandle, err := config.LoadSettings()
	if err != nil {
		log.Printf("settings load error: %v", err)
		settings = config.NormaliseSettings(config.Settings{})
		settingsHandle = config.SettingsHandle{
			Path:   filepath.Join(config.Dir(), "settings.toml"),
			Format: config.SettingsFormatTOML,
		}
	}

	// Flags override the environment; the settings file only supplies the
	// endpoint when neither names one.
	telemetryCfg := envCfg
	telemetryCfg.Endpoint = strings.TrimSpace(otelEndpoint)
	telemetryCfg.Insecure = otelInsecure
	telemetryCfg.ServiceName = strings.TrimSpace(otelService)
	if telemetryCfg.Endpoint == "" && settings.Telemetry.Enabled {
		telemetryCfg.Endpoint = strings.TrimSpace(settings.Telemetry.Endpoint)
		telemetryCfg.Insecure = telemetryCfg.Insecure || settings.Telemetry.Insecure
		if telemetryCfg.ServiceName == envCfg.ServiceName {
			if name := strings.TrimSpace(settings.Telemetry.ServiceName); name != "" {
				telemetryCfg.ServiceName = name
			}
		}
	}
	telemetryCfg.Version = version

	inst, err := telemetry.New(telemetryCfg)
	if err != nil {
		log.Printf("telemetry init error: %v", err)
		inst = telemetry.Noop()
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if shutdownErr := inst.Shutdown(ctx); shutdownErr != nil {
				log.Printf("telemetry shutdown: %v", shutdownErr)
			}
		}()
	}

	profiles := conn.NewStore(config.ProfilesPath())
	if err := profiles.Load(); err != nil {
		log.Printf("profiles load error: %v", err)
	}

	secretStore, err := conn.OpenSecrets(config.SecretsDir())
	if err != nil {
		log.Fatalf("open secret store: %v", err)
	}

	historyStore, err := history.Open(config.HistoryPath(), settings.HistoryLimit)
	if err != nil {
		log.Printf("history open error: %v", err)
	} else {
		defer func() {
			if closeErr := historyStore.Close(); closeErr != nil {
				log.Printf("history close: %v", closeErr)
			}
		}()
	}

	themeCatalog, themeErr := theme.LoadCatalog([]string{config.ThemeDir()})
	if themeErr != nil {
		log.Printf("theme load error: %v", themeErr)
	}

	activeThemeKey := strings.TrimSpace(strings.ToLower(settings.DefaultTheme))
	if activeThemeKey == "" {
		activeThemeKey = theme.DefaultKey()
	}
	th := theme.DarkTheme()
	if def, ok := themeCatalog.Get(activeThemeKey); ok {
		th = def.Theme
		activeThemeKey = def.Key
	} else {
		if settings.DefaultTheme != "" {
			log.Printf("theme %q not found; using terminal default", settings.DefaultTheme)
		}
		activeThemeKey = theme.DefaultKey()
		if def, ok := themeCatalog.Get(activeThemeKey); ok {
			th = def.Theme
		}
	}

	sshMgr := sshx.NewManager()
	defer func() {
		if closeErr := sshMgr.Close(); closeErr != nil {
			log.Printf("ssh manager close: %v", closeErr)
		}
	}()

	// One bridge process serves every profile; port forwards are per
	// descriptor and torn down with the program.
	var (
		tunnelMu   sync.Mutex
		forwarders []*kubefwd.Forwarder

		bridgeOnce sync.Once
		bridge     *wire.BridgeClient
		bridgeErr  error
	)
	defer func() {
		tunnelMu.Lock()
		defer tunnelMu.Unlock()
		for _, fwd := range forwarders {
			_ = fwd.Close()
		}
		if bridge != nil {
			_ = bridge.Close()
		}
	}()

	newClient := func(desc conn.Descriptor) (wire.Client, error) {
		if settings.WireBackend == config.WireBackendBridge {
			bridgeOnce.Do(func() {
				parts := strings.Fields(settings.BridgeCommand)
				if len(parts) == 0 {
					bridge, bridgeErr = wire.NewBridge("")
					return
				}
				bridge, bridgeErr = wire.NewBridge(parts[0], parts[1:]...)
			})
			if bridgeErr != nil {
				return nil, bridgeErr
			}
			return bridge, nil
		}
		var fwd *kubefwd.Forwarder
		if desc.Kube != nil {
			fwd = kubefwd.New(*desc.Kube)
			tunnelMu.Lock()
			forwarders = append(forwarders, fwd)
			tunnelMu.Unlock()
		}
		return wire.NewDirect(desc.WireOptions(timeout, sshMgr, fwd)), nil
	}

	model := ui.New(ui.Config{
		Theme:          &th,
		ThemeCatalog:   themeCatalog,
		ActiveThemeKey: activeThemeKey,
		Settings:       settings,
		SettingsHandle: settingsHandle,
		Profiles:       profiles,
		Secrets:        secretStore,
		History:        historyStore,
		Instrumenter:   inst,
		NewClient:      newClient,
		InitialProfile: profileName,
		Version:        version,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func executableChecksum() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	f, err := os.Open(exe)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
