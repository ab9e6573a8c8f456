package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/esterm/internal/conn"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		frameW, frameH := m.theme.AppFrame.GetFrameSize()
		m.width = maxInt(typed.Width-frameW, 0)
		m.height = maxInt(typed.Height-frameH, 0)
		m.ready = true
		m.applyLayout()
		return m, nil

	case autoConnectMsg:
		profile, ok := m.findProfile(typed.profileID)
		if !ok {
			m.setStatus(statusWarn, "Profile %q not found", typed.profileID)
			return m, nil
		}
		return m, m.connect(profile)

	case clusterInfoMsg:
		if cmd := m.handleClusterInfo(typed); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case profileTestMsg:
		if typed.err != nil {
			m.setStatus(statusError, "Test %s: %v", typed.name, typed.err)
		} else {
			m.setStatus(statusSuccess, "Test %s: %s v%s",
				typed.name, typed.info.ClusterName, typed.info.Version.Number)
		}

	case pageFetchedMsg:
		m.handleBrowseFetched(typed)

	case pagingProgressMsg:
		m.browse.progress = &typed
		cmds = append(cmds, m.nextProgressCmd())

	case batchProgressMsg:
		// Workers report the counter after the fact, so messages can
		// arrive out of order. The displayed value never moves backwards.
		if m.console.progress == nil || typed.completed >= m.console.progress.completed {
			m.console.progress = &typed
		}
		cmds = append(cmds, m.nextProgressCmd())

	case sqlResultMsg:
		m.handleSQLResult(typed)

	case sqlTranslatedMsg:
		m.handleSQLTranslated(typed)

	case batchDoneMsg:
		m.handleBatchDone(typed)

	case indicesLoadedMsg:
		m.handleIndicesLoaded(typed)

	case indexMutatedMsg:
		if cmd := m.handleIndexMutated(typed); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case statusMsg:
		m.statusMessage = typed

	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.export.active {
			if cmd := m.updateExport(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
		if cmd, handled := m.globalKey(typed); handled {
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
		if cmd := m.dispatchTab(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if m.export.active {
			if cmd := m.updateExport(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
		if cmd := m.dispatchTab(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// globalKey handles keys that work on every tab. Digit switching stays out
// of the way while a text field has focus.
func (m *Model) globalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.typing() {
		return nil, false
	}
	switch msg.String() {
	case "1", "2", "3", "4", "5":
		target := tabID(msg.String()[0] - '1')
		return m.switchTab(target), true
	}
	return nil, false
}

func (m *Model) switchTab(target tabID) tea.Cmd {
	if target < 0 || target >= tabCount || target == m.tab {
		return nil
	}
	m.tab = target
	if target == tabIndices && m.connected && m.indices.indices == nil && !m.indices.loading {
		return m.loadIndicesCmd()
	}
	return nil
}

func (m *Model) typing() bool {
	if m.export.active {
		return true
	}
	switch m.tab {
	case tabConnections:
		if m.conns.form != nil {
			return true
		}
		return m.conns.list.FilterState() == list.Filtering
	case tabBrowse:
		return !m.browse.showDetail && m.browse.focus < browseFieldCount
	case tabQuery:
		if m.query.showHistory {
			return m.query.historyList.FilterState() == list.Filtering
		}
		return m.query.focusEditor
	case tabConsole:
		return !m.console.showDetail && m.console.focusEditor
	case tabIndices:
		return m.indices.form != nil
	}
	return false
}

func (m *Model) dispatchTab(msg tea.Msg) tea.Cmd {
	switch m.tab {
	case tabConnections:
		return m.updateConnections(msg)
	case tabBrowse:
		return m.updateBrowse(msg)
	case tabQuery:
		return m.updateQuery(msg)
	case tabConsole:
		return m.updateConsole(msg)
	case tabIndices:
		return m.updateIndices(msg)
	}
	return nil
}

func (m *Model) findProfile(key string) (conn.Profile, bool) {
	if profile, ok, err := m.profiles.Get(key); err == nil && ok {
		return profile, true
	}
	all, err := m.profiles.All()
	if err != nil {
		return conn.Profile{}, false
	}
	for _, profile := range all {
		if profile.Name == key {
			return profile, true
		}
	}
	return conn.Profile{}, false
}

func (m *Model) handleClusterInfo(msg clusterInfoMsg) tea.Cmd {
	if msg.err != nil {
		m.setStatus(statusWarn, "Cluster probe failed: %v", msg.err)
		return nil
	}
	m.clusterInfo = msg.info
	m.clusterHealth = msg.health
	if msg.info != nil {
		m.setStatus(statusSuccess, "Connected to %s (%s)", msg.info.ClusterName, msg.info.Version.Number)
	}
	if m.tab == tabConnections {
		return m.switchTab(tabBrowse)
	}
	return nil
}

// applyLayout resizes every tab surface. The body sits below the header and
// tab bar and above the status line.
func (m *Model) applyLayout() {
	width := m.width
	body := maxInt(m.height-3, 4)

	m.conns.list.SetSize(width, body)
	m.layoutBrowse(width, body)
	m.layoutQuery(width, body)
	m.layoutConsole(width, body)
	m.layoutIndices(width, body)
	m.export.input.Width = maxInt(24, minInt(width-10, 72))
}
