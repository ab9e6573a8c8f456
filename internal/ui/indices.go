package ui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/query"
	"github.com/unkn0wn-root/esterm/internal/theme"
)

const (
	indexFieldName = iota
	indexFieldShards
	indexFieldReplicas
	indexFieldCount
)

type indexForm struct {
	inputs  [indexFieldCount]textinput.Model
	focus   int
	errText string
}

type indicesState struct {
	grid    table.Model
	indices []esapi.IndexInfo
	loading bool

	form          *indexForm
	confirmDelete string
}

func newIndicesState(th theme.Theme) indicesState {
	grid := table.New(
		table.WithColumns(indexColumns(80)),
		table.WithHeight(10),
		table.WithFocused(true),
	)
	grid.SetStyles(tableStylesForTheme(th))
	return indicesState{grid: grid}
}

func indexColumns(width int) []table.Column {
	name := maxInt(16, width-66)
	return []table.Column{
		{Title: "Index", Width: name},
		{Title: "Health", Width: 7},
		{Title: "Status", Width: 7},
		{Title: "Pri", Width: 4},
		{Title: "Rep", Width: 4},
		{Title: "Docs", Width: 12},
		{Title: "Deleted", Width: 9},
		{Title: "Size", Width: 9},
	}
}

func newIndexForm() *indexForm {
	form := &indexForm{}
	placeholders := [indexFieldCount]string{"logs-2026.08", "1", "1"}
	values := [indexFieldCount]string{"", "1", "1"}
	for i := 0; i < indexFieldCount; i++ {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.Prompt = ""
		input.CharLimit = 0
		input.SetValue(values[i])
		form.inputs[i] = input
	}
	form.inputs[indexFieldName].Focus()
	return form
}

func (f *indexForm) setFocus(idx int) {
	if idx < 0 {
		idx = indexFieldCount - 1
	}
	if idx >= indexFieldCount {
		idx = 0
	}
	f.inputs[f.focus].Blur()
	f.focus = idx
	f.inputs[f.focus].Focus()
}

func (m *Model) updateIndices(msg tea.Msg) tea.Cmd {
	if m.indices.form != nil {
		return m.updateIndexForm(msg)
	}

	if m.indices.confirmDelete != "" {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "y", "Y":
				name := m.indices.confirmDelete
				m.indices.confirmDelete = ""
				return m.mutateIndexCmd("delete", "DELETE", query.IndexPath(name), "", name)
			case "n", "N", "esc":
				m.indices.confirmDelete = ""
			}
		}
		return nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "R":
			return m.loadIndicesCmd()
		case "c":
			m.indices.form = newIndexForm()
			return nil
		case "d":
			if info, ok := m.selectedIndex(); ok {
				m.indices.confirmDelete = info.Index
			}
			return nil
		case "r":
			if info, ok := m.selectedIndex(); ok {
				return m.mutateIndexCmd("refresh", "POST", query.RefreshPath(info.Index), "", info.Index)
			}
			return nil
		}
	}

	var cmd tea.Cmd
	m.indices.grid, cmd = m.indices.grid.Update(msg)
	return cmd
}

func (m *Model) updateIndexForm(msg tea.Msg) tea.Cmd {
	form := m.indices.form
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.indices.form = nil
			return nil
		case "tab", "down":
			form.setFocus(form.focus + 1)
			return nil
		case "shift+tab", "up":
			form.setFocus(form.focus - 1)
			return nil
		case "enter":
			return m.submitIndexForm()
		}
	}
	var cmd tea.Cmd
	form.inputs[form.focus], cmd = form.inputs[form.focus].Update(msg)
	return cmd
}

func (m *Model) submitIndexForm() tea.Cmd {
	form := m.indices.form
	name := strings.TrimSpace(form.inputs[indexFieldName].Value())
	if err := query.ValidateIndexName(name); err != nil {
		form.errText = err.Error()
		return nil
	}
	shards, err := parseBoundedInt(form.inputs[indexFieldShards].Value(), "shards", 1, 1024)
	if err != nil {
		form.errText = err.Error()
		return nil
	}
	replicas, err := parseBoundedInt(form.inputs[indexFieldReplicas].Value(), "replicas", 0, 128)
	if err != nil {
		form.errText = err.Error()
		return nil
	}

	m.indices.form = nil
	body := query.CreateIndexBody(shards, replicas)
	return m.mutateIndexCmd("create", "PUT", query.IndexPath(name), body, name)
}

func (m *Model) selectedIndex() (esapi.IndexInfo, bool) {
	cursor := m.indices.grid.Cursor()
	if cursor < 0 || cursor >= len(m.indices.indices) {
		return esapi.IndexInfo{}, false
	}
	return m.indices.indices[cursor], true
}

func (m *Model) loadIndicesCmd() tea.Cmd {
	if !m.connected {
		m.setStatus(statusWarn, "Connect to a cluster first")
		return nil
	}
	if m.indices.loading {
		return nil
	}
	m.indices.loading = true

	client := m.clients.indices
	build := m.desc.Request
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(requestTimeout)
		defer cancel()

		resp, err := client.Send(ctx, build("GET", query.CatIndicesPath, ""))
		if err != nil {
			return indicesLoadedMsg{err: err}
		}
		if !resp.OK {
			return indicesLoadedMsg{err: engineError("list indices", resp.Status, resp.Body)}
		}
		var infos []esapi.IndexInfo
		if err := json.Unmarshal(resp.Body, &infos); err != nil {
			return indicesLoadedMsg{err: fmt.Errorf("decode cat indices: %w", err)}
		}
		return indicesLoadedMsg{indices: infos}
	}
}

func (m *Model) mutateIndexCmd(action, method, path, body, name string) tea.Cmd {
	if !m.connected {
		m.setStatus(statusWarn, "Connect to a cluster first")
		return nil
	}
	switch action {
	case "create":
		m.setStatus(statusInfo, "Creating %s...", name)
	case "delete":
		m.setStatus(statusInfo, "Deleting %s...", name)
	case "refresh":
		m.setStatus(statusInfo, "Refreshing %s...", name)
	}

	client := m.clients.indices
	build := m.desc.Request
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(requestTimeout)
		defer cancel()

		resp, err := client.Send(ctx, build(method, path, body))
		if err != nil {
			return indexMutatedMsg{action: action, index: name, err: err}
		}
		if !resp.OK {
			return indexMutatedMsg{action: action, index: name, err: engineError(action, resp.Status, resp.Body)}
		}
		return indexMutatedMsg{action: action, index: name}
	}
}

func (m *Model) handleIndicesLoaded(msg indicesLoadedMsg) {
	m.indices.loading = false
	if msg.err != nil {
		m.setStatus(statusError, "%v", msg.err)
		return
	}
	m.indices.indices = msg.indices
	m.indices.grid.SetRows(indexRows(msg.indices))
	m.setStatus(statusInfo, "%d indices", len(msg.indices))
}

func (m *Model) handleIndexMutated(msg indexMutatedMsg) tea.Cmd {
	if msg.err != nil {
		m.setStatus(statusError, "%v", msg.err)
		return nil
	}
	switch msg.action {
	case "create":
		m.setStatus(statusSuccess, "Created index %s", msg.index)
		return m.loadIndicesCmd()
	case "delete":
		m.setStatus(statusSuccess, "Deleted index %s", msg.index)
		return m.loadIndicesCmd()
	case "refresh":
		m.setStatus(statusSuccess, "Refreshed index %s", msg.index)
	}
	return nil
}

func indexRows(infos []esapi.IndexInfo) []table.Row {
	rows := make([]table.Row, len(infos))
	for i, info := range infos {
		rows[i] = table.Row{
			info.Index,
			info.Health,
			info.Status,
			info.Pri,
			info.Rep,
			humanizeCount(info.DocsCount),
			humanizeCount(info.DocsDeleted),
			humanizeSize(info.StoreSize),
		}
	}
	return rows
}

// The cat API reports every column as a string; malformed numbers render
// as received.
func humanizeCount(text string) string {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return text
	}
	return humanize.Comma(n)
}

func humanizeSize(text string) string {
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return text
	}
	return humanize.Bytes(n)
}

func (m *Model) layoutIndices(width, height int) {
	m.indices.grid.SetColumns(indexColumns(width))
	m.indices.grid.SetWidth(width)
	m.indices.grid.SetHeight(maxInt(3, height-2))
}

func (m Model) renderIndices(width, height int) string {
	if m.indices.form != nil {
		return m.renderIndexForm()
	}

	var header string
	switch {
	case m.indices.loading:
		header = m.theme.Progress.Render("loading indices...")
	case m.clusterHealth != nil:
		health := m.clusterHealth
		badge := m.theme.StatusBarValue.Foreground(m.theme.Health.For(health.Status)).Bold(true).Render(health.Status)
		header = fmt.Sprintf("%s %s · %d indices · shards %d active / %d relocating / %d unassigned",
			badge, health.ClusterName, len(m.indices.indices),
			health.ActiveShards, health.RelocatingShards, health.UnassignedShards)
	default:
		header = m.theme.StatusBar.Render(fmt.Sprintf("%d indices", len(m.indices.indices)))
	}

	body := joinVertical(header, m.indices.grid.View())
	if m.indices.confirmDelete != "" {
		prompt := m.theme.Notification.Render(
			fmt.Sprintf("Delete index %q and all its documents? (y/n)", m.indices.confirmDelete))
		body = joinVertical(body, prompt)
	}
	return body
}

func (m Model) renderIndexForm() string {
	form := m.indices.form
	labels := [indexFieldCount]string{"Name", "Shards", "Replicas"}

	var b strings.Builder
	b.WriteString(m.theme.DetailTitle.Render("Create index"))
	b.WriteString("\n\n")
	for i := 0; i < indexFieldCount; i++ {
		b.WriteString(m.theme.InputLabel.Render(fmt.Sprintf("%-9s", labels[i])))
		b.WriteString(" ")
		b.WriteString(form.inputs[i].View())
		b.WriteString("\n")
	}
	if form.errText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Error.Render(form.errText))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.StatusBar.Render("enter create · esc cancel · tab next field"))
	return b.String()
}
