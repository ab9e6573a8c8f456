package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/history"
	"github.com/unkn0wn-root/esterm/internal/query"
	"github.com/unkn0wn-root/esterm/internal/theme"
)

type queryState struct {
	editor      textarea.Model
	result      viewport.Model
	focusEditor bool

	res  *esapi.SQLResponse
	raw  []byte
	took time.Duration

	running bool
	cancel  context.CancelFunc

	historyList list.Model
	showHistory bool
}

type historyItem struct {
	item history.Item
}

func (h historyItem) Title() string { return h.item.Title }

func (h historyItem) Description() string {
	return h.item.CreatedAt.Format("2006-01-02 15:04")
}

func (h historyItem) FilterValue() string { return h.item.Title + " " + h.item.SQL }

func newQueryState(th theme.Theme) queryState {
	editor := textarea.New()
	editor.Placeholder = "SELECT field FROM \"logs-*\" WHERE level = 'error' LIMIT 50"
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.Focus()

	historyList := list.New(nil, listDelegateForTheme(th, true, 3), 0, 0)
	historyList.SetShowStatusBar(false)
	historyList.SetShowHelp(false)
	historyList.SetShowTitle(false)
	historyList.SetFilteringEnabled(true)
	historyList.DisableQuitKeybindings()

	return queryState{
		editor:      editor,
		result:      viewport.New(0, 0),
		focusEditor: true,
		historyList: historyList,
	}
}

func (m *Model) syncHistoryList(items []history.Item) {
	if items == nil {
		if m.historyStore == nil {
			return
		}
		loaded, err := m.historyStore.Recent(m.settings.HistoryLimit)
		if err != nil {
			m.setStatus(statusWarn, "load history: %v", err)
			return
		}
		items = loaded
	}
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = historyItem{item: item}
	}
	m.query.historyList.SetItems(listItems)
}

func (m *Model) updateQuery(msg tea.Msg) tea.Cmd {
	if m.query.showHistory {
		return m.updateQueryHistory(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+r":
			return m.startSQLRun()
		case "ctrl+t":
			return m.startSQLTranslate()
		case "ctrl+h":
			m.query.showHistory = true
			m.applyLayout()
			return nil
		case "ctrl+x":
			if m.query.cancel != nil {
				m.query.cancel()
			}
			return nil
		case "esc":
			m.query.focusEditor = !m.query.focusEditor
			if m.query.focusEditor {
				m.query.editor.Focus()
			} else {
				m.query.editor.Blur()
			}
			return nil
		}

		if !m.query.focusEditor {
			switch keyMsg.String() {
			case "x":
				if m.query.cancel != nil {
					m.query.cancel()
				}
				return nil
			case "y":
				if len(m.query.raw) == 0 {
					return nil
				}
				if err := clipboard.WriteAll(prettyJSON(string(m.query.raw))); err != nil {
					m.setStatus(statusWarn, "clipboard: %v", err)
				} else {
					m.setStatus(statusSuccess, "Copied query result")
				}
				return nil
			case "s":
				return m.openExport(exportQuery)
			}
		}
	}

	var cmd tea.Cmd
	if m.query.focusEditor {
		m.query.editor, cmd = m.query.editor.Update(msg)
	} else {
		m.query.result, cmd = m.query.result.Update(msg)
	}
	return cmd
}

func (m *Model) updateQueryHistory(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.query.historyList.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			m.query.showHistory = false
			m.applyLayout()
			return nil
		case "enter":
			if item, ok := m.query.historyList.SelectedItem().(historyItem); ok {
				m.query.editor.SetValue(item.item.SQL)
				m.query.showHistory = false
				m.query.focusEditor = true
				m.query.editor.Focus()
				m.applyLayout()
			}
			return nil
		case "d":
			if item, ok := m.query.historyList.SelectedItem().(historyItem); ok {
				if _, err := m.historyStore.Delete(item.item.ID); err != nil {
					m.setStatus(statusWarn, "delete history: %v", err)
				} else {
					m.syncHistoryList(nil)
				}
			}
			return nil
		}
	}
	var cmd tea.Cmd
	m.query.historyList, cmd = m.query.historyList.Update(msg)
	return cmd
}

func (m *Model) startSQLRun() tea.Cmd {
	body, ok := m.prepareSQL()
	if !ok {
		return nil
	}
	sql := m.query.editor.Value()

	ctx, cancel := context.WithCancel(context.Background())
	m.query.running = true
	m.query.cancel = cancel
	m.setStatus(statusInfo, "Running query...")

	client := m.clients.query
	build := m.desc.Request
	return func() tea.Msg {
		defer cancel()
		started := time.Now()
		resp, err := client.Send(ctx, build("POST", query.SQLPath, body))
		took := time.Since(started)
		if err != nil {
			return sqlResultMsg{err: err, took: took}
		}
		if !resp.OK {
			return sqlResultMsg{err: engineError("query", resp.Status, resp.Body), took: took}
		}
		var out esapi.SQLResponse
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return sqlResultMsg{err: fmt.Errorf("decode sql response: %w", err), took: took}
		}
		return sqlResultMsg{res: &out, raw: resp.Body, sql: sql, took: took}
	}
}

func (m *Model) startSQLTranslate() tea.Cmd {
	body, ok := m.prepareSQL()
	if !ok {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.query.running = true
	m.query.cancel = cancel
	m.setStatus(statusInfo, "Translating to Query DSL...")

	client := m.clients.query
	build := m.desc.Request
	return func() tea.Msg {
		defer cancel()
		resp, err := client.Send(ctx, build("POST", query.SQLTranslatePath, body))
		if err != nil {
			return sqlTranslatedMsg{err: err}
		}
		if !resp.OK {
			return sqlTranslatedMsg{err: engineError("translate", resp.Status, resp.Body)}
		}
		return sqlTranslatedMsg{body: prettyJSON(string(resp.Body))}
	}
}

func (m *Model) prepareSQL() (string, bool) {
	if m.query.running {
		m.setStatus(statusWarn, "A query is already running, x cancels it")
		return "", false
	}
	if !m.connected {
		m.setStatus(statusWarn, "Connect to a cluster first")
		return "", false
	}
	body, err := query.SQLBody(m.query.editor.Value(), m.settings.DefaultPageSize)
	if err != nil {
		m.setStatus(statusError, "%v", err)
		return "", false
	}
	return body, true
}

// engineError shapes a non-2xx engine reply into one error line, digging
// the engine reason out of the body when there is one.
func engineError(op string, status int, body []byte) error {
	if reason := esapi.Reason(body); reason != "" {
		return fmt.Errorf("%s failed with status %d: %s", op, status, reason)
	}
	return fmt.Errorf("%s failed with status %d", op, status)
}

func (m *Model) handleSQLResult(msg sqlResultMsg) {
	m.query.running = false
	m.query.cancel = nil

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			m.setStatus(statusWarn, "Query cancelled")
		} else {
			m.setStatus(statusError, "%v", msg.err)
		}
		return
	}

	m.query.res = msg.res
	m.query.raw = msg.raw
	m.query.took = msg.took
	m.query.result.SetContent(renderSQLTable(msg.res, m.theme, m.query.result.Width))
	m.query.result.GotoTop()
	m.query.focusEditor = false
	m.query.editor.Blur()

	if m.historyStore != nil && msg.sql != "" {
		if _, err := m.historyStore.Append(historyTitle(msg.sql), msg.sql); err != nil {
			m.setStatus(statusWarn, "record history: %v", err)
		} else {
			m.syncHistoryList(nil)
		}
	}

	note := ""
	if msg.res.Cursor != "" {
		note = " · more rows on the server, raise the page size to fetch them"
	}
	m.setStatus(statusSuccess, "%d rows · %d columns · %s%s",
		len(msg.res.Rows), len(msg.res.Columns), formatDurationShort(msg.took), note)
}

func (m *Model) handleSQLTranslated(msg sqlTranslatedMsg) {
	m.query.running = false
	m.query.cancel = nil

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			m.setStatus(statusWarn, "Translate cancelled")
		} else {
			m.setStatus(statusError, "%v", msg.err)
		}
		return
	}
	m.query.result.SetContent(highlightJSON(msg.body, m.chromaStyle()))
	m.query.result.GotoTop()
	m.query.focusEditor = false
	m.query.editor.Blur()
	m.setStatus(statusSuccess, "Translated to Query DSL")
}

func historyTitle(sql string) string {
	title := strings.Join(strings.Fields(sql), " ")
	if runes := []rune(title); len(runes) > 80 {
		title = string(runes[:80])
	}
	return title
}

// renderSQLTable lays the result grid out as plain text. Cells render their
// JSON value with string quoting removed; NULL stays literal.
func renderSQLTable(res *esapi.SQLResponse, th theme.Theme, width int) string {
	if res == nil || len(res.Columns) == 0 {
		return th.StatusBar.Render("no columns returned")
	}

	const maxCell = 48
	widths := make([]int, len(res.Columns))
	names := make([]string, len(res.Columns))
	types := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		names[i] = col.Name
		types[i] = col.Type
		widths[i] = maxInt(len(col.Name), len(col.Type))
	}

	cells := make([][]string, len(res.Rows))
	for r, row := range res.Rows {
		cells[r] = make([]string, len(res.Columns))
		for c := range res.Columns {
			text := "NULL"
			if c < len(row) {
				text = sqlCell(row[c])
			}
			if runes := []rune(text); len(runes) > maxCell {
				text = string(runes[:maxCell-1]) + "…"
			}
			cells[r][c] = text
			if len(text) > widths[c] {
				widths[c] = len(text)
			}
		}
	}

	var b strings.Builder
	writeRow := func(values []string, style func(string) string) {
		for c, value := range values {
			if c > 0 {
				b.WriteString("  ")
			}
			b.WriteString(style(fmt.Sprintf("%-*s", widths[c], value)))
		}
		b.WriteString("\n")
	}

	writeRow(names, func(s string) string { return th.TableHeader.Render(s) })
	writeRow(types, func(s string) string { return th.StatusBar.Render(s) })
	for _, row := range cells {
		writeRow(row, func(s string) string { return s })
	}
	if len(res.Rows) == 0 {
		b.WriteString(th.StatusBar.Render("0 rows"))
		b.WriteString("\n")
	}
	return b.String()
}

func sqlCell(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "NULL"
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return trimmed
}

// layoutQuery sizes the editor over the result viewport. The history panel
// opens as a sidebar and takes its share of the width from the layout
// settings.
func (m *Model) layoutQuery(width, height int) {
	paneWidth := width
	if m.query.showHistory {
		sidebar := maxInt(24, int(float64(width)*m.settings.Layout.SidebarWidth))
		m.query.historyList.SetSize(sidebar, height-1)
		paneWidth = maxInt(20, width-sidebar-1)
	}

	editorHeight := maxInt(4, height*2/5)
	m.query.editor.SetWidth(paneWidth)
	m.query.editor.SetHeight(editorHeight)
	m.query.result.Width = paneWidth
	m.query.result.Height = maxInt(3, height-editorHeight-1)
}

func (m Model) renderQuery(width, height int) string {
	if m.query.showHistory {
		hint := m.theme.StatusBar.Render("enter recall · d delete · / filter · esc close")
		sidebar := joinVertical(m.query.historyList.View(), hint)
		pane := joinVertical(m.query.editor.View(), m.query.result.View())
		return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", pane)
	}

	var divider string
	switch {
	case m.query.running:
		divider = m.theme.Progress.Render("running...")
	case m.query.res != nil:
		divider = m.theme.StatusBarValue.Render(fmt.Sprintf("%d rows · %s",
			len(m.query.res.Rows), formatDurationShort(m.query.took)))
	default:
		divider = m.theme.StatusBar.Render("ctrl+r runs the statement, ctrl+t shows the Query DSL")
	}

	return joinVertical(m.query.editor.View(), divider, m.query.result.View())
}
