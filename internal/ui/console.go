package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/esterm/internal/batch"
	"github.com/unkn0wn-root/esterm/internal/theme"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

type consoleState struct {
	editor      textarea.Model
	focusEditor bool

	results []batch.Result
	grid    table.Model
	took    time.Duration

	detail      viewport.Model
	showDetail  bool
	detailTitle string
	detailPlain string

	running  bool
	cancel   context.CancelFunc
	progress *batchProgressMsg

	showTrace bool
}

func newConsoleState(th theme.Theme) consoleState {
	editor := textarea.New()
	editor.Placeholder = "# one command per line, body on the lines below\nGET /_cluster/health\nPOST /logs-restore/_doc\n{\"message\": \"hello\"}"
	editor.ShowLineNumbers = true
	editor.CharLimit = 0

	grid := table.New(
		table.WithColumns(consoleColumns(80)),
		table.WithHeight(8),
	)
	grid.SetStyles(tableStylesForTheme(th))

	return consoleState{
		editor:      editor,
		focusEditor: true,
		grid:        grid,
		detail:      viewport.New(0, 0),
	}
}

func consoleColumns(width int) []table.Column {
	method := 7
	status := 7
	took := 9
	path := minInt(40, maxInt(12, width/3))
	note := maxInt(10, width-method-status-took-path-12)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Method", Width: method},
		{Title: "Path", Width: path},
		{Title: "Status", Width: status},
		{Title: "Time", Width: took},
		{Title: "Note", Width: note},
	}
}

func (m *Model) updateConsole(msg tea.Msg) tea.Cmd {
	if m.console.showDetail {
		return m.updateConsoleDetail(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+r":
			return m.startBatchRun()
		case "ctrl+x":
			if m.console.cancel != nil {
				m.console.cancel()
			}
			return nil
		case "esc":
			m.console.focusEditor = !m.console.focusEditor
			if m.console.focusEditor {
				m.console.editor.Focus()
				m.console.grid.Blur()
			} else {
				m.console.editor.Blur()
				m.console.grid.Focus()
			}
			return nil
		}

		if !m.console.focusEditor {
			switch keyMsg.String() {
			case "enter":
				m.openConsoleDetail()
				return nil
			case "x":
				if m.console.cancel != nil {
					m.console.cancel()
				}
				return nil
			case "s":
				return m.openExport(exportConsole)
			case "t":
				m.console.showTrace = !m.console.showTrace
				return nil
			case "T":
				m.trace.Clear()
				m.setStatus(statusInfo, "Wire trace cleared")
				return nil
			}
		}
	}

	var cmd tea.Cmd
	if m.console.focusEditor {
		m.console.editor, cmd = m.console.editor.Update(msg)
	} else {
		m.console.grid, cmd = m.console.grid.Update(msg)
	}
	return cmd
}

func (m *Model) updateConsoleDetail(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q":
			m.console.showDetail = false
			return nil
		case "y":
			if err := clipboard.WriteAll(m.console.detailPlain); err != nil {
				m.setStatus(statusWarn, "clipboard: %v", err)
			} else {
				m.setStatus(statusSuccess, "Copied %s", m.console.detailTitle)
			}
			return nil
		}
	}
	var cmd tea.Cmd
	m.console.detail, cmd = m.console.detail.Update(msg)
	return cmd
}

func (m *Model) startBatchRun() tea.Cmd {
	if m.console.running {
		m.setStatus(statusWarn, "A script is already running, x cancels it")
		return nil
	}
	if !m.connected {
		m.setStatus(statusWarn, "Connect to a cluster first")
		return nil
	}
	commands, err := batch.Parse(m.console.editor.Value())
	if err != nil {
		m.setStatus(statusError, "%v", err)
		return nil
	}

	cfg := batch.Config{
		Concurrency: m.settings.Batch.Concurrency,
		RetryCount:  m.settings.Batch.RetryCount,
		RetryDelay:  time.Duration(m.settings.Batch.RetryDelayMs) * time.Millisecond,
		StopOnError: m.settings.Batch.StopOnError,
		PrettyPrint: m.settings.Batch.PrettyPrint,
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.console.running = true
	m.console.cancel = cancel
	m.console.progress = nil
	m.setStatus(statusInfo, "Running %d commands...", len(commands))

	runner := &batch.Runner{Client: m.clients.console, Build: m.desc.Request}
	progress := m.batchProgress()
	return func() tea.Msg {
		defer cancel()
		started := time.Now()
		results := runner.Run(ctx, commands, cfg, progress)
		return batchDoneMsg{results: results, took: time.Since(started)}
	}
}

func (m *Model) batchProgress() batch.ProgressFunc {
	ch := m.progressChan
	return func(completed, total int) {
		select {
		case ch <- batchProgressMsg{completed: completed, total: total}:
		default:
		}
	}
}

func (m *Model) handleBatchDone(msg batchDoneMsg) {
	m.console.running = false
	m.console.cancel = nil
	m.console.progress = nil
	m.console.results = msg.results
	m.console.took = msg.took
	m.console.grid.SetRows(consoleRows(msg.results))
	m.console.grid.GotoTop()
	m.console.focusEditor = false
	m.console.editor.Blur()
	m.console.grid.Focus()

	failed, skipped := 0, 0
	for _, res := range msg.results {
		if res.Skipped {
			skipped++
		} else if res.Failed() {
			failed++
		}
	}
	level := statusSuccess
	if failed > 0 {
		level = statusWarn
	}
	summary := fmt.Sprintf("%d commands · %d failed", len(msg.results), failed)
	if skipped > 0 {
		summary += fmt.Sprintf(" · %d skipped", skipped)
	}
	m.setStatus(level, "%s · %s", summary, formatDurationShort(msg.took))
}

func consoleRows(results []batch.Result) []table.Row {
	rows := make([]table.Row, len(results))
	for i, res := range results {
		status := "-"
		note := ""
		switch {
		case res.Skipped:
			status = "SKIP"
			note = "not run, a previous command failed"
		case res.Err != nil:
			status = "ERROR"
			note = firstLine(res.Err.Error())
		default:
			status = strconv.Itoa(res.Status)
			if !res.OK {
				note = firstLine(batchBodyNote(res.Body))
			} else {
				note = formatByteSize(int64(len(res.Body)))
			}
		}
		took := "-"
		if res.Duration > 0 {
			took = formatDurationShort(res.Duration)
		}
		rows[i] = table.Row{
			strconv.Itoa(res.Index + 1),
			res.Method,
			res.Path,
			status,
			took,
			note,
		}
	}
	return rows
}

func batchBodyNote(body string) string {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "empty error body"
	}
	return trimmed
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

func (m *Model) openConsoleDetail() {
	if len(m.console.results) == 0 {
		return
	}
	cursor := m.console.grid.Cursor()
	if cursor < 0 || cursor >= len(m.console.results) {
		return
	}
	res := m.console.results[cursor]

	var sections []string
	header := fmt.Sprintf("%s %s", res.Method, res.Path)
	switch {
	case res.Skipped:
		sections = append(sections, "skipped, a previous command failed the batch")
	case res.Err != nil:
		sections = append(sections, "ERROR: "+res.Err.Error())
	default:
		sections = append(sections, fmt.Sprintf("status %d · %s", res.Status, formatDurationShort(res.Duration)))
	}
	plain := joinSections(append([]string{header}, sections...)...)
	colored := plain
	if res.Body != "" {
		pretty := prettyJSON(res.Body)
		plain = joinSections(plain, pretty)
		colored = joinSections(colored, highlightJSON(pretty, m.chromaStyle()))
	}

	m.console.detailTitle = fmt.Sprintf("command %d", res.Index+1)
	m.console.detailPlain = plain
	m.console.detail.SetContent(colored)
	m.console.detail.GotoTop()
	m.console.showDetail = true
}

func (m *Model) layoutConsole(width, height int) {
	editorHeight := maxInt(4, height*2/5)
	m.console.editor.SetWidth(width)
	m.console.editor.SetHeight(editorHeight)

	gridHeight := maxInt(3, height-editorHeight-1)
	if m.console.showTrace {
		gridHeight = maxInt(3, gridHeight-traceFooterLines-1)
	}
	m.console.grid.SetColumns(consoleColumns(width))
	m.console.grid.SetWidth(width)
	m.console.grid.SetHeight(gridHeight)

	m.console.detail.Width = width
	m.console.detail.Height = maxInt(3, height-2)
}

const traceFooterLines = 6

func (m Model) renderConsole(width, height int) string {
	if m.console.showDetail {
		title := m.theme.DetailTitle.Render(m.console.detailTitle)
		hint := m.theme.StatusBar.Render("esc close · y copy")
		return joinVertical(title, m.console.detail.View(), hint)
	}

	var divider string
	switch {
	case m.console.running && m.console.progress != nil:
		divider = m.theme.Progress.Render(fmt.Sprintf("running %d/%d",
			m.console.progress.completed, m.console.progress.total))
	case m.console.running:
		divider = m.theme.Progress.Render("running...")
	case len(m.console.results) > 0:
		divider = m.theme.StatusBarValue.Render(fmt.Sprintf("%d results · %s",
			len(m.console.results), formatDurationShort(m.console.took)))
	default:
		divider = m.theme.StatusBar.Render("ctrl+r runs the script with the configured concurrency")
	}

	sections := []string{m.console.editor.View(), divider, m.console.grid.View()}
	if m.console.showTrace {
		sections = append(sections, m.renderTraceFooter(width))
	}
	return joinVertical(sections...)
}

// renderTraceFooter shows the most recent wire calls across every tab, the
// console's view into the shared observer.
func (m Model) renderTraceFooter(width int) string {
	events := m.trace.Tail(traceFooterLines - 1)
	lines := make([]string, 0, len(events)+1)
	lines = append(lines, m.theme.DetailTitle.Render(fmt.Sprintf("wire trace (%d calls)", m.trace.Count())))
	for _, ev := range events {
		lines = append(lines, truncateToWidth(formatTraceEvent(ev, m.theme), maxInt(width, 10)))
	}
	return strings.Join(lines, "\n")
}

func formatTraceEvent(ev wire.Event, th theme.Theme) string {
	status := "ERR"
	if ev.Err == nil {
		status = strconv.Itoa(ev.Status)
	}
	line := fmt.Sprintf("%s %s %s %s %s %s",
		ev.Time.Format("15:04:05"),
		styledMethod(th, ev.Method),
		ev.URL,
		status,
		formatDurationShort(ev.Duration),
		formatByteSize(int64(ev.Bytes)),
	)
	if ev.Err != nil {
		line += " " + th.Error.Render(firstLine(ev.Err.Error()))
	}
	return line
}

func styledMethod(th theme.Theme, method string) string {
	style := th.StatusBarValue.Foreground(th.MethodColors.For(method))
	return style.Render(fmt.Sprintf("%-6s", method))
}
