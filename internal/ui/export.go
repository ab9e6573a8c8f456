package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/esterm/internal/batch"
	"github.com/unkn0wn-root/esterm/internal/export"
)

type exportTarget int

const (
	exportNone exportTarget = iota
	exportBrowse
	exportQuery
	exportConsole
)

type exportState struct {
	active  bool
	target  exportTarget
	input   textinput.Model
	errText string
	lastDir string
}

func newExportState() exportState {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 0
	input.Placeholder = "~/exports/hits.ndjson"
	return exportState{input: input}
}

func (m *Model) openExport(target exportTarget) tea.Cmd {
	name := ""
	switch target {
	case exportBrowse:
		if m.browse.result == nil || len(m.browse.result.Envelope.Hits.Hits) == 0 {
			m.setStatus(statusInfo, "Nothing to export, fetch a page first")
			return nil
		}
		name = "hits.json"
	case exportQuery:
		if len(m.query.raw) == 0 {
			m.setStatus(statusInfo, "Nothing to export, run a query first")
			return nil
		}
		name = "sql_result.json"
	case exportConsole:
		if len(m.console.results) == 0 {
			m.setStatus(statusInfo, "Nothing to export, run a script first")
			return nil
		}
		name = "batch_results.json"
	default:
		return nil
	}

	base := strings.TrimSpace(m.export.lastDir)
	if base == "" {
		if cwd, err := os.Getwd(); err == nil {
			base = cwd
		} else {
			base = "."
		}
	}

	m.export.active = true
	m.export.target = target
	m.export.errText = ""
	m.export.input.SetValue(filepath.Join(base, name))
	m.export.input.CursorEnd()
	m.export.input.Focus()
	return nil
}

func (m *Model) closeExport() {
	m.export.active = false
	m.export.target = exportNone
	m.export.errText = ""
	m.export.input.Blur()
	m.export.input.SetValue("")
}

func (m *Model) updateExport(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.closeExport()
			return nil
		case "enter":
			m.submitExport()
			return nil
		}
	}
	var cmd tea.Cmd
	m.export.input, cmd = m.export.input.Update(msg)
	return cmd
}

func (m *Model) submitExport() {
	input := strings.TrimSpace(m.export.input.Value())
	if input == "" {
		m.export.errText = "Enter a path"
		return
	}
	resolved, err := m.resolveExportPath(input)
	if err != nil {
		m.export.errText = err.Error()
		return
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		m.export.errText = fmt.Sprintf("create directories: %v", err)
		return
	}
	finalPath, err := ensureUniquePath(resolved)
	if err != nil {
		m.export.errText = fmt.Sprintf("resolve path: %v", err)
		return
	}

	format := export.ForPath(finalPath)
	var data []byte
	switch m.export.target {
	case exportBrowse:
		data, err = export.Hits(m.browse.result.Envelope.Hits.Hits, format)
	case exportQuery:
		data, err = export.Body(m.query.raw, format)
	case exportConsole:
		raw, merr := json.Marshal(batchResultViews(m.console.results))
		if merr != nil {
			err = merr
			break
		}
		data, err = export.Body(raw, format)
	}
	if err != nil {
		m.export.errText = err.Error()
		return
	}
	if err := export.WriteFile(finalPath, data); err != nil {
		m.export.errText = err.Error()
		return
	}

	m.export.lastDir = filepath.Dir(finalPath)
	m.closeExport()
	m.setStatus(statusSuccess, "Saved %s to %s", formatByteSize(int64(len(data))), finalPath)
}

func (m *Model) resolveExportPath(input string) (string, error) {
	path := expandHome(input)
	if !filepath.IsAbs(path) {
		base := strings.TrimSpace(m.export.lastDir)
		if base == "" {
			if cwd, err := os.Getwd(); err == nil {
				base = cwd
			}
		}
		if base != "" {
			path = filepath.Join(base, path)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return abs, nil
}

// batchResultView is the on-disk shape of one console result. Errors
// flatten to text so the output stays plain JSON.
type batchResultView struct {
	Index      int    `json:"index"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status,omitempty"`
	OK         bool   `json:"ok"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Body       string `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
}

func batchResultViews(results []batch.Result) []batchResultView {
	views := make([]batchResultView, len(results))
	for i, res := range results {
		view := batchResultView{
			Index:      res.Index + 1,
			Method:     res.Method,
			Path:       res.Path,
			Status:     res.Status,
			OK:         res.OK,
			DurationMS: res.Duration.Milliseconds(),
			Body:       res.Body,
			Skipped:    res.Skipped,
		}
		if res.Err != nil {
			view.Error = res.Err.Error()
		}
		views[i] = view
	}
	return views
}

func (m Model) renderExport(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.DetailTitle.Render("Export"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.InputLabel.Render("Path (.json, .ndjson, .yaml)"))
	b.WriteString("\n")
	b.WriteString(m.export.input.View())
	b.WriteString("\n")
	if m.export.errText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Error.Render(truncateToWidth(m.export.errText, maxInt(width-2, 10))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.StatusBar.Render("enter save · esc cancel"))
	return m.theme.DetailBorder.Render(b.String())
}

func ensureUniquePath(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ext := filepath.Ext(path)
	for i := 1; i < 1000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not create unique path for %s", path)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if len(path) == 1 {
		return home
	}
	remainder := path[1:]
	remainder = strings.TrimPrefix(remainder, string(filepath.Separator))
	remainder = strings.TrimPrefix(remainder, "/")
	if remainder == "" {
		return home
	}
	return filepath.Join(home, remainder)
}
