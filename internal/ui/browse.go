package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"

	"github.com/unkn0wn-root/esterm/internal/config"
	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/paging"
	"github.com/unkn0wn-root/esterm/internal/query"
	"github.com/unkn0wn-root/esterm/internal/theme"
)

const (
	browseFieldIndex = iota
	browseFieldFilter
	browseFieldSort
	browseFieldPage
	browseFieldSize
	browseFieldCount
)

// browseFocusHits puts the keyboard on the hit table instead of an input.
const browseFocusHits = browseFieldCount

type browseState struct {
	inputs [browseFieldCount]textinput.Model
	focus  int

	hits        table.Model
	detail      viewport.Model
	showDetail  bool
	detailTitle string
	detailPlain string

	result *paging.Result
	page   int
	size   int
	took   time.Duration

	fetching bool
	cancel   context.CancelFunc
	progress *pagingProgressMsg

	diffMarkID   string
	diffMarkBody string
}

func newBrowseState(th theme.Theme, pageSize int) browseState {
	if pageSize < 1 {
		pageSize = config.PageSizeDefault
	}
	placeholders := [browseFieldCount]string{
		"logs-*",
		"level:error AND service:checkout",
		"timestamp:desc",
		"1",
		strconv.Itoa(pageSize),
	}
	s := browseState{page: 1, size: pageSize}
	for i := 0; i < browseFieldCount; i++ {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.Prompt = ""
		input.CharLimit = 0
		s.inputs[i] = input
	}
	s.inputs[browseFieldPage].SetValue("1")
	s.inputs[browseFieldSize].SetValue(strconv.Itoa(pageSize))
	s.inputs[browseFieldIndex].Focus()

	s.hits = table.New(
		table.WithColumns(browseColumns(80)),
		table.WithHeight(10),
	)
	s.hits.SetStyles(tableStylesForTheme(th))
	s.detail = viewport.New(0, 0)
	return s
}

func browseColumns(width int) []table.Column {
	id := minInt(28, maxInt(12, width/4))
	index := minInt(24, maxInt(10, width/5))
	score := 8
	preview := maxInt(10, width-id-index-score-6)
	return []table.Column{
		{Title: "ID", Width: id},
		{Title: "Index", Width: index},
		{Title: "Score", Width: score},
		{Title: "Source", Width: preview},
	}
}

func (s *browseState) setFocus(idx int) {
	if idx < 0 {
		idx = browseFocusHits
	}
	if idx > browseFocusHits {
		idx = 0
	}
	for i := range s.inputs {
		s.inputs[i].Blur()
	}
	s.hits.Blur()
	s.focus = idx
	if idx == browseFocusHits {
		s.hits.Focus()
		return
	}
	s.inputs[idx].Focus()
}

func (m *Model) updateBrowse(msg tea.Msg) tea.Cmd {
	if m.browse.showDetail {
		return m.updateBrowseDetail(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab":
			m.browse.setFocus(m.browse.focus + 1)
			return nil
		case "shift+tab":
			m.browse.setFocus(m.browse.focus - 1)
			return nil
		case "ctrl+x":
			if m.browse.cancel != nil {
				m.browse.cancel()
			}
			return nil
		case "enter":
			if m.browse.focus == browseFocusHits {
				m.openBrowseDetail()
				return nil
			}
			return m.startBrowseFetch(0)
		}

		if m.browse.focus == browseFocusHits {
			switch keyMsg.String() {
			case "n", "right":
				return m.startBrowseFetch(1)
			case "p", "left":
				return m.startBrowseFetch(-1)
			case "o":
				next, err := toggleSortSpec(m.browse.inputs[browseFieldSort].Value())
				if err != nil {
					m.setStatus(statusError, "%v", err)
					return nil
				}
				m.browse.inputs[browseFieldSort].SetValue(next)
				return m.startBrowseFetch(0)
			case "x":
				if m.browse.cancel != nil {
					m.browse.cancel()
				}
				return nil
			case "y":
				m.yankSelectedHit()
				return nil
			case "s":
				return m.openExport(exportBrowse)
			case "D":
				m.markOrDiffSelectedHit()
				return nil
			}
		}
	}

	if m.browse.focus == browseFocusHits {
		var cmd tea.Cmd
		m.browse.hits, cmd = m.browse.hits.Update(msg)
		return cmd
	}
	var cmd tea.Cmd
	m.browse.inputs[m.browse.focus], cmd = m.browse.inputs[m.browse.focus].Update(msg)
	return cmd
}

func (m *Model) updateBrowseDetail(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q":
			m.browse.showDetail = false
			m.applyLayout()
			return nil
		case "y":
			if err := clipboard.WriteAll(m.browse.detailPlain); err != nil {
				m.setStatus(statusWarn, "clipboard: %v", err)
			} else {
				m.setStatus(statusSuccess, "Copied %s", m.browse.detailTitle)
			}
			return nil
		}
	}
	var cmd tea.Cmd
	m.browse.detail, cmd = m.browse.detail.Update(msg)
	return cmd
}

// browseSpec reads the form into a page spec. The page delta lets n/p reuse
// the form values while moving one page at a time.
func (m *Model) browseSpec(pageDelta int) (paging.PageSpec, error) {
	index := strings.TrimSpace(m.browse.inputs[browseFieldIndex].Value())
	if _, err := query.SearchPath(index); err != nil {
		return paging.PageSpec{}, err
	}
	filter, err := query.Filter(m.browse.inputs[browseFieldFilter].Value())
	if err != nil {
		return paging.PageSpec{}, err
	}
	sort, err := parseSortSpec(m.browse.inputs[browseFieldSort].Value())
	if err != nil {
		return paging.PageSpec{}, err
	}
	page, err := parseBoundedInt(m.browse.inputs[browseFieldPage].Value(), "page", 1, 0)
	if err != nil {
		return paging.PageSpec{}, err
	}
	size, err := parseBoundedInt(m.browse.inputs[browseFieldSize].Value(), "size", 1, config.PageSizeMax)
	if err != nil {
		return paging.PageSpec{}, err
	}

	page += pageDelta
	if page < 1 {
		page = 1
	}
	return paging.PageSpec{Index: index, Query: filter, Sort: sort, Page: page, Size: size}, nil
}

func (m *Model) startBrowseFetch(pageDelta int) tea.Cmd {
	if m.browse.fetching {
		m.setStatus(statusWarn, "A fetch is already running, x cancels it")
		return nil
	}
	if !m.connected {
		m.setStatus(statusWarn, "Connect to a cluster first")
		return nil
	}
	spec, err := m.browseSpec(pageDelta)
	if err != nil {
		m.setStatus(statusError, "%v", err)
		return nil
	}
	m.browse.inputs[browseFieldPage].SetValue(strconv.Itoa(spec.Page))

	ctx, cancel := context.WithCancel(context.Background())
	m.browse.fetching = true
	m.browse.cancel = cancel
	m.browse.progress = nil
	m.setStatus(statusInfo, "Fetching %s page %d...", spec.Index, spec.Page)

	pager := &paging.Pager{
		Client:   m.clients.browse,
		Build:    m.desc.Request,
		Progress: m.pagingProgress(),
	}
	return func() tea.Msg {
		defer cancel()
		started := time.Now()
		result, err := pager.Fetch(ctx, spec)
		return pageFetchedMsg{
			result: result,
			page:   spec.Page,
			size:   spec.Size,
			took:   time.Since(started),
			err:    err,
		}
	}
}

// pagingProgress bridges walk progress into the update loop. The send never
// blocks; a skipped tick is invisible next to the thousands that follow.
func (m *Model) pagingProgress() paging.ProgressFunc {
	ch := m.progressChan
	return func(stage paging.Stage, processed, target int) {
		select {
		case ch <- pagingProgressMsg{stage: stage, processed: processed, target: target}:
		default:
		}
	}
}

func (m *Model) handleBrowseFetched(msg pageFetchedMsg) {
	m.browse.fetching = false
	m.browse.cancel = nil
	m.browse.progress = nil

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			m.setStatus(statusWarn, "Fetch cancelled")
		} else {
			m.setStatus(statusError, "fetch: %v", msg.err)
		}
		return
	}

	m.browse.result = msg.result
	m.browse.page = msg.page
	m.browse.size = msg.size
	m.browse.took = msg.took
	m.browse.hits.SetRows(browseRows(msg.result.Envelope.Hits.Hits))
	m.browse.hits.GotoTop()
	m.browse.setFocus(browseFocusHits)

	hits := msg.result.Envelope.Hits
	m.setStatus(statusSuccess, "Page %d · %d of %s hits · %d calls · %s",
		msg.page, len(hits.Hits), formatTotal(hits.Total), msg.result.Calls, formatDurationShort(msg.took))
}

func browseRows(hits []esapi.Hit) []table.Row {
	rows := make([]table.Row, len(hits))
	for i, hit := range hits {
		score := "-"
		if hit.Score != nil {
			score = strconv.FormatFloat(*hit.Score, 'f', 2, 64)
		}
		rows[i] = table.Row{hit.ID, hit.Index, score, compactPreview(hit.Source, 200)}
	}
	return rows
}

// compactPreview flattens a source document onto one line for its table
// cell. Truncation counts grapheme clusters, not bytes.
func compactPreview(raw []byte, limit int) string {
	text := strings.Join(strings.Fields(string(raw)), " ")
	graphemes := uniseg.NewGraphemes(text)
	taken, end := 0, 0
	for taken < limit && graphemes.Next() {
		_, end = graphemes.Positions()
		taken++
	}
	if graphemes.Next() {
		return text[:end]
	}
	return text
}

func (m *Model) currentHit() (esapi.Hit, bool) {
	if m.browse.result == nil {
		return esapi.Hit{}, false
	}
	hits := m.browse.result.Envelope.Hits.Hits
	cursor := m.browse.hits.Cursor()
	if cursor < 0 || cursor >= len(hits) {
		return esapi.Hit{}, false
	}
	return hits[cursor], true
}

func (m *Model) openBrowseDetail() {
	hit, ok := m.currentHit()
	if !ok {
		return
	}
	plain := prettyJSON(string(hit.Source))
	m.browse.detailTitle = hit.ID
	m.browse.detailPlain = plain
	m.browse.showDetail = true
	m.applyLayout()
	m.browse.detail.SetContent(highlightJSON(plain, m.chromaStyle()))
	m.browse.detail.GotoTop()
}

func (m *Model) yankSelectedHit() {
	hit, ok := m.currentHit()
	if !ok {
		return
	}
	if err := clipboard.WriteAll(prettyJSON(string(hit.Source))); err != nil {
		m.setStatus(statusWarn, "clipboard: %v", err)
		return
	}
	m.setStatus(statusSuccess, "Copied document %s", hit.ID)
}

// markOrDiffSelectedHit implements the two-press diff: the first press marks
// the selected document, the second diffs the mark against the selection.
func (m *Model) markOrDiffSelectedHit() {
	hit, ok := m.currentHit()
	if !ok {
		return
	}
	body := prettyJSON(string(hit.Source))
	if m.browse.diffMarkID == "" {
		m.browse.diffMarkID = hit.ID
		m.browse.diffMarkBody = body
		m.setStatus(statusInfo, "Marked %s, press D on another document to diff", hit.ID)
		return
	}

	diff := computeDiff(m.browse.diffMarkID, hit.ID, m.browse.diffMarkBody, body, m.theme)
	m.browse.detailTitle = fmt.Sprintf("diff %s vs %s", m.browse.diffMarkID, hit.ID)
	m.browse.detailPlain = diff.plain
	m.browse.showDetail = true
	m.applyLayout()
	m.browse.detail.SetContent(diff.colored)
	m.browse.detail.GotoTop()
	m.browse.diffMarkID = ""
	m.browse.diffMarkBody = ""
}

func parseSortSpec(text string) ([]esapi.SortField, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var fields []esapi.SortField
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, order, found := strings.Cut(part, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, fmt.Errorf("sort entry %q has no field", part)
		}
		spec := esapi.SortField{Field: field, Order: esapi.SortAsc}
		if found {
			switch strings.ToLower(strings.TrimSpace(order)) {
			case esapi.SortAsc, "":
			case esapi.SortDesc:
				spec.Order = esapi.SortDesc
			default:
				return nil, fmt.Errorf("sort order %q must be asc or desc", order)
			}
		}
		fields = append(fields, spec)
	}
	return fields, nil
}

// toggleSortSpec flips the direction of the leading sort field and renders
// the spec back to form text. An empty spec sorts by the id tie-break, so
// the first toggle lands on the newest ids.
func toggleSortSpec(text string) (string, error) {
	fields, err := parseSortSpec(text)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "_id:" + esapi.SortDesc, nil
	}
	if fields[0].Order == esapi.SortDesc {
		fields[0].Order = esapi.SortAsc
	} else {
		fields[0].Order = esapi.SortDesc
	}
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field.Field + ":" + field.Order
	}
	return strings.Join(parts, ", "), nil
}

func parseBoundedInt(text, name string, min, max int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, text)
	}
	if value < min {
		return 0, fmt.Errorf("%s must be >= %d, got %d", name, min, value)
	}
	if max > 0 && value > max {
		return 0, fmt.Errorf("%s must be <= %d, got %d", name, max, value)
	}
	return value, nil
}

func formatTotal(total esapi.Total) string {
	if total.Relation == esapi.RelationGte {
		return fmt.Sprintf(">=%d", total.Value)
	}
	return strconv.FormatInt(total.Value, 10)
}

// layoutBrowse sizes the form, the hit table, and the detail pane. With the
// detail open the table and detail share the area according to the layout
// settings; a vertical split puts them side by side.
func (m *Model) layoutBrowse(width, height int) {
	labelled := maxInt(10, (width-24)/3)
	m.browse.inputs[browseFieldIndex].Width = labelled
	m.browse.inputs[browseFieldFilter].Width = maxInt(10, width-labelled-20)
	m.browse.inputs[browseFieldSort].Width = labelled
	m.browse.inputs[browseFieldPage].Width = 6
	m.browse.inputs[browseFieldSize].Width = 6

	tableWidth := width
	tableHeight := maxInt(3, height-4)
	detailWidth := width
	detailHeight := maxInt(3, height-2)
	if m.browse.showDetail {
		layout := m.settings.Layout
		if layout.DetailOrientation == config.LayoutDetailSplitVertical {
			detailWidth = maxInt(20, int(float64(width)*layout.DetailRatio))
			tableWidth = maxInt(20, width-detailWidth-1)
		} else {
			detailHeight = maxInt(3, int(float64(height)*layout.DetailRatio))
			tableHeight = maxInt(3, height-detailHeight-2)
		}
	}

	m.browse.hits.SetColumns(browseColumns(tableWidth))
	m.browse.hits.SetWidth(tableWidth)
	m.browse.hits.SetHeight(tableHeight)

	m.browse.detail.Width = detailWidth
	m.browse.detail.Height = detailHeight
}

func (m Model) renderBrowse(width, height int) string {
	if m.browse.showDetail {
		title := m.theme.DetailTitle.Render(m.browse.detailTitle)
		hint := m.theme.StatusBar.Render("esc close · y copy")
		pane := joinVertical(title, m.browse.detail.View(), hint)
		if m.settings.Layout.DetailOrientation == config.LayoutDetailSplitVertical {
			return lipgloss.JoinHorizontal(lipgloss.Top, m.browse.hits.View(), " ", pane)
		}
		return joinVertical(m.browse.hits.View(), pane)
	}

	labels := m.theme.InputLabel
	formTop := joinHorizontalGap(
		labels.Render("Index")+" "+m.browse.inputs[browseFieldIndex].View(),
		labels.Render("Filter")+" "+m.browse.inputs[browseFieldFilter].View(),
	)
	formBottom := joinHorizontalGap(
		labels.Render("Sort")+" "+m.browse.inputs[browseFieldSort].View(),
		labels.Render("Page")+" "+m.browse.inputs[browseFieldPage].View(),
		labels.Render("Size")+" "+m.browse.inputs[browseFieldSize].View(),
	)

	var summary string
	switch {
	case m.browse.fetching:
		summary = m.renderPagingProgress(width)
	case m.browse.result != nil:
		hits := m.browse.result.Envelope.Hits
		parts := []string{
			fmt.Sprintf("page %d", m.browse.page),
			fmt.Sprintf("%d of %s hits", len(hits.Hits), formatTotal(hits.Total)),
			fmt.Sprintf("%d calls", m.browse.result.Calls),
			formatDurationShort(m.browse.took),
		}
		if m.browse.result.Skipped > 0 {
			parts = append(parts, fmt.Sprintf("%d skipped by cursor walk", m.browse.result.Skipped))
		}
		summary = m.theme.StatusBarValue.Render(strings.Join(parts, " · "))
	default:
		summary = m.theme.StatusBar.Render("Set an index and press enter to fetch")
	}

	return joinVertical(formTop, formBottom, summary, m.browse.hits.View())
}

func (m Model) renderPagingProgress(width int) string {
	p := m.browse.progress
	if p == nil {
		return m.theme.Progress.Render("starting fetch...")
	}
	label := fmt.Sprintf("%s %d/%d", p.stage, p.processed, p.target)
	barWidth := width - len(label) - 4
	if barWidth > 8 && p.target > 0 {
		filled := barWidth * p.processed / p.target
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		return m.theme.Progress.Render(label + " " + bar)
	}
	return m.theme.Progress.Render(label)
}

func joinHorizontalGap(parts ...string) string {
	return strings.Join(parts, "   ")
}
