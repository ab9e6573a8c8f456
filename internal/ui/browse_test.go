package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

const searchPageFixture = `{
	"took": 3,
	"hits": {
		"total": {"value": 2, "relation": "eq"},
		"hits": [
			{"_id": "a", "_index": "logs", "_score": 1.5, "_source": {"level": "error", "service": "checkout"}},
			{"_id": "b", "_index": "logs", "_source": {"level": "info"}}
		]
	}
}`

func TestParseSortSpec(t *testing.T) {
	fields, err := parseSortSpec("timestamp:desc, level")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 sort fields, got %d", len(fields))
	}
	if fields[0].Field != "timestamp" || fields[0].Order != esapi.SortDesc {
		t.Fatalf("unexpected first field: %+v", fields[0])
	}
	if fields[1].Field != "level" || fields[1].Order != esapi.SortAsc {
		t.Fatalf("expected asc default, got %+v", fields[1])
	}
}

func TestParseSortSpecEmpty(t *testing.T) {
	fields, err := parseSortSpec("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields != nil {
		t.Fatalf("expected nil fields for blank spec, got %+v", fields)
	}
}

func TestParseSortSpecRejectsBadOrder(t *testing.T) {
	if _, err := parseSortSpec("timestamp:sideways"); err == nil {
		t.Fatalf("expected error for unknown order")
	}
	if _, err := parseSortSpec(":desc"); err == nil {
		t.Fatalf("expected error for missing field")
	}
}

func TestParseBoundedInt(t *testing.T) {
	if _, err := parseBoundedInt("abc", "page", 1, 0); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
	if _, err := parseBoundedInt("0", "page", 1, 0); err == nil {
		t.Fatalf("expected error below minimum")
	}
	if _, err := parseBoundedInt("10001", "size", 1, 10000); err == nil {
		t.Fatalf("expected error above maximum")
	}
	value, err := parseBoundedInt(" 42 ", "page", 1, 0)
	if err != nil || value != 42 {
		t.Fatalf("expected 42, got %d err %v", value, err)
	}
}

func TestCompactPreviewCollapsesWhitespace(t *testing.T) {
	raw := []byte("{\n  \"a\": 1,\n  \"b\": 2\n}")
	preview := compactPreview(raw, 200)
	if strings.Contains(preview, "\n") {
		t.Fatalf("expected newlines collapsed, got %q", preview)
	}
	if preview != `{ "a": 1, "b": 2 }` {
		t.Fatalf("unexpected preview: %q", preview)
	}
	if got := compactPreview([]byte("0123456789"), 4); got != "0123" {
		t.Fatalf("expected truncation at limit, got %q", got)
	}
	if got := compactPreview([]byte("héllo wörld"), 6); got != "héllo " {
		t.Fatalf("expected grapheme-safe truncation, got %q", got)
	}
}

func TestFormatTotal(t *testing.T) {
	if got := formatTotal(esapi.Total{Value: 42, Relation: "eq"}); got != "42" {
		t.Fatalf("unexpected total: %q", got)
	}
	if got := formatTotal(esapi.Total{Value: 10000, Relation: esapi.RelationGte}); got != ">=10000" {
		t.Fatalf("unexpected gte total: %q", got)
	}
}

func TestBrowseSpecValidation(t *testing.T) {
	model := newTestModel(t, nil)

	if _, err := model.browseSpec(0); err == nil {
		t.Fatalf("expected error for empty index pattern")
	}

	model.browse.inputs[browseFieldIndex].SetValue("logs-*")
	model.browse.inputs[browseFieldPage].SetValue("0")
	if _, err := model.browseSpec(0); err == nil {
		t.Fatalf("expected error for page below 1")
	}

	model.browse.inputs[browseFieldPage].SetValue("3")
	model.browse.inputs[browseFieldSort].SetValue("timestamp:desc")
	spec, err := model.browseSpec(-1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Index != "logs-*" || spec.Page != 2 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if spec.Size != 50 {
		t.Fatalf("expected default page size, got %d", spec.Size)
	}
}

func TestBrowseFetchPopulatesTable(t *testing.T) {
	client := &scriptedClient{replies: []*wire.Response{okResponse(searchPageFixture)}}
	model := newTestModel(t, client)
	attachClient(model, client)
	applyMsg(t, model, tea.WindowSizeMsg{Width: 120, Height: 36})
	model.browse.inputs[browseFieldIndex].SetValue("logs")

	cmd := model.startBrowseFetch(0)
	if cmd == nil {
		t.Fatalf("expected fetch command")
	}
	if !model.browse.fetching {
		t.Fatalf("expected fetching flag set")
	}

	applyMsg(t, model, cmd())
	if model.browse.fetching {
		t.Fatalf("expected fetching flag cleared")
	}
	rows := model.browse.hits.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "a" || rows[1][0] != "b" {
		t.Fatalf("unexpected row ids: %v, %v", rows[0], rows[1])
	}
	if rows[0][2] != "1.50" {
		t.Fatalf("expected formatted score, got %q", rows[0][2])
	}
	if rows[1][2] != "-" {
		t.Fatalf("expected dash for missing score, got %q", rows[1][2])
	}
	if !strings.Contains(model.statusMessage.text, "Page 1") {
		t.Fatalf("unexpected status: %q", model.statusMessage.text)
	}
	if !strings.Contains(model.statusMessage.text, "2 of 2 hits") {
		t.Fatalf("unexpected status: %q", model.statusMessage.text)
	}
}

func TestBrowseFetchErrorSetsStatus(t *testing.T) {
	client := &scriptedClient{
		replies: []*wire.Response{{Status: 404, OK: false, Body: []byte(`{"error":{"reason":"no such index"}}`)}},
	}
	model := newTestModel(t, client)
	attachClient(model, client)
	model.browse.inputs[browseFieldIndex].SetValue("missing")

	cmd := model.startBrowseFetch(0)
	applyMsg(t, model, cmd())

	if model.statusMessage.level != statusError {
		t.Fatalf("expected error status, got %v", model.statusMessage.level)
	}
	if !strings.Contains(model.statusMessage.text, "no such index") {
		t.Fatalf("expected engine reason in status, got %q", model.statusMessage.text)
	}
}

func TestBrowseFetchCancelledStatus(t *testing.T) {
	model := newTestModel(t, nil)
	model.browse.fetching = true
	model.handleBrowseFetched(pageFetchedMsg{err: context.Canceled})

	if model.browse.fetching {
		t.Fatalf("expected fetching cleared")
	}
	if !strings.Contains(model.statusMessage.text, "cancelled") {
		t.Fatalf("expected cancel status, got %q", model.statusMessage.text)
	}
}

func TestBrowseDetailOpensForSelectedHit(t *testing.T) {
	client := &scriptedClient{replies: []*wire.Response{okResponse(searchPageFixture)}}
	model := newTestModel(t, client)
	attachClient(model, client)
	applyMsg(t, model, tea.WindowSizeMsg{Width: 120, Height: 36})
	model.browse.inputs[browseFieldIndex].SetValue("logs")

	cmd := model.startBrowseFetch(0)
	applyMsg(t, model, cmd())

	model.openBrowseDetail()
	if !model.browse.showDetail {
		t.Fatalf("expected detail open")
	}
	if model.browse.detailTitle != "a" {
		t.Fatalf("expected detail title from hit id, got %q", model.browse.detailTitle)
	}
	if !strings.Contains(model.browse.detailPlain, "checkout") {
		t.Fatalf("expected pretty source in detail, got %q", model.browse.detailPlain)
	}
}

func TestDiffMarkThenDiff(t *testing.T) {
	client := &scriptedClient{replies: []*wire.Response{okResponse(searchPageFixture)}}
	model := newTestModel(t, client)
	attachClient(model, client)
	applyMsg(t, model, tea.WindowSizeMsg{Width: 120, Height: 36})
	model.browse.inputs[browseFieldIndex].SetValue("logs")

	cmd := model.startBrowseFetch(0)
	applyMsg(t, model, cmd())

	model.markOrDiffSelectedHit()
	if model.browse.diffMarkID != "a" {
		t.Fatalf("expected first press to mark, got %q", model.browse.diffMarkID)
	}
	if model.browse.showDetail {
		t.Fatalf("expected no detail after marking")
	}

	model.browse.hits.SetCursor(1)
	model.markOrDiffSelectedHit()
	if !model.browse.showDetail {
		t.Fatalf("expected diff detail open")
	}
	if model.browse.detailTitle != "diff a vs b" {
		t.Fatalf("unexpected diff title: %q", model.browse.detailTitle)
	}
	if model.browse.diffMarkID != "" {
		t.Fatalf("expected mark cleared after diff")
	}
	plain := model.browse.detailPlain
	if !strings.Contains(plain, "-") || !strings.Contains(plain, "+") {
		t.Fatalf("expected unified diff markers, got %q", plain)
	}
}

func TestRenderPagingProgressBar(t *testing.T) {
	model := newTestModel(t, nil)
	model.browse.progress = &pagingProgressMsg{stage: "skipping", processed: 5000, target: 10000}

	line := ansi.Strip(model.renderPagingProgress(60))
	if !strings.Contains(line, "skipping") || !strings.Contains(line, "5000/10000") {
		t.Fatalf("unexpected progress line: %q", line)
	}
}

func TestToggleSortSpec(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "_id:desc"},
		{"timestamp:desc", "timestamp:asc"},
		{"timestamp:asc, level", "timestamp:desc, level:asc"},
	}
	for _, tc := range cases {
		got, err := toggleSortSpec(tc.in)
		if err != nil {
			t.Fatalf("toggleSortSpec(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("toggleSortSpec(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := toggleSortSpec(":desc"); err == nil {
		t.Fatalf("expected error for malformed spec")
	}
}

func TestBrowseDetailSplitsLayout(t *testing.T) {
	client := &scriptedClient{replies: []*wire.Response{okResponse(searchPageFixture)}}
	model := newTestModel(t, client)
	attachClient(model, client)
	applyMsg(t, model, tea.WindowSizeMsg{Width: 120, Height: 36})
	model.browse.inputs[browseFieldIndex].SetValue("logs")

	cmd := model.startBrowseFetch(0)
	applyMsg(t, model, cmd())

	fullWidth := model.browse.detail.Width
	model.openBrowseDetail()
	split := maxInt(20, int(float64(model.width)*model.settings.Layout.DetailRatio))
	if model.browse.detail.Width != split {
		t.Fatalf("expected detail width %d while split, got %d", split, model.browse.detail.Width)
	}

	applyMsg(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	if model.browse.showDetail {
		t.Fatalf("expected esc to close the detail")
	}
	if model.browse.detail.Width != fullWidth {
		t.Fatalf("expected detail width restored to %d, got %d", fullWidth, model.browse.detail.Width)
	}
}
