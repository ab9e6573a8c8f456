package ui

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/esterm/internal/batch"
	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/paging"
)

func browseResultFixture() *paging.Result {
	return &paging.Result{
		Envelope: esapi.SearchResponse{
			Hits: esapi.HitsEnvelope{
				Total: esapi.Total{Value: 1, Relation: "eq"},
				Hits: []esapi.Hit{
					{ID: "a", Index: "logs", Source: json.RawMessage(`{"level":"error"}`)},
				},
			},
		},
		Calls: 1,
	}
}

func TestOpenExportRequiresContent(t *testing.T) {
	model := newTestModel(t, nil)

	model.openExport(exportBrowse)
	if model.export.active {
		t.Fatalf("expected export closed without a fetched page")
	}
	if !strings.Contains(model.statusMessage.text, "fetch a page first") {
		t.Fatalf("unexpected status: %q", model.statusMessage.text)
	}

	model.openExport(exportConsole)
	if !strings.Contains(model.statusMessage.text, "run a script first") {
		t.Fatalf("unexpected status: %q", model.statusMessage.text)
	}
}

func TestOpenExportSeedsPath(t *testing.T) {
	model := newTestModel(t, nil)
	model.browse.result = browseResultFixture()
	model.export.lastDir = t.TempDir()

	model.openExport(exportBrowse)
	if !model.export.active {
		t.Fatalf("expected export modal open")
	}
	want := filepath.Join(model.export.lastDir, "hits.json")
	if got := model.export.input.Value(); got != want {
		t.Fatalf("expected seeded path %q, got %q", want, got)
	}
}

func TestSubmitExportWritesHits(t *testing.T) {
	model := newTestModel(t, nil)
	model.browse.result = browseResultFixture()
	dir := t.TempDir()

	model.openExport(exportBrowse)
	model.export.input.SetValue(filepath.Join(dir, "out.ndjson"))
	model.submitExport()

	if model.export.active {
		t.Fatalf("expected modal closed after save, err %q", model.export.errText)
	}
	if !strings.Contains(model.statusMessage.text, "Saved") {
		t.Fatalf("unexpected status: %q", model.statusMessage.text)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.ndjson"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var doc map[string]any
	if err := json.Unmarshal([]byte(line), &doc); err != nil {
		t.Fatalf("parse ndjson line: %v", err)
	}
	if doc["_id"] != "a" {
		t.Fatalf("unexpected exported doc: %v", doc)
	}
	if model.export.lastDir != dir {
		t.Fatalf("expected lastDir remembered, got %q", model.export.lastDir)
	}
}

func TestSubmitExportConsoleResults(t *testing.T) {
	model := newTestModel(t, nil)
	model.console.results = []batch.Result{
		{Index: 0, Method: "GET", Path: "/_cat/health", Status: 200, OK: true, Body: `{"ok":true}`, Duration: 5 * time.Millisecond},
		{Index: 1, Method: "PUT", Path: "/idx", Err: errors.New("boom")},
	}
	dir := t.TempDir()

	model.openExport(exportConsole)
	model.export.input.SetValue(filepath.Join(dir, "results.json"))
	model.submitExport()

	data, err := os.ReadFile(filepath.Join(dir, "results.json"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var views []batchResultView
	if err := json.Unmarshal(data, &views); err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected two entries, got %d", len(views))
	}
	if views[0].Index != 1 || views[0].Status != 200 {
		t.Fatalf("unexpected first view: %+v", views[0])
	}
	if views[1].Error != "boom" {
		t.Fatalf("expected flattened error, got %+v", views[1])
	}
}

func TestSubmitExportYAML(t *testing.T) {
	model := newTestModel(t, nil)
	model.browse.result = browseResultFixture()
	dir := t.TempDir()

	model.openExport(exportBrowse)
	model.export.input.SetValue(filepath.Join(dir, "out.yaml"))
	model.submitExport()

	if model.export.active {
		t.Fatalf("expected modal closed after save, err %q", model.export.errText)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.yaml"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "_id: a") {
		t.Fatalf("unexpected yaml output:\n%s", data)
	}
}

func TestResolveExportPathRelativeToLastDir(t *testing.T) {
	model := newTestModel(t, nil)
	dir := t.TempDir()
	model.export.lastDir = dir

	resolved, err := model.resolveExportPath("nested/out.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != filepath.Join(dir, "nested", "out.json") {
		t.Fatalf("unexpected path: %q", resolved)
	}
}

func TestEnsureUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	unique, err := ensureUniquePath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unique != path {
		t.Fatalf("expected untouched path, got %q", unique)
	}

	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	unique, err = ensureUniquePath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unique != filepath.Join(dir, "out_1.json") {
		t.Fatalf("expected suffixed path, got %q", unique)
	}
}

func TestExportModalInterceptsKeys(t *testing.T) {
	model := newTestModel(t, nil)
	applyMsg(t, model, tea.WindowSizeMsg{Width: 100, Height: 30})
	model.browse.result = browseResultFixture()
	model.openExport(exportBrowse)

	applyMsg(t, model, keyRunes("2"))
	if model.tab != tabConnections {
		t.Fatalf("expected digit captured by the modal, tab moved to %v", model.tab)
	}
	if !strings.HasSuffix(model.export.input.Value(), "2") {
		t.Fatalf("expected digit appended to path, got %q", model.export.input.Value())
	}

	applyMsg(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	if model.export.active {
		t.Fatalf("expected esc to close the modal")
	}
}
