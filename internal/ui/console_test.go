package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/esterm/internal/batch"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

func TestConsoleRows(t *testing.T) {
	results := []batch.Result{
		{Index: 0, Method: "GET", Path: "/_cat/health", Status: 200, OK: true, Body: `{"ok":true}`, Duration: 12 * time.Millisecond},
		{Index: 1, Method: "PUT", Path: "/idx", Status: 400, OK: false, Body: "mapper parsing failed\nsecond line"},
		{Index: 2, Method: "DELETE", Path: "/idx", Err: errors.New("dial tcp: connection refused")},
		{Index: 3, Method: "POST", Path: "/idx/_refresh", Skipped: true},
	}

	rows := consoleRows(results)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "1" || rows[0][3] != "200" {
		t.Fatalf("unexpected ok row: %v", rows[0])
	}
	if rows[1][3] != "400" || !strings.Contains(rows[1][5], "mapper parsing failed") {
		t.Fatalf("unexpected failed row: %v", rows[1])
	}
	if strings.Contains(rows[1][5], "second line") {
		t.Fatalf("expected note limited to first line: %v", rows[1])
	}
	if rows[2][3] != "ERROR" || !strings.Contains(rows[2][5], "connection refused") {
		t.Fatalf("unexpected error row: %v", rows[2])
	}
	if rows[3][3] != "SKIP" || rows[3][4] != "-" {
		t.Fatalf("unexpected skipped row: %v", rows[3])
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("one\ntwo"); got != "one" {
		t.Fatalf("unexpected first line: %q", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Fatalf("unexpected single line: %q", got)
	}
}

func TestBatchRunThroughConsole(t *testing.T) {
	client := &scriptedClient{replies: []*wire.Response{okResponse(`{"status":"green"}`)}}
	model := newTestModel(t, client)
	attachClient(model, client)
	applyMsg(t, model, tea.WindowSizeMsg{Width: 120, Height: 36})
	model.console.editor.SetValue("GET /_cat/health\n")

	cmd := model.startBatchRun()
	if cmd == nil {
		t.Fatalf("expected batch command")
	}
	if !model.console.running {
		t.Fatalf("expected running flag set")
	}

	applyMsg(t, model, cmd())
	if model.console.running {
		t.Fatalf("expected running flag cleared")
	}
	if len(model.console.results) != 1 {
		t.Fatalf("expected one result, got %d", len(model.console.results))
	}
	if model.console.results[0].Status != 200 {
		t.Fatalf("unexpected status: %d", model.console.results[0].Status)
	}
	if !strings.Contains(model.statusMessage.text, "1 commands · 0 failed") {
		t.Fatalf("unexpected status: %q", model.statusMessage.text)
	}
	if model.console.focusEditor {
		t.Fatalf("expected focus moved to the result grid")
	}
}

func TestBatchRunRejectsBadScript(t *testing.T) {
	model := newTestModel(t, nil)
	attachClient(model, &scriptedClient{})
	model.console.editor.SetValue("FETCH /nope\n")

	if cmd := model.startBatchRun(); cmd != nil {
		t.Fatalf("expected no command for an invalid script")
	}
	if model.statusMessage.level != statusError {
		t.Fatalf("expected parse error status, got %v", model.statusMessage.level)
	}
}

func TestBatchRunEmptyScript(t *testing.T) {
	model := newTestModel(t, nil)
	attachClient(model, &scriptedClient{})
	model.console.editor.SetValue("# only a comment\n")

	if cmd := model.startBatchRun(); cmd != nil {
		t.Fatalf("expected no command for an empty script")
	}
	if !strings.Contains(model.statusMessage.text, "no commands found") {
		t.Fatalf("unexpected status: %q", model.statusMessage.text)
	}
}

func TestOpenConsoleDetail(t *testing.T) {
	model := newTestModel(t, nil)
	model.console.results = []batch.Result{
		{Index: 0, Method: "GET", Path: "/_cat/health", Status: 200, OK: true, Body: `{"status":"green"}`, Duration: time.Millisecond},
	}
	model.console.grid.SetRows(consoleRows(model.console.results))

	model.openConsoleDetail()
	if !model.console.showDetail {
		t.Fatalf("expected detail open")
	}
	if model.console.detailTitle != "command 1" {
		t.Fatalf("unexpected title: %q", model.console.detailTitle)
	}
	if !strings.Contains(model.console.detailPlain, "GET /_cat/health") {
		t.Fatalf("expected header in detail: %q", model.console.detailPlain)
	}
	if !strings.Contains(model.console.detailPlain, `"status": "green"`) {
		t.Fatalf("expected pretty body in detail: %q", model.console.detailPlain)
	}
}

func TestBatchProgressFeedsChannel(t *testing.T) {
	model := newTestModel(t, nil)

	progress := model.batchProgress()
	progress(3, 9)

	msg := model.nextProgressCmd()()
	batchMsg, ok := msg.(batchProgressMsg)
	if !ok {
		t.Fatalf("expected batchProgressMsg, got %T", msg)
	}
	if batchMsg.completed != 3 || batchMsg.total != 9 {
		t.Fatalf("unexpected progress: %+v", batchMsg)
	}

	cmd := applyMsg(t, model, batchMsg)
	if model.console.progress == nil || model.console.progress.completed != 3 {
		t.Fatalf("expected progress stored on console state")
	}
	if cmd == nil {
		t.Fatalf("expected the drain command to be re-armed")
	}
}

func TestBatchProgressNeverRegresses(t *testing.T) {
	model := newTestModel(t, nil)

	applyMsg(t, model, batchProgressMsg{completed: 6, total: 9})
	applyMsg(t, model, batchProgressMsg{completed: 5, total: 9})
	if model.console.progress == nil || model.console.progress.completed != 6 {
		t.Fatalf("expected displayed progress to hold at 6, got %+v", model.console.progress)
	}

	applyMsg(t, model, batchProgressMsg{completed: 7, total: 9})
	if model.console.progress.completed != 7 {
		t.Fatalf("expected displayed progress to advance, got %+v", model.console.progress)
	}
}

func TestTraceClearKey(t *testing.T) {
	model := newTestModel(t, nil)
	model.trace.RequestStarted("GET", "http://cluster/_cat/health")
	model.trace.RequestFinished(wire.Event{Method: "GET", URL: "http://cluster/_cat/health", Status: 200})
	model.console.focusEditor = false

	model.updateConsole(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'T'}})
	if model.trace.Count() != 0 {
		t.Fatalf("expected cleared counter, got %d", model.trace.Count())
	}
	if events := model.trace.Tail(5); len(events) != 0 {
		t.Fatalf("expected no events after clear, got %d", len(events))
	}
}
