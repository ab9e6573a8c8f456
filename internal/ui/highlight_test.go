package ui

import (
	"strings"
	"testing"

	"github.com/unkn0wn-root/esterm/internal/theme"
)

func TestPrettyJSON(t *testing.T) {
	got := prettyJSON(`{"a":1,"b":{"c":2}}`)
	want := "{\n  \"a\": 1,\n  \"b\": {\n    \"c\": 2\n  }\n}"
	if got != want {
		t.Fatalf("unexpected indentation:\n%s", got)
	}
}

func TestPrettyJSONLeavesInvalidInput(t *testing.T) {
	in := `{"a":`
	if got := prettyJSON(in); got != in {
		t.Fatalf("expected invalid JSON untouched, got %q", got)
	}
	if got := prettyJSON("   "); got != "   " {
		t.Fatalf("expected blank input untouched, got %q", got)
	}
}

func TestHighlightJSONKeepsContent(t *testing.T) {
	src := `{"a": 1}`
	got := highlightJSON(src, "monokai")
	if got == "" {
		t.Fatalf("expected highlighted output")
	}
	if !strings.Contains(got, "1") {
		t.Fatalf("expected content to survive highlighting, got %q", got)
	}
}

func TestChromaStyleFollowsTheme(t *testing.T) {
	model := newTestModel(t, nil)
	model.activeThemeKey = "light"
	if got := model.chromaStyle(); got != "github" {
		t.Fatalf("expected github palette for light theme, got %q", got)
	}
	model.activeThemeKey = "dark"
	if got := model.chromaStyle(); got != "monokai" {
		t.Fatalf("expected monokai palette, got %q", got)
	}
}

func TestEnsureTrailingNewline(t *testing.T) {
	if got := ensureTrailingNewline(""); got != "\n" {
		t.Fatalf("expected bare newline for empty content, got %q", got)
	}
	if got := ensureTrailingNewline("x"); got != "x\n" {
		t.Fatalf("expected newline appended, got %q", got)
	}
	if got := ensureTrailingNewline("x\n"); got != "x\n" {
		t.Fatalf("expected content untouched, got %q", got)
	}
}

func TestComputeDiffIdentical(t *testing.T) {
	th := theme.DarkTheme()
	res := computeDiff("a", "b", `{"x":1}`, `{"x":1}`, th)
	if res.plain != "Documents are identical" {
		t.Fatalf("unexpected plain diff: %q", res.plain)
	}
}

func TestComputeDiffMarksChanges(t *testing.T) {
	th := theme.DarkTheme()
	lhs := "{\n  \"level\": \"error\"\n}"
	rhs := "{\n  \"level\": \"warn\"\n}"
	res := computeDiff("doc a", "doc b", lhs, rhs, th)

	if !strings.Contains(res.plain, "--- doc a") || !strings.Contains(res.plain, "+++ doc b") {
		t.Fatalf("expected labelled headers in diff:\n%s", res.plain)
	}
	if !strings.Contains(res.plain, `-  "level": "error"`) {
		t.Fatalf("expected removal marker in diff:\n%s", res.plain)
	}
	if !strings.Contains(res.plain, `+  "level": "warn"`) {
		t.Fatalf("expected addition marker in diff:\n%s", res.plain)
	}
	if res.colored == "" {
		t.Fatalf("expected colored variant")
	}
}
