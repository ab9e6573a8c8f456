package ui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/quick"
	udiff "github.com/aymanbagabas/go-udiff"

	"github.com/unkn0wn-root/esterm/internal/theme"
)

func prettyJSON(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return s
	}
	return buf.String()
}

// highlightJSON renders source through chroma for the terminal. Highlighting
// is cosmetic; any failure returns the source untouched.
func highlightJSON(source, style string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, "json", "terminal256", style); err != nil {
		return source
	}
	return buf.String()
}

// chromaStyle picks a syntax palette that reads on the active background.
func (m Model) chromaStyle() string {
	if m.activeThemeKey == "light" {
		return "github"
	}
	return "monokai"
}

type diffResult struct {
	plain   string
	colored string
}

// computeDiff produces a unified diff of two documents, plain for the
// clipboard and colorized for the screen.
func computeDiff(lhsLabel, rhsLabel, lhs, rhs string, th theme.Theme) diffResult {
	left := ensureTrailingNewline(lhs)
	right := ensureTrailingNewline(rhs)
	if left == right {
		identical := "Documents are identical"
		return diffResult{plain: identical, colored: th.DiffContext.Render(identical)}
	}

	diff := udiff.Unified(lhsLabel, rhsLabel, left, right)
	if strings.TrimSpace(diff) == "" {
		empty := "Documents differ but diff is empty"
		return diffResult{plain: empty, colored: th.DiffContext.Render(empty)}
	}
	return diffResult{plain: diff, colored: colorizeDiff(diff, th)}
}

func colorizeDiff(diff string, th theme.Theme) string {
	lines := strings.Split(diff, "\n")
	var builder strings.Builder
	for i, line := range lines {
		styled := line
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			styled = th.DiffContext.Italic(true).Render(line)
		case strings.HasPrefix(line, "@@"):
			styled = th.DiffContext.Bold(true).Render(line)
		case strings.HasPrefix(line, "+"):
			styled = th.DiffAdd.Render(line)
		case strings.HasPrefix(line, "-"):
			styled = th.DiffRemove.Render(line)
		}
		builder.WriteString(styled)
		if i < len(lines)-1 {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

func ensureTrailingNewline(content string) string {
	if content == "" {
		return "\n"
	}
	if strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}
