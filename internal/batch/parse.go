// Package batch parses multi-command REST scripts and executes them with
// bounded concurrency, per-command retry, and optional stop-on-error.
package batch

import (
	"bufio"
	"errors"
	"regexp"
	"strings"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

// commandRe anchors on the raw line: indented method lines are body
// text, which keeps JSON payloads containing method-like strings intact.
var commandRe = regexp.MustCompile(`^(?i)(GET|POST|PUT|DELETE|PATCH|HEAD)\s+(\S+)`)

// maxLineBytes caps a single script line.
const maxLineBytes = 1024 * 1024

// Command is one parsed REST call. Index is its 0-based position in the
// script and never changes after parse.
type Command struct {
	Index  int
	Method string
	Path   string
	Body   string
}

// Parse splits a script into commands. A command opens at a method line;
// every following line up to the next method line is its body, comments
// and blanks included. Text before the first command is dropped.
func Parse(script string) ([]Command, error) {
	scanner := bufio.NewScanner(strings.NewReader(normalizeNewlines(script)))
	scanner.Buffer(make([]byte, 0, 1024), maxLineBytes)

	var (
		commands []Command
		body     []string
		open     bool
	)
	flush := func() {
		if !open {
			return
		}
		commands[len(commands)-1].Body = strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
	}

	for scanner.Scan() {
		line := scanner.Text()
		if m := commandRe.FindStringSubmatch(line); m != nil {
			flush()
			path := m[2]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			commands = append(commands, Command{
				Index:  len(commands),
				Method: strings.ToUpper(m[1]),
				Path:   path,
			})
			open = true
			continue
		}
		if open {
			body = append(body, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, errdef.New(errdef.CodeParse, "script line exceeds %d bytes", maxLineBytes)
		}
		return nil, errdef.Wrap(errdef.CodeParse, err, "read script")
	}
	if len(commands) == 0 {
		return nil, errdef.New(errdef.CodeParse,
			"no commands found: each command starts with a line like GET /index/_search")
	}
	return commands, nil
}

// Format renders commands back to script text. Parsing the output yields
// the same commands.
func Format(commands []Command) string {
	var b strings.Builder
	for i, cmd := range commands {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(cmd.Method)
		b.WriteString(" ")
		b.WriteString(cmd.Path)
		if cmd.Body != "" {
			b.WriteString("\n")
			b.WriteString(cmd.Body)
		}
	}
	return b.String()
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
