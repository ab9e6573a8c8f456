package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/esterm/internal/esapi"
)

func TestTruncateToWidth(t *testing.T) {
	if got := truncateToWidth("short", 10); got != "short" {
		t.Fatalf("expected untouched text, got %q", got)
	}
	got := truncateToWidth("a longer sentence", 8)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if width := len([]rune(got)); width > 8 {
		t.Fatalf("expected at most 8 runes, got %d in %q", width, got)
	}
	if got := truncateToWidth("anything", 0); got != "" {
		t.Fatalf("expected empty result for zero width, got %q", got)
	}
}

func TestFormatByteSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 kB"},
		{1536, "1.5 kB"},
		{1048576, "1.0 MB"},
		{-5, "0 B"},
	}
	for _, tc := range cases {
		if got := formatByteSize(tc.in); got != tc.want {
			t.Fatalf("formatByteSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDurationShort(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{500 * time.Microsecond, "500µs"},
		{42 * time.Millisecond, "42ms"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tc := range cases {
		if got := formatDurationShort(tc.in); got != tc.want {
			t.Fatalf("formatDurationShort(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFitHeaderSegmentsKeepsWholeSegments(t *testing.T) {
	segments := []string{"alpha", "beta", "gamma"}
	line := fitHeaderSegments(segments, " | ", 13)
	if line != "alpha | beta" {
		t.Fatalf("unexpected line: %q", line)
	}

	line = fitHeaderSegments(segments, " | ", 100)
	if line != "alpha | beta | gamma" {
		t.Fatalf("expected all segments, got %q", line)
	}

	if got := fitHeaderSegments(nil, " | ", 10); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestJoinSectionsSkipsEmpty(t *testing.T) {
	joined := joinSections("top", "", "\n", "bottom")
	if joined != "top\n\nbottom" {
		t.Fatalf("unexpected join: %q", joined)
	}
}

func TestRenderHeaderDisconnected(t *testing.T) {
	model := newTestModel(t, nil)
	model.width = 80

	header := ansi.Strip(model.renderHeader())
	if !strings.Contains(header, "esterm") {
		t.Fatalf("expected brand in header, got %q", header)
	}
	if !strings.Contains(header, "not connected") {
		t.Fatalf("expected disconnected marker, got %q", header)
	}
}

func clusterFixtures() (esapi.ClusterInfo, esapi.ClusterHealth) {
	info := esapi.ClusterInfo{ClusterName: "es-demo"}
	info.Version.Number = "8.13.4"
	health := esapi.ClusterHealth{
		ClusterName:   "es-demo",
		Status:        "yellow",
		NumberOfNodes: 3,
		ActiveShards:  12,
	}
	return info, health
}

func TestRenderHeaderConnected(t *testing.T) {
	client := &scriptedClient{}
	model := newTestModel(t, client)
	attachClient(model, client)
	model.width = 120
	info, health := clusterFixtures()
	model.clusterInfo = &info
	model.clusterHealth = &health

	header := ansi.Strip(model.renderHeader())
	for _, want := range []string{"local", "es-demo", "8.13.4", "yellow"} {
		if !strings.Contains(header, want) {
			t.Fatalf("expected %q in header, got %q", want, header)
		}
	}
}

func TestRenderTabBarMarksActive(t *testing.T) {
	model := newTestModel(t, nil)
	model.width = 100
	model.tab = tabConsole

	bar := ansi.Strip(model.renderTabBar())
	for i, title := range tabTitles {
		if !strings.Contains(bar, title) {
			t.Fatalf("expected tab %d (%s) in bar: %q", i, title, bar)
		}
	}
}

func TestRenderStatusBarShowsHints(t *testing.T) {
	model := newTestModel(t, nil)
	model.width = 120

	bar := ansi.Strip(model.renderStatusBar())
	if !strings.Contains(bar, "enter connect") {
		t.Fatalf("expected connections hints, got %q", bar)
	}
	if !strings.Contains(bar, "vtest") {
		t.Fatalf("expected version, got %q", bar)
	}

	model.setStatus(statusError, "something broke")
	bar = ansi.Strip(model.renderStatusBar())
	if !strings.Contains(bar, "something broke") {
		t.Fatalf("expected status text, got %q", bar)
	}
}
