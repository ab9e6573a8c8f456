package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const headerGap = 1

func (m Model) renderWithinAppFrame(content string) string {
	innerWidth := maxInt(m.width, lipgloss.Width(content))
	innerHeight := maxInt(m.height, lipgloss.Height(content))

	if innerWidth > 0 {
		content = lipgloss.Place(
			innerWidth,
			maxInt(innerHeight, lipgloss.Height(content)),
			lipgloss.Top,
			lipgloss.Left,
			content,
			lipgloss.WithWhitespaceChars(" "),
		)
	}
	return m.theme.AppFrame.Render(content)
}

func (m Model) renderHeader() string {
	segments := []string{m.theme.HeaderTitle.Render(" esterm ")}

	if m.connected {
		segments = append(segments, m.renderHeaderField("Profile", m.active.Name))
		if m.clusterInfo != nil {
			segments = append(segments, m.renderHeaderField("Cluster", m.clusterInfo.ClusterName))
			segments = append(segments, m.renderHeaderField("Version", m.clusterInfo.Version.Number))
		}
		if m.clusterHealth != nil {
			badge := lipgloss.NewStyle().
				Foreground(m.theme.Health.For(m.clusterHealth.Status)).
				Bold(true).
				Render(m.clusterHealth.Status)
			segments = append(segments, m.renderHeaderField("Health", badge))
			segments = append(segments, m.renderHeaderField("Nodes", fmt.Sprintf("%d", m.clusterHealth.NumberOfNodes)))
		}
	} else {
		segments = append(segments, m.theme.HeaderValue.Render("not connected"))
	}

	separator := m.theme.HeaderSeparator.Render(" │ ")
	line := fitHeaderSegments(segments, separator, maxInt(m.width, 1))
	return m.theme.Header.Width(maxInt(m.width, lipgloss.Width(line))).Render(line)
}

func (m Model) renderHeaderField(label, value string) string {
	if strings.TrimSpace(value) == "" {
		value = "—"
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.theme.HeaderTitle.Render(label+": "),
		m.theme.HeaderValue.Render(value),
	)
}

// fitHeaderSegments keeps whole segments from the left until the next one
// would overflow, then hard-truncates the joined line to width.
func fitHeaderSegments(segments []string, separator string, width int) string {
	if len(segments) == 0 || width <= 0 {
		return ""
	}
	sepWidth := lipgloss.Width(separator)
	total := lipgloss.Width(segments[0])
	count := 1
	for i := 1; i < len(segments); i++ {
		next := total + sepWidth + lipgloss.Width(segments[i])
		if next > width {
			break
		}
		total = next
		count = i + 1
	}
	parts := make([]string, 0, count*2-1)
	for i := 0; i < count; i++ {
		if i > 0 {
			parts = append(parts, separator)
		}
		parts = append(parts, segments[i])
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if lipgloss.Width(line) > width {
		line = ansi.Truncate(line, width, "")
	}
	return line
}

func (m Model) renderTabBar() string {
	rendered := make([]string, 0, int(tabCount))
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", int(i)+1, tabTitles[i])
		if i == m.tab {
			rendered = append(rendered, m.theme.TabActive.Render(label))
		} else {
			rendered = append(rendered, m.theme.TabInactive.Render(label))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	return m.theme.Tabs.Width(maxInt(m.width, lipgloss.Width(line))).Render(line)
}

var tabHints = [tabCount]string{
	"enter connect · t test · n new · e edit · d delete · / filter",
	"enter fetch · n/p page · o order · y yank · s save · D diff · x cancel",
	"ctrl+r run · ctrl+t translate · ctrl+h history",
	"ctrl+r run · esc toggle focus · t/T trace · x cancel",
	"R reload · c create · d delete · r refresh",
}

func (m Model) renderStatusBar() string {
	lineWidth := maxInt(m.width-2, 1)

	right := strings.TrimSpace(m.version)
	if right != "" {
		right = truncateToWidth("v"+right, lineWidth/3)
	}
	rightWidth := lipgloss.Width(right)

	var left string
	if m.statusMessage.text != "" {
		style := m.theme.StatusBarValue
		switch m.statusMessage.level {
		case statusWarn:
			style = m.theme.Notification
		case statusError:
			style = m.theme.Error
		case statusSuccess:
			style = m.theme.Success
		}
		left = style.Render(truncateToWidth(m.statusMessage.text, maxInt(lineWidth-rightWidth-headerGap, 1)))
	} else {
		hints := tabHints[m.tab] + " · 1-5 tabs · ctrl+c quit"
		left = m.theme.StatusBarKey.Render(truncateToWidth(hints, maxInt(lineWidth-rightWidth-headerGap, 1)))
	}

	pad := lineWidth - lipgloss.Width(left) - rightWidth
	if pad < 0 {
		pad = 0
	}
	line := left + strings.Repeat(" ", pad) + m.theme.StatusBarValue.Render(right)
	return m.theme.StatusBar.Width(maxInt(m.width, 1)).Render(line)
}

// truncateToWidth cuts plain text down to a terminal cell width, counting
// wide runes as two cells.
func truncateToWidth(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}

	ellipsisWidth := runewidth.StringWidth("…")
	if maxWidth <= ellipsisWidth {
		return "…"
	}
	available := maxWidth - ellipsisWidth
	var (
		builder       strings.Builder
		consumedWidth int
	)
	for _, r := range text {
		cells := runewidth.RuneWidth(r)
		if cells <= 0 {
			cells = 1
		}
		if consumedWidth+cells > available {
			break
		}
		builder.WriteRune(r)
		consumedWidth += cells
	}
	trimmed := strings.TrimSpace(builder.String())
	if trimmed == "" {
		trimmed = builder.String()
	}
	return trimmed + "…"
}

func formatByteSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func formatDurationShort(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Microsecond {
		return d.String()
	}
	if d < time.Millisecond {
		value := d / time.Microsecond
		return fmt.Sprintf("%dµs", value)
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

func joinSections(sections ...string) string {
	var parts []string
	for _, section := range sections {
		trimmed := trimSection(section)
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	return strings.Join(parts, "\n\n")
}

func trimSection(section string) string {
	if section == "" {
		return ""
	}
	return strings.Trim(section, "\r\n")
}

func joinVertical(parts ...string) string {
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
