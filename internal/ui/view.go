package ui

import "github.com/charmbracelet/lipgloss"

func (m Model) View() string {
	if !m.ready {
		return m.renderWithinAppFrame("Initialising...")
	}

	if m.export.active {
		return m.renderWithinAppFrame(m.renderExport(m.width))
	}

	bodyHeight := maxInt(m.height-3, 4)

	var body string
	switch m.tab {
	case tabConnections:
		body = m.renderConnections(m.width, bodyHeight)
	case tabBrowse:
		body = m.renderBrowse(m.width, bodyHeight)
	case tabQuery:
		body = m.renderQuery(m.width, bodyHeight)
	case tabConsole:
		body = m.renderConsole(m.width, bodyHeight)
	case tabIndices:
		body = m.renderIndices(m.width, bodyHeight)
	}

	body = lipgloss.Place(
		maxInt(m.width, 1),
		bodyHeight,
		lipgloss.Top,
		lipgloss.Left,
		body,
		lipgloss.WithWhitespaceChars(" "),
	)

	sections := joinVertical(
		m.renderHeader(),
		m.renderTabBar(),
		body,
		m.renderStatusBar(),
	)
	return m.renderWithinAppFrame(sections)
}
