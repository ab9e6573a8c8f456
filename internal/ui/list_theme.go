package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/esterm/internal/theme"
)

// mergeListStyle layers a theme override on top of the bubbles default while
// keeping the default's spacing, which the override does not know about.
func mergeListStyle(base, override lipgloss.Style) lipgloss.Style {
	merged := override.Inherit(base)
	merged = merged.
		PaddingTop(base.GetPaddingTop()).
		PaddingRight(base.GetPaddingRight()).
		PaddingBottom(base.GetPaddingBottom()).
		PaddingLeft(base.GetPaddingLeft()).
		MarginTop(base.GetMarginTop()).
		MarginRight(base.GetMarginRight()).
		MarginBottom(base.GetMarginBottom()).
		MarginLeft(base.GetMarginLeft())
	if border, ok := borderFromStyle(base); ok {
		merged = merged.Border(border, base.GetBorderTop(), base.GetBorderRight(), base.GetBorderBottom(), base.GetBorderLeft())
		merged = merged.BorderLeftForeground(override.GetForeground())
	}
	return merged
}

func borderFromStyle(s lipgloss.Style) (lipgloss.Border, bool) {
	border := s.GetBorderStyle()
	if border == (lipgloss.Border{}) {
		return border, false
	}
	return border, true
}

func listItemStylesForTheme(th theme.Theme) list.DefaultItemStyles {
	styles := list.NewDefaultItemStyles()
	styles.NormalTitle = mergeListStyle(styles.NormalTitle, th.ListItemTitle)
	styles.NormalDesc = mergeListStyle(styles.NormalDesc, th.ListItemDescription)
	styles.SelectedTitle = mergeListStyle(styles.SelectedTitle, th.ListItemSelectedTitle)
	styles.SelectedDesc = mergeListStyle(styles.SelectedDesc, th.ListItemSelectedDescription)
	styles.FilterMatch = mergeListStyle(styles.FilterMatch, th.ListItemFilterMatch)
	return styles
}

func listDelegateForTheme(th theme.Theme, showDescription bool, height int) list.DefaultDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = showDescription
	if height > 0 {
		delegate.SetHeight(height)
	}
	delegate.Styles = listItemStylesForTheme(th)
	return delegate
}

func applyListTheme(l *list.Model, th theme.Theme) {
	l.Styles.Title = th.DetailTitle
	l.Styles.NoItems = th.StatusBar
	l.FilterInput.PromptStyle = th.InputLabel
	l.FilterInput.TextStyle = th.StatusBarValue
}

func tableStylesForTheme(th theme.Theme) table.Styles {
	styles := table.DefaultStyles()
	styles.Header = mergeListStyle(styles.Header, th.TableHeader)
	styles.Cell = mergeListStyle(styles.Cell, th.TableRow)
	styles.Selected = mergeListStyle(styles.Selected, th.TableRowSelected)
	return styles
}
