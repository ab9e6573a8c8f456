package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type MethodColors struct {
	GET     lipgloss.Color
	POST    lipgloss.Color
	PUT     lipgloss.Color
	PATCH   lipgloss.Color
	DELETE  lipgloss.Color
	HEAD    lipgloss.Color
	Default lipgloss.Color
}

func (m MethodColors) For(method string) lipgloss.Color {
	switch method {
	case "GET":
		return m.GET
	case "POST":
		return m.POST
	case "PUT":
		return m.PUT
	case "PATCH":
		return m.PATCH
	case "DELETE":
		return m.DELETE
	case "HEAD":
		return m.HEAD
	default:
		return m.Default
	}
}

// HealthColors maps cluster and index health states to colors. Unknown
// covers anything the cluster reports outside the three standard states.
type HealthColors struct {
	Green   lipgloss.Color
	Yellow  lipgloss.Color
	Red     lipgloss.Color
	Unknown lipgloss.Color
}

func (h HealthColors) For(status string) lipgloss.Color {
	switch status {
	case "green":
		return h.Green
	case "yellow":
		return h.Yellow
	case "red":
		return h.Red
	default:
		return h.Unknown
	}
}

type Theme struct {
	AppFrame        lipgloss.Style
	Header          lipgloss.Style
	HeaderTitle     lipgloss.Style
	HeaderValue     lipgloss.Style
	HeaderSeparator lipgloss.Style

	Tabs        lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	StatusBar      lipgloss.Style
	StatusBarKey   lipgloss.Style
	StatusBarValue lipgloss.Style

	TableHeader      lipgloss.Style
	TableRow         lipgloss.Style
	TableRowSelected lipgloss.Style

	DetailBorder  lipgloss.Style
	DetailTitle   lipgloss.Style
	DetailContent lipgloss.Style

	ListItemTitle               lipgloss.Style
	ListItemDescription         lipgloss.Style
	ListItemSelectedTitle       lipgloss.Style
	ListItemSelectedDescription lipgloss.Style
	ListItemFilterMatch         lipgloss.Style

	InputLabel        lipgloss.Style
	InputBorder       lipgloss.Style
	InputBorderActive lipgloss.Style

	Notification lipgloss.Style
	Error        lipgloss.Style
	Success      lipgloss.Style
	Progress     lipgloss.Style

	DiffAdd     lipgloss.Style
	DiffRemove  lipgloss.Style
	DiffContext lipgloss.Style

	MethodColors MethodColors
	Health       HealthColors
}

// DefaultKey picks the builtin matching the terminal background. Settings
// override this; it only decides the first run.
func DefaultKey() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func DarkTheme() Theme {
	accent := lipgloss.Color("#00BFB3")
	base := lipgloss.NewStyle().Foreground(lipgloss.Color("#D7E3E7"))

	return Theme{
		AppFrame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2F4858")),
		Header:          lipgloss.NewStyle().Foreground(lipgloss.Color("#D7E3E7")).Padding(0, 1),
		HeaderTitle:     lipgloss.NewStyle().Foreground(accent).Bold(true),
		HeaderValue:     lipgloss.NewStyle().Foreground(lipgloss.Color("#C2D4DB")),
		HeaderSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color("#4A6B7A")).Bold(true),
		Tabs:            lipgloss.NewStyle().Foreground(lipgloss.Color("#8BA3AE")).Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04222B")).
			Background(accent).
			Bold(true).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5E7782")).
			Padding(0, 1),
		StatusBar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#8BA3AE")).Padding(0, 1),
		StatusBarKey:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A700")).Bold(true),
		StatusBarValue: lipgloss.NewStyle().Foreground(lipgloss.Color("#E6EEF1")),
		TableHeader: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#2F4858")),
		TableRow: lipgloss.NewStyle().Foreground(lipgloss.Color("#C2D4DB")),
		TableRowSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04222B")).
			Background(lipgloss.Color("#F5A700")).
			Bold(true),
		DetailBorder: base.BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#36A2EF")),
		DetailTitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#36A2EF")).Bold(true),
		DetailContent: lipgloss.NewStyle().Foreground(lipgloss.Color("#D7E3E7")),
		ListItemTitle: lipgloss.NewStyle().Foreground(lipgloss.Color("#E6EEF1")),
		ListItemDescription: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E848E")),
		ListItemSelectedTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04222B")).
			Background(accent).
			Bold(true),
		ListItemSelectedDescription: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04222B")).
			Background(accent),
		ListItemFilterMatch: lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#7FE6DE")),
		InputLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#8BA3AE")).Bold(true),
		InputBorder: base.BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3D5A68")),
		InputBorderActive: base.BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		Notification: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E6EEF1")).
			Background(lipgloss.Color("#2F4858")).
			Padding(0, 1),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5DD39E")),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A700")).Italic(true),
		DiffAdd:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5DD39E")),
		DiffRemove: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6E6E")),
		DiffContext: lipgloss.NewStyle().Foreground(lipgloss.Color("#6E848E")),
		MethodColors: MethodColors{
			GET:     lipgloss.Color("#34d399"),
			POST:    lipgloss.Color("#60a5fa"),
			PUT:     lipgloss.Color("#f59e0b"),
			PATCH:   lipgloss.Color("#14b8a6"),
			DELETE:  lipgloss.Color("#f87171"),
			HEAD:    lipgloss.Color("#a1a1aa"),
			Default: lipgloss.Color("#9ca3af"),
		},
		Health: HealthColors{
			Green:   lipgloss.Color("#5DD39E"),
			Yellow:  lipgloss.Color("#F5A700"),
			Red:     lipgloss.Color("#FF6E6E"),
			Unknown: lipgloss.Color("#8BA3AE"),
		},
	}
}

func LightTheme() Theme {
	accent := lipgloss.Color("#00756D")
	base := lipgloss.NewStyle().Foreground(lipgloss.Color("#1D3A45"))

	return Theme{
		AppFrame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#A9C2CC")),
		Header:          lipgloss.NewStyle().Foreground(lipgloss.Color("#1D3A45")).Padding(0, 1),
		HeaderTitle:     lipgloss.NewStyle().Foreground(accent).Bold(true),
		HeaderValue:     lipgloss.NewStyle().Foreground(lipgloss.Color("#2F4858")),
		HeaderSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color("#7E9AA6")).Bold(true),
		Tabs:            lipgloss.NewStyle().Foreground(lipgloss.Color("#54707C")).Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F4FAF9")).
			Background(accent).
			Bold(true).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87A0AB")).
			Padding(0, 1),
		StatusBar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#54707C")).Padding(0, 1),
		StatusBarKey:   lipgloss.NewStyle().Foreground(lipgloss.Color("#9C6500")).Bold(true),
		StatusBarValue: lipgloss.NewStyle().Foreground(lipgloss.Color("#1D3A45")),
		TableHeader: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#A9C2CC")),
		TableRow: lipgloss.NewStyle().Foreground(lipgloss.Color("#2F4858")),
		TableRowSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F4FAF9")).
			Background(lipgloss.Color("#9C6500")).
			Bold(true),
		DetailBorder: base.BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#1B6E9C")),
		DetailTitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#1B6E9C")).Bold(true),
		DetailContent: lipgloss.NewStyle().Foreground(lipgloss.Color("#1D3A45")),
		ListItemTitle: lipgloss.NewStyle().Foreground(lipgloss.Color("#1D3A45")),
		ListItemDescription: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B8793")),
		ListItemSelectedTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F4FAF9")).
			Background(accent).
			Bold(true),
		ListItemSelectedDescription: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F4FAF9")).
			Background(accent),
		ListItemFilterMatch: lipgloss.NewStyle().
			Underline(true).
			Foreground(accent),
		InputLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#54707C")).Bold(true),
		InputBorder: base.BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#A9C2CC")),
		InputBorderActive: base.BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		Notification: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1D3A45")).
			Background(lipgloss.Color("#D8E6EB")).
			Padding(0, 1),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#C4302B")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#1F7A4D")),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color("#9C6500")).Italic(true),
		DiffAdd:  lipgloss.NewStyle().Foreground(lipgloss.Color("#1F7A4D")),
		DiffRemove: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C4302B")),
		DiffContext: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B8793")),
		MethodColors: MethodColors{
			GET:     lipgloss.Color("#047857"),
			POST:    lipgloss.Color("#1d4ed8"),
			PUT:     lipgloss.Color("#b45309"),
			PATCH:   lipgloss.Color("#0f766e"),
			DELETE:  lipgloss.Color("#b91c1c"),
			HEAD:    lipgloss.Color("#52525b"),
			Default: lipgloss.Color("#4b5563"),
		},
		Health: HealthColors{
			Green:   lipgloss.Color("#1F7A4D"),
			Yellow:  lipgloss.Color("#9C6500"),
			Red:     lipgloss.Color("#C4302B"),
			Unknown: lipgloss.Color("#54707C"),
		},
	}
}
