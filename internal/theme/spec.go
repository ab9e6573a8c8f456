package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Metadata struct {
	Name        string   `json:"name"        toml:"name"`
	Description string   `json:"description" toml:"description"`
	Author      string   `json:"author"      toml:"author"`
	Version     string   `json:"version"     toml:"version"`
	Tags        []string `json:"tags"        toml:"tags"`
}

// ThemeSpec is a partial override file. Every field is optional; anything
// left unset keeps the base theme's value.
type ThemeSpec struct {
	Metadata *Metadata  `json:"metadata" toml:"metadata"`
	Base     *string    `json:"base"     toml:"base"`
	Styles   StylesSpec `json:"styles"   toml:"styles"`
	Colors   ColorsSpec `json:"colors"   toml:"colors"`
}

type StylesSpec struct {
	AppFrame        *StyleSpec `json:"app_frame"        toml:"app_frame"`
	Header          *StyleSpec `json:"header"           toml:"header"`
	HeaderTitle     *StyleSpec `json:"header_title"     toml:"header_title"`
	HeaderValue     *StyleSpec `json:"header_value"     toml:"header_value"`
	HeaderSeparator *StyleSpec `json:"header_separator" toml:"header_separator"`

	Tabs        *StyleSpec `json:"tabs"         toml:"tabs"`
	TabActive   *StyleSpec `json:"tab_active"   toml:"tab_active"`
	TabInactive *StyleSpec `json:"tab_inactive" toml:"tab_inactive"`

	StatusBar      *StyleSpec `json:"status_bar"       toml:"status_bar"`
	StatusBarKey   *StyleSpec `json:"status_bar_key"   toml:"status_bar_key"`
	StatusBarValue *StyleSpec `json:"status_bar_value" toml:"status_bar_value"`

	TableHeader      *StyleSpec `json:"table_header"       toml:"table_header"`
	TableRow         *StyleSpec `json:"table_row"          toml:"table_row"`
	TableRowSelected *StyleSpec `json:"table_row_selected" toml:"table_row_selected"`

	DetailBorder  *StyleSpec `json:"detail_border"  toml:"detail_border"`
	DetailTitle   *StyleSpec `json:"detail_title"   toml:"detail_title"`
	DetailContent *StyleSpec `json:"detail_content" toml:"detail_content"`

	ListItemTitle               *StyleSpec `json:"list_item_title"                toml:"list_item_title"`
	ListItemDescription         *StyleSpec `json:"list_item_description"          toml:"list_item_description"`
	ListItemSelectedTitle       *StyleSpec `json:"list_item_selected_title"       toml:"list_item_selected_title"`
	ListItemSelectedDescription *StyleSpec `json:"list_item_selected_description" toml:"list_item_selected_description"`
	ListItemFilterMatch         *StyleSpec `json:"list_item_filter_match"         toml:"list_item_filter_match"`

	InputLabel        *StyleSpec `json:"input_label"         toml:"input_label"`
	InputBorder       *StyleSpec `json:"input_border"        toml:"input_border"`
	InputBorderActive *StyleSpec `json:"input_border_active" toml:"input_border_active"`

	Notification *StyleSpec `json:"notification" toml:"notification"`
	Error        *StyleSpec `json:"error"        toml:"error"`
	Success      *StyleSpec `json:"success"      toml:"success"`
	Progress     *StyleSpec `json:"progress"     toml:"progress"`

	DiffAdd     *StyleSpec `json:"diff_add"     toml:"diff_add"`
	DiffRemove  *StyleSpec `json:"diff_remove"  toml:"diff_remove"`
	DiffContext *StyleSpec `json:"diff_context" toml:"diff_context"`
}

type ColorsSpec struct {
	MethodGET     *string `json:"method_get"     toml:"method_get"`
	MethodPOST    *string `json:"method_post"    toml:"method_post"`
	MethodPUT     *string `json:"method_put"     toml:"method_put"`
	MethodPATCH   *string `json:"method_patch"   toml:"method_patch"`
	MethodDELETE  *string `json:"method_delete"  toml:"method_delete"`
	MethodHEAD    *string `json:"method_head"    toml:"method_head"`
	MethodDefault *string `json:"method_default" toml:"method_default"`

	HealthGreen   *string `json:"health_green"   toml:"health_green"`
	HealthYellow  *string `json:"health_yellow"  toml:"health_yellow"`
	HealthRed     *string `json:"health_red"     toml:"health_red"`
	HealthUnknown *string `json:"health_unknown" toml:"health_unknown"`
}

type StyleSpec struct {
	Foreground       *string `json:"foreground"        toml:"foreground"`
	Background       *string `json:"background"        toml:"background"`
	BorderColor      *string `json:"border_color"      toml:"border_color"`
	BorderBackground *string `json:"border_background" toml:"border_background"`
	BorderStyle      *string `json:"border_style"      toml:"border_style"`
	Bold             *bool   `json:"bold"              toml:"bold"`
	Italic           *bool   `json:"italic"            toml:"italic"`
	Underline        *bool   `json:"underline"         toml:"underline"`
	Faint            *bool   `json:"faint"             toml:"faint"`
	Strikethrough    *bool   `json:"strikethrough"     toml:"strikethrough"`
	Align            *string `json:"align"             toml:"align"`
}

func ApplySpec(base Theme, spec ThemeSpec) (Theme, error) {
	cloned := base

	apply := func(name string, target *lipgloss.Style, override *StyleSpec) error {
		if override == nil {
			return nil
		}
		next, err := override.apply(*target)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*target = next
		return nil
	}

	if err := apply("app_frame", &cloned.AppFrame, spec.Styles.AppFrame); err != nil {
		return Theme{}, err
	}
	if err := apply("header", &cloned.Header, spec.Styles.Header); err != nil {
		return Theme{}, err
	}
	if err := apply("header_title", &cloned.HeaderTitle, spec.Styles.HeaderTitle); err != nil {
		return Theme{}, err
	}
	if err := apply("header_value", &cloned.HeaderValue, spec.Styles.HeaderValue); err != nil {
		return Theme{}, err
	}
	if err := apply("header_separator", &cloned.HeaderSeparator, spec.Styles.HeaderSeparator); err != nil {
		return Theme{}, err
	}
	if err := apply("tabs", &cloned.Tabs, spec.Styles.Tabs); err != nil {
		return Theme{}, err
	}
	if err := apply("tab_active", &cloned.TabActive, spec.Styles.TabActive); err != nil {
		return Theme{}, err
	}
	if err := apply("tab_inactive", &cloned.TabInactive, spec.Styles.TabInactive); err != nil {
		return Theme{}, err
	}
	if err := apply("status_bar", &cloned.StatusBar, spec.Styles.StatusBar); err != nil {
		return Theme{}, err
	}
	if err := apply("status_bar_key", &cloned.StatusBarKey, spec.Styles.StatusBarKey); err != nil {
		return Theme{}, err
	}
	if err := apply("status_bar_value", &cloned.StatusBarValue, spec.Styles.StatusBarValue); err != nil {
		return Theme{}, err
	}
	if err := apply("table_header", &cloned.TableHeader, spec.Styles.TableHeader); err != nil {
		return Theme{}, err
	}
	if err := apply("table_row", &cloned.TableRow, spec.Styles.TableRow); err != nil {
		return Theme{}, err
	}
	if err := apply("table_row_selected", &cloned.TableRowSelected, spec.Styles.TableRowSelected); err != nil {
		return Theme{}, err
	}
	if err := apply("detail_border", &cloned.DetailBorder, spec.Styles.DetailBorder); err != nil {
		return Theme{}, err
	}
	if err := apply("detail_title", &cloned.DetailTitle, spec.Styles.DetailTitle); err != nil {
		return Theme{}, err
	}
	if err := apply("detail_content", &cloned.DetailContent, spec.Styles.DetailContent); err != nil {
		return Theme{}, err
	}
	if err := apply("list_item_title", &cloned.ListItemTitle, spec.Styles.ListItemTitle); err != nil {
		return Theme{}, err
	}
	if err := apply(
		"list_item_description",
		&cloned.ListItemDescription,
		spec.Styles.ListItemDescription,
	); err != nil {
		return Theme{}, err
	}
	if err := apply(
		"list_item_selected_title",
		&cloned.ListItemSelectedTitle,
		spec.Styles.ListItemSelectedTitle,
	); err != nil {
		return Theme{}, err
	}
	if err := apply(
		"list_item_selected_description",
		&cloned.ListItemSelectedDescription,
		spec.Styles.ListItemSelectedDescription,
	); err != nil {
		return Theme{}, err
	}
	if err := apply(
		"list_item_filter_match",
		&cloned.ListItemFilterMatch,
		spec.Styles.ListItemFilterMatch,
	); err != nil {
		return Theme{}, err
	}
	if err := apply("input_label", &cloned.InputLabel, spec.Styles.InputLabel); err != nil {
		return Theme{}, err
	}
	if err := apply("input_border", &cloned.InputBorder, spec.Styles.InputBorder); err != nil {
		return Theme{}, err
	}
	if err := apply(
		"input_border_active",
		&cloned.InputBorderActive,
		spec.Styles.InputBorderActive,
	); err != nil {
		return Theme{}, err
	}
	if err := apply("notification", &cloned.Notification, spec.Styles.Notification); err != nil {
		return Theme{}, err
	}
	if err := apply("error", &cloned.Error, spec.Styles.Error); err != nil {
		return Theme{}, err
	}
	if err := apply("success", &cloned.Success, spec.Styles.Success); err != nil {
		return Theme{}, err
	}
	if err := apply("progress", &cloned.Progress, spec.Styles.Progress); err != nil {
		return Theme{}, err
	}
	if err := apply("diff_add", &cloned.DiffAdd, spec.Styles.DiffAdd); err != nil {
		return Theme{}, err
	}
	if err := apply("diff_remove", &cloned.DiffRemove, spec.Styles.DiffRemove); err != nil {
		return Theme{}, err
	}
	if err := apply("diff_context", &cloned.DiffContext, spec.Styles.DiffContext); err != nil {
		return Theme{}, err
	}

	if err := applyColors(&cloned, spec.Colors); err != nil {
		return Theme{}, err
	}
	return cloned, nil
}

func applyColors(dst *Theme, spec ColorsSpec) error {
	set := func(name string, target *lipgloss.Color, value *string) error {
		if value == nil {
			return nil
		}
		color, err := toColor(name, *value)
		if err != nil {
			return err
		}
		*target = color
		return nil
	}

	if err := set("colors.method_get", &dst.MethodColors.GET, spec.MethodGET); err != nil {
		return err
	}
	if err := set("colors.method_post", &dst.MethodColors.POST, spec.MethodPOST); err != nil {
		return err
	}
	if err := set("colors.method_put", &dst.MethodColors.PUT, spec.MethodPUT); err != nil {
		return err
	}
	if err := set("colors.method_patch", &dst.MethodColors.PATCH, spec.MethodPATCH); err != nil {
		return err
	}
	if err := set("colors.method_delete", &dst.MethodColors.DELETE, spec.MethodDELETE); err != nil {
		return err
	}
	if err := set("colors.method_head", &dst.MethodColors.HEAD, spec.MethodHEAD); err != nil {
		return err
	}
	if err := set("colors.method_default", &dst.MethodColors.Default, spec.MethodDefault); err != nil {
		return err
	}
	if err := set("colors.health_green", &dst.Health.Green, spec.HealthGreen); err != nil {
		return err
	}
	if err := set("colors.health_yellow", &dst.Health.Yellow, spec.HealthYellow); err != nil {
		return err
	}
	if err := set("colors.health_red", &dst.Health.Red, spec.HealthRed); err != nil {
		return err
	}
	if err := set("colors.health_unknown", &dst.Health.Unknown, spec.HealthUnknown); err != nil {
		return err
	}
	return nil
}

func (s *StyleSpec) apply(base lipgloss.Style) (lipgloss.Style, error) {
	if s == nil {
		return base, nil
	}
	current := base
	if s.Foreground != nil {
		color, err := toColor("foreground", *s.Foreground)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Foreground(color)
	}
	if s.Background != nil {
		color, err := toColor("background", *s.Background)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Background(color)
	}
	if s.BorderColor != nil {
		color, err := toColor("border_color", *s.BorderColor)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.BorderForeground(color)
	}
	if s.BorderBackground != nil {
		color, err := toColor("border_background", *s.BorderBackground)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.BorderBackground(color)
	}
	if s.BorderStyle != nil {
		normalized := strings.ToLower(strings.TrimSpace(*s.BorderStyle))
		if normalized != "inherit" {
			border, err := parseBorderStyle(normalized)
			if err != nil {
				return lipgloss.Style{}, err
			}
			current = current.BorderStyle(border)
		}
	}
	if s.Bold != nil {
		current = current.Bold(*s.Bold)
	}
	if s.Italic != nil {
		current = current.Italic(*s.Italic)
	}
	if s.Underline != nil {
		current = current.Underline(*s.Underline)
	}
	if s.Faint != nil {
		current = current.Faint(*s.Faint)
	}
	if s.Strikethrough != nil {
		current = current.Strikethrough(*s.Strikethrough)
	}
	if s.Align != nil {
		align, err := parseAlign(*s.Align)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Align(align)
	}
	return current, nil
}

func toColor(field string, value string) (lipgloss.Color, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s: colour value may not be empty", field)
	}
	return lipgloss.Color(trimmed), nil
}

func parseAlign(value string) (lipgloss.Position, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "left", "start", "default", "":
		return lipgloss.Left, nil
	case "center", "centre", "middle":
		return lipgloss.Center, nil
	case "right", "end":
		return lipgloss.Right, nil
	default:
		return lipgloss.Left, fmt.Errorf("align: unknown alignment %q", value)
	}
}

func parseBorderStyle(value string) (lipgloss.Border, error) {
	switch value {
	case "":
		return lipgloss.Border{}, fmt.Errorf("border_style: value may not be empty")
	case "none", "hidden", "off":
		return lipgloss.Border{}, nil
	case "normal", "single":
		return lipgloss.NormalBorder(), nil
	case "rounded":
		return lipgloss.RoundedBorder(), nil
	case "thick", "heavy":
		return lipgloss.ThickBorder(), nil
	case "double":
		return lipgloss.DoubleBorder(), nil
	case "ascii":
		return lipgloss.Border{
			Top:         "-",
			Bottom:      "-",
			Left:        "|",
			Right:       "|",
			TopLeft:     "+",
			TopRight:    "+",
			BottomLeft:  "+",
			BottomRight: "+",
		}, nil
	case "block":
		return lipgloss.BlockBorder(), nil
	default:
		return lipgloss.Border{}, fmt.Errorf("border_style: unknown border style %q", value)
	}
}
