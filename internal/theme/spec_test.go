package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func strPtr(value string) *string {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func TestApplySpecOverridesStylesAndColors(t *testing.T) {
	base := DarkTheme()
	spec := ThemeSpec{
		Styles: StylesSpec{
			TabActive:     &StyleSpec{Background: strPtr("#123456"), Bold: boolPtr(false)},
			TableRow:      &StyleSpec{Foreground: strPtr("#9999aa")},
			DetailBorder:  &StyleSpec{BorderColor: strPtr("#abcdef"), BorderStyle: strPtr("double")},
			Error:         &StyleSpec{Foreground: strPtr("#aa0000"), Underline: boolPtr(true)},
			StatusBarKey:  &StyleSpec{Foreground: strPtr("#00ff88")},
			DetailContent: &StyleSpec{Align: strPtr("center")},
		},
		Colors: ColorsSpec{
			MethodDELETE: strPtr("#330000"),
			HealthYellow: strPtr("#fffa00"),
		},
	}

	updated, err := ApplySpec(base, spec)
	if err != nil {
		t.Fatalf("ApplySpec returned error: %v", err)
	}

	if color := updated.TabActive.GetBackground(); color != lipgloss.Color("#123456") {
		t.Errorf("expected tab active background #123456, got %v", color)
	}
	if updated.TabActive.GetBold() {
		t.Errorf("expected bold cleared on tab active")
	}
	if color := updated.TableRow.GetForeground(); color != lipgloss.Color("#9999aa") {
		t.Errorf("expected table row foreground #9999aa, got %v", color)
	}
	if color := updated.DetailBorder.GetBorderTopForeground(); color != lipgloss.Color("#abcdef") {
		t.Errorf("expected detail border color #abcdef, got %v", color)
	}
	if color := updated.Error.GetForeground(); color != lipgloss.Color("#aa0000") {
		t.Errorf("expected error foreground #aa0000, got %v", color)
	}
	if !updated.Error.GetUnderline() {
		t.Errorf("expected underline on error style")
	}
	if updated.DetailContent.GetAlignHorizontal() != lipgloss.Center {
		t.Errorf("expected centered detail content")
	}
	if updated.MethodColors.DELETE != "#330000" {
		t.Errorf("expected DELETE method color override, got %q", updated.MethodColors.DELETE)
	}
	if updated.Health.Yellow != "#fffa00" {
		t.Errorf("expected yellow health override, got %q", updated.Health.Yellow)
	}
	if base.MethodColors.DELETE == "#330000" {
		t.Errorf("base theme should remain unchanged")
	}
}

func TestApplySpecRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		spec ThemeSpec
	}{
		{
			name: "empty colour",
			spec: ThemeSpec{Styles: StylesSpec{Header: &StyleSpec{Foreground: strPtr("  ")}}},
		},
		{
			name: "unknown border",
			spec: ThemeSpec{Styles: StylesSpec{DetailBorder: &StyleSpec{BorderStyle: strPtr("wavy")}}},
		},
		{
			name: "unknown align",
			spec: ThemeSpec{Styles: StylesSpec{Header: &StyleSpec{Align: strPtr("diagonal")}}},
		},
		{
			name: "empty health colour",
			spec: ThemeSpec{Colors: ColorsSpec{HealthRed: strPtr("")}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ApplySpec(DarkTheme(), tc.spec); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestMethodColorsLookup(t *testing.T) {
	colors := DarkTheme().MethodColors
	if colors.For("GET") != colors.GET {
		t.Errorf("expected GET color")
	}
	if colors.For("OPTIONS") != colors.Default {
		t.Errorf("expected default color for unmapped method")
	}
}

func TestHealthColorsLookup(t *testing.T) {
	health := DarkTheme().Health
	if health.For("green") != health.Green {
		t.Errorf("expected green mapping")
	}
	if health.For("purple") != health.Unknown {
		t.Errorf("expected unknown mapping for unrecognized status")
	}
}
