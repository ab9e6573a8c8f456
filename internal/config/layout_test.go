package config

import "testing"

func TestNormaliseLayoutSettingsDefaultsAndBounds(t *testing.T) {
	layout := NormaliseLayoutSettings(LayoutSettings{})
	if layout.SidebarWidth != LayoutSidebarWidthDefault {
		t.Fatalf(
			"expected sidebar width default %v, got %v",
			LayoutSidebarWidthDefault,
			layout.SidebarWidth,
		)
	}
	if layout.DetailRatio != LayoutDetailRatioDefault {
		t.Fatalf(
			"expected detail ratio default %v, got %v",
			LayoutDetailRatioDefault,
			layout.DetailRatio,
		)
	}
	if layout.DetailOrientation != LayoutDetailSplitVertical {
		t.Fatalf("expected detail orientation vertical, got %v", layout.DetailOrientation)
	}
}

func TestNormaliseLayoutSettingsClampsValues(t *testing.T) {
	raw := LayoutSettings{
		SidebarWidth:      1.2,
		DetailRatio:       0.01,
		DetailOrientation: "Diagonal",
	}
	layout := NormaliseLayoutSettings(raw)
	if layout.SidebarWidth != LayoutSidebarWidthMax {
		t.Fatalf(
			"expected sidebar width clamped to %v, got %v",
			LayoutSidebarWidthMax,
			layout.SidebarWidth,
		)
	}
	if layout.DetailRatio != LayoutDetailRatioMin {
		t.Fatalf(
			"expected detail ratio clamped to %v, got %v",
			LayoutDetailRatioMin,
			layout.DetailRatio,
		)
	}
	if layout.DetailOrientation != LayoutDetailSplitVertical {
		t.Fatalf(
			"expected detail orientation fallback to vertical, got %v",
			layout.DetailOrientation,
		)
	}
}

func TestNormaliseDetailSplitHonoursExplicitHorizontal(t *testing.T) {
	split := normaliseDetailSplit(LayoutDetailSplitHorizontal, LayoutDetailSplitVertical)
	if split != LayoutDetailSplitHorizontal {
		t.Fatalf("expected explicit horizontal to be preserved, got %v", split)
	}
}
