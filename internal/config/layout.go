package config

import "strings"

type LayoutDetailSplit string

const (
	LayoutDetailSplitVertical   LayoutDetailSplit = "vertical"
	LayoutDetailSplitHorizontal LayoutDetailSplit = "horizontal"
)

type LayoutSettings struct {
	SidebarWidth      float64           `json:"sidebar_width"      toml:"sidebar_width"`
	DetailRatio       float64           `json:"detail_ratio"       toml:"detail_ratio"`
	DetailOrientation LayoutDetailSplit `json:"detail_orientation" toml:"detail_orientation"`
}

const (
	LayoutSidebarWidthDefault = 0.25
	LayoutSidebarWidthMin     = 0.1
	LayoutSidebarWidthMax     = 0.5
	LayoutDetailRatioDefault  = 0.5
	LayoutDetailRatioMin      = 0.2
	LayoutDetailRatioMax      = 0.8
)

func DefaultLayoutSettings() LayoutSettings {
	return LayoutSettings{
		SidebarWidth:      LayoutSidebarWidthDefault,
		DetailRatio:       LayoutDetailRatioDefault,
		DetailOrientation: LayoutDetailSplitVertical,
	}
}

func NormaliseLayoutSettings(in LayoutSettings) LayoutSettings {
	layout := DefaultLayoutSettings()
	layout.SidebarWidth = clampFloat(
		in.SidebarWidth,
		LayoutSidebarWidthMin,
		LayoutSidebarWidthMax,
		LayoutSidebarWidthDefault,
	)
	layout.DetailRatio = clampFloat(
		in.DetailRatio,
		LayoutDetailRatioMin,
		LayoutDetailRatioMax,
		LayoutDetailRatioDefault,
	)
	layout.DetailOrientation = normaliseDetailSplit(in.DetailOrientation, layout.DetailOrientation)
	return layout
}

func normaliseDetailSplit(in LayoutDetailSplit, def LayoutDetailSplit) LayoutDetailSplit {
	switch strings.ToLower(strings.TrimSpace(string(in))) {
	case string(LayoutDetailSplitHorizontal):
		return LayoutDetailSplitHorizontal
	case string(LayoutDetailSplitVertical):
		return LayoutDetailSplitVertical
	default:
		return def
	}
}

func clampFloat[T ~float64](value, min, max, fallback T) T {
	if value == 0 {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
