package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLoadCatalogIncludesBuiltinsAndUserThemes(t *testing.T) {
	dir := t.TempDir()

	tomlContent := []byte(`
[metadata]
name = "Oceanic"
author = "QA"

[styles.tab_active]
background = "#335577"

[colors]
health_green = "#00cc66"
`)
	if err := os.WriteFile(filepath.Join(dir, "oceanic.toml"), tomlContent, 0o644); err != nil {
		t.Fatalf("write toml theme: %v", err)
	}

	jsonContent := []byte(`{
  "metadata": {
    "name": "Oceanic",
    "author": "QA"
  },
  "base": "light",
  "colors": {
    "method_get": "#ff9900"
  }
}`)
	if err := os.WriteFile(filepath.Join(dir, "sunset.json"), jsonContent, 0o644); err != nil {
		t.Fatalf("write json theme: %v", err)
	}

	catalog, err := LoadCatalog([]string{dir})
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}

	if _, ok := catalog.Get("dark"); !ok {
		t.Fatalf("expected dark builtin to be present")
	}
	if _, ok := catalog.Get("light"); !ok {
		t.Fatalf("expected light builtin to be present")
	}

	oceanic, ok := catalog.Get("oceanic")
	if !ok {
		t.Fatalf("expected oceanic theme to load")
	}
	if oceanic.Metadata.Author != "QA" {
		t.Fatalf("expected author QA, got %q", oceanic.Metadata.Author)
	}
	if color := oceanic.Theme.TabActive.GetBackground(); color != lipgloss.Color("#335577") {
		t.Fatalf("expected tab active background override, got %v", color)
	}
	if oceanic.Theme.Health.Green != "#00cc66" {
		t.Fatalf("expected health green override, got %q", oceanic.Theme.Health.Green)
	}

	duplicate, ok := catalog.Get("oceanic-1")
	if !ok {
		t.Fatalf("expected duplicate slug to be uniquified")
	}
	if duplicate.Theme.MethodColors.GET != "#ff9900" {
		t.Fatalf("expected JSON theme color override, got %q", duplicate.Theme.MethodColors.GET)
	}
	if duplicate.Theme.Health.Green != LightTheme().Health.Green {
		t.Fatalf("expected light base for JSON theme, got %q", duplicate.Theme.Health.Green)
	}
}

func TestLoadCatalogHandlesMissingDirectory(t *testing.T) {
	catalog, err := LoadCatalog([]string{"/nonexistent/path"})
	if err != nil {
		t.Fatalf("LoadCatalog should not error on missing directories: %v", err)
	}
	if _, ok := catalog.Get("dark"); !ok {
		t.Fatalf("expected builtins even when directories are missing")
	}
	if len(catalog.All()) != 2 {
		t.Fatalf("expected only builtin themes, got %d", len(catalog.All()))
	}
}

func TestLoadCatalogRejectsUnknownBase(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
base = "solarized"

[metadata]
name = "Broken"
`)
	if err := os.WriteFile(filepath.Join(dir, "broken.toml"), content, 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}

	catalog, err := LoadCatalog([]string{dir})
	if err == nil {
		t.Fatalf("expected error for unknown base theme")
	}
	if len(catalog.All()) != 2 {
		t.Fatalf("broken theme should not join the catalog, got %d entries", len(catalog.All()))
	}
}
