package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

const (
	WireBackendDirect = "direct"
	WireBackendBridge = "bridge"
)

const (
	PageSizeDefault    = 50
	PageSizeMax        = 10000
	ConcurrencyDefault = 4
	RetryCountMax      = 10
	RetryDelayDefault  = 500
	HistoryLimitMin    = 10
	HistoryLimitMax    = 10000
	HistoryLimitDef    = 200
)

type Settings struct {
	DefaultTheme    string            `json:"default_theme"     toml:"default_theme"`
	DefaultPageSize int               `json:"default_page_size" toml:"default_page_size"`
	WireBackend     string            `json:"wire_backend"      toml:"wire_backend"`
	BridgeCommand   string            `json:"bridge_command"    toml:"bridge_command"`
	HistoryLimit    int               `json:"history_limit"     toml:"history_limit"`
	Batch           BatchSettings     `json:"batch"             toml:"batch"`
	Telemetry       TelemetrySettings `json:"telemetry"         toml:"telemetry"`
	Layout          LayoutSettings    `json:"layout"            toml:"layout"`
}

type BatchSettings struct {
	Concurrency  int  `json:"concurrency"    toml:"concurrency"`
	RetryCount   int  `json:"retry_count"    toml:"retry_count"`
	RetryDelayMs int  `json:"retry_delay_ms" toml:"retry_delay_ms"`
	StopOnError  bool `json:"stop_on_error"  toml:"stop_on_error"`
	PrettyPrint  bool `json:"pretty_print"   toml:"pretty_print"`
}

type TelemetrySettings struct {
	Enabled     bool   `json:"enabled"      toml:"enabled"`
	Endpoint    string `json:"endpoint"     toml:"endpoint"`
	Insecure    bool   `json:"insecure"     toml:"insecure"`
	ServiceName string `json:"service_name" toml:"service_name"`
}

type SettingsFormat string
type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

// tries loading TOML first, then JSON, then returns default settings if
// neither exists. parse errors fail immediately but missing files just
// skip to the next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return NormaliseSettings(settings), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}

	return NormaliseSettings(Settings{}), SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

// NormaliseSettings clamps every tunable into its working range so a
// hand-edited file can never push the runtime outside safe bounds.
func NormaliseSettings(in Settings) Settings {
	out := in
	out.DefaultPageSize = clampInt(in.DefaultPageSize, 1, PageSizeMax, PageSizeDefault)
	out.HistoryLimit = clampInt(in.HistoryLimit, HistoryLimitMin, HistoryLimitMax, HistoryLimitDef)
	out.Batch.Concurrency = clampInt(in.Batch.Concurrency, 1, 10, ConcurrencyDefault)
	out.Batch.RetryCount = clampInt(in.Batch.RetryCount, 0, RetryCountMax, 0)
	out.Batch.RetryDelayMs = clampInt(in.Batch.RetryDelayMs, 0, 60000, RetryDelayDefault)

	switch strings.ToLower(strings.TrimSpace(in.WireBackend)) {
	case WireBackendBridge:
		out.WireBackend = WireBackendBridge
	default:
		out.WireBackend = WireBackendDirect
	}
	if strings.TrimSpace(out.Telemetry.ServiceName) == "" {
		out.Telemetry.ServiceName = "esterm"
	}
	out.Layout = NormaliseLayoutSettings(in.Layout)
	return out
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings = NormaliseSettings(settings)
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)

	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}

// write to temp file then rename so readers never see partial/corrupt
// data. rename is atomic on most filesystems so the settings file is
// always valid.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".esterm-settings-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	return nil
}

func clampInt(value, min, max, fallback int) int {
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
