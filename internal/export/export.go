// Package export renders search hits and raw response bodies as JSON,
// NDJSON, or YAML for saving to disk.
package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/esterm/internal/errdef"
	"github.com/unkn0wn-root/esterm/internal/esapi"
)

type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
)

// ForPath picks an export format from the file extension, defaulting to
// JSON.
func ForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type doc struct {
	ID     string          `json:"_id"`
	Index  string          `json:"_index"`
	Source json.RawMessage `json:"_source,omitempty"`
}

// Hits renders search hits. JSON and NDJSON keep document sources as raw
// bytes so numeric fields survive untouched; YAML converts through a
// number-preserving decode.
func Hits(hits []esapi.Hit, format Format) ([]byte, error) {
	docs := make([]doc, len(hits))
	for i, h := range hits {
		docs[i] = doc{ID: h.ID, Index: h.Index, Source: h.Source}
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "encode hits")
		}
		return append(data, '\n'), nil
	case FormatNDJSON:
		var buf bytes.Buffer
		for _, d := range docs {
			line, err := json.Marshal(d)
			if err != nil {
				return nil, errdef.Wrap(errdef.CodeFilesystem, err, "encode hit")
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	case FormatYAML:
		values := make([]any, len(docs))
		for i, d := range docs {
			raw, err := json.Marshal(d)
			if err != nil {
				return nil, errdef.Wrap(errdef.CodeFilesystem, err, "encode hit")
			}
			v, err := yamlValue(raw)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return marshalYAML(values)
	}
	return nil, errdef.New(errdef.CodeFilesystem, "unknown export format %q", format)
}

// Body renders one raw response body. NDJSON splits a top-level JSON
// array into one element per line; anything else becomes a single line.
func Body(raw []byte, format Format) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	switch format {
	case FormatJSON:
		if !json.Valid(trimmed) {
			return append(append([]byte(nil), raw...), '\n'), nil
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "format body")
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case FormatNDJSON:
		if !json.Valid(trimmed) {
			return nil, errdef.New(errdef.CodeFilesystem, "response body is not JSON")
		}
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var elems []json.RawMessage
			if err := json.Unmarshal(trimmed, &elems); err != nil {
				return nil, errdef.Wrap(errdef.CodeFilesystem, err, "split array body")
			}
			var buf bytes.Buffer
			for _, el := range elems {
				if err := json.Compact(&buf, el); err != nil {
					return nil, errdef.Wrap(errdef.CodeFilesystem, err, "compact element")
				}
				buf.WriteByte('\n')
			}
			return buf.Bytes(), nil
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "compact body")
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case FormatYAML:
		if !json.Valid(trimmed) {
			return nil, errdef.New(errdef.CodeFilesystem, "response body is not JSON")
		}
		v, err := yamlValue(trimmed)
		if err != nil {
			return nil, err
		}
		return marshalYAML(v)
	}
	return nil, errdef.New(errdef.CodeFilesystem, "unknown export format %q", format)
}

// WriteFile writes export output, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create export dir")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write export file")
	}
	return nil
}

// yamlValue decodes JSON into plain values for the YAML encoder. Numbers
// go through json.Number so large integers keep their exact value
// instead of rounding through float64.
func yamlValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "decode body")
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeNumbers(val)
		}
		return t
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	default:
		return v
	}
}

func marshalYAML(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "encode yaml")
	}
	return data, nil
}
