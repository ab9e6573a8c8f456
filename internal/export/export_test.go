package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/esterm/internal/esapi"
)

func sampleHits() []esapi.Hit {
	return []esapi.Hit{
		{ID: "a1", Index: "logs", Source: json.RawMessage(`{"seq":1152921504606846976,"msg":"boot"}`)},
		{ID: "a2", Index: "logs", Source: json.RawMessage(`{"seq":2,"msg":"ready"}`)},
	}
}

func TestHitsJSONKeepsLargeIntegers(t *testing.T) {
	data, err := Hits(sampleHits(), FormatJSON)
	if err != nil {
		t.Fatalf("hits: %v", err)
	}
	if !json.Valid(data) {
		t.Fatalf("output not valid JSON: %s", data)
	}
	if !bytes.Contains(data, []byte("1152921504606846976")) {
		t.Fatalf("large integer corrupted: %s", data)
	}
	if !bytes.Contains(data, []byte(`"_id": "a1"`)) {
		t.Fatalf("identity missing: %s", data)
	}
}

func TestHitsNDJSONOneDocPerLine(t *testing.T) {
	data, err := Hits(sampleHits(), FormatNDJSON)
	if err != nil {
		t.Fatalf("hits: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var lines int
	for scanner.Scan() {
		lines++
		var decoded struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("line %d not JSON: %v", lines, err)
		}
		if decoded.ID == "" {
			t.Fatalf("line %d missing id: %s", lines, scanner.Bytes())
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d", lines)
	}
}

func TestHitsYAMLParsesAndKeepsIntegers(t *testing.T) {
	data, err := Hits(sampleHits(), FormatYAML)
	if err != nil {
		t.Fatalf("hits: %v", err)
	}
	var decoded []map[string]any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("yaml parse: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(decoded))
	}
	source, ok := decoded[0]["_source"].(map[string]any)
	if !ok {
		t.Fatalf("source shape = %T", decoded[0]["_source"])
	}
	seq, ok := source["seq"].(int)
	if !ok {
		// yaml.v3 may decode into int64 on 32-bit platforms
		if seq64, ok64 := source["seq"].(int64); ok64 {
			if seq64 != 1152921504606846976 {
				t.Fatalf("seq = %d", seq64)
			}
			return
		}
		t.Fatalf("seq type = %T, value %v", source["seq"], source["seq"])
	}
	if int64(seq) != 1152921504606846976 {
		t.Fatalf("seq = %d", seq)
	}
}

func TestBodyNDJSONSplitsArrays(t *testing.T) {
	body := []byte(`[{"index":"a","docs.count":"10"},{"index":"b","docs.count":"20"}]`)
	data, err := Body(body, FormatNDJSON)
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Fatalf("line not JSON: %q", line)
		}
	}
}

func TestBodyJSONPrettyPrints(t *testing.T) {
	data, err := Body([]byte(`{"a":{"b":1}}`), FormatJSON)
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"a\"") {
		t.Fatalf("not indented: %q", data)
	}

	// Non-JSON passes through untouched for plain JSON export.
	data, err = Body([]byte("plain text"), FormatJSON)
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	if !strings.HasPrefix(string(data), "plain text") {
		t.Fatalf("plain body rewritten: %q", data)
	}
}

func TestBodyRejectsNonJSONForStructuredFormats(t *testing.T) {
	for _, format := range []Format{FormatNDJSON, FormatYAML} {
		if _, err := Body([]byte("plain text"), format); err == nil {
			t.Fatalf("expected error for %s", format)
		}
	}
}

func TestForPath(t *testing.T) {
	cases := map[string]Format{
		"dump.json":   FormatJSON,
		"dump.ndjson": FormatNDJSON,
		"dump.jsonl":  FormatNDJSON,
		"dump.YAML":   FormatYAML,
		"dump.yml":    FormatYAML,
		"dump.txt":    FormatJSON,
		"dump":        FormatJSON,
	}
	for path, want := range cases {
		if got := ForPath(path); got != want {
			t.Fatalf("ForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
