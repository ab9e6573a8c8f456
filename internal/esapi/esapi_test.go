package esapi

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSortFieldMarshalShape(t *testing.T) {
	data, err := json.Marshal(SortField{Field: "price", Order: SortDesc})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"price":{"order":"desc"}}` {
		t.Fatalf("unexpected clause %s", got)
	}
}

func TestSortFieldDefaultsAscending(t *testing.T) {
	data, err := json.Marshal(SortField{Field: "_id"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"_id":{"order":"asc"}}` {
		t.Fatalf("unexpected clause %s", got)
	}
}

func TestSortFieldRoundTrip(t *testing.T) {
	in := []SortField{{Field: "created_at", Order: SortDesc}, {Field: "_id", Order: SortAsc}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []SortField
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestSortFieldRejectsMultiFieldClause(t *testing.T) {
	var f SortField
	if err := json.Unmarshal([]byte(`{"a":{"order":"asc"},"b":{"order":"asc"}}`), &f); err == nil {
		t.Fatalf("expected error for multi-field clause")
	}
}

func TestHitSortValuesSurviveRoundTrip(t *testing.T) {
	// 2^60 cannot survive a float64 round trip; raw retention must keep it.
	body := []byte(`{"_id":"a","_index":"logs","sort":[1152921504606846976,"a"]}`)
	var hit Hit
	if err := json.Unmarshal(body, &hit); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hit.Sort) != 2 {
		t.Fatalf("expected 2 sort values, got %d", len(hit.Sort))
	}
	if !bytes.Equal(hit.Sort[0], []byte("1152921504606846976")) {
		t.Fatalf("sort key mangled: %s", hit.Sort[0])
	}
}

func TestReason(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"root cause", `{"error":{"root_cause":[{"type":"x","reason":"no such index [a]"}],"reason":"outer"},"status":404}`, "no such index [a]"},
		{"reason only", `{"error":{"reason":"parsing_exception"}}`, "parsing_exception"},
		{"type only", `{"error":{"type":"index_not_found_exception"}}`, "index_not_found_exception"},
		{"bare string", `{"error":"Incorrect HTTP method for uri"}`, "Incorrect HTTP method for uri"},
		{"no error", `{"hits":{"total":{"value":0}}}`, ""},
		{"empty", ``, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Reason([]byte(tc.body)); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestSearchRequestOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(SearchRequest{Size: 25, TrackTotalHits: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, forbidden := range []string{"from", "search_after", "_source", "query", "sort"} {
		if _, ok := decoded[forbidden]; ok {
			t.Fatalf("field %q should be omitted: %s", forbidden, data)
		}
	}
	if decoded["track_total_hits"] != true {
		t.Fatalf("track_total_hits must always serialize")
	}
}
