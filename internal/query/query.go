// Package query builds request payloads and paths for the search engine
// REST API: browse filters, the SQL surface, index management calls, and
// sort-spec normalization.
package query

import (
	"encoding/json"
	"strings"

	"github.com/unkn0wn-root/esterm/internal/errdef"
	"github.com/unkn0wn-root/esterm/internal/esapi"
)

// TieBreakField is appended to every sort spec so pagination cursors
// stay unambiguous across documents with equal user sort keys.
const TieBreakField = "_id"

const (
	SQLPath          = "/_sql?format=json"
	SQLTranslatePath = "/_sql/translate"
	CatIndicesPath   = "/_cat/indices?format=json&bytes=b"
	ClusterHealth    = "/_cluster/health"
)

// EffectiveSort returns the sort spec actually sent to the engine: blank
// fields dropped, and the id tie-break appended ascending unless the user
// already ends the spec on it. An empty spec sorts by id alone.
func EffectiveSort(fields []esapi.SortField) []esapi.SortField {
	out := make([]esapi.SortField, 0, len(fields)+1)
	for _, f := range fields {
		if strings.TrimSpace(f.Field) == "" {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 || out[len(out)-1].Field != TieBreakField {
		out = append(out, esapi.SortField{Field: TieBreakField, Order: esapi.SortAsc})
	}
	return out
}

// MatchAll is the browse query used when no filter text is set.
func MatchAll() json.RawMessage {
	return json.RawMessage(`{"match_all":{}}`)
}

// Filter wraps free filter text in a query_string subtree. Empty text
// falls back to match_all.
func Filter(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return MatchAll(), nil
	}
	payload := struct {
		QueryString struct {
			Query string `json:"query"`
		} `json:"query_string"`
	}{}
	payload.QueryString.Query = text
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeQuery, err, "encode filter")
	}
	return data, nil
}

func SearchPath(index string) (string, error) {
	index = strings.TrimSpace(index)
	if index == "" {
		return "", errdef.New(errdef.CodeQuery, "index is required")
	}
	return "/" + index + "/_search", nil
}

func RefreshPath(index string) string {
	return "/" + index + "/_refresh"
}

func IndexPath(index string) string {
	return "/" + index
}

// SQLBody builds the body for POST /_sql?format=json and /_sql/translate.
func SQLBody(sql string, fetchSize int) (string, error) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return "", errdef.New(errdef.CodeQuery, "sql statement is empty")
	}
	req := esapi.SQLRequest{Query: sql}
	if fetchSize > 0 {
		req.FetchSize = fetchSize
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeQuery, err, "encode sql request")
	}
	return string(data), nil
}

// CreateIndexBody builds index settings for PUT /{index}. Non-positive
// shard counts and negative replica counts fall back to one each; zero
// replicas is a valid choice and passes through.
func CreateIndexBody(shards, replicas int) string {
	if shards < 1 {
		shards = 1
	}
	if replicas < 0 {
		replicas = 1
	}
	body := struct {
		Settings struct {
			Shards   int `json:"number_of_shards"`
			Replicas int `json:"number_of_replicas"`
		} `json:"settings"`
	}{}
	body.Settings.Shards = shards
	body.Settings.Replicas = replicas
	data, _ := json.Marshal(body)
	return string(data)
}

// ValidateIndexName rejects names the engine itself refuses, so the
// create form can fail before a network round trip.
func ValidateIndexName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errdef.New(errdef.CodeQuery, "index name is required")
	}
	if strings.ToLower(name) != name {
		return errdef.New(errdef.CodeQuery, "index name must be lowercase: %q", name)
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "_") || strings.HasPrefix(name, "+") {
		return errdef.New(errdef.CodeQuery, "index name must not start with -, _ or +: %q", name)
	}
	if strings.ContainsAny(name, ` "\/*?<>|,#:`) {
		return errdef.New(errdef.CodeQuery, "index name contains forbidden characters: %q", name)
	}
	return nil
}
