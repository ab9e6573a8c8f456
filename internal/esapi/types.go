package esapi

import "encoding/json"

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	RelationEq  = "eq"
	RelationGte = "gte"
)

// SearchRequest is the body of POST /{index}/_search. From and SearchAfter
// are mutually exclusive: From drives direct offset paging, SearchAfter the
// cursor walk. Source is only ever set to false, on payload-suppressed scan
// batches.
type SearchRequest struct {
	From           *int              `json:"from,omitempty"`
	Size           int               `json:"size"`
	Query          json.RawMessage   `json:"query,omitempty"`
	Sort           []SortField       `json:"sort,omitempty"`
	TrackTotalHits bool              `json:"track_total_hits"`
	SearchAfter    []json.RawMessage `json:"search_after,omitempty"`
	Source         *bool             `json:"_source,omitempty"`
}

type SearchResponse struct {
	Took     int          `json:"took"`
	TimedOut bool         `json:"timed_out"`
	Hits     HitsEnvelope `json:"hits"`
}

type HitsEnvelope struct {
	Total Total `json:"total"`
	Hits  []Hit `json:"hits"`
}

type Total struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// Sort values are kept raw so a cursor re-marshals byte-identical; decoding
// into float64 would corrupt large integer sort keys.
type Hit struct {
	ID     string            `json:"_id"`
	Index  string            `json:"_index"`
	Score  *float64          `json:"_score"`
	Source json.RawMessage   `json:"_source"`
	Sort   []json.RawMessage `json:"sort,omitempty"`
}

type ClusterInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
	Tagline string `json:"tagline"`
}

type ClusterHealth struct {
	ClusterName         string `json:"cluster_name"`
	Status              string `json:"status"`
	NumberOfNodes       int    `json:"number_of_nodes"`
	NumberOfDataNodes   int    `json:"number_of_data_nodes"`
	ActivePrimaryShards int    `json:"active_primary_shards"`
	ActiveShards        int    `json:"active_shards"`
	RelocatingShards    int    `json:"relocating_shards"`
	InitializingShards  int    `json:"initializing_shards"`
	UnassignedShards    int    `json:"unassigned_shards"`
}

// IndexInfo mirrors one row of GET /_cat/indices?format=json&bytes=b. The
// cat API reports every column as a string.
type IndexInfo struct {
	Health       string `json:"health"`
	Status       string `json:"status"`
	Index        string `json:"index"`
	UUID         string `json:"uuid"`
	Pri          string `json:"pri"`
	Rep          string `json:"rep"`
	DocsCount    string `json:"docs.count"`
	DocsDeleted  string `json:"docs.deleted"`
	StoreSize    string `json:"store.size"`
	PriStoreSize string `json:"pri.store.size"`
}

type SQLRequest struct {
	Query     string `json:"query"`
	FetchSize int    `json:"fetch_size,omitempty"`
}

type SQLColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type SQLResponse struct {
	Columns []SQLColumn         `json:"columns"`
	Rows    [][]json.RawMessage `json:"rows"`
	Cursor  string              `json:"cursor,omitempty"`
}
