// Package paging fetches one logical result page from the search engine,
// using direct offset paging below the result window limit and a
// sequential search_after cursor walk past it.
package paging

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/unkn0wn-root/esterm/internal/errdef"
	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/query"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

const (
	// WindowLimit is the engine's hard ceiling on from+size for direct
	// offset paging.
	WindowLimit = 10000
	// WalkBatchSize is the coarse cursor-walk step.
	WalkBatchSize = 1000
)

type Stage string

const (
	StageSkipping Stage = "skipping"
	StageLocating Stage = "locating"
	StageFetching Stage = "fetching"
)

// ProgressFunc receives cooperative progress while a deep page is
// assembled. It reports; it never controls the walk.
type ProgressFunc func(stage Stage, processed, target int)

// RequestBuilder turns method/path/body into a wire request carrying the
// connection's base URL and auth. conn.Descriptor.Request satisfies it.
type RequestBuilder func(method, path, body string) wire.Request

// PageSpec names one logical page of one index.
type PageSpec struct {
	Index string
	Query json.RawMessage
	Sort  []esapi.SortField
	Page  int
	Size  int
}

// Result is the outcome of a page fetch. Envelope and Raw describe the
// final full-payload response only; Skipped and Calls describe the walk.
type Result struct {
	Envelope esapi.SearchResponse
	Raw      []byte
	Skipped  int
	Calls    int
}

type Pager struct {
	Client   wire.Client
	Build    RequestBuilder
	Progress ProgressFunc
}

// Fetch returns the page named by spec. Requests past the end of the
// dataset return the empty or partial tail, never an error; transport
// failures and non-2xx responses abort the whole fetch.
func (p *Pager) Fetch(ctx context.Context, spec PageSpec) (*Result, error) {
	if spec.Page < 1 {
		return nil, errdef.New(errdef.CodeQuery, "page must be >= 1, got %d", spec.Page)
	}
	if spec.Size < 1 {
		return nil, errdef.New(errdef.CodeQuery, "size must be >= 1, got %d", spec.Size)
	}
	path, err := query.SearchPath(spec.Index)
	if err != nil {
		return nil, err
	}

	q := spec.Query
	if len(q) == 0 {
		q = query.MatchAll()
	}
	sort := query.EffectiveSort(spec.Sort)
	from := (spec.Page - 1) * spec.Size

	res := &Result{}
	if from+spec.Size <= WindowLimit {
		req := esapi.SearchRequest{
			From:           &from,
			Size:           spec.Size,
			Query:          q,
			Sort:           sort,
			TrackTotalHits: true,
		}
		env, raw, err := p.search(ctx, path, req)
		if err != nil {
			return nil, err
		}
		res.Envelope = *env
		res.Raw = raw
		res.Calls = 1
		return res, nil
	}

	cursor, skipped, calls, err := p.walkTo(ctx, path, q, sort, from)
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped
	res.Calls = calls

	p.report(StageFetching, 0, spec.Size)
	req := esapi.SearchRequest{
		Size:           spec.Size,
		Query:          q,
		Sort:           sort,
		TrackTotalHits: true,
		SearchAfter:    cursor,
	}
	env, raw, err := p.search(ctx, path, req)
	if err != nil {
		return nil, err
	}
	res.Envelope = *env
	res.Raw = raw
	res.Calls++
	return res, nil
}

// walkTo advances a cursor to logical offset from without ever sending
// the offset itself. Batches carry only sort values; a short or empty
// batch means the dataset ended and the walk stops where it stands.
func (p *Pager) walkTo(ctx context.Context, path string, q json.RawMessage, sort []esapi.SortField, from int) (cursor []json.RawMessage, skipped, calls int, err error) {
	noSource := false
	remaining := from

	for remaining >= WalkBatchSize {
		req := esapi.SearchRequest{
			Size:           WalkBatchSize,
			Query:          q,
			Sort:           sort,
			TrackTotalHits: true,
			SearchAfter:    cursor,
			Source:         &noSource,
		}
		env, _, serr := p.search(ctx, path, req)
		if serr != nil {
			return nil, 0, calls, serr
		}
		calls++
		hits := env.Hits.Hits
		if len(hits) == 0 {
			return cursor, skipped, calls, nil
		}
		cursor = hits[len(hits)-1].Sort
		skipped += len(hits)
		remaining -= len(hits)
		p.report(StageSkipping, skipped, from)
		if len(hits) < WalkBatchSize {
			return cursor, skipped, calls, nil
		}
	}

	if remaining > 0 {
		req := esapi.SearchRequest{
			Size:           remaining,
			Query:          q,
			Sort:           sort,
			TrackTotalHits: true,
			SearchAfter:    cursor,
			Source:         &noSource,
		}
		env, _, serr := p.search(ctx, path, req)
		if serr != nil {
			return nil, 0, calls, serr
		}
		calls++
		if hits := env.Hits.Hits; len(hits) > 0 {
			cursor = hits[len(hits)-1].Sort
			skipped += len(hits)
		}
		p.report(StageLocating, skipped, from)
	}
	return cursor, skipped, calls, nil
}

func (p *Pager) search(ctx context.Context, path string, req esapi.SearchRequest) (*esapi.SearchResponse, []byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, errdef.Wrap(errdef.CodeQuery, err, "encode search request")
	}
	resp, err := p.Client.Send(ctx, p.Build(http.MethodPost, path, string(body)))
	if err != nil {
		return nil, nil, err
	}
	if !resp.OK {
		reason := esapi.Reason(resp.Body)
		if reason == "" {
			reason = http.StatusText(resp.Status)
		}
		return nil, nil, errdef.New(errdef.CodeHTTP, "search failed with status %d: %s", resp.Status, reason)
	}
	var env esapi.SearchResponse
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, nil, errdef.Wrap(errdef.CodeHTTP, err, "decode search response")
	}
	return &env, resp.Body, nil
}

func (p *Pager) report(stage Stage, processed, target int) {
	if p.Progress != nil {
		p.Progress(stage, processed, target)
	}
}
