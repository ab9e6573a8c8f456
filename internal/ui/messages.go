package ui

import (
	"time"

	"github.com/unkn0wn-root/esterm/internal/batch"
	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/paging"
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
	statusSuccess
)

type statusMsg struct {
	text  string
	level statusLevel
}

// clusterInfoMsg carries the connect-time probe of GET / and
// /_cluster/health. Either half may be nil when its call failed.
type clusterInfoMsg struct {
	info   *esapi.ClusterInfo
	health *esapi.ClusterHealth
	err    error
}

// profileTestMsg reports a standalone probe of a profile that leaves the
// active connection untouched.
type profileTestMsg struct {
	name string
	info *esapi.ClusterInfo
	err  error
}

type pageFetchedMsg struct {
	result *paging.Result
	page   int
	size   int
	took   time.Duration
	err    error
}

type pagingProgressMsg struct {
	stage     paging.Stage
	processed int
	target    int
}

type sqlResultMsg struct {
	res  *esapi.SQLResponse
	raw  []byte
	sql  string
	took time.Duration
	err  error
}

type sqlTranslatedMsg struct {
	body string
	err  error
}

type batchProgressMsg struct {
	completed int
	total     int
}

type batchDoneMsg struct {
	results []batch.Result
	took    time.Duration
}

type indicesLoadedMsg struct {
	indices []esapi.IndexInfo
	err     error
}

// indexMutatedMsg reports create/delete/refresh outcomes; the list is
// reloaded on success.
type indexMutatedMsg struct {
	action string
	index  string
	err    error
}
