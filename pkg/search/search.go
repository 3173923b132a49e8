// Package search defines the store-facing types for indexing preservation
// objects: the logical indexes and their field specifications, the Store
// interface adapters implement, the health-gated retrying writer, and the
// query/mutation client used by the indexing pipeline and the front end.
package search

import (
	"context"
)

// Logical index names. The set is fixed at compile time; EnsureIndexes creates
// any that are missing from the backing store.
const (
	IndexAIPs          = "aips"
	IndexAIPFiles      = "aipfiles"
	IndexTransfers     = "transfers"
	IndexTransferFiles = "transferfiles"
)

// IndexNames returns all logical index names.
func IndexNames() []string {
	return []string{IndexAIPs, IndexAIPFiles, IndexTransfers, IndexTransferFiles}
}

// MaxQuerySize bounds every search issued through the client. Result sets
// larger than this are truncated with a logged warning.
const MaxQuerySize = 50000

// Document is one indexed entity. Values may be nested maps and lists provided
// they already passed through the normalize package.
type Document map[string]any

// Hit is a single search result. ID is the store-assigned document identifier,
// distinct from any domain identifier carried inside Source.
type Hit struct {
	ID     string
	Source Document
}

// Hits is a search result page. Total is the true match count, which can
// exceed len(Hits) when the request size bounded the page.
type Hits struct {
	Total int64
	Hits  []Hit
}

// Query is the subset of query shapes the subsystem needs: exact term matches
// (ANDed), negated terms, or match-all.
type Query struct {
	// Term fields must match exactly.
	Term map[string]string

	// Not fields must not match.
	Not map[string]string

	// MatchAll matches every document. Term and Not are ignored.
	MatchAll bool
}

// TermQuery builds a single-field exact-match query.
func TermQuery(field, value string) Query {
	return Query{Term: map[string]string{field: value}}
}

// MatchAllQuery matches every document in an index.
func MatchAllQuery() Query {
	return Query{MatchAll: true}
}

// BacklogFilter matches transfer files held in the backlog, including
// administrative files that have no file UUID.
func BacklogFilter() Query {
	return TermQuery("status", "backlog")
}

// BacklogFilterNoAdministrative matches transfer files held in the backlog,
// omitting administrative files (metadata and log directories) that carry an
// empty file UUID.
func BacklogFilterNoAdministrative() Query {
	return Query{
		Term: map[string]string{"status": "backlog"},
		Not:  map[string]string{"fileuuid": ""},
	}
}

// Health levels reported by a store. Writes proceed when the store is at least
// StatusYellow.
const (
	StatusGreen  = "green"
	StatusYellow = "yellow"
	StatusRed    = "red"
)

// Health is a store readiness report.
type Health struct {
	Status string
}

// Store is the search backend consumed by this subsystem. Implementations live
// under adapters/. Every call blocks until the backend answers; cancellation
// is the caller's responsibility via ctx.
type Store interface {
	// Health reports cluster or index readiness. Probe failures return an
	// error rather than a red status.
	Health(ctx context.Context) (Health, error)

	// IndexExists reports whether every named index exists.
	IndexExists(ctx context.Context, names ...string) (bool, error)

	// CreateIndex creates an index with the given field specification. An
	// index that already exists is left untouched and is not an error.
	CreateIndex(ctx context.Context, name string, spec IndexSpec) error

	// Index stores a document and returns the store-assigned document ID.
	Index(ctx context.Context, index string, doc Document) (string, error)

	// Update patches the named fields of an existing document.
	Update(ctx context.Context, index, docID string, partial Document) error

	// Delete removes a single document by store-assigned ID.
	Delete(ctx context.Context, index, docID string) error

	// DeleteByQuery removes every document matching the query and returns
	// the number removed.
	DeleteByQuery(ctx context.Context, index string, query Query) (int64, error)

	// Search returns up to size hits for the query. A non-empty fields
	// list restricts the source fields returned.
	Search(ctx context.Context, index string, query Query, size int64, fields []string) (*Hits, error)
}

// AugmentResults copies each hit's source and injects the store-assigned
// identifier under "document_id", the shape the dashboard consumes.
func AugmentResults(hits *Hits) []Document {
	out := make([]Document, 0, len(hits.Hits))
	for _, hit := range hits.Hits {
		clone := make(Document, len(hit.Source)+1)
		for k, v := range hit.Source {
			clone[k] = v
		}
		clone["document_id"] = hit.ID
		out = append(out, clone)
	}
	return out
}
