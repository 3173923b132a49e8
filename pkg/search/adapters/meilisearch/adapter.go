// Package meilisearch implements search.Store on a remote Meilisearch
// service. Writes wait for task completion so the pipeline's read-after-write
// expectations hold.
package meilisearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"

	"github.com/artefactual-forge/aipsearch/pkg/search"
)

// primaryKey names the Meilisearch primary key attribute. It is injected at
// index time and stripped back out of search hits, where it becomes the
// store-assigned document ID.
const primaryKey = "id"

// taskPollInterval is how often task completion is polled.
const taskPollInterval = 50 * time.Millisecond

// Config contains Meilisearch connection configuration.
type Config struct {
	Host   string
	APIKey string
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil || c.Host == "" {
		return fmt.Errorf("meilisearch host required")
	}
	if !strings.HasPrefix(c.Host, "http://") && !strings.HasPrefix(c.Host, "https://") {
		return fmt.Errorf("meilisearch host must be an http(s) URL")
	}
	return nil
}

// Store implements search.Store on a Meilisearch service.
type Store struct {
	client meilisearch.ServiceManager
}

var _ search.Store = (*Store)(nil)

// NewStore creates a Meilisearch-backed store. Connectivity is not probed
// here; the health-gated writer does that before the first write.
func NewStore(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &search.Error{Op: "meilisearch.NewStore", Err: search.ErrNotConfigured, Msg: err.Error()}
	}

	var opts []meilisearch.Option
	if cfg.APIKey != "" {
		opts = append(opts, meilisearch.WithAPIKey(cfg.APIKey))
	}

	return &Store{client: meilisearch.New(cfg.Host, opts...)}, nil
}

// Health probes the service. Meilisearch reports a single "available" state,
// mapped to green.
func (s *Store) Health(ctx context.Context) (search.Health, error) {
	health, err := s.client.Health()
	if err != nil {
		return search.Health{}, err
	}
	if health.Status != "available" {
		return search.Health{Status: search.StatusRed}, nil
	}
	return search.Health{Status: search.StatusGreen}, nil
}

// IndexExists reports whether every named index exists.
func (s *Store) IndexExists(ctx context.Context, names ...string) (bool, error) {
	for _, name := range names {
		_, err := s.client.GetIndex(name)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

func isNotFound(err error) bool {
	var apiErr *meilisearch.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// CreateIndex creates an index and configures its filterable and sortable
// attributes from the field specification. Creating an index that already
// exists is not an error.
func (s *Store) CreateIndex(ctx context.Context, name string, spec search.IndexSpec) error {
	task, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        name,
		PrimaryKey: primaryKey,
	})
	if err != nil {
		if isIndexExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create index %q: %w", name, err)
	}
	if err := s.waitForTask(task); err != nil {
		return fmt.Errorf("failed to create index %q: %w", name, err)
	}

	index := s.client.Index(name)

	filterable := filterableAttributes(spec)
	if task, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		return fmt.Errorf("failed to configure index %q: %w", name, err)
	} else if err := s.waitForTask(task); err != nil {
		return fmt.Errorf("failed to configure index %q: %w", name, err)
	}

	sortable := sortableAttributes(spec)
	if len(sortable) > 0 {
		if task, err := index.UpdateSortableAttributes(&sortable); err != nil {
			return fmt.Errorf("failed to configure index %q: %w", name, err)
		} else if err := s.waitForTask(task); err != nil {
			return fmt.Errorf("failed to configure index %q: %w", name, err)
		}
	}

	return nil
}

func isIndexExists(err error) bool {
	var apiErr *meilisearch.Error
	if errors.As(err, &apiErr) {
		return apiErr.MeilisearchApiError.Code == "index_already_exists"
	}
	return false
}

// filterableAttributes lists every mapped field so term and negation filters
// work on all of them. Nested sub-fields use dotted paths.
func filterableAttributes(spec search.IndexSpec) []string {
	attrs := make([]string, 0, len(spec.Fields))
	for field, fieldSpec := range spec.Fields {
		if fieldSpec.Type == search.FieldObject {
			continue
		}
		if fieldSpec.Type == search.FieldNested {
			for sub := range fieldSpec.Properties {
				attrs = append(attrs, field+"."+sub)
			}
			continue
		}
		attrs = append(attrs, field)
	}
	return attrs
}

func sortableAttributes(spec search.IndexSpec) []string {
	var attrs []string
	for field, fieldSpec := range spec.Fields {
		if fieldSpec.Sortable {
			attrs = append(attrs, field)
		}
	}
	return attrs
}

func (s *Store) waitForTask(task *meilisearch.TaskInfo) error {
	finished, err := s.client.WaitForTask(task.TaskUID, taskPollInterval)
	if err != nil {
		return err
	}
	if finished.Status != meilisearch.TaskStatusSucceeded {
		return fmt.Errorf("task %d failed: %s", task.TaskUID, finished.Error.Message)
	}
	return nil
}

// Index stores a document under a freshly assigned identifier.
func (s *Store) Index(ctx context.Context, index string, doc search.Document) (string, error) {
	docID := uuid.NewString()

	payload := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		payload[k] = v
	}
	payload[primaryKey] = docID

	task, err := s.client.Index(index).AddDocuments([]map[string]any{payload})
	if err != nil {
		return "", err
	}
	if err := s.waitForTask(task); err != nil {
		return "", err
	}
	return docID, nil
}

// Update patches the named fields of an existing document. Meilisearch merges
// partial documents sharing a primary key.
func (s *Store) Update(ctx context.Context, index, docID string, partial search.Document) error {
	payload := make(map[string]any, len(partial)+1)
	for k, v := range partial {
		payload[k] = v
	}
	payload[primaryKey] = docID

	task, err := s.client.Index(index).UpdateDocuments([]map[string]any{payload})
	if err != nil {
		return err
	}
	return s.waitForTask(task)
}

// Delete removes a single document.
func (s *Store) Delete(ctx context.Context, index, docID string) error {
	task, err := s.client.Index(index).DeleteDocument(docID)
	if err != nil {
		return err
	}
	return s.waitForTask(task)
}

// DeleteByQuery removes every document matching the query. The count returned
// is the match count observed before deletion.
func (s *Store) DeleteByQuery(ctx context.Context, index string, q search.Query) (int64, error) {
	filter := buildFilter(q)

	res, err := s.client.Index(index).Search("", &meilisearch.SearchRequest{
		Limit:  1,
		Filter: filter,
	})
	if err != nil {
		return 0, err
	}
	matched := res.EstimatedTotalHits
	if matched == 0 {
		return 0, nil
	}

	task, err := s.client.Index(index).DeleteDocumentsByFilter(filter)
	if err != nil {
		return 0, err
	}
	if err := s.waitForTask(task); err != nil {
		return 0, err
	}
	return matched, nil
}

// Search returns up to size hits for the query.
func (s *Store) Search(ctx context.Context, index string, q search.Query, size int64, fields []string) (*search.Hits, error) {
	req := &meilisearch.SearchRequest{
		Limit:  size,
		Filter: buildFilter(q),
	}
	if len(fields) > 0 {
		// The primary key must come back regardless so hits keep their
		// store-assigned ID.
		req.AttributesToRetrieve = append([]string{primaryKey}, fields...)
	}

	res, err := s.client.Index(index).Search("", req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := &search.Hits{Total: res.EstimatedTotalHits}
	for _, raw := range res.Hits {
		source, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		hit := search.Hit{Source: make(search.Document, len(source))}
		for k, v := range source {
			if k == primaryKey {
				hit.ID, _ = v.(string)
				continue
			}
			hit.Source[k] = v
		}
		hits.Hits = append(hits.Hits, hit)
	}
	return hits, nil
}

// buildFilter translates a search.Query into a Meilisearch filter expression.
// An empty expression (match-all) is returned as nil.
func buildFilter(q search.Query) any {
	if q.MatchAll {
		return nil
	}

	var clauses []string
	for field, value := range q.Term {
		clauses = append(clauses, fmt.Sprintf("%s = %q", field, value))
	}
	for field, value := range q.Not {
		clauses = append(clauses, fmt.Sprintf("%s != %q", field, value))
	}
	if len(clauses) == 0 {
		return nil
	}
	return strings.Join(clauses, " AND ")
}
