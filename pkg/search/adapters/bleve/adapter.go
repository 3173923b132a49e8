// Package bleve implements search.Store on embedded Bleve indexes. Each
// logical index is a separate Bleve index under a shared base directory, so a
// single node can run the full indexing pipeline without an external search
// service.
package bleve

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"github.com/artefactual-forge/aipsearch/pkg/search"
)

// sourceField carries the verbatim JSON source of each document. It is stored
// but never indexed; search hits are rehydrated from it so callers get back
// exactly what they indexed, nesting included.
const sourceField = "_source"

// Config contains Bleve configuration.
type Config struct {
	// Path is the base directory holding one <index>.bleve per logical
	// index.
	Path string
}

// Store implements search.Store on local Bleve indexes.
type Store struct {
	basePath string

	mu      sync.Mutex
	indexes map[string]bleve.Index
}

var _ search.Store = (*Store)(nil)

// NewStore opens a Bleve-backed store rooted at cfg.Path. Indexes already on
// disk are opened lazily on first use.
func NewStore(cfg *Config) (*Store, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, &search.Error{Op: "bleve.NewStore", Err: search.ErrNotConfigured, Msg: "index path required"}
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	return &Store{
		basePath: cfg.Path,
		indexes:  make(map[string]bleve.Index),
	}, nil
}

// Close closes every open index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, idx := range s.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close index %q: %w", name, err)
		}
		delete(s.indexes, name)
	}
	return firstErr
}

func (s *Store) indexPath(name string) string {
	return filepath.Join(s.basePath, name+".bleve")
}

// getIndex returns the open Bleve index for name, opening it from disk if it
// exists but is not yet open.
func (s *Store) getIndex(name string) (bleve.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.indexes[name]; ok {
		return idx, nil
	}

	idx, err := bleve.Open(s.indexPath(name))
	if err == bleve.ErrorIndexPathDoesNotExist {
		return nil, fmt.Errorf("index %q does not exist", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index %q: %w", name, err)
	}

	s.indexes[name] = idx
	return idx, nil
}

// Health reports green when every open index answers a document count. Bleve
// is embedded, so there is no yellow state: it is either usable or broken.
func (s *Store) Health(ctx context.Context) (search.Health, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, idx := range s.indexes {
		if _, err := idx.DocCount(); err != nil {
			return search.Health{}, fmt.Errorf("index %q unhealthy: %w", name, err)
		}
	}
	return search.Health{Status: search.StatusGreen}, nil
}

// IndexExists reports whether every named index exists on disk.
func (s *Store) IndexExists(ctx context.Context, names ...string) (bool, error) {
	for _, name := range names {
		if _, err := os.Stat(s.indexPath(name)); err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

// CreateIndex creates a Bleve index with a mapping derived from spec. An index
// already on disk is left untouched.
func (s *Store) CreateIndex(ctx context.Context, name string, spec search.IndexSpec) error {
	exists, err := s.IndexExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	idx, err := bleve.New(s.indexPath(name), buildMapping(spec))
	if err != nil {
		return fmt.Errorf("failed to create index %q: %w", name, err)
	}

	s.mu.Lock()
	s.indexes[name] = idx
	s.mu.Unlock()
	return nil
}

// buildMapping translates an IndexSpec into a Bleve index mapping. The source
// field is mapped stored-only so hits can be rehydrated.
func buildMapping(spec search.IndexSpec) mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	for field, fieldSpec := range spec.Fields {
		applyFieldSpec(docMapping, field, fieldSpec)
	}

	srcMapping := bleve.NewTextFieldMapping()
	srcMapping.Index = false
	srcMapping.Store = true
	srcMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(sourceField, srcMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

func applyFieldSpec(docMapping *mapping.DocumentMapping, field string, spec search.FieldSpec) {
	switch spec.Type {
	case search.FieldKeyword:
		docMapping.AddFieldMappingsAt(field, bleve.NewKeywordFieldMapping())

	case search.FieldText:
		textMapping := bleve.NewTextFieldMapping()
		if spec.Sortable {
			// A parallel keyword mapping keeps the raw value available
			// for exact sorting alongside the analyzed terms.
			docMapping.AddFieldMappingsAt(field, textMapping, bleve.NewKeywordFieldMapping())
			return
		}
		docMapping.AddFieldMappingsAt(field, textMapping)

	case search.FieldInteger, search.FieldDouble:
		docMapping.AddFieldMappingsAt(field, bleve.NewNumericFieldMapping())

	case search.FieldDate:
		docMapping.AddFieldMappingsAt(field, bleve.NewDateTimeFieldMapping())

	case search.FieldBoolean:
		docMapping.AddFieldMappingsAt(field, bleve.NewBooleanFieldMapping())

	case search.FieldNested, search.FieldObject:
		subMapping := bleve.NewDocumentMapping()
		for sub, subSpec := range spec.Properties {
			applyFieldSpec(subMapping, sub, subSpec)
		}
		docMapping.AddSubDocumentMapping(field, subMapping)
	}
}

// Index stores a document under a freshly assigned identifier.
func (s *Store) Index(ctx context.Context, index string, doc search.Document) (string, error) {
	idx, err := s.getIndex(index)
	if err != nil {
		return "", err
	}

	docID := uuid.NewString()
	if err := s.indexWithID(idx, docID, doc); err != nil {
		return "", err
	}
	return docID, nil
}

func (s *Store) indexWithID(idx bleve.Index, docID string, doc search.Document) error {
	source, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document source: %w", err)
	}

	indexed := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		indexed[k] = v
	}
	indexed[sourceField] = string(source)

	return idx.Index(docID, indexed)
}

// Update patches the named fields of an existing document by rehydrating its
// stored source, merging, and re-indexing under the same identifier.
func (s *Store) Update(ctx context.Context, index, docID string, partial search.Document) error {
	idx, err := s.getIndex(index)
	if err != nil {
		return err
	}

	current, err := s.sourceByID(idx, docID)
	if err != nil {
		return err
	}

	for k, v := range partial {
		current[k] = v
	}
	return s.indexWithID(idx, docID, current)
}

func (s *Store) sourceByID(idx bleve.Index, docID string) (search.Document, error) {
	req := bleve.NewSearchRequest(query.NewDocIDQuery([]string{docID}))
	req.Size = 1
	req.Fields = []string{sourceField}

	res, err := idx.Search(req)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		return nil, fmt.Errorf("document %q not found", docID)
	}
	return decodeSource(res.Hits[0].Fields)
}

func decodeSource(fields map[string]any) (search.Document, error) {
	raw, ok := fields[sourceField].(string)
	if !ok {
		return search.Document{}, nil
	}

	var doc search.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document source: %w", err)
	}
	return doc, nil
}

// Delete removes a single document.
func (s *Store) Delete(ctx context.Context, index, docID string) error {
	idx, err := s.getIndex(index)
	if err != nil {
		return err
	}
	return idx.Delete(docID)
}

// DeleteByQuery removes every document matching the query, paging until no
// matches remain.
func (s *Store) DeleteByQuery(ctx context.Context, index string, q search.Query) (int64, error) {
	idx, err := s.getIndex(index)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for {
		req := bleve.NewSearchRequest(buildQuery(q))
		req.Size = search.MaxQuerySize

		res, err := idx.Search(req)
		if err != nil {
			return deleted, err
		}
		if len(res.Hits) == 0 {
			return deleted, nil
		}

		batch := idx.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := idx.Batch(batch); err != nil {
			return deleted, err
		}
		deleted += int64(len(res.Hits))
	}
}

// Search returns up to size hits for the query, rehydrated from stored
// sources. A non-empty fields list restricts the source fields returned.
func (s *Store) Search(ctx context.Context, index string, q search.Query, size int64, fields []string) (*search.Hits, error) {
	idx, err := s.getIndex(index)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequest(buildQuery(q))
	req.Size = int(size)
	req.Fields = []string{sourceField}

	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := &search.Hits{Total: int64(res.Total)}
	for _, hit := range res.Hits {
		source, err := decodeSource(hit.Fields)
		if err != nil {
			return nil, err
		}
		hits.Hits = append(hits.Hits, search.Hit{
			ID:     hit.ID,
			Source: projectFields(source, fields),
		})
	}
	return hits, nil
}

func projectFields(source search.Document, fields []string) search.Document {
	if len(fields) == 0 {
		return source
	}

	out := make(search.Document, len(fields))
	for _, f := range fields {
		if v, ok := source[f]; ok {
			out[f] = v
		}
	}
	return out
}

// buildQuery translates a search.Query into a Bleve query. Term matches use
// phrase queries scoped to the field so both keyword and analyzed text fields
// match exactly.
func buildQuery(q search.Query) query.Query {
	if q.MatchAll || (len(q.Term) == 0 && len(q.Not) == 0) {
		return bleve.NewMatchAllQuery()
	}

	boolean := bleve.NewBooleanQuery()

	if len(q.Term) == 0 {
		boolean.AddMust(bleve.NewMatchAllQuery())
	}
	for field, value := range q.Term {
		boolean.AddMust(fieldMatch(field, value))
	}
	for field, value := range q.Not {
		boolean.AddMustNot(fieldMatch(field, value))
	}
	return boolean
}

func fieldMatch(field, value string) query.Query {
	if value == "" {
		// An empty phrase has no terms and would match nothing; match
		// the empty keyword term directly instead.
		termQuery := bleve.NewTermQuery("")
		termQuery.SetField(field)
		return termQuery
	}

	phrase := bleve.NewMatchPhraseQuery(value)
	phrase.SetField(field)
	return phrase
}
