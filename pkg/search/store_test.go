package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// fakeStore is an in-memory Store for tests. Writes can be scripted to fail a
// number of times, and health can be scripted per probe.
type fakeStore struct {
	mu sync.Mutex

	indexes map[string]IndexSpec
	docs    map[string]map[string]Document // index -> docID -> doc
	nextID  int

	// failWrites makes the next N mutating calls fail; writeErr, when set,
	// is the error they fail with.
	failWrites int
	writeErr   error
	// healthSeq is returned probe by probe; after exhaustion health is green.
	healthSeq []Health
	// healthErr makes every probe fail.
	healthErr error

	writeAttempts int
	healthChecks  int
	createCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		indexes: make(map[string]IndexSpec),
		docs:    make(map[string]map[string]Document),
	}
}

func (s *fakeStore) Health(ctx context.Context) (Health, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthChecks++
	if s.healthErr != nil {
		return Health{}, s.healthErr
	}
	if len(s.healthSeq) > 0 {
		h := s.healthSeq[0]
		s.healthSeq = s.healthSeq[1:]
		return h, nil
	}
	return Health{Status: StatusGreen}, nil
}

func (s *fakeStore) IndexExists(ctx context.Context, names ...string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if _, ok := s.indexes[name]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *fakeStore) CreateIndex(ctx context.Context, name string, spec IndexSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if _, ok := s.indexes[name]; ok {
		return nil
	}
	s.indexes[name] = spec
	return nil
}

func (s *fakeStore) failNextWrite() error {
	s.writeAttempts++
	if s.failWrites > 0 {
		s.failWrites--
		if s.writeErr != nil {
			return s.writeErr
		}
		return errors.New("store unavailable")
	}
	return nil
}

func (s *fakeStore) Index(ctx context.Context, index string, doc Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNextWrite(); err != nil {
		return "", err
	}
	s.nextID++
	id := "doc-" + strconv.Itoa(s.nextID)
	if s.docs[index] == nil {
		s.docs[index] = make(map[string]Document)
	}
	clone := make(Document, len(doc))
	for k, v := range doc {
		clone[k] = v
	}
	s.docs[index][id] = clone
	return id, nil
}

func (s *fakeStore) Update(ctx context.Context, index, docID string, partial Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNextWrite(); err != nil {
		return err
	}
	doc, ok := s.docs[index][docID]
	if !ok {
		return fmt.Errorf("document %s not found", docID)
	}
	for k, v := range partial {
		doc[k] = v
	}
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, index, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNextWrite(); err != nil {
		return err
	}
	delete(s.docs[index], docID)
	return nil
}

func (s *fakeStore) DeleteByQuery(ctx context.Context, index string, query Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNextWrite(); err != nil {
		return 0, err
	}
	var count int64
	for id, doc := range s.docs[index] {
		if matches(doc, query) {
			delete(s.docs[index], id)
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) Search(ctx context.Context, index string, query Query, size int64, fields []string) (*Hits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hits := &Hits{}
	for id, doc := range s.docs[index] {
		if matches(doc, query) {
			hits.Total++
			if int64(len(hits.Hits)) < size {
				hits.Hits = append(hits.Hits, Hit{ID: id, Source: doc})
			}
		}
	}
	return hits, nil
}

func matches(doc Document, query Query) bool {
	if query.MatchAll {
		return true
	}
	for field, value := range query.Term {
		if fmt.Sprintf("%v", doc[field]) != value {
			return false
		}
	}
	for field, value := range query.Not {
		if fmt.Sprintf("%v", doc[field]) == value {
			return false
		}
	}
	return true
}
