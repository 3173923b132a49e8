package bleve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artefactual-forge/aipsearch/pkg/search"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(&Config{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, search.EnsureIndexes(context.Background(), store, nil))
	return store
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore(nil)
	require.ErrorIs(t, err, search.ErrNotConfigured)

	_, err = NewStore(&Config{})
	require.ErrorIs(t, err, search.ErrNotConfigured)
}

func TestCreateIndexIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.IndexExists(ctx, search.IndexNames()...)
	require.NoError(t, err)
	assert.True(t, exists)

	// Creating again must not disturb existing data.
	docID, err := store.Index(ctx, search.IndexTransfers, search.Document{"uuid": "t-1"})
	require.NoError(t, err)
	require.NoError(t, store.CreateIndex(ctx, search.IndexTransfers, search.Specs()[search.IndexTransfers]))

	hits, err := store.Search(ctx, search.IndexTransfers, search.MatchAllQuery(), 10, nil)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, docID, hits.Hits[0].ID)
}

func TestIndexAndSearchRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := search.Document{
		"fileuuid":      "8f0e82de-0852-4a1e-92f3-efb9c4f64c9b",
		"sipuuid":       "f2dbd337-6764-4b0f-a4e1-3b76e0e47c1e",
		"relative_path": "transfer-1/objects/letter.txt",
		"status":        "backlog",
		"format": []any{
			map[string]any{"puid": "x-fmt/111", "format": "Plain Text File", "group": "Text (Plain)"},
		},
	}
	docID, err := store.Index(ctx, search.IndexTransferFiles, doc)
	require.NoError(t, err)
	require.NotEmpty(t, docID)

	hits, err := store.Search(ctx, search.IndexTransferFiles,
		search.TermQuery("fileuuid", "8f0e82de-0852-4a1e-92f3-efb9c4f64c9b"), 10, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Total)

	// Nested structures survive the stored-source round trip.
	got := hits.Hits[0].Source
	assert.Equal(t, "transfer-1/objects/letter.txt", got["relative_path"])
	formats, ok := got["format"].([]any)
	require.True(t, ok)
	require.Len(t, formats, 1)
	assert.Equal(t, "x-fmt/111", formats[0].(map[string]any)["puid"])
}

func TestSearchFieldProjection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Index(ctx, search.IndexTransferFiles, search.Document{
		"fileuuid": "abc",
		"tags":     []any{"review", "ocr"},
		"status":   "backlog",
	})
	require.NoError(t, err)

	hits, err := store.Search(ctx, search.IndexTransferFiles,
		search.TermQuery("fileuuid", "abc"), 10, []string{"tags"})
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)

	source := hits.Hits[0].Source
	assert.Contains(t, source, "tags")
	assert.NotContains(t, source, "status")
	assert.NotContains(t, source, "fileuuid")
}

func TestSearchNegatedTerms(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Index(ctx, search.IndexTransferFiles, search.Document{
		"fileuuid": "11111111-1111-1111-1111-111111111111",
		"status":   "backlog",
	})
	require.NoError(t, err)
	_, err = store.Index(ctx, search.IndexTransferFiles, search.Document{
		"fileuuid": "",
		"status":   "backlog",
	})
	require.NoError(t, err)

	all, err := store.Search(ctx, search.IndexTransferFiles, search.BacklogFilter(), 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	filtered, err := store.Search(ctx, search.IndexTransferFiles, search.BacklogFilterNoAdministrative(), 10, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), filtered.Total)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", filtered.Hits[0].Source["fileuuid"])
}

func TestUpdateMergesFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docID, err := store.Index(ctx, search.IndexAIPs, search.Document{
		"uuid":   "aip-1",
		"name":   "pictures",
		"status": "UPLOADED",
	})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, search.IndexAIPs, docID, search.Document{"status": "DEL_REQ"}))

	hits, err := store.Search(ctx, search.IndexAIPs, search.TermQuery("uuid", "aip-1"), 10, nil)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "DEL_REQ", hits.Hits[0].Source["status"])
	assert.Equal(t, "pictures", hits.Hits[0].Source["name"])
	assert.Equal(t, docID, hits.Hits[0].ID)
}

func TestUpdateMissingDocument(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), search.IndexAIPs, "no-such-id", search.Document{"status": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docID, err := store.Index(ctx, search.IndexTransfers, search.Document{"uuid": "t-1"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, search.IndexTransfers, docID))

	hits, err := store.Search(ctx, search.IndexTransfers, search.MatchAllQuery(), 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), hits.Total)
}

func TestDeleteByQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, sip := range []string{"sip-a", "sip-a", "sip-b"} {
		_, err := store.Index(ctx, search.IndexTransferFiles, search.Document{"sipuuid": sip})
		require.NoError(t, err)
	}

	deleted, err := store.DeleteByQuery(ctx, search.IndexTransferFiles, search.TermQuery("sipuuid", "sip-a"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := store.Search(ctx, search.IndexTransferFiles, search.MatchAllQuery(), 10, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), remaining.Total)
	assert.Equal(t, "sip-b", remaining.Hits[0].Source["sipuuid"])
}

func TestHealth(t *testing.T) {
	store := newTestStore(t)

	health, err := store.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, search.StatusGreen, health.Status)
}

func TestReopenExistingIndexes(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(&Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, search.EnsureIndexes(ctx, store, nil))
	docID, err := store.Index(ctx, search.IndexAIPs, search.Document{"uuid": "aip-1"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(&Config{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	hits, err := reopened.Search(ctx, search.IndexAIPs, search.TermQuery("uuid", "aip-1"), 10, nil)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, docID, hits.Hits[0].ID)
}
