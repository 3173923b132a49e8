package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artefactual-forge/aipsearch/pkg/models"
	"github.com/artefactual-forge/aipsearch/pkg/search"
)

const transferUUID = "f2dbd337-6764-4b0f-a4e1-3b76e0e47c1e"

const pictureUUID = "8f0e82de-0852-4a1e-92f3-efb9c4f64c9b"

func writeTransfer(t *testing.T, fs afero.Fs) {
	t.Helper()
	files := map[string][]byte{
		"/transfers/photos-1/objects/picture.JPG":   []byte("jpeg bytes"),
		"/transfers/photos-1/metadata/checksum.md5": []byte("d41d8cd9"),
		"/transfers/photos-1/processingMCP.xml":     []byte("<processingMCP/>"),
		"/transfers/photos-1/logs/bulk-" + pictureUUID + "/telephone.txt": []byte("555-0100"),
		"/transfers/photos-1/logs/bulk-" + pictureUUID + "/ccn.txt":       {},
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, content, 0o644))
	}
}

func transferLookups() *fakeLookups {
	modTime := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	return &fakeLookups{
		transfers: map[string]*models.Transfer{
			transferUUID: {
				UUID:            transferUUID,
				CurrentLocation: "%sharedPath%www/backlog/originals/photos-1/",
				AccessionID:     "acc-7",
			},
		},
		files: map[string]*models.File{
			"%transferDirectory%objects/picture.JPG|" + transferUUID: {
				UUID:             pictureUUID,
				CurrentLocation:  "%transferDirectory%objects/picture.JPG",
				TransferID:       transferUUID,
				ModificationTime: &modTime,
			},
		},
		formats: map[string][]models.FormatRecord{
			pictureUUID: {
				{PUID: "fmt/43", Format: "JPEG File Interchange Format 1.01", Group: "JPEG"},
			},
		},
	}
}

func TestIndexTransferAndFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTransfer(t, fs)
	ix := newTestIndexer(t, fs, transferLookups())
	ctx := context.Background()

	count, err := ix.IndexTransferAndFiles(ctx, transferUUID, "/transfers/photos-1/", "backlog")
	require.NoError(t, err)

	// Everything except processingMCP.xml is indexed, scan reports included.
	assert.Equal(t, 4, count)

	hits, err := ix.Client().SearchAll(ctx, search.IndexTransfers, search.TermQuery("uuid", transferUUID), nil)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	summary := hits.Hits[0].Source
	assert.Equal(t, "photos-1", summary["name"])
	assert.Equal(t, "backlog", summary["status"])
	assert.Equal(t, "2024-03-10", summary["ingest_date"])
	assert.Equal(t, float64(4), summary["file_count"])
	assert.Equal(t, false, summary["pending_deletion"])
}

func TestIndexTransferFileDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTransfer(t, fs)
	ix := newTestIndexer(t, fs, transferLookups())
	ctx := context.Background()

	_, err := ix.IndexTransferAndFiles(ctx, transferUUID, "/transfers/photos-1/", "backlog")
	require.NoError(t, err)

	hits, err := ix.Client().SearchAll(ctx, search.IndexTransferFiles, search.TermQuery("fileuuid", pictureUUID), nil)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	doc := hits.Hits[0].Source

	assert.Equal(t, "picture.JPG", doc["filename"])
	assert.Equal(t, "photos-1/objects/picture.JPG", doc["relative_path"])
	assert.Equal(t, transferUUID, doc["sipuuid"])
	assert.Equal(t, "acc-7", doc["accessionid"])
	assert.Equal(t, "backlog", doc["status"])
	assert.Equal(t, "2024-03-10", doc["ingestdate"])
	assert.Equal(t, "2024-03-05", doc["modification_date"])
	assert.Equal(t, "jpg", doc["file_extension"])
	assert.Equal(t, []any{}, doc["tags"])

	// Only the non-empty scan report is listed.
	assert.Equal(t, []any{"telephone"}, doc["scan_reports"])

	formats, ok := doc["format"].([]any)
	require.True(t, ok)
	require.Len(t, formats, 1)
	format, ok := formats[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fmt/43", format["puid"])
	assert.Equal(t, "JPEG", format["group"])

	record, err := search.DecodeTransferFile(doc)
	require.NoError(t, err)
	assert.Equal(t, pictureUUID, record.FileUUID)
	assert.Equal(t, []string{"telephone"}, record.ScanReports)
}

func TestIndexTransferFileUnknownToDatabase(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTransfer(t, fs)
	ix := newTestIndexer(t, fs, transferLookups())
	ctx := context.Background()

	_, err := ix.IndexTransferAndFiles(ctx, transferUUID, "/transfers/photos-1/", "backlog")
	require.NoError(t, err)

	hits, err := ix.Client().SearchAll(ctx, search.IndexTransferFiles,
		search.TermQuery("filename", "checksum.md5"), nil)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	doc := hits.Hits[0].Source

	assert.Equal(t, "", doc["fileuuid"])
	assert.Equal(t, []any{}, doc["format"])
	assert.Equal(t, []any{}, doc["scan_reports"])
	assert.Equal(t, "", doc["modification_date"])
}

func TestIndexTransferUnknownTransfer(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/transfers/unknown-1/objects/a.txt", []byte("x"), 0o644))
	ix := newTestIndexer(t, fs, &fakeLookups{})
	ctx := context.Background()

	count, err := ix.IndexTransferAndFiles(ctx, "11111111-1111-1111-1111-111111111111", "/transfers/unknown-1/", "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := ix.Client().SearchAll(ctx, search.IndexTransfers, search.MatchAllQuery(), nil)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "", hits.Hits[0].Source["name"])

	files, err := ix.Client().SearchAll(ctx, search.IndexTransferFiles, search.MatchAllQuery(), nil)
	require.NoError(t, err)
	require.Len(t, files.Hits, 1)

	// Without a transfer record the relative path keeps an empty name
	// segment prefix.
	assert.Equal(t, "/objects/a.txt", files.Hits[0].Source["relative_path"])
}

func TestRemoveSIPTransferFiles(t *testing.T) {
	const (
		sipUUID       = "61d5cb74-9c32-4b1e-8c29-1f4de2a8f3b7"
		otherTransfer = "22222222-2222-2222-2222-222222222222"
	)

	fs := afero.NewMemMapFs()
	writeTransfer(t, fs)
	require.NoError(t, afero.WriteFile(fs, "/transfers/other-1/objects/a.txt", []byte("a"), 0o644))

	lookups := transferLookups()
	lookups.units = map[string][]string{sipUUID: {transferUUID}}
	ix := newTestIndexer(t, fs, lookups)
	ctx := context.Background()

	_, err := ix.IndexTransferAndFiles(ctx, transferUUID, "/transfers/photos-1/", "backlog")
	require.NoError(t, err)
	_, err = ix.IndexTransferAndFiles(ctx, otherTransfer, "/transfers/other-1/", "backlog")
	require.NoError(t, err)

	require.NoError(t, ix.RemoveSIPTransferFiles(ctx, sipUUID))

	hits, err := ix.Client().SearchAll(ctx, search.IndexTransferFiles,
		search.TermQuery("sipuuid", transferUUID), nil)
	require.NoError(t, err)
	assert.Empty(t, hits.Hits)

	// Files of transfers outside the SIP stay indexed.
	hits, err = ix.Client().SearchAll(ctx, search.IndexTransferFiles,
		search.TermQuery("sipuuid", otherTransfer), nil)
	require.NoError(t, err)
	assert.Len(t, hits.Hits, 1)

	// A SIP with no recorded member transfers removes nothing.
	require.NoError(t, ix.RemoveSIPTransferFiles(ctx, "99999999-9999-9999-9999-999999999999"))
	hits, err = ix.Client().SearchAll(ctx, search.IndexTransferFiles, search.MatchAllQuery(), nil)
	require.NoError(t, err)
	assert.Len(t, hits.Hits, 1)
}

func TestRemoveSIPTransferFilesRequiresLookups(t *testing.T) {
	ix := newTestIndexer(t, afero.NewMemMapFs(), nil)

	err := ix.RemoveSIPTransferFiles(context.Background(), "61d5cb74-9c32-4b1e-8c29-1f4de2a8f3b7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no relational lookup source")
}

func TestIndexTransferMissingPath(t *testing.T) {
	ix := newTestIndexer(t, afero.NewMemMapFs(), &fakeLookups{})
	ctx := context.Background()

	_, err := ix.IndexTransferAndFiles(ctx, transferUUID, "/transfers/gone/", "backlog")
	require.ErrorIs(t, err, ErrPathMissing)

	hits, err := ix.Client().SearchAll(ctx, search.IndexTransfers, search.MatchAllQuery(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), hits.Total)
}

func TestRelativeTo(t *testing.T) {
	tests := []struct {
		path, base, want string
	}{
		{"/t/photos-1/objects/a.txt", "/t/photos-1/", "objects/a.txt"},
		{"/t/photos-1/objects/a.txt", "/t/photos-1", "objects/a.txt"},
		{"/t/photos-1/a.txt", "/t/photos-1/", "a.txt"},
	}
	for _, tt := range tests {
		if got := relativeTo(tt.path, tt.base); got != tt.want {
			t.Errorf("relativeTo(%q, %q) = %q, want %q", tt.path, tt.base, got, tt.want)
		}
	}
}
