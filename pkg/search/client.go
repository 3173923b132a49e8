package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"
)

// AIP status values written by the status-update operations.
const (
	StatusUploaded        = "UPLOADED"
	StatusDeleteRequested = "DEL_REQ"
)

// Client layers the query, tagging, status-update and deletion operations on
// top of a Store. All mutations go through the resilient Writer; the logical
// indexes are bootstrapped lazily before the first operation. A Client holds
// no hidden global state and is safe to share across callers indexing
// different units.
type Client struct {
	store  Store
	writer *Writer
	logger hclog.Logger

	ensure    sync.Once
	ensureErr error
}

// NewClient builds a Client around a store. The retry policy applies to every
// write issued through the client.
func NewClient(store Store, policy RetryPolicy, logger hclog.Logger) (*Client, error) {
	if store == nil {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	writer, err := NewWriter(store, policy, logger)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, writer: writer, logger: logger.Named("search")}, nil
}

// Store exposes the underlying store for read paths that need it directly.
func (c *Client) Store() Store {
	return c.store
}

// Writer exposes the resilient writer for callers issuing their own writes.
func (c *Client) Writer() *Writer {
	return c.writer
}

// EnsureIndexes bootstraps missing logical indexes. It runs at most once per
// Client; later calls return the first outcome.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	c.ensure.Do(func() {
		c.ensureErr = EnsureIndexes(ctx, c.store, c.logger)
	})
	return c.ensureErr
}

// SearchAll performs a search with the size set to MaxQuerySize. When the true
// match count exceeds the bound the caller still gets the truncated page, with
// a logged warning rather than an error.
func (c *Client) SearchAll(ctx context.Context, index string, query Query, fields []string) (*Hits, error) {
	hits, err := c.store.Search(ctx, index, query, MaxQuerySize, fields)
	if err != nil {
		return nil, &Error{Op: "SearchAll", Err: err}
	}
	if hits.Total > MaxQuerySize {
		c.logger.Warn("matches exceed maximum fetched",
			"index", index, "total", hits.Total, "max", MaxQuerySize)
	}
	return hits, nil
}

// AIP returns the indexed document for the AIP with the given UUID.
func (c *Client) AIP(ctx context.Context, uuid string, fields []string) (Hit, error) {
	hits, err := c.SearchAll(ctx, IndexAIPs, TermQuery("uuid", uuid), fields)
	if err != nil {
		return Hit{}, err
	}
	if len(hits.Hits) == 0 {
		return Hit{}, &Error{Op: "AIP", Err: ErrEmptyResult, Msg: fmt.Sprintf("AIP %s", uuid)}
	}
	return hits.Hits[0], nil
}

// documentIDs returns the store-assigned IDs of all documents in index whose
// field matches value exactly.
func (c *Client) documentIDs(ctx context.Context, index, field, value string) ([]string, error) {
	hits, err := c.SearchAll(ctx, index, TermQuery(field, value), nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hits.Hits))
	for _, hit := range hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// documentID resolves a field lookup to a single store-assigned ID, or ""
// when the match count is anything other than one.
func (c *Client) documentID(ctx context.Context, index, field, value string) (string, error) {
	ids, err := c.documentIDs(ctx, index, field, value)
	if err != nil {
		return "", err
	}
	if len(ids) == 1 {
		return ids[0], nil
	}
	return "", nil
}

// FileTags returns the tag set of the transfer file with the given file UUID.
// Exactly one document must match: zero matches yield ErrEmptyResult, several
// yield ErrTooManyResults.
func (c *Client) FileTags(ctx context.Context, uuid string) ([]string, error) {
	hits, err := c.SearchAll(ctx, IndexTransferFiles, TermQuery("fileuuid", uuid), []string{"tags"})
	if err != nil {
		return nil, err
	}
	if len(hits.Hits) == 0 {
		return nil, &Error{Op: "FileTags", Err: ErrEmptyResult, Msg: fmt.Sprintf("file %s", uuid)}
	}
	if len(hits.Hits) > 1 {
		return nil, &Error{
			Op:  "FileTags",
			Err: ErrTooManyResults,
			Msg: fmt.Sprintf("%d matches for file %s", len(hits.Hits), uuid),
		}
	}
	return stringSlice(hits.Hits[0].Source["tags"]), nil
}

// SetFileTags replaces the tag set of the transfer file with the given file
// UUID. An empty tags slice clears the set. The same cardinality rules as
// FileTags apply.
func (c *Client) SetFileTags(ctx context.Context, uuid string, tags []string) error {
	if err := c.EnsureIndexes(ctx); err != nil {
		return err
	}
	ids, err := c.documentIDs(ctx, IndexTransferFiles, "fileuuid", uuid)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return &Error{Op: "SetFileTags", Err: ErrEmptyResult, Msg: fmt.Sprintf("file %s", uuid)}
	}
	if len(ids) > 1 {
		return &Error{
			Op:  "SetFileTags",
			Err: ErrTooManyResults,
			Msg: fmt.Sprintf("%d matches for file %s", len(ids), uuid),
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return c.writer.Update(ctx, IndexTransferFiles, ids[0], Document{"tags": tags})
}

// TransferFileRecord is the typed shape of a transfer-file document.
type TransferFileRecord struct {
	Filename     string   `mapstructure:"filename"`
	RelativePath string   `mapstructure:"relative_path"`
	FileUUID     string   `mapstructure:"fileuuid"`
	SIPUUID      string   `mapstructure:"sipuuid"`
	AccessionID  string   `mapstructure:"accessionid"`
	Status       string   `mapstructure:"status"`
	Origin       string   `mapstructure:"origin"`
	IngestDate   string   `mapstructure:"ingestdate"`
	Created      float64  `mapstructure:"created"`
	Size         float64  `mapstructure:"size"`
	Tags         []string `mapstructure:"tags"`
	Extension    string   `mapstructure:"file_extension"`
	ScanReports  []string `mapstructure:"scan_reports"`
}

// DecodeTransferFile converts a raw transfer-file document into its typed
// shape.
func DecodeTransferFile(doc Document) (*TransferFileRecord, error) {
	var record TransferFileRecord
	if err := mapstructure.Decode(map[string]any(doc), &record); err != nil {
		return nil, fmt.Errorf("decoding transfer file document: %w", err)
	}
	return &record, nil
}

// TransferFileInfo fetches the transfer-file document where field matches
// value. Text analysis can rank near-matches as equal to the exact match, so
// when the store returns several hits a client-side exact-match filter is
// applied on the field's source value. Among remaining exact matches the first
// is used with a logged warning; zero exact matches among several store hits
// is a store fault. Zero store hits return an empty document.
func (c *Client) TransferFileInfo(ctx context.Context, field, value string) (Document, error) {
	c.logger.Debug("transfer file info", "field", field, "value", value)

	hits, err := c.SearchAll(ctx, IndexTransferFiles, TermQuery(field, value), nil)
	if err != nil {
		return nil, err
	}

	switch len(hits.Hits) {
	case 0:
		return Document{}, nil
	case 1:
		return hits.Hits[0].Source, nil
	}

	var exact []Hit
	for _, hit := range hits.Hits {
		if s, ok := hit.Source[field].(string); ok && s == value {
			exact = append(exact, hit)
		}
	}
	switch len(exact) {
	case 0:
		return nil, &Error{
			Op:  "TransferFileInfo",
			Err: fmt.Errorf("no exact results for %s=%s", field, value),
		}
	case 1:
		return exact[0].Source, nil
	default:
		c.logger.Warn("multiple exact matches, using first",
			"field", field, "value", value, "count", len(exact))
		return exact[0].Source, nil
	}
}

// updateField patches one field of the single document whose uuid matches.
// Resolution to zero or several documents skips the update with a logged
// error; this is deliberately laxer than the tag operations, which refuse.
func (c *Client) updateField(ctx context.Context, index, uuid, field string, value any) error {
	if err := c.EnsureIndexes(ctx); err != nil {
		return err
	}
	docID, err := c.documentID(ctx, index, "uuid", uuid)
	if err != nil {
		return err
	}
	if docID == "" {
		c.logger.Error("unable to resolve a single document, skipping update",
			"index", index, "uuid", uuid, "field", field)
		return nil
	}
	return c.writer.Update(ctx, index, docID, Document{field: value})
}

// MarkAIPStored records that the AIP finished uploading to archival storage.
func (c *Client) MarkAIPStored(ctx context.Context, uuid string) error {
	return c.updateField(ctx, IndexAIPs, uuid, "status", StatusUploaded)
}

// MarkAIPDeletionRequested records a pending deletion request for the AIP.
func (c *Client) MarkAIPDeletionRequested(ctx context.Context, uuid string) error {
	return c.updateField(ctx, IndexAIPs, uuid, "status", StatusDeleteRequested)
}

// MarkBacklogDeletionRequested records a pending deletion request for a
// backlog transfer.
func (c *Client) MarkBacklogDeletionRequested(ctx context.Context, uuid string) error {
	return c.updateField(ctx, IndexTransfers, uuid, "pending_deletion", true)
}

// DeleteAIP removes every AIP document with the given UUID.
func (c *Client) DeleteAIP(ctx context.Context, uuid string) error {
	return c.deleteMatching(ctx, IndexAIPs, "uuid", uuid)
}

// DeleteAIPFiles removes every AIP-file document belonging to the AIP.
func (c *Client) DeleteAIPFiles(ctx context.Context, uuid string) error {
	return c.deleteMatching(ctx, IndexAIPFiles, "AIPUUID", uuid)
}

// DeleteTransfer removes every transfer document with the given UUID.
func (c *Client) DeleteTransfer(ctx context.Context, uuid string) error {
	return c.deleteMatching(ctx, IndexTransfers, "uuid", uuid)
}

// DeleteTransferFiles removes every transfer-file document belonging to the
// transfer.
func (c *Client) DeleteTransferFiles(ctx context.Context, uuid string) error {
	return c.deleteMatching(ctx, IndexTransferFiles, "sipuuid", uuid)
}

// deleteMatching issues a delete-by-query on field=value. No existence check
// precedes it; deleting zero documents is not an error.
func (c *Client) deleteMatching(ctx context.Context, index, field, value string) error {
	if err := c.EnsureIndexes(ctx); err != nil {
		return err
	}
	c.logger.Info("deleting documents", "index", index, "field", field, "value", value)
	count, err := c.writer.DeleteByQuery(ctx, index, TermQuery(field, value))
	if err != nil {
		return err
	}
	c.logger.Info("deleted documents", "index", index, "count", count)
	return nil
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return []string{}
	}
}
