// Package indexer builds search documents for preservation objects and writes
// them through the resilient search client: whole AIPs with their manifest
// files, and transfers with the files sitting in them on disk.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/artefactual-forge/aipsearch/pkg/models"
	"github.com/artefactual-forge/aipsearch/pkg/search"
)

// ErrPathMissing reports that a unit to be indexed is not on disk where the
// caller said it was. Nothing is written when this is returned.
var ErrPathMissing = errors.New("path does not exist")

// Lookups answers the relational queries the builders need. Implemented by
// models.Lookup; tests substitute fakes.
type Lookups interface {
	TransferByUUID(ctx context.Context, uuid string) (*models.Transfer, error)
	FileByLocationAndTransfer(ctx context.Context, location, transferID string) (*models.File, error)
	FormatsForFile(ctx context.Context, fileUUID string) ([]models.FormatRecord, error)
	TransferIDsForUnit(ctx context.Context, uuid string) ([]string, error)
}

// Indexer builds and writes index documents. Construct one per process with
// New; it holds no global state.
type Indexer struct {
	client  *search.Client
	lookups Lookups
	fs      afero.Fs
	logger  hclog.Logger

	// origin identifies the pipeline that indexed each document.
	origin string

	now func() time.Time
}

// Option is a functional option for creating an Indexer.
type Option func(*Indexer)

// WithClient sets the search client.
func WithClient(client *search.Client) Option {
	return func(i *Indexer) {
		i.client = client
	}
}

// WithLookups sets the relational lookup source.
func WithLookups(lookups Lookups) Option {
	return func(i *Indexer) {
		i.lookups = lookups
	}
}

// WithFilesystem sets the filesystem the builders read from.
func WithFilesystem(fs afero.Fs) Option {
	return func(i *Indexer) {
		i.fs = fs
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(i *Indexer) {
		i.logger = logger
	}
}

// WithOrigin sets the pipeline origin identifier stamped on every document.
func WithOrigin(origin string) Option {
	return func(i *Indexer) {
		i.origin = origin
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Indexer) {
		i.now = now
	}
}

// New creates an Indexer.
func New(opts ...Option) (*Indexer, error) {
	i := &Indexer{
		fs:  afero.NewOsFs(),
		now: time.Now,
		logger: hclog.New(&hclog.LoggerOptions{
			Name: "indexer",
		}),
	}

	for _, opt := range opts {
		opt(i)
	}

	if i.client == nil {
		return nil, fmt.Errorf("search client is required")
	}

	return i, nil
}

// Client returns the underlying search client.
func (i *Indexer) Client() *search.Client {
	return i.client
}

// exists reports whether anything is at p.
func (i *Indexer) exists(p string) bool {
	ok, err := afero.Exists(i.fs, p)
	return err == nil && ok
}

// fileExtension returns the lowercased extension of p without the dot.
func fileExtension(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// sizeMB converts a byte count to megabytes, the unit the indexed documents
// carry.
func sizeMB(bytes int64) float64 {
	return float64(bytes) / 1024 / 1024
}
