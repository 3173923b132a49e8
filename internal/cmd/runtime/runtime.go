// Package runtime wires a command's collaborators from the configuration
// file: the search store and client, and optionally the relational store and
// indexer.
package runtime

import (
	"github.com/hashicorp/go-hclog"

	"github.com/artefactual-forge/aipsearch/internal/config"
	"github.com/artefactual-forge/aipsearch/pkg/database"
	"github.com/artefactual-forge/aipsearch/pkg/indexer"
	"github.com/artefactual-forge/aipsearch/pkg/models"
	"github.com/artefactual-forge/aipsearch/pkg/search"
)

// Runtime holds the collaborators built from one configuration file.
type Runtime struct {
	Config *config.Config
	Logger hclog.Logger
	Client *search.Client
}

// Setup loads the configuration and builds the search client.
func Setup(configPath string, log hclog.Logger) (*Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cfg.LogLevel != "" {
		log.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	}

	store, err := cfg.Search.NewStore()
	if err != nil {
		return nil, err
	}

	client, err := search.NewClient(store, cfg.Search.RetryPolicy(), log)
	if err != nil {
		return nil, err
	}

	return &Runtime{Config: cfg, Logger: log, Client: client}, nil
}

// NewIndexer builds an Indexer. The relational lookup source is wired only
// when the configuration carries a database block; without one, files index
// with empty relational identities.
func (r *Runtime) NewIndexer() (*indexer.Indexer, error) {
	opts := []indexer.Option{
		indexer.WithClient(r.Client),
		indexer.WithLogger(r.Logger.Named("indexer")),
		indexer.WithOrigin(r.Config.Origin),
	}

	if r.Config.Database != nil {
		db, err := database.Connect(r.Config.Database.Connection(), r.Logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, indexer.WithLookups(models.NewLookup(db)))
	}

	return indexer.New(opts...)
}
