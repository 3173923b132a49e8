// Package searchcmd implements the search command, printing matching
// documents as JSON.
package searchcmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/artefactual-forge/aipsearch/internal/cmd/base"
	"github.com/artefactual-forge/aipsearch/internal/cmd/runtime"
	"github.com/artefactual-forge/aipsearch/pkg/search"
)

type Command struct {
	*base.Command

	flagConfig string
	flagIndex  string
	flagField  string
	flagValue  string
}

func (c *Command) Synopsis() string {
	return "Search an index and print matching documents"
}

func (c *Command) Help() string {
	return `Usage: aipsearch search [options]

  Searches one logical index. Without field and value flags every document
  matches. Results print as JSON, one augmented document per line, each
  carrying its store-assigned identifier under "document_id".` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("search", flag.ExitOnError))

	f.StringVar(&c.flagConfig, "config", "config.hcl", "Path to config file")
	f.StringVar(&c.flagIndex, "index", "", "(Required) Index: aips, aipfiles, transfers or transferfiles")
	f.StringVar(&c.flagField, "field", "", "Field to match exactly")
	f.StringVar(&c.flagValue, "value", "", "Value the field must equal")

	return f
}

func (c *Command) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if !validIndex(c.flagIndex) {
		c.UI.Error("index flag must name one of: aips, aipfiles, transfers, transferfiles")
		return 1
	}

	rt, err := runtime.Setup(c.flagConfig, c.Log)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	query := search.MatchAllQuery()
	if c.flagField != "" {
		query = search.TermQuery(c.flagField, c.flagValue)
	}

	hits, err := rt.Client.SearchAll(context.Background(), c.flagIndex, query, nil)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	for _, doc := range search.AugmentResults(hits) {
		line, err := json.Marshal(doc)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		c.UI.Output(string(line))
	}
	c.UI.Info(fmt.Sprintf("Total matches: %d", hits.Total))
	return 0
}

func validIndex(name string) bool {
	for _, n := range search.IndexNames() {
		if n == name {
			return true
		}
	}
	return false
}
