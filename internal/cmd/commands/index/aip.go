package index

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/artefactual-forge/aipsearch/internal/cmd/base"
	"github.com/artefactual-forge/aipsearch/internal/cmd/runtime"
	"github.com/artefactual-forge/aipsearch/pkg/indexer"
)

type AIPCommand struct {
	*base.Command

	flagConfig      string
	flagUUID        string
	flagPath        string
	flagMETS        string
	flagName        string
	flagSize        int64
	flagAIPsInAIC   int
	flagIdentifiers string
	flagEncrypted   bool
}

func (c *AIPCommand) Synopsis() string {
	return "Index an AIP and the files in its manifest"
}

func (c *AIPCommand) Help() string {
	return `Usage: aipsearch index aip [options]

  Indexes the AIP document and one document per original or metadata file
  listed in its METS manifest. Fails without writing anything when the AIP
  or manifest is not on disk.` + c.Flags().Help()
}

func (c *AIPCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("index aip", flag.ExitOnError))

	f.StringVar(&c.flagConfig, "config", "config.hcl", "Path to config file")
	f.StringVar(&c.flagUUID, "uuid", "", "(Required) AIP UUID")
	f.StringVar(&c.flagPath, "path", "", "(Required) Path to the AIP on disk")
	f.StringVar(&c.flagMETS, "mets", "", "(Required) Path to the AIP's METS file")
	f.StringVar(&c.flagName, "name", "", "AIP name")
	f.Int64Var(&c.flagSize, "size", 0, "AIP size in bytes; 0 means stat the AIP path")
	f.IntVar(&c.flagAIPsInAIC, "aips-in-aic", -1, "Number of AIPs in the AIC, when indexing an AIC")
	f.StringVar(&c.flagIdentifiers, "identifiers", "", "Comma-separated additional identifiers")
	f.BoolVar(&c.flagEncrypted, "encrypted", false, "Whether the stored AIP is encrypted")

	return f
}

func (c *AIPCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagUUID == "" || c.flagPath == "" || c.flagMETS == "" {
		c.UI.Error("uuid, path and mets flags are required")
		return 1
	}

	rt, err := runtime.Setup(c.flagConfig, c.Log)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	ix, err := rt.NewIndexer()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	params := indexer.AIPParams{
		UUID:      c.flagUUID,
		Path:      c.flagPath,
		METSPath:  c.flagMETS,
		Name:      c.flagName,
		Size:      c.flagSize,
		Encrypted: c.flagEncrypted,
	}
	if c.flagAIPsInAIC >= 0 {
		n := c.flagAIPsInAIC
		params.AIPsInAIC = &n
	}
	if c.flagIdentifiers != "" {
		params.Identifiers = strings.Split(c.flagIdentifiers, ",")
	}

	count, err := ix.IndexAIPAndFiles(context.Background(), params)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	c.UI.Info(fmt.Sprintf("Files indexed: %d", count))
	return 0
}
