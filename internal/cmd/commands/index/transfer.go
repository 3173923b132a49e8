package index

import (
	"context"
	"flag"
	"fmt"

	"github.com/artefactual-forge/aipsearch/internal/cmd/base"
	"github.com/artefactual-forge/aipsearch/internal/cmd/runtime"
)

type TransferCommand struct {
	*base.Command

	flagConfig string
	flagUUID   string
	flagPath   string
	flagStatus string
}

func (c *TransferCommand) Synopsis() string {
	return "Index a transfer and the files in its directory"
}

func (c *TransferCommand) Help() string {
	return `Usage: aipsearch index transfer [options]

  Walks the transfer directory and indexes one document per file, then a
  summary document for the transfer. processingMCP.xml is never indexed.` +
		c.Flags().Help()
}

func (c *TransferCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("index transfer", flag.ExitOnError))

	f.StringVar(&c.flagConfig, "config", "config.hcl", "Path to config file")
	f.StringVar(&c.flagUUID, "uuid", "", "(Required) Transfer UUID")
	f.StringVar(&c.flagPath, "path", "", "(Required) Transfer directory, with trailing slash")
	f.StringVar(&c.flagStatus, "status", "", "Transfer status, e.g. backlog")

	return f
}

func (c *TransferCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagUUID == "" || c.flagPath == "" {
		c.UI.Error("uuid and path flags are required")
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

	count, err := ix.IndexTransferAndFiles(context.Background(), c.flagUUID, c.flagPath, c.flagStatus)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	c.UI.Info(fmt.Sprintf("Files indexed: %d", count))
	return 0
}
