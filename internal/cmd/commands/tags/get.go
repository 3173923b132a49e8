// Package tags implements the tags subcommands for reading and writing
// the tag list on transfer file documents.
package tags

import (
	"context"
	"flag"
	"fmt"

	"github.com/artefactual-forge/aipsearch/internal/cmd/base"
	"github.com/artefactual-forge/aipsearch/internal/cmd/runtime"
)

type GetCommand struct {
	*base.Command

	flagConfig string
	flagUUID   string
}

func (c *GetCommand) Synopsis() string {
	return "Print the tags of an indexed transfer file"
}

func (c *GetCommand) Help() string {
	return `Usage: aipsearch tags get [options]

  Prints the tags of the transfer file document with the given file UUID,
  one tag per line.` +
		c.Flags().Help()
}

func (c *GetCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("tags get", flag.ExitOnError))

	f.StringVar(&c.flagConfig, "config", "config.hcl", "Path to config file")
	f.StringVar(&c.flagUUID, "uuid", "", "(Required) File UUID")

	return f
}

func (c *GetCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagUUID == "" {
		c.UI.Error("uuid flag is required")
		return 1
	}

	rt, err := runtime.Setup(c.flagConfig, c.Log)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	tags, err := rt.Client.FileTags(context.Background(), c.flagUUID)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	for _, tag := range tags {
		c.UI.Output(tag)
	}
	return 0
}
