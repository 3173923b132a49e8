package tags

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/artefactual-forge/aipsearch/internal/cmd/base"
	"github.com/artefactual-forge/aipsearch/internal/cmd/runtime"
)

type SetCommand struct {
	*base.Command

	flagConfig string
	flagUUID   string
	flagTags   string
}

func (c *SetCommand) Synopsis() string {
	return "Replace the tags of an indexed transfer file"
}

func (c *SetCommand) Help() string {
	return `Usage: aipsearch tags set [options]

  Replaces the tag list of the transfer file document with the given file
  UUID. Tags are comma-separated; an empty value clears all tags.` +
		c.Flags().Help()
}

func (c *SetCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("tags set", flag.ExitOnError))

	f.StringVar(&c.flagConfig, "config", "config.hcl", "Path to config file")
	f.StringVar(&c.flagUUID, "uuid", "", "(Required) File UUID")
	f.StringVar(&c.flagTags, "tags", "", "Comma-separated tags, empty to clear")

	return f
}

func (c *SetCommand) Run(args []string) int {
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

	var tags []string
	if c.flagTags != "" {
		tags = strings.Split(c.flagTags, ",")
	}
	if err := rt.Client.SetFileTags(context.Background(), c.flagUUID, tags); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Info("Tags updated")
	return 0
}
