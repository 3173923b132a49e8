// Package mark implements the mark subcommands, updating the lifecycle
// status recorded on indexed documents.
package mark

import (
	"context"
	"flag"
	"fmt"

	"github.com/artefactual-forge/aipsearch/internal/cmd/base"
	"github.com/artefactual-forge/aipsearch/internal/cmd/runtime"
	"github.com/artefactual-forge/aipsearch/pkg/search"
)

type command struct {
	*base.Command

	name       string
	flagConfig string
	flagUUID   string
}

func (c *command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet(c.name, flag.ExitOnError))

	f.StringVar(&c.flagConfig, "config", "config.hcl", "Path to config file")
	f.StringVar(&c.flagUUID, "uuid", "", "(Required) Package UUID")

	return f
}

func (c *command) run(args []string, mark func(context.Context, *search.Client, string) error) int {
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

	if err := mark(context.Background(), rt.Client, c.flagUUID); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Info("Status updated")
	return 0
}

type AIPStoredCommand struct {
	command
}

func NewAIPStoredCommand(b *base.Command) *AIPStoredCommand {
	return &AIPStoredCommand{command{Command: b, name: "mark aip-stored"}}
}

func (c *AIPStoredCommand) Synopsis() string {
	return "Mark an indexed AIP as stored"
}

func (c *AIPStoredCommand) Help() string {
	return `Usage: aipsearch mark aip-stored [options]

  Resets the deletion flag on the AIP document with the given UUID,
  returning it to the stored state.` +
		c.Flags().Help()
}

func (c *AIPStoredCommand) Run(args []string) int {
	return c.run(args, func(ctx context.Context, cl *search.Client, uuid string) error {
		return cl.MarkAIPStored(ctx, uuid)
	})
}

type AIPDeletionCommand struct {
	command
}

func NewAIPDeletionCommand(b *base.Command) *AIPDeletionCommand {
	return &AIPDeletionCommand{command{Command: b, name: "mark aip-deletion"}}
}

func (c *AIPDeletionCommand) Synopsis() string {
	return "Mark an indexed AIP as pending deletion"
}

func (c *AIPDeletionCommand) Help() string {
	return `Usage: aipsearch mark aip-deletion [options]

  Flags the AIP document with the given UUID as having a deletion
  request pending.` +
		c.Flags().Help()
}

func (c *AIPDeletionCommand) Run(args []string) int {
	return c.run(args, func(ctx context.Context, cl *search.Client, uuid string) error {
		return cl.MarkAIPDeletionRequested(ctx, uuid)
	})
}

type BacklogDeletionCommand struct {
	command
}

func NewBacklogDeletionCommand(b *base.Command) *BacklogDeletionCommand {
	return &BacklogDeletionCommand{command{Command: b, name: "mark backlog-deletion"}}
}

func (c *BacklogDeletionCommand) Synopsis() string {
	return "Mark a backlogged transfer as pending deletion"
}

func (c *BacklogDeletionCommand) Help() string {
	return `Usage: aipsearch mark backlog-deletion [options]

  Flags the transfer document with the given UUID as having a deletion
  request pending.` +
		c.Flags().Help()
}

func (c *BacklogDeletionCommand) Run(args []string) int {
	return c.run(args, func(ctx context.Context, cl *search.Client, uuid string) error {
		return cl.MarkBacklogDeletionRequested(ctx, uuid)
	})
}
