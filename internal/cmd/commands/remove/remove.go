// Package remove implements the remove subcommands, deleting indexed
// documents for a stored package or its files.
package remove

import (
	"context"
	"flag"
	"fmt"

	"github.com/artefactual-forge/aipsearch/internal/cmd/base"
	"github.com/artefactual-forge/aipsearch/internal/cmd/runtime"
	"github.com/artefactual-forge/aipsearch/pkg/search"
)

// command carries the shared flag handling for all remove subcommands.
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

func (c *command) run(args []string, del func(context.Context, *search.Client, string) error) int {
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

	if err := del(context.Background(), rt.Client, c.flagUUID); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Info("Documents removed")
	return 0
}

type AIPCommand struct {
	command
}

func NewAIPCommand(b *base.Command) *AIPCommand {
	return &AIPCommand{command{Command: b, name: "remove aip"}}
}

func (c *AIPCommand) Synopsis() string {
	return "Remove an AIP document from the index"
}

func (c *AIPCommand) Help() string {
	return `Usage: aipsearch remove aip [options]

  Removes the AIP document with the given UUID. The AIP's file documents
  stay indexed; remove them with "remove aip-files".` +
		c.Flags().Help()
}

func (c *AIPCommand) Run(args []string) int {
	return c.run(args, func(ctx context.Context, cl *search.Client, uuid string) error {
		return cl.DeleteAIP(ctx, uuid)
	})
}

type AIPFilesCommand struct {
	command
}

func NewAIPFilesCommand(b *base.Command) *AIPFilesCommand {
	return &AIPFilesCommand{command{Command: b, name: "remove aip-files"}}
}

func (c *AIPFilesCommand) Synopsis() string {
	return "Remove the file documents of an AIP from the index"
}

func (c *AIPFilesCommand) Help() string {
	return `Usage: aipsearch remove aip-files [options]

  Removes every AIP file document for the given AIP UUID, leaving the
  AIP document itself in place.` +
		c.Flags().Help()
}

func (c *AIPFilesCommand) Run(args []string) int {
	return c.run(args, func(ctx context.Context, cl *search.Client, uuid string) error {
		return cl.DeleteAIPFiles(ctx, uuid)
	})
}

type TransferCommand struct {
	command
}

func NewTransferCommand(b *base.Command) *TransferCommand {
	return &TransferCommand{command{Command: b, name: "remove transfer"}}
}

func (c *TransferCommand) Synopsis() string {
	return "Remove a transfer document from the index"
}

func (c *TransferCommand) Help() string {
	return `Usage: aipsearch remove transfer [options]

  Removes the transfer document with the given UUID. The transfer's file
  documents stay indexed; remove them with "remove transfer-files".` +
		c.Flags().Help()
}

func (c *TransferCommand) Run(args []string) int {
	return c.run(args, func(ctx context.Context, cl *search.Client, uuid string) error {
		return cl.DeleteTransfer(ctx, uuid)
	})
}

type SIPFilesCommand struct {
	command
}

func NewSIPFilesCommand(b *base.Command) *SIPFilesCommand {
	return &SIPFilesCommand{command{Command: b, name: "remove sip-files"}}
}

func (c *SIPFilesCommand) Synopsis() string {
	return "Remove the transfer file documents folded into a SIP"
}

func (c *SIPFilesCommand) Help() string {
	return `Usage: aipsearch remove sip-files [options]

  Resolves the transfers whose files were folded into the given SIP from
  the relational store, then removes each transfer's file documents.
  Requires a database block in the configuration.` +
		c.Flags().Help()
}

func (c *SIPFilesCommand) Run(args []string) int {
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
	ix, err := rt.NewIndexer()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if err := ix.RemoveSIPTransferFiles(context.Background(), c.flagUUID); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Info("Documents removed")
	return 0
}

type TransferFilesCommand struct {
	command
}

func NewTransferFilesCommand(b *base.Command) *TransferFilesCommand {
	return &TransferFilesCommand{command{Command: b, name: "remove transfer-files"}}
}

func (c *TransferFilesCommand) Synopsis() string {
	return "Remove the file documents of a transfer from the index"
}

func (c *TransferFilesCommand) Help() string {
	return `Usage: aipsearch remove transfer-files [options]

  Removes every transfer file document for the given transfer UUID,
  leaving the transfer document itself in place.` +
		c.Flags().Help()
}

func (c *TransferFilesCommand) Run(args []string) int {
	return c.run(args, func(ctx context.Context, cl *search.Client, uuid string) error {
		return cl.DeleteTransferFiles(ctx, uuid)
	})
}
