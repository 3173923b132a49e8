package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/artefactual-forge/aipsearch/internal/cmd/base"
	"github.com/artefactual-forge/aipsearch/internal/cmd/commands/index"
	"github.com/artefactual-forge/aipsearch/internal/cmd/commands/mark"
	"github.com/artefactual-forge/aipsearch/internal/cmd/commands/remove"
	"github.com/artefactual-forge/aipsearch/internal/cmd/commands/searchcmd"
	"github.com/artefactual-forge/aipsearch/internal/cmd/commands/tags"
	"github.com/artefactual-forge/aipsearch/internal/cmd/commands/versioncmd"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := &base.Command{
		UI:  ui,
		Log: log,
	}

	Commands = map[string]cli.CommandFactory{
		"index aip": func() (cli.Command, error) {
			return &index.AIPCommand{Command: b}, nil
		},
		"index transfer": func() (cli.Command, error) {
			return &index.TransferCommand{Command: b}, nil
		},
		"search": func() (cli.Command, error) {
			return &searchcmd.Command{Command: b}, nil
		},
		"tags get": func() (cli.Command, error) {
			return &tags.GetCommand{Command: b}, nil
		},
		"tags set": func() (cli.Command, error) {
			return &tags.SetCommand{Command: b}, nil
		},
		"mark aip-stored": func() (cli.Command, error) {
			return mark.NewAIPStoredCommand(b), nil
		},
		"mark aip-deletion": func() (cli.Command, error) {
			return mark.NewAIPDeletionCommand(b), nil
		},
		"mark backlog-deletion": func() (cli.Command, error) {
			return mark.NewBacklogDeletionCommand(b), nil
		},
		"remove aip": func() (cli.Command, error) {
			return remove.NewAIPCommand(b), nil
		},
		"remove aip-files": func() (cli.Command, error) {
			return remove.NewAIPFilesCommand(b), nil
		},
		"remove sip-files": func() (cli.Command, error) {
			return remove.NewSIPFilesCommand(b), nil
		},
		"remove transfer": func() (cli.Command, error) {
			return remove.NewTransferCommand(b), nil
		},
		"remove transfer-files": func() (cli.Command, error) {
			return remove.NewTransferFilesCommand(b), nil
		},
		"version": func() (cli.Command, error) {
			return &versioncmd.Command{Command: b}, nil
		},
	}
}
