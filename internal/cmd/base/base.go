// Package base carries the pieces shared by every CLI command: the UI and
// logger handed down from main, and a flag set wrapper that renders help text.
package base

import (
	"bytes"
	"flag"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by all commands.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger
}

// FlagSet wraps the standard flag set with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a FlagSet.
func NewFlagSet(fs *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: fs}
}

// Help returns the rendered flag usage, for appending to a command's help
// text.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&buf, "  -%s\n        %s", fl.Name, fl.Usage)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&buf, " (default: %s)", fl.DefValue)
		}
		buf.WriteString("\n")
	})
	if buf.Len() == 0 {
		return ""
	}
	return "\n\nOptions:\n\n" + buf.String()
}
