package main

import (
	"os"

	"github.com/artefactual-forge/aipsearch/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
