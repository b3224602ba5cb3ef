// mt is a terminal client for the media tracker book library.
package main

import (
	"fmt"
	"os"

	"github.com/lanz/mediatracker-cli/internal/command"
)

var version = "dev"

func main() {
	if err := command.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
