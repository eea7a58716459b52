// kmux is a CLI for managing kernel sessions on remote
// Jupyter-compatible kernel gateways.
package main

import (
	"os"

	"github.com/aki/kmux/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
