package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aki/kmux/internal/cli/ui"
	"github.com/aki/kmux/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize kmux in the current directory",
	Long: `Initialize kmux in the current directory.

Creates a .kmux directory with a default configuration pointing at a
local kernel gateway on http://localhost:8888. Edit .kmux/config.yaml
to add remote gateways, tokens, and kernel behavior settings.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	manager := config.NewManager(cwd)
	if manager.IsInitialized() {
		ui.Info("kmux is already initialized in %s", cwd)
		return nil
	}

	if err := manager.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	ui.Success("Initialized kmux in %s", cwd)
	ui.OutputLine("Edit %s/config.yaml to configure gateways", config.KmuxDir)
	return nil
}
