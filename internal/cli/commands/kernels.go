package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aki/kmux/internal/cli/ui"
)

var kernelsFlags struct {
	gateway string
	format  string
}

var kernelsCmd = &cobra.Command{
	Use:   "kernels",
	Short: "List kernels running on a gateway",
	Long: `List the kernels currently running on a kernel gateway.

Examples:
  # List kernels on the default gateway
  kmux kernels

  # List kernels on a named gateway
  kmux kernels --gateway staging

  # Machine-readable output
  kmux kernels --format json`,
	RunE: listKernels,
}

func init() {
	kernelsCmd.Flags().StringVarP(&kernelsFlags.gateway, "gateway", "g", "", "Gateway name from config (default: configured default)")
	kernelsCmd.Flags().StringVarP(&kernelsFlags.format, "format", "f", "pretty", "Output format (pretty, json)")
}

func listKernels(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, gw, info, err := resolveGateway(cfg, kernelsFlags.gateway)
	if err != nil {
		return err
	}

	adapter := newAdapter(cmd.Context(), cfg, gw, "")
	kernels, err := adapter.ListActiveKernels(cmd.Context(), info)
	if err != nil {
		return fmt.Errorf("failed to list kernels: %w", err)
	}

	format, err := ui.ParseFormat(kernelsFlags.format)
	if err != nil {
		return err
	}
	if formatter := ui.NewFormatter(format); formatter.IsJSON() {
		return formatter.Output(kernels)
	}

	ui.PrintKernelList(kernels)
	return nil
}
