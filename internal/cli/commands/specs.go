package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/kmux/internal/cli/ui"
)

var specsFlags struct {
	gateway string
	format  string
}

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "List kernel specs available on a gateway",
	Long: `List the kernel specifications a gateway can launch.

Spec enumeration is best-effort: if the gateway cannot be reached or
returns garbage, the list is simply empty.

Examples:
  # List specs on the default gateway
  kmux specs

  # List specs on a named gateway
  kmux specs --gateway staging`,
	RunE: listSpecs,
}

func init() {
	specsCmd.Flags().StringVarP(&specsFlags.gateway, "gateway", "g", "", "Gateway name from config (default: configured default)")
	specsCmd.Flags().StringVarP(&specsFlags.format, "format", "f", "pretty", "Output format (pretty, json)")
}

func listSpecs(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, gw, info, err := resolveGateway(cfg, specsFlags.gateway)
	if err != nil {
		return err
	}

	adapter := newAdapter(cmd.Context(), cfg, gw, "")
	specs, defaultName := adapter.ListActiveKernelSpecsWithDefault(cmd.Context(), info)

	format, err := ui.ParseFormat(specsFlags.format)
	if err != nil {
		return err
	}
	if formatter := ui.NewFormatter(format); formatter.IsJSON() {
		return formatter.Output(specs)
	}

	ui.PrintSpecList(specs, defaultName)
	return nil
}
