// Package commands implements the kmux CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/kmux/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "kmux",
	Short: "Kernel Multiplexer - Manage sessions on remote kernel gateways",
	Long: `kmux manages compute kernel sessions on remote Jupyter-compatible
kernel gateways. It starts kernel sessions, lists running kernels and
available kernel specifications, and keeps a local record of the
sessions it started.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Every command reads its logger back out of the context.
		cmd.SetContext(logger.WithContext(cmd.Context(), CreateLogger()))
	},
}

func init() {
	RegisterLoggerFlags(rootCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(kernelsCmd)
	rootCmd.AddCommand(specsCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Shortcut for listing local session records
	psCmd := &cobra.Command{
		Use:   "ps",
		Short: "Alias for 'sessions list'",
		RunE:  listRecords,
	}
	rootCmd.AddCommand(psCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
