package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aki/kmux/internal/cli/ui"
	"github.com/aki/kmux/internal/gateway"
	"github.com/aki/kmux/internal/session"
)

var startFlags struct {
	gateway  string
	kernel   string
	password string
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a kernel session on a gateway",
	Long: `Start a kernel session on a kernel gateway.

The session is created on the gateway and recorded locally so later
invocations can find it. The kernel keeps running after kmux exits.

Examples:
  # Start a session with the gateway's default kernel
  kmux start

  # Start a python3 kernel on a named gateway
  kmux start --gateway staging --kernel python3

  # Start a session on a password-protected server
  kmux start --password secret`,
	RunE: startSession,
}

func init() {
	startCmd.Flags().StringVarP(&startFlags.gateway, "gateway", "g", "", "Gateway name from config (default: configured default)")
	startCmd.Flags().StringVarP(&startFlags.kernel, "kernel", "k", "", "Kernel spec name to launch (default: gateway default)")
	startCmd.Flags().StringVarP(&startFlags.password, "password", "p", "", "Password for password-protected servers")
}

func startSession(cmd *cobra.Command, args []string) error {
	manager, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gwName, gw, info, err := resolveGateway(cfg, startFlags.gateway)
	if err != nil {
		return err
	}

	adapter := newAdapter(cmd.Context(), cfg, gw, startFlags.password)

	var spec *gateway.KernelSpec
	if startFlags.kernel != "" {
		spec = &gateway.KernelSpec{Name: startFlags.kernel}
	}

	handle, err := adapter.StartSession(cmd.Context(), info, spec)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	// Record the session, then detach so the kernel survives kmux
	// exiting. Releasing the handle would tear the session down.
	record := session.NewRecord(gwName, handle)
	handle.Detach()

	store := session.NewFileStore(manager.GetSessionsDir())
	if err := store.Save(cmd.Context(), record); err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}

	ui.Success("Session started on %s", info.BaseURL)
	ui.PrintRecord(record)
	return nil
}
