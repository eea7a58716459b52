package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aki/kmux/internal/cli/ui"
	"github.com/aki/kmux/internal/config"
	"github.com/aki/kmux/internal/gateway"
	"github.com/aki/kmux/internal/logger"
	"github.com/aki/kmux/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage local session records",
	Long: `Manage the sessions kmux started on remote gateways.

kmux keeps a local record of every session it starts. These commands
list, inspect, and remove those records; removing a record can also
tear the session down on the gateway.`,
}

var sessionsRemoveFlags struct {
	keepRemote bool
}

func init() {
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded sessions",
		RunE:    listRecords,
	}

	showCmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Show a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE:  showRecord,
	}

	removeCmd := &cobra.Command{
		Use:     "remove <session>",
		Aliases: []string{"rm"},
		Short:   "Remove a recorded session",
		Long: `Remove a recorded session.

By default the remote session is deleted from the gateway as well, and
the kernel is shut down when the configuration allows it. Use
--keep-remote to drop only the local record.`,
		Args: cobra.ExactArgs(1),
		RunE: removeRecord,
	}
	removeCmd.Flags().BoolVar(&sessionsRemoveFlags.keepRemote, "keep-remote", false, "Keep the session running on the gateway")

	sessionsCmd.AddCommand(listCmd)
	sessionsCmd.AddCommand(showCmd)
	sessionsCmd.AddCommand(removeCmd)
}

// resolveRecord finds a record by full ID or unique prefix
func resolveRecord(ctx context.Context, store session.Store, identifier string) (*session.Record, error) {
	if record, err := store.Load(ctx, identifier); err == nil {
		return record, nil
	}

	records, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*session.Record
	for _, r := range records {
		if strings.HasPrefix(r.ID, identifier) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, session.ErrRecordNotFound{ID: identifier}
	default:
		return nil, fmt.Errorf("ambiguous session identifier: %s matches %d sessions", identifier, len(matches))
	}
}

func listRecords(cmd *cobra.Command, args []string) error {
	manager, _, err := loadConfig()
	if err != nil {
		return err
	}

	store := session.NewFileStore(manager.GetSessionsDir())
	records, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	ui.PrintRecordList(records)
	return nil
}

func showRecord(cmd *cobra.Command, args []string) error {
	manager, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := session.NewFileStore(manager.GetSessionsDir())
	record, err := resolveRecord(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}

	ui.PrintRecord(record)

	// Best-effort live state for the recorded kernel.
	if gw, err := cfg.ResolveGateway(record.Gateway); err == nil && record.KernelID != "" {
		client := gateway.NewClient(gatewaySettings(gw),
			gateway.WithLogger(logger.FromContext(cmd.Context())))
		if kernel, err := client.GetKernel(cmd.Context(), record.KernelID); err == nil {
			ui.OutputLine("   %s %s", ui.DimStyle.Render("State:"), kernel.ExecutionState)
		}
	}
	return nil
}

func removeRecord(cmd *cobra.Command, args []string) error {
	manager, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := session.NewFileStore(manager.GetSessionsDir())
	record, err := resolveRecord(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}

	if !sessionsRemoveFlags.keepRemote {
		if err := teardownRemote(cmd.Context(), cfg, record); err != nil {
			ui.Warning("Failed to tear down remote session: %v", err)
		}
	}

	if err := store.Remove(cmd.Context(), record.ID); err != nil {
		return fmt.Errorf("failed to remove session record: %w", err)
	}

	ui.Success("Removed session %s", session.ShortID(record.ID))
	return nil
}

// gatewaySettings maps a configured gateway to transport settings
func gatewaySettings(gw config.Gateway) gateway.ServerSettings {
	return gateway.ServerSettings{
		BaseURL:     gw.URL,
		WSURL:       strings.Replace(gw.URL, "http", "ws", 1),
		Token:       gw.Token,
		Cache:       gateway.CacheNoStore,
		Credentials: gateway.CredentialsSameOrigin,
	}
}

// teardownRemote deletes the recorded session from its gateway and
// shuts the kernel down when the configuration allows it.
func teardownRemote(ctx context.Context, cfg *config.Config, record *session.Record) error {
	gw, err := cfg.ResolveGateway(record.Gateway)
	if err != nil {
		return err
	}

	client := gateway.NewClient(gatewaySettings(gw),
		gateway.WithLogger(logger.FromContext(ctx)))

	if err := client.DeleteSession(ctx, record.RemoteSessionID); err != nil {
		return err
	}
	if cfg.DataScience.AllowKernelShutdown && record.KernelID != "" {
		if err := client.ShutdownKernel(ctx, record.KernelID); err != nil {
			return err
		}
	}
	return nil
}
