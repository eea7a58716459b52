package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aki/kmux/internal/gateway"
	"github.com/aki/kmux/internal/session"
)

// registerSessionTools registers session lifecycle tools
func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(mcp.NewTool("session_start",
		mcp.WithDescription("Start a kernel session on a gateway and record it locally. The kernel keeps running after the call returns."),
		mcp.WithString("gateway",
			mcp.Description("Gateway name from config (default: configured default)"),
		),
		mcp.WithString("kernel",
			mcp.Description("Kernel spec name to launch (default: gateway default)"),
		),
	), s.handleSessionStart)

	s.mcpServer.AddTool(mcp.NewTool("session_list",
		mcp.WithDescription("List the sessions kmux has started and recorded locally"),
	), s.handleSessionList)

	s.mcpServer.AddTool(mcp.NewTool("session_remove",
		mcp.WithDescription("Remove a recorded session. Deletes the session from the gateway unless keep_remote is set."),
		mcp.WithString("session_identifier",
			mcp.Description("Session record ID or unique prefix"),
			mcp.Required(),
		),
		mcp.WithBoolean("keep_remote",
			mcp.Description("Keep the session running on the gateway"),
		),
	), s.handleSessionRemove)
}

// handleSessionStart handles the session_start tool
func (s *Server) handleSessionStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	gwName, _ := args["gateway"].(string)
	name, info, err := s.connectionFor(gwName)
	if err != nil {
		return nil, err
	}

	var spec *gateway.KernelSpec
	if kernel, ok := args["kernel"].(string); ok && kernel != "" {
		spec = &gateway.KernelSpec{Name: kernel}
	}

	handle, err := s.adapter().StartSession(ctx, info, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	record := session.NewRecord(name, handle)
	handle.Detach()

	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	return jsonResult(record)
}

// handleSessionList handles the session_list tool
func (s *Server) handleSessionList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return jsonResult(records)
}

// handleSessionRemove handles the session_remove tool
func (s *Server) handleSessionRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	identifier, ok := args["session_identifier"].(string)
	if !ok || identifier == "" {
		return nil, fmt.Errorf("invalid or missing session_identifier argument")
	}
	keepRemote, _ := args["keep_remote"].(bool)

	record, err := s.resolveRecord(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if !keepRemote {
		if err := s.teardownRemote(ctx, record); err != nil {
			s.log.Warn("failed to tear down remote session", "error", err)
		}
	}

	if err := s.store.Remove(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("failed to remove session record: %w", err)
	}

	return jsonResult(map[string]string{"removed": record.ID})
}

// resolveRecord finds a record by full ID or unique prefix
func (s *Server) resolveRecord(ctx context.Context, identifier string) (*session.Record, error) {
	if record, err := s.store.Load(ctx, identifier); err == nil {
		return record, nil
	}

	records, err := s.store.List(ctx)
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

// teardownRemote deletes the recorded session from its gateway and
// shuts the kernel down when the configuration allows it.
func (s *Server) teardownRemote(ctx context.Context, record *session.Record) error {
	gw, err := s.cfg.ResolveGateway(record.Gateway)
	if err != nil {
		return err
	}

	settings := gateway.ServerSettings{
		BaseURL:     gw.URL,
		WSURL:       strings.Replace(gw.URL, "http", "ws", 1),
		Token:       gw.Token,
		Cache:       gateway.CacheNoStore,
		Credentials: gateway.CredentialsSameOrigin,
	}
	client := gateway.NewClient(settings, gateway.WithLogger(s.log))

	if err := client.DeleteSession(ctx, record.RemoteSessionID); err != nil {
		return err
	}
	if s.cfg.DataScience.AllowKernelShutdown && record.KernelID != "" {
		if err := client.ShutdownKernel(ctx, record.KernelID); err != nil {
			return err
		}
	}
	return nil
}
