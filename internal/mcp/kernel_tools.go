package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerKernelTools registers kernel and spec enumeration tools
func (s *Server) registerKernelTools() {
	s.mcpServer.AddTool(mcp.NewTool("kernel_list",
		mcp.WithDescription("List the kernels currently running on a kernel gateway"),
		mcp.WithString("gateway",
			mcp.Description("Gateway name from config (default: configured default)"),
		),
	), s.handleKernelList)

	s.mcpServer.AddTool(mcp.NewTool("kernelspec_list",
		mcp.WithDescription("List the kernel specifications a gateway can launch. Best-effort: returns an empty list when the gateway cannot be reached."),
		mcp.WithString("gateway",
			mcp.Description("Gateway name from config (default: configured default)"),
		),
	), s.handleKernelSpecList)
}

// handleKernelList handles the kernel_list tool
func (s *Server) handleKernelList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, _ := args["gateway"].(string)
	_, info, err := s.connectionFor(name)
	if err != nil {
		return nil, err
	}

	kernels, err := s.adapter().ListActiveKernels(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("failed to list kernels: %w", err)
	}

	return jsonResult(kernels)
}

// handleKernelSpecList handles the kernelspec_list tool
func (s *Server) handleKernelSpecList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, _ := args["gateway"].(string)
	_, info, err := s.connectionFor(name)
	if err != nil {
		return nil, err
	}

	specs := s.adapter().ListActiveKernelSpecs(ctx, info)
	return jsonResult(specs)
}

// jsonResult wraps a value as an MCP text result containing JSON
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
	}, nil
}
