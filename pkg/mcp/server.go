// Copyright 2026 © The HRBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the HR operation catalog over the Model Context
// Protocol, so external MCP clients can drive the same executor the
// chat agent uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/seritra/hrbot/pkg/agent"
	"github.com/seritra/hrbot/pkg/hr"
)

// Server wraps the mcp-go server around the operation catalog. All
// operations run as the single employee bound at construction time.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer builds an MCP server exposing every catalog operation,
// scoped to the given principal.
func NewServer(name, version string, registry *agent.Registry, executor *agent.Executor, emp *hr.Employee) (*Server, error) {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version),
	}

	for _, opName := range registry.Names() {
		op, _ := registry.Lookup(opName)

		schema, err := json.Marshal(op.Parameters)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", op.Name, err)
		}
		tool := mcp.NewToolWithRawSchema(op.Name, op.Description, schema)

		s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			if args == nil {
				args = map[string]interface{}{}
			}

			var result agent.Result
			if err := registry.ValidateArgs(op.Name, args); err != nil {
				result = agent.Result{"error": err.Error()}
			} else {
				result, err = executor.Execute(ctx, emp, agent.Invocation{Name: op.Name, Args: args})
				if err != nil {
					return nil, err
				}
			}

			payload, err := json.Marshal(result)
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResultText(string(payload)), nil
		})
	}

	return s, nil
}

// ServeStdio starts the server on stdio and blocks until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
