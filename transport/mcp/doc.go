// Package mcp provides a Model Context Protocol server for the grid path planner.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for planning and stepping operations
//   - Session-aware command execution
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - run_state: Get current run state with an ASCII grid rendering
//   - plan_paths: Discover agents, assign goals, plan and mark paths
//   - step: Advance the run by some ticks
//   - reset_session: Restore the pristine map
//   - export_map: Export the path-marked map document
//   - create_session: Create new planning session with map selection
//   - get_session: Get specific session details
//   - list_sessions: List all active sessions
//   - list_maps: List available maps
//   - describe_cell: Inspect a single cell's value and classification
//   - planner_instructions: Full planner semantics
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: HTTP endpoint for remote MCP integration
//
// Architecture:
//
// The client is a thin proxy. Every tool call is translated into a REST
// request against the API server, so MCP and HTTP clients always observe
// the same session state.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
