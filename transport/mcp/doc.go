// Package mcp exposes the merge puzzle to AI agents over the Model Context Protocol.
//
// The Client registers one MCP tool per game operation and answers every call
// by proxying it to the REST API, so agents, browsers and WebSocket watchers
// all observe the same sessions. Tool output is plain text: the board is
// rendered as right-aligned numbers with "." for empty cells.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, reset_game, move_history
//   - list_configs, share_score, game_instructions
//
// Transport Modes:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode: one JSON-RPC message per POST
//	mux.Handle("/mcp", client.HTTPHandler())
//
// The move and bulk_move tools take an optional intent argument. It is only
// logged; asking for it nudges agents to explain their plan.
package mcp
