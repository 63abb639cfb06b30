// Package mcp exposes the maze solver to MCP clients.
//
// Client is a thin proxy: every tool call becomes a request against the
// REST API and the JSON answer is formatted as text for the agent.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - solve, solve_history, render_maze, describe_cell
//   - list_mazes, generate_maze
//   - solver_instructions
//
// The command binary mounts GetMCPServer at /mcp over HTTP and can also run
// it on stdio with server.ServeStdio.
package mcp
