// Package mcp lets AI agents play the game through the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes one REST request
// against the api package, and the JSON answer is rendered as plain text an
// agent can read. Tools:
//   - create_session, list_sessions, get_state, list_suites
//   - select_prompt, attempt_target, continue, reset
//   - hover, activate_tile, follow_link, back, navigate
//   - tick, which advances the session clock so delayed feedback runs
//   - game_instructions
//
// The same MCP server is served over stdio (the stdio-mcp command) and over
// HTTP at POST /mcp.
package mcp
