package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/crisisgame/game/config"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
	"github.com/wricardo/mcp-training/crisisgame/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Crisis Scenarios",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Crisis Scenarios - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The game is a hub of six climate crisis tiles. Topic scenes explain a crisis
and may link to a matching puzzle: pair every prompt (top row) with the target
(bottom row) it belongs to.

Start with create_session, then call game_instructions once.
Every action returns the scene you are in and the puzzle status.
Timers only move when the clock moves: use tick to let feedback play out.`),
	)

	c.registerTools()
}

// tool builds a tool whose every property is described by name -> (type, description)
func tool(name, description string, props map[string][2]string, required ...string) mcp.Tool {
	properties := make(map[string]any, len(props))
	for key, p := range props {
		properties[key] = map[string]any{
			"type":        p[0],
			"description": p[1],
		}
	}
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

var sessionProp = [2]string{"string", "Session ID"}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(tool("create_session", "Create a new game session, optionally from a specific suite",
		map[string][2]string{
			"suite_id": {"string", "Suite to play (optional, see list_suites)"},
		}), c.handleCreateSession)

	c.mcpServer.AddTool(tool("list_sessions", "List all active game sessions", nil), c.handleListSessions)

	c.mcpServer.AddTool(tool("get_state", "Show the current scene, puzzle and canvas of a session",
		map[string][2]string{"session_id": sessionProp}, "session_id"), c.handleGetState)

	// Puzzle
	c.mcpServer.AddTool(tool("select_prompt", "Select a prompt (top row) of the active puzzle",
		map[string][2]string{
			"session_id": sessionProp,
			"index":      {"integer", "Prompt index, starting at 0"},
		}, "session_id", "index"), c.handleSelectPrompt)

	c.mcpServer.AddTool(tool("attempt_target", "Pair the selected prompt with a target (bottom row)",
		map[string][2]string{
			"session_id": sessionProp,
			"index":      {"integer", "Target index, starting at 0"},
		}, "session_id", "index"), c.handleAttemptTarget)

	c.mcpServer.AddTool(tool("continue", "Press Continue after a puzzle is solved",
		map[string][2]string{"session_id": sessionProp}, "session_id"), c.handleContinue)

	c.mcpServer.AddTool(tool("reset", "Restart the active puzzle",
		map[string][2]string{"session_id": sessionProp}, "session_id"), c.handleReset)

	// Hub and navigation
	c.mcpServer.AddTool(tool("hover", "Move the pointer onto (enter=true) or off a hub tile to start or stop its preview",
		map[string][2]string{
			"session_id": sessionProp,
			"tile":       {"integer", "Hub tile index, starting at 0"},
			"enter":      {"boolean", "true to hover, false to leave (default true)"},
		}, "session_id", "tile"), c.handleHover)

	c.mcpServer.AddTool(tool("activate_tile", "Open the scene behind a hub tile",
		map[string][2]string{
			"session_id": sessionProp,
			"tile":       {"integer", "Hub tile index, starting at 0"},
		}, "session_id", "tile"), c.handleActivateTile)

	c.mcpServer.AddTool(tool("follow_link", "Follow a link of the current topic scene",
		map[string][2]string{
			"session_id": sessionProp,
			"link":       {"integer", "Link index, starting at 0"},
		}, "session_id", "link"), c.handleFollowLink)

	c.mcpServer.AddTool(tool("back", "Return to the parent of the current scene",
		map[string][2]string{"session_id": sessionProp}, "session_id"), c.handleBack)

	c.mcpServer.AddTool(tool("navigate", "Jump directly to a named scene",
		map[string][2]string{
			"session_id": sessionProp,
			"scene":      {"string", "Scene name, see get_state for the list"},
		}, "session_id", "scene"), c.handleNavigate)

	// Clock
	c.mcpServer.AddTool(tool("tick", "Advance the session clock so delayed feedback runs",
		map[string][2]string{
			"session_id": sessionProp,
			"ms":         {"integer", "Milliseconds to advance (0-60000)"},
		}, "session_id", "ms"), c.handleTick)

	// Suites and help
	c.mcpServer.AddTool(tool("list_suites", "List available scenario suites", nil), c.handleListSuites)

	c.mcpServer.AddTool(tool("game_instructions", "Get the rules of the game and how to play it with these tools", nil), c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// arguments returns the tool arguments as a map, tolerating a missing object
func arguments(request mcp.CallToolRequest) map[string]any {
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		return args
	}
	return map[string]any{}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

func sessionPath(args map[string]any, suffix string) (string, error) {
	id := stringArg(args, "session_id")
	if id == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(id) + suffix, nil
}

// action posts to a session action endpoint and renders the result
func (c *Client) action(ctx context.Context, request mcp.CallToolRequest, suffix string, body any) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		log.Debug().Err(err).Str("tool", request.Params.Name).Msg("tool call rejected")
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

// indexAction wraps action for tools taking one integer argument
func (c *Client) indexAction(ctx context.Context, request mcp.CallToolRequest, suffix, argName, field string) (*mcp.CallToolResult, error) {
	n, err := intArg(arguments(request), argName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.action(ctx, request, suffix, map[string]int{field: n})
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if suiteID := stringArg(arguments(request), "suite_id"); suiteID != "" {
		body["suite_id"] = suiteID
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions: %d\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (suite: %s, scene: %s, last used %s)\n",
			s.ID, s.SuiteID, s.Scene, s.LastAccessedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snap service.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) handleSelectPrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.indexAction(ctx, request, "/select", "index", "index")
}

func (c *Client) handleAttemptTarget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.indexAction(ctx, request, "/attempt", "index", "index")
}

func (c *Client) handleContinue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/continue", nil)
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/reset", nil)
}

func (c *Client) handleHover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	tile, err := intArg(args, "tile")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	enter := true
	if v, ok := args["enter"].(bool); ok {
		enter = v
	}
	return c.action(ctx, request, "/hover", map[string]any{"tile": tile, "enter": enter})
}

func (c *Client) handleActivateTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.indexAction(ctx, request, "/activate", "tile", "tile")
}

func (c *Client) handleFollowLink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.indexAction(ctx, request, "/follow", "link", "link")
}

func (c *Client) handleBack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/back", nil)
}

func (c *Client) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(arguments(request), "scene")
	if name == "" {
		return mcp.NewToolResultError("scene is required"), nil
	}
	return c.action(ctx, request, "/navigate", map[string]string{"scene": name})
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.indexAction(ctx, request, "/tick", "ms", "ms")
}

func (c *Client) handleListSuites(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var suites []config.SuiteInfo
	if err := c.apiCall(ctx, "GET", "/api/suites", nil, &suites); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available suites:\n")
	for _, s := range suites {
		fmt.Fprintf(&b, "- %s: %s (%d puzzles, %d topic scenes)\n", s.ID, s.Name, s.Puzzles, s.Scenes)
		if s.Description != "" {
			fmt.Fprintf(&b, "  %s\n", s.Description)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Crisis Scenarios - Complete Instructions

GAME OBJECTIVE:
Explore six climate crises and solve the matching puzzles behind them.

SCENES:
- hub: a grid of crisis tiles. hover a tile to play its preview video,
  activate_tile to open its topic scene.
- info: a topic scene. follow_link opens the puzzle it links to,
  back returns to the hub.
- match: a matching puzzle with a row of prompts and a row of targets.

MATCHING RULES:
1. select_prompt picks a prompt. Selecting again replaces the selection.
2. attempt_target pairs the selected prompt with a target.
   - Correct: a green connector stays and both tiles are locked.
   - Incorrect: a red connector shows and input is blocked until the
     feedback clears (1.5 seconds of game time).
3. Matched prompts and targets ignore further input (outcome "duplicate").
4. When every prompt is matched the puzzle is complete. A Continue button
   appears after 2 seconds of game time; continue returns to the topic scene.

TIME:
The server clock advances on its own, but tick lets you move it
deterministically. After an incorrect attempt, tick 1500 before the next
selection. After solving, tick 2000 before continue.

OUTCOMES:
selected, matched, incorrect, solved, ignored (input not accepted now),
duplicate (already matched).

TIPS:
- get_state shows every prompt and target with its index.
- Out-of-range indexes are rejected with an error and change nothing.
- Re-entering a puzzle always starts it fresh.

Good luck!`

// Formatting

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nSuite: %s (%s)\nCreated: %s\n",
		info.ID, info.SuiteID, info.SuiteName, info.CreatedAt.Format("2006-01-02 15:04:05"))
	if info.Snapshot != nil {
		b.WriteString("\n")
		b.WriteString(formatSnapshot(info.Snapshot))
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Outcome != "" {
		fmt.Fprintf(&b, "Outcome: %s\n", result.Outcome)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "Status: %s\n", result.Message)
	}
	if result.Fired > 0 {
		fmt.Fprintf(&b, "Timers fired: %d\n", result.Fired)
	}
	if len(result.Events) > 0 {
		names := make([]string, 0, len(result.Events))
		for _, ev := range result.Events {
			names = append(names, ev.Type)
		}
		fmt.Fprintf(&b, "Events: %s\n", strings.Join(names, ", "))
	}
	if result.Snapshot != nil {
		b.WriteString("\n")
		b.WriteString(formatSnapshot(result.Snapshot))
	}
	return b.String()
}

func formatSnapshot(snap *service.Snapshot) string {
	var b strings.Builder
	v := snap.Scene
	fmt.Fprintf(&b, "Scene: %s [%s] %s\n", v.Name, v.Kind, v.Title)
	if v.Parent != "" {
		fmt.Fprintf(&b, "Back leads to: %s\n", v.Parent)
	}

	switch v.Kind {
	case scene.KindHub:
		if v.Hub != nil {
			b.WriteString("Tiles:\n")
			for _, t := range v.Hub.Tiles {
				live := ""
				if t.Live {
					live = " (previewing)"
				}
				fmt.Fprintf(&b, "  [%d] %s -> %s%s\n", t.Index, t.Name, t.Scene, live)
			}
		}
	case scene.KindInfo:
		if v.Body != "" {
			fmt.Fprintf(&b, "%s\n", v.Body)
		}
		for i, l := range v.Links {
			fmt.Fprintf(&b, "Link [%d] %s -> %s\n", i, l.Label, l.Scene)
		}
	case scene.KindMatch:
		if v.Puzzle != nil {
			b.WriteString(formatPuzzle(v.Puzzle))
		}
	}

	fmt.Fprintf(&b, "Clock: %dms, pending timers: %d\n", snap.ClockMS, snap.Timers)
	return b.String()
}

func formatPuzzle(p *scene.PuzzleView) string {
	var b strings.Builder
	if p.Instructions != "" {
		fmt.Fprintf(&b, "%s\n", p.Instructions)
	}

	matchedPrompt := make(map[int]int, len(p.Matches))
	matchedTarget := make(map[int]bool, len(p.Matches))
	for _, m := range p.Matches {
		matchedPrompt[m.Prompt] = m.Target
		matchedTarget[m.Target] = true
	}

	b.WriteString("Prompts:\n")
	for _, item := range p.Prompts {
		mark := ""
		if t, ok := matchedPrompt[item.Index]; ok {
			mark = fmt.Sprintf(" (matched with target %d)", t)
		} else if p.Selection.Active && p.Selection.Prompt == item.Index {
			mark = " (selected)"
		}
		fmt.Fprintf(&b, "  [%d] %s%s\n", item.Index, item.Label, mark)
	}
	b.WriteString("Targets:\n")
	for _, item := range p.Targets {
		mark := ""
		if matchedTarget[item.Index] {
			mark = " (matched)"
		}
		fmt.Fprintf(&b, "  [%d] %s%s\n", item.Index, item.Label, mark)
	}

	fmt.Fprintf(&b, "State: %s | Matched: %d/%d", p.State, len(p.Matches), p.Size)
	if p.Pending {
		b.WriteString(" | feedback showing, tick to clear")
	}
	if p.ContinueVisible {
		b.WriteString(" | Continue available")
	}
	b.WriteString("\n")
	if p.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", p.Status)
	}
	return b.String()
}
