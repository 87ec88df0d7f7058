package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
	"github.com/wricardo/mcp-training/crisisgame/game/service"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func puzzleSnapshot() *service.Snapshot {
	return &service.Snapshot{
		SessionID: "ab12",
		Scene: scene.View{
			Name:   "WaterGame",
			Kind:   scene.KindMatch,
			Title:  "Water Management Matching Game",
			Parent: "WaterScene",
			Puzzle: &scene.PuzzleView{
				State:     puzzle.AwaitingTarget,
				Selection: puzzle.Selection{Active: true, Prompt: 1},
				Prompts: []puzzle.Item{
					{Index: 0, Label: "Mulching"},
					{Index: 1, Label: "Breathing"},
					{Index: 2, Label: "Over Watering"},
				},
				Targets: []puzzle.Item{
					{Index: 0, Label: "Corn"},
					{Index: 1, Label: "Protein Feed"},
					{Index: 2, Label: "Rice"},
				},
				Matches: []puzzle.Match{{Prompt: 0, Target: 1}},
				Size:    3,
				Status:  "Now select a crop from the second row",
			},
		},
		ClockMS: 1200,
		Timers:  1,
	}
}

// recordingAPI answers every request with body and records what it received
type recordingAPI struct {
	method string
	path   string
	body   map[string]any
}

func (r *recordingAPI) server(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.method, r.path = req.Method, req.URL.Path
		r.body = nil
		if data, _ := io.ReadAll(req.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &r.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	api := &recordingAPI{}
	ts := api.server(t, http.StatusConflict, map[string]string{"error": "continue control not available"})
	client := NewClient(ts.URL)

	err := client.apiCall(context.Background(), "POST", "/api/sessions/x/continue", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "continue control not available", err.Error())
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	err := client.apiCall(context.Background(), "GET", "/api/suites", nil, nil)
	assert.Error(t, err)
}

func TestClient_ToolsProxyToREST(t *testing.T) {
	result := service.ActionResult{
		Success:  true,
		Outcome:  "selected",
		Message:  "Now select a crop from the second row",
		Events:   []service.GameEvent{{Type: "prompt_selected", Prompt: 1, Target: -1}},
		Snapshot: puzzleSnapshot(),
	}

	tests := []struct {
		tool     string
		args     map[string]any
		call     func(*Client, context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		wantPath string
		wantBody map[string]any
	}{
		{"select_prompt", map[string]any{"session_id": "ab12", "index": float64(1)}, (*Client).handleSelectPrompt,
			"/api/sessions/ab12/select", map[string]any{"index": float64(1)}},
		{"attempt_target", map[string]any{"session_id": "ab12", "index": float64(2)}, (*Client).handleAttemptTarget,
			"/api/sessions/ab12/attempt", map[string]any{"index": float64(2)}},
		{"hover", map[string]any{"session_id": "ab12", "tile": float64(4)}, (*Client).handleHover,
			"/api/sessions/ab12/hover", map[string]any{"tile": float64(4), "enter": true}},
		{"hover leave", map[string]any{"session_id": "ab12", "tile": float64(4), "enter": false}, (*Client).handleHover,
			"/api/sessions/ab12/hover", map[string]any{"tile": float64(4), "enter": false}},
		{"activate_tile", map[string]any{"session_id": "ab12", "tile": float64(0)}, (*Client).handleActivateTile,
			"/api/sessions/ab12/activate", map[string]any{"tile": float64(0)}},
		{"follow_link", map[string]any{"session_id": "ab12", "link": float64(0)}, (*Client).handleFollowLink,
			"/api/sessions/ab12/follow", map[string]any{"link": float64(0)}},
		{"navigate", map[string]any{"session_id": "ab12", "scene": "WaterGame"}, (*Client).handleNavigate,
			"/api/sessions/ab12/navigate", map[string]any{"scene": "WaterGame"}},
		{"tick", map[string]any{"session_id": "ab12", "ms": float64(1500)}, (*Client).handleTick,
			"/api/sessions/ab12/tick", map[string]any{"ms": float64(1500)}},
		{"continue", map[string]any{"session_id": "ab12"}, (*Client).handleContinue,
			"/api/sessions/ab12/continue", nil},
		{"back", map[string]any{"session_id": "ab12"}, (*Client).handleBack,
			"/api/sessions/ab12/back", nil},
		{"reset", map[string]any{"session_id": "ab12"}, (*Client).handleReset,
			"/api/sessions/ab12/reset", nil},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			api := &recordingAPI{}
			client := NewClient(api.server(t, http.StatusOK, result).URL)

			res, err := tt.call(client, context.Background(), callRequest(tt.tool, tt.args))
			require.NoError(t, err)
			assert.False(t, res.IsError, resultText(t, res))

			assert.Equal(t, "POST", api.method)
			assert.Equal(t, tt.wantPath, api.path)
			assert.Equal(t, tt.wantBody, api.body)
			assert.Contains(t, resultText(t, res), "Outcome: selected")
		})
	}
}

func TestClient_ArgumentErrors(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	ctx := context.Background()

	tests := []struct {
		name string
		call func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args map[string]any
		want string
	}{
		{"missing session", client.handleSelectPrompt, map[string]any{"index": float64(0)}, "session_id is required"},
		{"missing index", client.handleSelectPrompt, map[string]any{"session_id": "x"}, "index is required"},
		{"fractional index", client.handleAttemptTarget, map[string]any{"session_id": "x", "index": 1.5}, "index must be an integer"},
		{"string tile", client.handleHover, map[string]any{"session_id": "x", "tile": "two"}, "tile must be an integer"},
		{"missing scene", client.handleNavigate, map[string]any{"session_id": "x"}, "scene is required"},
		{"no arguments", client.handleGetState, nil, "session_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "x"}}
			if tt.args != nil {
				req.Params.Arguments = tt.args
			}
			res, err := tt.call(ctx, req)
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestClient_createSession(t *testing.T) {
	api := &recordingAPI{}
	ts := api.server(t, http.StatusCreated, service.SessionInfo{
		ID:        "test-session-123",
		SuiteID:   "classroom",
		SuiteName: "Classroom",
		Snapshot:  puzzleSnapshot(),
	})
	client := NewClient(ts.URL)

	res, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]any{"suite_id": "classroom"}))
	require.NoError(t, err)

	text := resultText(t, res)
	assert.Contains(t, text, "test-session-123")
	assert.Contains(t, text, "Suite: classroom (Classroom)")
	assert.Equal(t, "/api/sessions", api.path)
	assert.Equal(t, map[string]any{"suite_id": "classroom"}, api.body)
}

func TestClient_getStateRendersPuzzle(t *testing.T) {
	api := &recordingAPI{}
	client := NewClient(api.server(t, http.StatusOK, puzzleSnapshot()).URL)

	res, err := client.handleGetState(context.Background(), callRequest("get_state", map[string]any{"session_id": "ab12"}))
	require.NoError(t, err)

	text := resultText(t, res)
	assert.Equal(t, "GET", api.method)
	assert.Equal(t, "/api/sessions/ab12/state", api.path)
	for _, want := range []string{
		"Scene: WaterGame [match]",
		"[0] Mulching (matched with target 1)",
		"[1] Breathing (selected)",
		"[1] Protein Feed (matched)",
		"State: awaiting_target | Matched: 1/3",
		"Clock: 1200ms, pending timers: 1",
	} {
		assert.Contains(t, text, want)
	}
}

func TestFormatSnapshot_HubAndInfo(t *testing.T) {
	hub := formatSnapshot(&service.Snapshot{Scene: scene.View{
		Name: "exploreScene", Kind: scene.KindHub,
		Hub: &scene.HubView{Tiles: []scene.HubTileView{
			{Index: 0, Name: "Heat", Scene: "HeatmapScene", Live: true},
			{Index: 1, Name: "Flood", Scene: "scene-game"},
		}},
	}})
	assert.Contains(t, hub, "[0] Heat -> HeatmapScene (previewing)")
	assert.Contains(t, hub, "[1] Flood -> scene-game\n")

	info := formatSnapshot(&service.Snapshot{Scene: scene.View{
		Name: "WaterScene", Kind: scene.KindInfo, Parent: "exploreScene",
		Body:  "Irrigation choices",
		Links: []scene.Link{{Label: "Try Your Info", Scene: "WaterGame"}},
	}})
	assert.Contains(t, info, "Back leads to: exploreScene")
	assert.Contains(t, info, "Link [0] Try Your Info -> WaterGame")
}

func TestClient_listSuitesAndSessions(t *testing.T) {
	api := &recordingAPI{}
	client := NewClient(api.server(t, http.StatusOK, []map[string]any{
		{"id": "default", "name": "Crisis Scenarios", "puzzles": 1, "scenes": 6},
	}).URL)

	res, err := client.handleListSuites(context.Background(), callRequest("list_suites", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "- default: Crisis Scenarios (1 puzzles, 6 topic scenes)")

	api2 := &recordingAPI{}
	client = NewClient(api2.server(t, http.StatusOK, map[string]any{
		"count":    1,
		"sessions": []map[string]any{{"id": "ab12", "suite_id": "default", "scene": "WaterGame"}},
	}).URL)
	res, err = client.handleListSessions(context.Background(), callRequest("list_sessions", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "- ab12 (suite: default, scene: WaterGame")
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	res, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", nil))
	require.NoError(t, err)

	text := resultText(t, res)
	for _, section := range []string{"GAME OBJECTIVE:", "MATCHING RULES:", "TIME:", "OUTCOMES:"} {
		if !strings.Contains(text, section) {
			t.Errorf("Expected '%s' in instructions", section)
		}
	}
}

func TestClient_HandleMessageListsTools(t *testing.T) {
	client := NewClient("http://localhost:8080")
	ctx := context.Background()

	client.GetMCPServer().HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`))
	resp := client.GetMCPServer().HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{
		"create_session", "list_sessions", "get_state", "select_prompt", "attempt_target",
		"hover", "activate_tile", "follow_link", "continue", "back", "navigate", "reset",
		"tick", "list_suites", "game_instructions",
	} {
		assert.Contains(t, string(data), `"name":"`+name+`"`)
	}
}
