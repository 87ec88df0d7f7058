package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "SUITES_DIR", "LOG_LEVEL", "TICK_INTERVAL", "SESSION_TTL", "NGROK_ENABLED"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "suites", cfg.SuitesDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.NgrokEnabled)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TICK_INTERVAL", "20ms")
	t.Setenv("NGROK_ENABLED", "true")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval)
	assert.True(t, cfg.NgrokEnabled)

	t.Setenv("PORT", "not-a-port")
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug", false))
	assert.NoError(t, setupLogging("info", false))
	assert.Error(t, setupLogging("loud", false))
}

func TestNewApp_InvalidSuitesDir(t *testing.T) {
	_, err := newApp(Config{SuitesDir: "/non/existent/path", TickInterval: 50 * time.Millisecond})
	assert.Error(t, err)
}

func TestNewApp_MissingDefaultDirFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())
	a, err := newApp(Config{SuitesDir: defaultSuitesDir, TickInterval: 50 * time.Millisecond})
	require.NoError(t, err)

	infos, err := a.service.ListSuites(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "default", infos[0].ID)
}

func newTestApp(t *testing.T) (*app, *httptest.Server) {
	t.Helper()
	a, err := newApp(Config{TickInterval: 10 * time.Millisecond, SessionTTL: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go a.hub.Run(ctx)

	// The handler needs its own URL for /mcp, so it is built lazily
	var h http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}))
	h = a.handler(ts.URL)

	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return a, ts
}

func TestHandlerServesAPIAndMCP(t *testing.T) {
	_, ts := newTestApp(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/mcp")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	initialize := `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	resp, err = http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(initialize))
	require.NoError(t, err)
	resp.Body.Close()

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_session","arguments":{}}}`
	resp, err = http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Scene: exploreScene")
}

func TestStepAdvancesSessions(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	info, err := a.service.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = a.service.Navigate(ctx, info.ID, "WaterGame")
	require.NoError(t, err)
	_, err = a.service.SelectPrompt(ctx, info.ID, 0)
	require.NoError(t, err)
	res, err := a.service.AttemptTarget(ctx, info.ID, 0)
	require.NoError(t, err)
	require.Equal(t, "incorrect", res.Outcome)

	assert.Zero(t, a.step(ctx, time.Second))
	assert.Equal(t, 1, a.step(ctx, 500*time.Millisecond))

	snap, err := a.service.GetState(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, snap.Scene.Puzzle.Pending)
}

func TestRunClockStopsWithContext(t *testing.T) {
	a, err := newApp(Config{TickInterval: 5 * time.Millisecond, SessionTTL: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.runClock(ctx)
		close(done)
	}()

	info, err := a.service.CreateSession(context.Background(), "")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		snap, err := a.service.GetState(context.Background(), info.ID)
		return err == nil && snap.ClockMS > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runClock did not stop")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newCommand()
	var out bytes.Buffer
	cmd.Writer = &out

	require.NoError(t, cmd.Run(context.Background(), []string{"crisisgame", "version"}))
	assert.Contains(t, out.String(), AppName)
}
