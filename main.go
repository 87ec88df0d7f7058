// Command crisisgame serves the Crisis Scenarios game.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket
//     updates and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API
//     if none is available
//
// Settings come from the environment (and .env), and flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/crisisgame/api"
	"github.com/wricardo/mcp-training/crisisgame/game/config"
	"github.com/wricardo/mcp-training/crisisgame/game/service"
	"github.com/wricardo/mcp-training/crisisgame/game/session"
	"github.com/wricardo/mcp-training/crisisgame/transport/mcp"
	"github.com/wricardo/mcp-training/crisisgame/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Crisis Scenarios Server"
)

const defaultSuitesDir = "suites"

// Config holds the process settings
type Config struct {
	Host           string        `env:"HOST" envDefault:"localhost"`
	Port           int           `env:"PORT" envDefault:"8080"`
	SuitesDir      string        `env:"SUITES_DIR" envDefault:"suites"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	Pretty         bool          `env:"LOG_PRETTY"`
	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"50ms"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	NgrokEnabled   bool          `env:"NGROK_ENABLED"`
	NgrokAuthtoken string        `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string        `env:"NGROK_DOMAIN"`
}

// Addr is the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// loadConfig reads .env if present and parses the environment
func loadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("error loading .env file")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag set on the command line
func applyFlags(cmd *cli.Command, cfg *Config) {
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("suites-dir") {
		cfg.SuitesDir = cmd.String("suites-dir")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("pretty") {
		cfg.Pretty = cmd.Bool("pretty")
	}
	if cmd.IsSet("tick-interval") {
		cfg.TickInterval = cmd.Duration("tick-interval")
	}
	if cmd.IsSet("session-ttl") {
		cfg.SessionTTL = cmd.Duration("session-ttl")
	}
	if cmd.IsSet("ngrok") {
		cfg.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-authtoken") {
		cfg.NgrokAuthtoken = cmd.String("ngrok-authtoken")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.NgrokDomain = cmd.String("ngrok-domain")
	}
}

// setupLogging configures the global zerolog logger
func setupLogging(level string, pretty bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "crisisgame",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (HOST, default localhost)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (PORT, default 8080)"},
			&cli.StringFlag{Name: "suites-dir", Usage: "Directory containing suite files (SUITES_DIR, default suites)"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level (LOG_LEVEL, default info)"},
			&cli.BoolFlag{Name: "pretty", Usage: "Human readable console logs (LOG_PRETTY)"},
			&cli.DurationFlag{Name: "tick-interval", Usage: "Game clock interval (TICK_INTERVAL, default 50ms)"},
			&cli.DurationFlag{Name: "session-ttl", Usage: "Remove sessions idle for this long (SESSION_TTL, default 24h)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-authtoken", Usage: "Ngrok auth token (NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (NGROK_DOMAIN)"},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run the HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run an MCP stdio server backed by a local or internal HTTP API",
				Action:  runStdioMCP,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// prepare resolves configuration and logging for a command
func prepare(cmd *cli.Command) (Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	if err := setupLogging(cfg.LogLevel, cfg.Pretty); err != nil {
		return cfg, err
	}
	if cfg.TickInterval <= 0 || cfg.TickInterval > service.MaxTick {
		return cfg, fmt.Errorf("tick interval must be between 0 and %s, got %s", service.MaxTick, cfg.TickInterval)
	}
	return cfg, nil
}

// app wires the managers, the game service and the websocket hub
type app struct {
	cfg      Config
	sessions *session.Manager
	suites   *config.Manager
	service  service.GameService
	hub      *websocket.Hub
}

func newApp(cfg Config) (*app, error) {
	dir := cfg.SuitesDir
	if dir == defaultSuitesDir {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("dir", dir).Msg("suites directory not found, serving built-in suite only")
			dir = ""
		}
	}

	suites, err := config.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create suite manager: %w", err)
	}

	sessions := session.NewManager()
	return &app{
		cfg:      cfg,
		sessions: sessions,
		suites:   suites,
		service:  service.NewGameService(sessions, suites),
		hub:      websocket.NewHub(),
	}, nil
}

// handler combines the REST API, WebSocket and the /mcp endpoint
func (a *app) handler(baseURL string) http.Handler {
	apiServer := api.NewServer(a.service, a.hub)
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mux
}

// step advances every session by d and pushes the results to websocket clients
func (a *app) step(ctx context.Context, d time.Duration) int {
	results := a.service.AdvanceAll(ctx, d)
	for _, res := range results {
		if res.Snapshot != nil {
			a.hub.BroadcastResult(res.Snapshot.SessionID, res)
		}
	}
	return len(results)
}

// runClock drives every session's scheduler with wall time
func (a *app) runClock(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d := now.Sub(last)
			last = now
			if d > service.MaxTick {
				d = service.MaxTick
			}
			if n := a.step(ctx, d); n > 0 {
				log.Debug().Int("sessions", n).Dur("dt", d).Msg("timers fired")
			}
		}
	}
}

// runCleanup periodically removes sessions idle for longer than the TTL
func (a *app) runCleanup(ctx context.Context) {
	interval := a.cfg.SessionTTL / 24
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.sessions.CleanupExpiredSessions(a.cfg.SessionTTL); removed > 0 {
				log.Info().Int("removed", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// start launches the hub, clock and cleanup routines
func (a *app) start(ctx context.Context, wg *sync.WaitGroup) {
	for _, fn := range []func(context.Context){a.hub.Run, a.runClock, a.runCleanup} {
		wg.Add(1)
		go func(fn func(context.Context)) {
			defer wg.Done()
			fn(ctx)
		}(fn)
	}
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp
// endpoint. If ngrok is enabled it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	cfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	a.start(ctx, &wg)

	addr := cfg.Addr()
	handler := a.handler("http://" + addr)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("version", Version).
			Str("addr", addr).
			Str("api", "http://"+addr+"/api").
			Str("ws", "ws://"+addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cfg, handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, cfg Config, handler http.Handler) {
	if cfg.NgrokAuthtoken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-authtoken or NGROK_AUTHTOKEN)")
		return
	}

	tunnel := ngrokConfig.HTTPEndpoint()
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthtoken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}
	defer tun.Close()

	log.Info().Str("url", tun.URL()).Msg("ngrok tunnel established")

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the configured address, otherwise it starts an internal one on a random
// loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := prepare(cmd)
	if err != nil {
		return err
	}

	baseURL := "http://" + cfg.Addr()
	testClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := testClient.Get(baseURL + "/health"); err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		log.Info().Msg("no external API server found, starting internal HTTP server")

		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		ctx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		a.start(ctx, &wg)

		httpServer := &http.Server{Handler: a.handler(baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer func() {
			httpServer.Close()
			cancel()
			wg.Wait()
		}()

		log.Info().Str("url", baseURL).Msg("internal HTTP server started for MCP stdio")
	}

	log.Info().Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
