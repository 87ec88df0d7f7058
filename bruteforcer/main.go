package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
	"github.com/wricardo/mcp-training/crisisgame/game/service"
)

var errNoPuzzle = errors.New("scene has no puzzle")

// Client drives one session over the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) CreateSession(ctx context.Context, suiteID string) (*service.SessionInfo, error) {
	var body any
	if suiteID != "" {
		body = map[string]string{"suite_id": suiteID}
	}
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return &info, nil
}

func (c *Client) action(ctx context.Context, op string, body any) (*service.ActionResult, error) {
	var result service.ActionResult
	path := fmt.Sprintf("/api/sessions/%s/%s", url.PathEscape(c.sessionID), op)
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Navigate(ctx context.Context, sceneName string) (*service.ActionResult, error) {
	return c.action(ctx, "navigate", map[string]string{"scene": sceneName})
}

func (c *Client) Select(ctx context.Context, index int) (*service.ActionResult, error) {
	return c.action(ctx, "select", map[string]int{"index": index})
}

func (c *Client) Attempt(ctx context.Context, index int) (*service.ActionResult, error) {
	return c.action(ctx, "attempt", map[string]int{"index": index})
}

func (c *Client) Tick(ctx context.Context, d time.Duration) (*service.ActionResult, error) {
	return c.action(ctx, "tick", map[string]int64{"ms": d.Milliseconds()})
}

func (c *Client) Continue(ctx context.Context) (*service.ActionResult, error) {
	return c.action(ctx, "continue", nil)
}

// settle ticks the session until no feedback timer is pending
func (c *Client) settle(ctx context.Context, snap *service.Snapshot, step time.Duration) (*service.Snapshot, error) {
	for i := 0; snap.Timers > 0; i++ {
		if i == 1000 {
			return nil, fmt.Errorf("session %s did not settle", c.sessionID)
		}
		result, err := c.Tick(ctx, step)
		if err != nil {
			return nil, err
		}
		snap = result.Snapshot
	}
	return snap, nil
}

// Report summarizes a solver run
type Report struct {
	SessionID string
	Puzzle    string
	Solution  puzzle.Solution
	Attempts  int
	Misses    int
	Scene     string
}

// Solve creates a session, opens the named puzzle and matches every pair
func Solve(ctx context.Context, c *Client, suiteID, puzzleScene string, step time.Duration, proceed bool) (*Report, error) {
	info, err := c.CreateSession(ctx, suiteID)
	if err != nil {
		return nil, err
	}
	logger := log.With().Str("session", info.ID).Str("puzzle", puzzleScene).Logger()

	result, err := c.Navigate(ctx, puzzleScene)
	if err != nil {
		return nil, err
	}
	snap := result.Snapshot
	if snap.Scene.Puzzle == nil {
		return nil, fmt.Errorf("%w: %s", errNoPuzzle, puzzleScene)
	}

	strategy := NewSystematicStrategy(snap.Scene.Puzzle)
	for !strategy.Solved() {
		prompt, target, ok := strategy.Next()
		if !ok {
			return nil, fmt.Errorf("no candidates left after %d attempts", strategy.Attempts())
		}

		if snap, err = c.settle(ctx, snap, step); err != nil {
			return nil, err
		}
		if _, err := c.Select(ctx, prompt); err != nil {
			return nil, err
		}
		result, err := c.Attempt(ctx, target)
		if err != nil {
			return nil, err
		}

		var outcome puzzle.Outcome
		if err := outcome.UnmarshalText([]byte(result.Outcome)); err != nil {
			return nil, err
		}
		strategy.Record(prompt, target, outcome)
		snap = result.Snapshot

		logger.Debug().Int("prompt", prompt).Int("target", target).Stringer("outcome", outcome).Msg("attempt")
	}

	report := &Report{
		SessionID: info.ID,
		Puzzle:    puzzleScene,
		Solution:  strategy.Solution(),
		Attempts:  strategy.Attempts(),
		Misses:    strategy.Misses(),
		Scene:     snap.Scene.Name,
	}

	if proceed {
		for i := 0; !snap.Scene.Puzzle.ContinueVisible; i++ {
			if i == 1000 {
				return nil, errors.New("continue control never appeared")
			}
			result, err := c.Tick(ctx, step)
			if err != nil {
				return nil, err
			}
			snap = result.Snapshot
		}
		result, err := c.Continue(ctx)
		if err != nil {
			return nil, err
		}
		report.Scene = result.Snapshot.Scene.Name
	}

	logger.Info().Int("attempts", report.Attempts).Int("misses", report.Misses).Msg("puzzle solved")
	return report, nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "bruteforcer",
		Usage: "Solve a matching puzzle by trying every pair over the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Server base URL"},
			&cli.StringFlag{Name: "suite", Usage: "Suite to start the session with"},
			&cli.StringFlag{Name: "puzzle", Value: "WaterGame", Usage: "Puzzle scene to solve"},
			&cli.DurationFlag{Name: "step", Value: 100 * time.Millisecond, Usage: "Clock step used while waiting for feedback"},
			&cli.BoolFlag{Name: "continue", Value: true, Usage: "Press Continue once the puzzle is solved"},
			&cli.BoolFlag{Name: "verbose", Usage: "Log every attempt"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cmd.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			report, err := Solve(ctx, NewClient(cmd.String("url")), cmd.String("suite"), cmd.String("puzzle"), cmd.Duration("step"), cmd.Bool("continue"))
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			fmt.Fprintf(w, "Session:  %s\n", report.SessionID)
			fmt.Fprintf(w, "Puzzle:   %s\n", report.Puzzle)
			fmt.Fprintf(w, "Solution: %v\n", []int(report.Solution))
			fmt.Fprintf(w, "Attempts: %d (%d incorrect)\n", report.Attempts, report.Misses)
			fmt.Fprintf(w, "Scene:    %s\n", report.Scene)
			return nil
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
