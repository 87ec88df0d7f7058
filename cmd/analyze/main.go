// Command analyze prints quick, human-readable heuristics about the suites in
// a suites directory and the built-in suite. It summarizes the scene graph,
// how hard each matching puzzle is to solve by trial, how long a worst-case
// run spends waiting on feedback, and hub tiles that fall back to the default
// overlay size.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wricardo/mcp-training/crisisgame/game/config"
	"github.com/wricardo/mcp-training/crisisgame/game/feedback"
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
)

// PuzzleAnalysis holds the trial-and-error figures for one puzzle
type PuzzleAnalysis struct {
	Name          string
	Size          int
	Orderings     uint64
	WorstAttempts int
	WorstMisses   int
	WorstWait     time.Duration
}

// analyzePuzzle computes how a player who never repeats a failed pair fares
// in the worst case: for k remaining targets they miss k-1 times.
func analyzePuzzle(def scene.MatchDef) PuzzleAnalysis {
	n := len(def.Solution)
	a := PuzzleAnalysis{Name: def.Name, Size: n, Orderings: 1}
	for k := 2; k <= n; k++ {
		a.Orderings *= uint64(k)
	}
	a.WorstMisses = n * (n - 1) / 2
	a.WorstAttempts = a.WorstMisses + n

	incorrect := puzzle.DefaultIncorrectDelay
	if ms := def.Timing.IncorrectDelayMS; ms > 0 {
		incorrect = time.Duration(ms) * time.Millisecond
	}
	completion := feedback.DefaultCompletionDelay
	if ms := def.Timing.CompletionDelayMS; ms > 0 {
		completion = time.Duration(ms) * time.Millisecond
	}
	a.WorstWait = time.Duration(a.WorstMisses)*incorrect + completion
	return a
}

// unscaledTiles lists hub tiles without an entry in the hub scale table
func unscaledTiles(suite *config.Suite) []string {
	if suite.Hub == nil {
		return nil
	}
	var keys []string
	for _, t := range suite.Hub.Tiles {
		if _, ok := suite.Hub.Scale[t.Key]; !ok {
			keys = append(keys, t.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

func analyzeSuite(w io.Writer, suite *config.Suite) {
	fmt.Fprintf(w, "Name: %s\n", suite.Name)
	fmt.Fprintf(w, "Start Scene: %s\n", suite.Start)
	fmt.Fprintf(w, "Total Scenes: %d\n", len(suite.SceneNames()))
	if suite.Hub != nil {
		fmt.Fprintf(w, "Hub Tiles: %d\n", len(suite.Hub.Tiles))
	}
	fmt.Fprintf(w, "Puzzles: %d\n", len(suite.Puzzles))

	for _, def := range suite.Puzzles {
		a := analyzePuzzle(def)
		fmt.Fprintf(w, "  %s: %d pairs, %d orderings, worst case %d attempts (%d incorrect), %s of feedback\n",
			a.Name, a.Size, a.Orderings, a.WorstAttempts, a.WorstMisses, a.WorstWait)
	}

	if keys := unscaledTiles(suite); len(keys) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d hub tiles have no overlay scale and use the default size\n", len(keys))
		for _, k := range keys {
			fmt.Fprintf(w, "   Unscaled: %s\n", k)
		}
	} else if suite.Hub != nil {
		fmt.Fprintf(w, "✅ All hub tiles have an overlay scale\n")
	}
}

func analyzeFile(w io.Writer, path string) {
	suite, err := config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(w, "Error loading suite: %v\n", err)
		return
	}
	analyzeSuite(w, suite)
}

func run(w io.Writer, dir string) error {
	fmt.Fprintf(w, "\n=== Analyzing built-in suite ===\n")
	analyzeSuite(w, config.DefaultSuite())

	var files []string
	for _, ext := range config.Extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(file))
		analyzeFile(w, file)
	}
	return nil
}

func main() {
	dir := "suites"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := run(os.Stdout, dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
