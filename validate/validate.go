package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/crisisgame/game/config"
)

// ValidationResult represents the validation result for a suite file
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

var errInvalidSuites = errors.New("some suites have errors")

// validateSuite loads a suite file and checks it beyond what the loader
// enforces: every scene must be reachable from the start scene.
func validateSuite(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	suite, err := config.LoadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ %s: %d scenes, start %q", suite.Name, len(suite.SceneNames()), suite.Start))

	for _, p := range suite.Puzzles {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Puzzle %s: %d pairs", p.Name, len(p.Solution)))
	}

	conn := validateConnectivity(suite)
	if !conn.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, conn.Errors...)

	return result
}

// validateConnectivity walks the scene graph from the start scene. Hub tiles,
// info links and back edges to parents all count as edges.
func validateConnectivity(suite *config.Suite) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	edges := make(map[string][]string)
	if suite.Hub != nil {
		for _, t := range suite.Hub.Tiles {
			edges[suite.Hub.Name] = append(edges[suite.Hub.Name], t.Scene)
		}
	}
	for _, p := range suite.Puzzles {
		edges[p.Name] = append(edges[p.Name], p.Parent)
	}
	for _, sc := range suite.Scenes {
		if sc.Parent != "" {
			edges[sc.Name] = append(edges[sc.Name], sc.Parent)
		}
		for _, l := range sc.Links {
			edges[sc.Name] = append(edges[sc.Name], l.Scene)
		}
	}

	visited := map[string]bool{}
	queue := []string{suite.Start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, next := range edges[current] {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	var unreachable []string
	names := suite.SceneNames()
	for _, name := range names {
		if !visited[name] {
			unreachable = append(unreachable, name)
		}
	}
	sort.Strings(unreachable)

	if len(unreachable) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: %d/%d scenes unreachable from %s", len(unreachable), len(names), suite.Start))
		for _, name := range unreachable {
			result.Errors = append(result.Errors, fmt.Sprintf("Unreachable: %s", name))
		}
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: all %d scenes reachable from %s", len(names), suite.Start))
	}

	return result
}

// suiteFiles lists every suite file in dir, sorted by name
func suiteFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range config.Extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, fmt.Errorf("error finding suite files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// report prints a concise report for the results and reports whether all
// of them were valid
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		allValid = false
		for _, err := range result.Errors {
			if !strings.HasPrefix(err, "✓") {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All suites are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some suites have errors")
	}
	return allValid
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate crisis scenario suite files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Value: "../suites",
				Usage: "Directory containing suite files",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := suiteFiles(cmd.String("dir"))
			if err != nil {
				return err
			}
			if cmd.Args().Len() > 0 {
				files = cmd.Args().Slice()
			}

			results := make([]ValidationResult, 0, len(files))
			for _, file := range files {
				results = append(results, validateSuite(file))
			}
			if !report(cmd.Root().Writer, results) {
				return errInvalidSuites
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "Write the built-in suite to a file",
				ArgsUsage: "<file.yaml|file.json>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return errors.New("export requires a destination file")
					}
					if err := config.WriteFile(path, config.DefaultSuite()); err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", path)
					return nil
				},
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
