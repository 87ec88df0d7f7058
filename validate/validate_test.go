package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/crisisgame/game/config"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
)

const orphanSuite = `name: Orphan
description: One topic nobody links to
start: hub
hub:
  name: hub
  title: Pick one
  tiles:
    - key: water
      name: Water
      image_key: water_icon
      scene: Water
      at: {x: 100, y: 100}
scenes:
  - name: Water
    title: Water
    parent: hub
  - name: Lost
    title: Lost
    parent: hub
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateSuite_DefaultSuite(t *testing.T) {
	for _, name := range []string{"default.yaml", "default.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, config.WriteFile(path, config.DefaultSuite()))

			result := validateSuite(path)
			assert.True(t, result.Valid, "errors: %v", result.Errors)
			assert.Equal(t, name, result.File)
			assert.Contains(t, result.Errors, "✓ Puzzle WaterGame: 3 pairs")
			assert.Contains(t, result.Errors, "✓ Connectivity: all 8 scenes reachable from exploreScene")
		})
	}
}

func TestValidateSuite_InvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", "name: [unterminated")

	result := validateSuite(path)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "failed to parse suite")
}

func TestValidateSuite_MissingFile(t *testing.T) {
	result := validateSuite(filepath.Join(t.TempDir(), "nope.json"))
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "suite not found")
}

func TestValidateSuite_BadSolution(t *testing.T) {
	suite := config.DefaultSuite()
	suite.Puzzles[0].Solution[0] = suite.Puzzles[0].Solution[1]
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, config.WriteFile(path, suite))

	result := validateSuite(path)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "used more than once")
}

func TestValidateSuite_UnreachableScene(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orphan.yaml", orphanSuite)

	result := validateSuite(path)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "Connectivity failure: 1/3 scenes unreachable from hub")
	assert.Contains(t, result.Errors, "Unreachable: Lost")
}

func TestValidateConnectivity(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*config.Suite)
		valid       bool
		unreachable []string
	}{
		{
			name:   "default",
			mutate: func(*config.Suite) {},
			valid:  true,
		},
		{
			name: "link removed",
			mutate: func(s *config.Suite) {
				for i := range s.Scenes {
					s.Scenes[i].Links = nil
				}
			},
			unreachable: []string{"WaterGame"},
		},
		{
			name: "start at puzzle walks back up",
			mutate: func(s *config.Suite) {
				s.Start = "WaterGame"
			},
			valid: true,
		},
		{
			name: "start at leaf topic",
			mutate: func(s *config.Suite) {
				s.Hub.Tiles = s.Hub.Tiles[:1]
				s.Start = "HeatmapScene"
				s.Scenes = append(s.Scenes, scene.InfoDef{Name: "Extra", Title: "Extra"})
			},
			unreachable: []string{"AnimalsScene", "Extra", "MoistureScene", "SalinizedScene", "WaterGame", "WaterScene", "scene-game"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite := config.DefaultSuite()
			tt.mutate(suite)

			result := validateConnectivity(suite)
			assert.Equal(t, tt.valid, result.Valid, "errors: %v", result.Errors)
			for _, name := range tt.unreachable {
				assert.Contains(t, result.Errors, "Unreachable: "+name)
			}
		})
	}
}

func TestSuiteFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "")
	writeFile(t, dir, "a.json", "")
	writeFile(t, dir, "c.yml", "")
	writeFile(t, dir, "notes.txt", "")

	files, err := suiteFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"a.json", "b.yaml", "c.yml"}, names)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	ok := report(&buf, []ValidationResult{
		{File: "good.yaml", Valid: true, Errors: []string{"✓ fine"}},
		{File: "bad.yaml", Valid: false, Errors: []string{"✓ partly fine", "broken"}},
	})

	out := buf.String()
	assert.False(t, ok)
	assert.Contains(t, out, "✅ VALID\n  ✓ fine")
	assert.Contains(t, out, "❌ INVALID\n  ❌ broken")
	assert.NotContains(t, out, "partly fine")
	assert.True(t, strings.HasSuffix(out, "❌ Some suites have errors\n"))
}

func TestCommand(t *testing.T) {
	dir := t.TempDir()
	export := filepath.Join(dir, "default.yaml")

	var buf bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &buf
	require.NoError(t, cmd.Run(context.Background(), []string{"validate", "export", export}))
	assert.Contains(t, buf.String(), "wrote "+export)

	buf.Reset()
	cmd = newCommand()
	cmd.Writer = &buf
	require.NoError(t, cmd.Run(context.Background(), []string{"validate", "--dir", dir}))
	assert.Contains(t, buf.String(), "✅ All suites are valid!")

	writeFile(t, dir, "orphan.yaml", orphanSuite)
	buf.Reset()
	cmd = newCommand()
	cmd.Writer = &buf
	err := cmd.Run(context.Background(), []string{"validate", "--dir", dir})
	assert.ErrorIs(t, err, errInvalidSuites)
	assert.Contains(t, buf.String(), "Unreachable: Lost")
}

func TestCommand_ExportRequiresPath(t *testing.T) {
	cmd := newCommand()
	cmd.Writer = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{"validate", "export"})
	assert.Error(t, err)
}
