package scene

import (
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
)

// Kind identifies the type of a scene
type Kind string

const (
	KindHub   Kind = "hub"
	KindMatch Kind = "match"
	KindInfo  Kind = "info"
)

// Link points from one scene to another
type Link struct {
	Label string `json:"label" yaml:"label"`
	Scene string `json:"scene" yaml:"scene"`
}

// View is what clients need to render a scene
type View struct {
	Name   string      `json:"name"`
	Kind   Kind        `json:"kind"`
	Title  string      `json:"title"`
	Parent string      `json:"parent,omitempty"`
	Body   string      `json:"body,omitempty"`
	Links  []Link      `json:"links,omitempty"`
	Hub    *HubView    `json:"hub,omitempty"`
	Puzzle *PuzzleView `json:"puzzle,omitempty"`
}

// HubView lists the hub tiles and which ones are previewing
type HubView struct {
	Tiles []HubTileView `json:"tiles"`
}

// HubTileView is one hub tile
type HubTileView struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Name  string `json:"name"`
	Scene string `json:"scene"`
	Live  bool   `json:"live"`
}

// PuzzleView is the state of an active matching puzzle
type PuzzleView struct {
	Instructions    string           `json:"instructions,omitempty"`
	State           puzzle.State     `json:"state"`
	Selection       puzzle.Selection `json:"selection"`
	Pending         bool             `json:"pending"`
	Prompts         []puzzle.Item    `json:"prompts"`
	Targets         []puzzle.Item    `json:"targets"`
	Matches         []puzzle.Match   `json:"matches"`
	Size            int              `json:"size"`
	Status          string           `json:"status"`
	ContinueVisible bool             `json:"continue_visible"`
}
