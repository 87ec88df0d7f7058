package host

import (
	"errors"
	"time"
)

var (
	ErrUnknownMedia = errors.New("unknown media key")
)

// Handle identifies a live visual created through a Factory. Zero means none.
type Handle uint64

// Point is a position in scene coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a display size in scene coordinates
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Color is a packed 0xRRGGBB value
type Color uint32

// Style describes how a connector is stroked
type Style struct {
	Width float64 `json:"width"`
	Color Color   `json:"color"`
	Alpha float64 `json:"alpha"`
}

// TileGroup names the row or grid a tile belongs to
type TileGroup string

const (
	GroupPrompt TileGroup = "prompt"
	GroupTarget TileGroup = "target"
	GroupHub    TileGroup = "hub"
)

// TileRef addresses one tile within a group
type TileRef struct {
	Group TileGroup `json:"group"`
	Index int       `json:"index"`
}

// TileStyle is the highlight state of a tile
type TileStyle string

const (
	TileDefault  TileStyle = "default"
	TileSelected TileStyle = "selected"
	TileMatched  TileStyle = "matched"
	TileError    TileStyle = "error"
)

// Tile is the static representation of an item placed on the stage
type Tile struct {
	Ref      TileRef `json:"ref"`
	Label    string  `json:"label"`
	ImageKey string  `json:"image_key"`
	At       Point   `json:"at"`
	Size     Size    `json:"size"`
}

// OverlaySpec describes a media overlay tied to a tile
type OverlaySpec struct {
	Tile     TileRef `json:"tile"`
	Position Point   `json:"position"`
	Size     Size    `json:"size"`
	MediaKey string  `json:"media_key"`
	Loop     bool    `json:"loop"`
	Muted    bool    `json:"muted"`
}

// Scheduler runs fn once after delay. Scheduled callbacks cannot be cancelled.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}

// Factory creates and destroys the transient visuals the cores own
type Factory interface {
	CreateOverlay(spec OverlaySpec) (Handle, error)
	CreateConnector(a, b Point, style Style) Handle
	CreateControl(label string, at Point) Handle
	Destroy(h Handle)

	SetTileStyle(ref TileRef, style TileStyle)
	SetTileVisible(ref TileRef, visible bool)
}

// Stage is a Factory that scenes can also lay tiles out on
type Stage interface {
	Factory
	PlaceTile(tile Tile)
	ClearTiles()
}

// Navigator transitions to a named scene
type Navigator interface {
	RequestScene(name string) error
}
