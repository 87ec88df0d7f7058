package host

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// VisualKind distinguishes the visuals a Canvas tracks
type VisualKind string

const (
	KindOverlay   VisualKind = "overlay"
	KindConnector VisualKind = "connector"
	KindControl   VisualKind = "control"
)

// Visual is a live visual as seen by clients
type Visual struct {
	Handle   Handle     `json:"handle"`
	Kind     VisualKind `json:"kind"`
	Tile     *TileRef   `json:"tile,omitempty"`
	From     Point      `json:"from"`
	To       Point      `json:"to"`
	At       Point      `json:"at"`
	Size     Size       `json:"size"`
	Style    *Style     `json:"style,omitempty"`
	MediaKey string     `json:"media_key,omitempty"`
	Label    string     `json:"label,omitempty"`
	Loop     bool       `json:"loop,omitempty"`
	Muted    bool       `json:"muted,omitempty"`
}

// TileState is a placed tile with its current highlight and visibility
type TileState struct {
	Tile
	Style   TileStyle `json:"style"`
	Visible bool      `json:"visible"`
}

// CanvasSnapshot is a point-in-time copy of everything on the canvas
type CanvasSnapshot struct {
	Tiles   []TileState `json:"tiles"`
	Visuals []Visual    `json:"visuals"`
}

// Canvas is an in-memory Stage. It is not safe for concurrent use; callers
// serialize access the same way they serialize the cores that draw on it.
type Canvas struct {
	next    Handle
	visuals map[Handle]Visual
	tiles   map[TileRef]*TileState
	media   map[string]bool

	created   int
	destroyed int
}

// NewCanvas creates an empty canvas that accepts any media key
func NewCanvas() *Canvas {
	return &Canvas{
		visuals: make(map[Handle]Visual),
		tiles:   make(map[TileRef]*TileState),
	}
}

// RestrictMedia limits CreateOverlay to the given media keys.
// An empty list removes the restriction.
func (c *Canvas) RestrictMedia(keys ...string) {
	if len(keys) == 0 {
		c.media = nil
		return
	}
	c.media = make(map[string]bool, len(keys))
	for _, k := range keys {
		c.media[k] = true
	}
}

// CreateOverlay adds a media overlay
func (c *Canvas) CreateOverlay(spec OverlaySpec) (Handle, error) {
	if c.media != nil && !c.media[spec.MediaKey] {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMedia, spec.MediaKey)
	}
	tile := spec.Tile
	h := c.add(Visual{
		Kind:     KindOverlay,
		Tile:     &tile,
		At:       spec.Position,
		Size:     spec.Size,
		MediaKey: spec.MediaKey,
		Loop:     spec.Loop,
		Muted:    spec.Muted,
	})
	return h, nil
}

// CreateConnector adds a line between two points
func (c *Canvas) CreateConnector(a, b Point, style Style) Handle {
	return c.add(Visual{Kind: KindConnector, From: a, To: b, Style: &style})
}

// CreateControl adds a clickable labelled control
func (c *Canvas) CreateControl(label string, at Point) Handle {
	return c.add(Visual{Kind: KindControl, Label: label, At: at})
}

// Destroy removes a visual. Unknown or zero handles are ignored.
func (c *Canvas) Destroy(h Handle) {
	if h == 0 {
		return
	}
	if _, ok := c.visuals[h]; !ok {
		log.Debug().Uint64("handle", uint64(h)).Msg("destroy of unknown visual ignored")
		return
	}
	delete(c.visuals, h)
	c.destroyed++
}

// SetTileStyle changes the highlight of a placed tile
func (c *Canvas) SetTileStyle(ref TileRef, style TileStyle) {
	if t, ok := c.tiles[ref]; ok {
		t.Style = style
	}
}

// SetTileVisible shows or hides the static representation of a placed tile
func (c *Canvas) SetTileVisible(ref TileRef, visible bool) {
	if t, ok := c.tiles[ref]; ok {
		t.Visible = visible
	}
}

// PlaceTile puts a tile on the canvas, visible and unstyled
func (c *Canvas) PlaceTile(tile Tile) {
	c.tiles[tile.Ref] = &TileState{Tile: tile, Style: TileDefault, Visible: true}
}

// ClearTiles removes every placed tile
func (c *Canvas) ClearTiles() {
	c.tiles = make(map[TileRef]*TileState)
}

// Get returns a live visual
func (c *Canvas) Get(h Handle) (Visual, bool) {
	v, ok := c.visuals[h]
	return v, ok
}

// Tile returns the state of a placed tile
func (c *Canvas) Tile(ref TileRef) (TileState, bool) {
	t, ok := c.tiles[ref]
	if !ok {
		return TileState{}, false
	}
	return *t, true
}

// Count returns the number of live visuals of a kind
func (c *Canvas) Count(kind VisualKind) int {
	n := 0
	for _, v := range c.visuals {
		if v.Kind == kind {
			n++
		}
	}
	return n
}

// OverlaysFor returns the number of live overlays tied to a tile
func (c *Canvas) OverlaysFor(ref TileRef) int {
	n := 0
	for _, v := range c.visuals {
		if v.Kind == KindOverlay && v.Tile != nil && *v.Tile == ref {
			n++
		}
	}
	return n
}

// Live returns the number of live visuals
func (c *Canvas) Live() int {
	return len(c.visuals)
}

// Stats returns how many visuals were ever created and destroyed
func (c *Canvas) Stats() (created, destroyed int) {
	return c.created, c.destroyed
}

// Snapshot copies the canvas in a stable order
func (c *Canvas) Snapshot() CanvasSnapshot {
	snap := CanvasSnapshot{
		Tiles:   make([]TileState, 0, len(c.tiles)),
		Visuals: make([]Visual, 0, len(c.visuals)),
	}
	for _, t := range c.tiles {
		snap.Tiles = append(snap.Tiles, *t)
	}
	for _, v := range c.visuals {
		snap.Visuals = append(snap.Visuals, v)
	}

	sort.Slice(snap.Tiles, func(i, j int) bool {
		a, b := snap.Tiles[i].Ref, snap.Tiles[j].Ref
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Index < b.Index
	})
	sort.Slice(snap.Visuals, func(i, j int) bool {
		return snap.Visuals[i].Handle < snap.Visuals[j].Handle
	})
	return snap
}

func (c *Canvas) add(v Visual) Handle {
	c.next++
	v.Handle = c.next
	c.visuals[v.Handle] = v
	c.created++
	return v.Handle
}
