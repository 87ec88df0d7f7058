package preview

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/crisisgame/game/host"
)

var (
	ErrUnknownTile = errors.New("unknown tile")
	ErrNoScene     = errors.New("tile has no scene")
)

// DefaultSize is used for tiles missing from the scale table
var DefaultSize = host.Size{W: 180, H: 180}

// Tile is one entry of the hub grid
type Tile struct {
	Key      string     `json:"key" yaml:"key"`
	Name     string     `json:"name" yaml:"name"`
	ImageKey string     `json:"image_key" yaml:"image_key"`
	MediaKey string     `json:"media_key,omitempty" yaml:"media_key,omitempty"`
	Scene    string     `json:"scene" yaml:"scene"`
	At       host.Point `json:"at" yaml:"at"`
}

// ScaleTable maps a tile key to the display size of its overlay
type ScaleTable map[string]host.Size

// SizeFor returns the overlay size for a tile key
func (s ScaleTable) SizeFor(key string) host.Size {
	if size, ok := s[key]; ok {
		return size
	}
	return DefaultSize
}

// DefaultScaleTable returns the sizes used by the built-in hub
func DefaultScaleTable() ScaleTable {
	return ScaleTable{
		"heatmap":   {W: 65, H: 75},
		"flood":     {W: 110, H: 70},
		"drought":   {W: 145, H: 145},
		"salinized": {W: 180, H: 180},
		"water":     {W: 160, H: 160},
		"animals":   {W: 240, H: 200},
	}
}

// Controller owns the hover overlays of a set of tiles
type Controller struct {
	factory host.Factory
	nav     host.Navigator
	tiles   []Tile
	scale   ScaleTable

	live map[int]host.Handle
}

// NewController creates a controller for tiles addressed by slice index
func NewController(factory host.Factory, nav host.Navigator, tiles []Tile, scale ScaleTable) (*Controller, error) {
	if factory == nil || nav == nil {
		return nil, fmt.Errorf("preview controller requires a factory and navigator")
	}
	if scale == nil {
		scale = ScaleTable{}
	}
	return &Controller{
		factory: factory,
		nav:     nav,
		tiles:   append([]Tile(nil), tiles...),
		scale:   scale,
		live:    make(map[int]host.Handle),
	}, nil
}

// HoverEnter starts the tile's overlay, replacing any it already has.
// Tiles without media do nothing. A failed overlay leaves the static image
// showing.
func (c *Controller) HoverEnter(index int) error {
	tile, err := c.tile(index)
	if err != nil {
		return err
	}
	if tile.MediaKey == "" {
		return nil
	}

	c.stop(index)

	ref := tileRef(index)
	h, err := c.factory.CreateOverlay(host.OverlaySpec{
		Tile:     ref,
		Position: tile.At,
		Size:     c.scale.SizeFor(tile.Key),
		MediaKey: tile.MediaKey,
		Loop:     true,
		Muted:    true,
	})
	if err != nil {
		log.Warn().Err(err).Str("tile", tile.Key).Msg("overlay creation failed, keeping static image")
		c.factory.SetTileVisible(ref, true)
		return nil
	}

	c.live[index] = h
	c.factory.SetTileVisible(ref, false)
	log.Debug().Str("tile", tile.Key).Uint64("handle", uint64(h)).Msg("overlay started")
	return nil
}

// HoverLeave stops the tile's overlay and shows its static image
func (c *Controller) HoverLeave(index int) error {
	if _, err := c.tile(index); err != nil {
		return err
	}
	c.stop(index)
	return nil
}

// Activate tears down every overlay and navigates to the tile's scene
func (c *Controller) Activate(index int) error {
	tile, err := c.tile(index)
	if err != nil {
		return err
	}
	if tile.Scene == "" {
		return fmt.Errorf("%w: %s", ErrNoScene, tile.Key)
	}
	c.Teardown()
	return c.nav.RequestScene(tile.Scene)
}

// Teardown destroys every live overlay
func (c *Controller) Teardown() {
	for _, index := range c.liveIndexes() {
		c.stop(index)
	}
}

// Live reports whether the tile has an overlay
func (c *Controller) Live(index int) bool {
	_, ok := c.live[index]
	return ok
}

// LiveCount returns the number of live overlays
func (c *Controller) LiveCount() int {
	return len(c.live)
}

// Tiles returns the tiles the controller manages
func (c *Controller) Tiles() []Tile {
	return append([]Tile(nil), c.tiles...)
}

func (c *Controller) stop(index int) {
	h, ok := c.live[index]
	if !ok {
		return
	}
	c.factory.Destroy(h)
	delete(c.live, index)
	c.factory.SetTileVisible(tileRef(index), true)
	log.Debug().Int("tile", index).Uint64("handle", uint64(h)).Msg("overlay stopped")
}

func (c *Controller) liveIndexes() []int {
	out := make([]int, 0, len(c.live))
	for i := range c.live {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (c *Controller) tile(index int) (Tile, error) {
	if index < 0 || index >= len(c.tiles) {
		return Tile{}, fmt.Errorf("%w: %d", ErrUnknownTile, index)
	}
	return c.tiles[index], nil
}

func tileRef(index int) host.TileRef {
	return host.TileRef{Group: host.GroupHub, Index: index}
}
