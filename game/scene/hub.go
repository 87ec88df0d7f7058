package scene

import (
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/crisisgame/game/host"
	"github.com/wricardo/mcp-training/crisisgame/game/preview"
)

// DefaultTileSize is the static size of hub tiles
var DefaultTileSize = host.Size{W: 180, H: 180}

// HubDef describes the exploration grid
type HubDef struct {
	Name  string             `json:"name" yaml:"name"`
	Title string             `json:"title" yaml:"title"`
	Tiles []preview.Tile     `json:"tiles" yaml:"tiles"`
	Scale preview.ScaleTable `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Validate checks the hub has a name and well-formed tiles
func (h HubDef) Validate() error {
	if h.Name == "" {
		return errors.New("hub name is required")
	}
	seen := make(map[string]bool)
	for i, t := range h.Tiles {
		if t.Key == "" {
			return fmt.Errorf("hub tile %d has no key", i)
		}
		if seen[t.Key] {
			return fmt.Errorf("hub tile key %q is used more than once", t.Key)
		}
		seen[t.Key] = true
	}
	return nil
}

// HubScene is the exploration grid with hover previews
type HubScene struct {
	def   HubDef
	stage host.Stage
	nav   host.Navigator

	ctrl *preview.Controller
}

// NewHubScene creates a hub scene
func NewHubScene(def HubDef, stage host.Stage, nav host.Navigator) (*HubScene, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if stage == nil || nav == nil {
		return nil, fmt.Errorf("hub scene requires a stage and navigator")
	}
	if def.Scale == nil {
		def.Scale = preview.DefaultScaleTable()
	}
	return &HubScene{def: def, stage: stage, nav: nav}, nil
}

func (h *HubScene) Name() string { return h.def.Name }

// Enter lays the tiles out and starts a fresh preview controller
func (h *HubScene) Enter() {
	h.stage.ClearTiles()
	for i, t := range h.def.Tiles {
		h.stage.PlaceTile(host.Tile{
			Ref:      host.TileRef{Group: host.GroupHub, Index: i},
			Label:    t.Name,
			ImageKey: t.ImageKey,
			At:       t.At,
			Size:     DefaultTileSize,
		})
	}
	// Both arguments are non-nil, checked in NewHubScene
	h.ctrl, _ = preview.NewController(h.stage, h.nav, h.def.Tiles, h.def.Scale)
}

// Exit destroys any live preview and clears the grid
func (h *HubScene) Exit() {
	if h.ctrl != nil {
		h.ctrl.Teardown()
		h.ctrl = nil
	}
	h.stage.ClearTiles()
}

// Hover forwards pointer enter and leave to the preview controller
func (h *HubScene) Hover(index int, enter bool) error {
	if h.ctrl == nil {
		return ErrNotActive
	}
	if enter {
		return h.ctrl.HoverEnter(index)
	}
	return h.ctrl.HoverLeave(index)
}

// Activate opens the tile's scene
func (h *HubScene) Activate(index int) error {
	if h.ctrl == nil {
		return ErrNotActive
	}
	return h.ctrl.Activate(index)
}

// TileIndex resolves a tile key to its index
func (h *HubScene) TileIndex(key string) (int, bool) {
	for i, t := range h.def.Tiles {
		if t.Key == key {
			return i, true
		}
	}
	return -1, false
}

// Controller returns the active preview controller, nil when not entered
func (h *HubScene) Controller() *preview.Controller {
	return h.ctrl
}

func (h *HubScene) View() View {
	hv := &HubView{Tiles: make([]HubTileView, 0, len(h.def.Tiles))}
	for i, t := range h.def.Tiles {
		hv.Tiles = append(hv.Tiles, HubTileView{
			Index: i,
			Key:   t.Key,
			Name:  t.Name,
			Scene: t.Scene,
			Live:  h.ctrl != nil && h.ctrl.Live(i),
		})
	}
	return View{Name: h.def.Name, Kind: KindHub, Title: h.def.Title, Hub: hv}
}
