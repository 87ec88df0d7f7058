package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/crisisgame/game/host"
)

type stubNavigator struct {
	requests []string
}

func (n *stubNavigator) RequestScene(name string) error {
	n.requests = append(n.requests, name)
	return nil
}

func hubTiles() []Tile {
	return []Tile{
		{Key: "heatmap", Name: "Heatmap", MediaKey: "heatmap_video", Scene: "HeatmapScene", At: host.Point{X: 100, Y: 100}},
		{Key: "flood", Name: "Flood", MediaKey: "flood_video", Scene: "scene-game", At: host.Point{X: 300, Y: 100}},
		{Key: "mystery", Name: "Mystery", MediaKey: "mystery_video", Scene: "MysteryScene"},
		{Key: "plain", Name: "Plain", Scene: "PlainScene"},
	}
}

func newTestController(t *testing.T) (*Controller, *host.Canvas, *stubNavigator) {
	t.Helper()
	canvas := host.NewCanvas()
	tiles := hubTiles()
	for i, tile := range tiles {
		canvas.PlaceTile(host.Tile{Ref: tileRef(i), Label: tile.Name, At: tile.At})
	}
	nav := &stubNavigator{}
	c, err := NewController(canvas, nav, tiles, DefaultScaleTable())
	require.NoError(t, err)
	return c, canvas, nav
}

func visible(canvas *host.Canvas, i int) bool {
	ts, _ := canvas.Tile(tileRef(i))
	return ts.Visible
}

func TestHoverEnterCreatesOverlay(t *testing.T) {
	c, canvas, _ := newTestController(t)

	require.NoError(t, c.HoverEnter(0))
	assert.True(t, c.Live(0))
	assert.False(t, visible(canvas, 0))

	v, ok := canvas.Get(c.live[0])
	require.True(t, ok)
	assert.Equal(t, host.Size{W: 65, H: 75}, v.Size)
	assert.Equal(t, host.Point{X: 100, Y: 100}, v.At)
	assert.True(t, v.Loop)
	assert.True(t, v.Muted)
	assert.Equal(t, "heatmap_video", v.MediaKey)
}

func TestHoverEnterFallbackSize(t *testing.T) {
	c, canvas, _ := newTestController(t)

	require.NoError(t, c.HoverEnter(2))
	v, _ := canvas.Get(c.live[2])
	assert.Equal(t, DefaultSize, v.Size)
}

func TestHoverEnterTwiceKeepsOneOverlay(t *testing.T) {
	c, canvas, _ := newTestController(t)

	require.NoError(t, c.HoverEnter(0))
	require.NoError(t, c.HoverEnter(0))
	assert.Equal(t, 1, canvas.OverlaysFor(tileRef(0)))
	assert.Equal(t, 1, c.LiveCount())
}

func TestHoverEnterLeaveRepeated(t *testing.T) {
	c, canvas, _ := newTestController(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.HoverEnter(1))
		require.NoError(t, c.HoverLeave(1))
	}
	require.NoError(t, c.HoverLeave(1))

	assert.False(t, c.Live(1))
	assert.Equal(t, 0, canvas.OverlaysFor(tileRef(1)))
	assert.True(t, visible(canvas, 1))
	created, destroyed := canvas.Stats()
	assert.Equal(t, 5, created)
	assert.Equal(t, 5, destroyed)
}

func TestHoverAcrossTilesWithoutLeave(t *testing.T) {
	c, canvas, _ := newTestController(t)

	require.NoError(t, c.HoverEnter(0))
	require.NoError(t, c.HoverEnter(1))
	require.NoError(t, c.HoverEnter(0))

	assert.Equal(t, 1, canvas.OverlaysFor(tileRef(0)))
	assert.Equal(t, 1, canvas.OverlaysFor(tileRef(1)))
	assert.Equal(t, 2, c.LiveCount())
}

func TestHoverWithoutMedia(t *testing.T) {
	c, canvas, _ := newTestController(t)

	require.NoError(t, c.HoverEnter(3))
	assert.False(t, c.Live(3))
	assert.True(t, visible(canvas, 3))
	assert.Equal(t, 0, canvas.Live())
}

func TestOverlayFailureKeepsStatic(t *testing.T) {
	c, canvas, _ := newTestController(t)
	canvas.RestrictMedia("heatmap_video")

	require.NoError(t, c.HoverEnter(1))
	assert.False(t, c.Live(1))
	assert.True(t, visible(canvas, 1))
	assert.Equal(t, 0, canvas.Live())
}

func TestActivateTearsDownAndNavigates(t *testing.T) {
	c, canvas, nav := newTestController(t)

	require.NoError(t, c.HoverEnter(0))
	require.NoError(t, c.HoverEnter(1))
	require.NoError(t, c.Activate(1))

	assert.Equal(t, 0, c.LiveCount())
	assert.Equal(t, 0, canvas.Live())
	assert.True(t, visible(canvas, 0))
	assert.True(t, visible(canvas, 1))
	assert.Equal(t, []string{"scene-game"}, nav.requests)
}

func TestActivateWithoutHover(t *testing.T) {
	c, _, nav := newTestController(t)

	require.NoError(t, c.Activate(0))
	assert.Equal(t, []string{"HeatmapScene"}, nav.requests)
}

func TestUnknownTile(t *testing.T) {
	c, _, _ := newTestController(t)

	assert.ErrorIs(t, c.HoverEnter(-1), ErrUnknownTile)
	assert.ErrorIs(t, c.HoverLeave(4), ErrUnknownTile)
	assert.ErrorIs(t, c.Activate(9), ErrUnknownTile)
}

func TestActivateTileWithoutScene(t *testing.T) {
	nav := &stubNavigator{}
	c, err := NewController(host.NewCanvas(), nav, []Tile{{Key: "x"}}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Activate(0), ErrNoScene)
	assert.Empty(t, nav.requests)
}
