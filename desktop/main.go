package main

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"desktop/client"
)

const (
	screenWidth    = 1280
	screenHeight   = 720
	defaultBaseURL = "http://localhost:8080"
	requestTimeout = 5 * time.Second
	pollInterval   = time.Second
)

var (
	backgroundColor = color.RGBA{24, 28, 36, 255}
	overlayColor    = color.RGBA{40, 120, 200, 160}
	controlColor    = color.RGBA{60, 160, 90, 255}
)

// styleColors maps a tile highlight to its fill
var styleColors = map[string]color.RGBA{
	"default":  {90, 90, 100, 255},
	"selected": {230, 200, 60, 255},
	"matched":  {60, 180, 90, 255},
	"error":    {210, 60, 60, 255},
}

// Game is the desktop client for one session
type Game struct {
	client    *client.Client
	hovered   int // hub tile under the cursor, -1 for none
	message   string
	errorMsg  string
	lastPoll  time.Time
	streaming atomic.Bool
}

func NewGame(c *client.Client) *Game {
	return &Game{client: c, hovered: -1}
}

func (g *Game) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func (g *Game) report(result *client.ActionResult, err error) {
	if err != nil {
		g.errorMsg = err.Error()
		return
	}
	g.errorMsg = ""
	if result.Message != "" {
		g.message = result.Message
	}
}

// Update handles input and falls back to polling when the websocket is down
func (g *Game) Update() error {
	ctx, cancel := g.ctx()
	defer cancel()

	if !g.streaming.Load() && time.Since(g.lastPoll) > pollInterval {
		g.lastPoll = time.Now()
		if err := g.client.Refresh(ctx); err != nil {
			g.errorMsg = err.Error()
		}
	}

	snap, _ := g.client.State()
	if snap == nil {
		return nil
	}

	x, y := ebiten.CursorPosition()
	cursor := client.Point{X: float64(x), Y: float64(y)}

	if snap.Scene.Kind == "hub" {
		g.updateHover(ctx, snap, cursor)
	} else {
		g.hovered = -1
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if _, ok := snap.ControlAt(cursor); ok {
			g.report(g.client.Do(ctx, "continue", nil))
		} else if tile, ok := snap.TileAt(cursor); ok {
			g.report(g.client.Click(ctx, tile))
		}
	}

	for i := ebiten.Key1; i <= ebiten.Key9; i++ {
		if inpututil.IsKeyJustPressed(i) && snap.Scene.Kind == "info" {
			g.report(g.client.Do(ctx, "follow", map[string]int{"link": int(i - ebiten.Key1)}))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.report(g.client.Do(ctx, "back", nil))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && snap.Scene.Puzzle != nil {
		g.report(g.client.Do(ctx, "reset", nil))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := g.client.Refresh(ctx); err != nil {
			g.errorMsg = err.Error()
		}
	}
	return nil
}

// updateHover sends hover leave and enter as the cursor crosses hub tiles
func (g *Game) updateHover(ctx context.Context, snap *client.Snapshot, cursor client.Point) {
	next := -1
	if tile, ok := snap.TileAt(cursor); ok && tile.Ref.Group == "hub" {
		next = tile.Ref.Index
	}
	if next == g.hovered {
		return
	}
	if g.hovered >= 0 {
		g.report(g.client.Hover(ctx, g.hovered, false))
	}
	if next >= 0 {
		g.report(g.client.Hover(ctx, next, true))
	}
	g.hovered = next
}

// Draw renders the session canvas
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	snap, event := g.client.State()
	if snap == nil {
		ebitenutil.DebugPrint(screen, "Loading...")
		return
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  [%s]", snap.Scene.Title, snap.Scene.Name), 20, 20)
	if p := snap.Scene.Puzzle; p != nil {
		ebitenutil.DebugPrintAt(screen, p.Instructions, 20, 40)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("State: %s | Matched: %d/%d | %s", p.State, len(p.Matches), p.Size, p.Status), 20, 60)
	}
	if snap.Scene.Kind == "info" {
		drawInfo(screen, snap.Scene)
	}

	for _, t := range snap.Canvas.Tiles {
		if !t.Visible {
			continue
		}
		fill, ok := styleColors[t.Style]
		if !ok {
			fill = styleColors["default"]
		}
		left, top := float32(t.At.X-t.Size.W/2), float32(t.At.Y-t.Size.H/2)
		vector.DrawFilledRect(screen, left, top, float32(t.Size.W), float32(t.Size.H), fill, false)
		vector.StrokeRect(screen, left, top, float32(t.Size.W), float32(t.Size.H), 2, color.White, false)
		ebitenutil.DebugPrintAt(screen, t.Label, int(left)+6, int(top)+6)
	}

	for _, v := range snap.Canvas.Visuals {
		switch v.Kind {
		case "connector":
			width, clr := float32(4), color.RGBA{255, 255, 255, 255}
			if v.Style != nil {
				width = float32(v.Style.Width)
				clr = rgb(v.Style.Color, v.Style.Alpha)
			}
			vector.StrokeLine(screen, float32(v.From.X), float32(v.From.Y), float32(v.To.X), float32(v.To.Y), width, clr, true)
		case "overlay":
			left, top := float32(v.At.X-v.Size.W/2), float32(v.At.Y-v.Size.H/2)
			vector.DrawFilledRect(screen, left, top, float32(v.Size.W), float32(v.Size.H), overlayColor, false)
			ebitenutil.DebugPrintAt(screen, "> "+v.MediaKey, int(left)+6, int(top)+6)
		case "control":
			size := client.ControlSize
			left, top := float32(v.At.X-size.W/2), float32(v.At.Y-size.H/2)
			vector.DrawFilledRect(screen, left, top, float32(size.W), float32(size.H), controlColor, false)
			ebitenutil.DebugPrintAt(screen, v.Label, int(left)+20, int(top)+22)
		}
	}

	status := fmt.Sprintf("Session %s | clock %dms | timers %d | last: %s", snap.SessionID, snap.ClockMS, snap.Timers, event)
	ebitenutil.DebugPrintAt(screen, status, 20, screenHeight-60)
	if g.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, "ERROR: "+g.errorMsg, 20, screenHeight-40)
	} else if g.message != "" {
		ebitenutil.DebugPrintAt(screen, g.message, 20, screenHeight-40)
	}
	ebitenutil.DebugPrintAt(screen, "Click: select/attempt/open | 1-9: follow link | B: back | R: reset | F5: refresh", 20, screenHeight-20)
}

func drawInfo(screen *ebiten.Image, v client.View) {
	y := 100
	for _, line := range strings.Split(v.Body, "\n") {
		ebitenutil.DebugPrintAt(screen, line, 40, y)
		y += 20
	}
	y += 20
	for i, l := range v.Links {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("[%d] %s -> %s", i+1, l.Label, l.Scene), 40, y)
		y += 20
	}
	if v.Parent != "" {
		ebitenutil.DebugPrintAt(screen, "[B] Back to "+v.Parent, 40, y+20)
	}
}

// rgb unpacks a 0xRRGGBB color with an alpha in [0,1]
func rgb(c uint32, alpha float64) color.RGBA {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	a := uint8(alpha * 255)
	// color.RGBA is premultiplied
	scale := func(v uint32) uint8 { return uint8(float64(v&0xff) * alpha) }
	return color.RGBA{scale(c >> 16), scale(c >> 8), scale(c), a}
}

// Layout keeps scene coordinates regardless of window size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	baseURL := os.Getenv("CRISIS_SERVER_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := client.New(baseURL)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	var err error
	if len(os.Args) > 1 {
		err = c.Attach(ctx, os.Args[1])
	} else {
		err = c.Create(ctx, os.Getenv("CRISIS_SUITE"))
	}
	cancel()
	if err != nil {
		log.Fatal(err)
	}

	game := NewGame(c)
	if err := c.Connect(context.Background()); err != nil {
		log.Printf("Failed to connect WebSocket for %s: %v (falling back to polling)", c.SessionID(), err)
	} else {
		game.streaming.Store(true)
		go func() {
			err := c.Listen()
			log.Printf("WebSocket closed for %s: %v (falling back to polling)", c.SessionID(), err)
			game.streaming.Store(false)
		}()
	}
	defer c.Close()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Crisis Scenarios - Desktop Client")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
