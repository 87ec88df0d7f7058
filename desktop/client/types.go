package client

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

// TileRef addresses a tile within its group: prompt, target or hub
type TileRef struct {
	Group string `json:"group"`
	Index int    `json:"index"`
}

// Tile is a placed tile as reported by the server
type Tile struct {
	Ref      TileRef `json:"ref"`
	Label    string  `json:"label"`
	ImageKey string  `json:"image_key"`
	At       Point   `json:"at"`
	Size     Size    `json:"size"`
	Style    string  `json:"style"`
	Visible  bool    `json:"visible"`
}

// Contains reports whether p falls inside the tile, which is centered on At
func (t Tile) Contains(p Point) bool {
	return p.X >= t.At.X-t.Size.W/2 && p.X <= t.At.X+t.Size.W/2 &&
		p.Y >= t.At.Y-t.Size.H/2 && p.Y <= t.At.Y+t.Size.H/2
}

// Style is a connector stroke
type Style struct {
	Width float64 `json:"width"`
	Color uint32  `json:"color"`
	Alpha float64 `json:"alpha"`
}

// Visual is an overlay, connector or control on the canvas
type Visual struct {
	Handle   uint64   `json:"handle"`
	Kind     string   `json:"kind"`
	Tile     *TileRef `json:"tile,omitempty"`
	From     Point    `json:"from"`
	To       Point    `json:"to"`
	At       Point    `json:"at"`
	Size     Size     `json:"size"`
	Style    *Style   `json:"style,omitempty"`
	MediaKey string   `json:"media_key,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// Canvas is everything the server has drawn for a session
type Canvas struct {
	Tiles   []Tile   `json:"tiles"`
	Visuals []Visual `json:"visuals"`
}

// Link is a navigation link on an info scene
type Link struct {
	Label string `json:"label"`
	Scene string `json:"scene"`
}

// Puzzle is the state of an active matching puzzle
type Puzzle struct {
	Instructions    string `json:"instructions,omitempty"`
	State           string `json:"state"`
	Size            int    `json:"size"`
	Status          string `json:"status"`
	ContinueVisible bool   `json:"continue_visible"`
	Matches         []struct {
		Prompt int `json:"prompt"`
		Target int `json:"target"`
	} `json:"matches"`
}

// View describes the active scene
type View struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Title  string  `json:"title"`
	Parent string  `json:"parent,omitempty"`
	Body   string  `json:"body,omitempty"`
	Links  []Link  `json:"links,omitempty"`
	Puzzle *Puzzle `json:"puzzle,omitempty"`
}

// Snapshot is the full observable state of a session
type Snapshot struct {
	SessionID string `json:"session_id"`
	Scene     View   `json:"scene"`
	Canvas    Canvas `json:"canvas"`
	ClockMS   int64  `json:"clock_ms"`
	Timers    int    `json:"timers"`
}

// TileAt returns the topmost visible tile under p
func (s *Snapshot) TileAt(p Point) (Tile, bool) {
	for i := len(s.Canvas.Tiles) - 1; i >= 0; i-- {
		t := s.Canvas.Tiles[i]
		if t.Visible && t.Contains(p) {
			return t, true
		}
	}
	return Tile{}, false
}

// ControlSize is the clickable area of a control the server sent no size for
var ControlSize = Size{W: 200, H: 60}

// ControlAt returns the control visual under p, such as the Continue button
func (s *Snapshot) ControlAt(p Point) (Visual, bool) {
	for _, v := range s.Canvas.Visuals {
		if v.Kind != "control" {
			continue
		}
		size := v.Size
		if size.W == 0 || size.H == 0 {
			size = ControlSize
		}
		box := Tile{At: v.At, Size: size}
		if box.Contains(p) {
			return v, true
		}
	}
	return Visual{}, false
}

// Message is one websocket frame from the server
type Message struct {
	SessionID string    `json:"session_id"`
	Event     string    `json:"event"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
}

// SessionInfo is a session summary
type SessionInfo struct {
	ID        string    `json:"id"`
	SuiteID   string    `json:"suite_id"`
	SuiteName string    `json:"suite_name"`
	Scene     string    `json:"scene"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
}

// ActionResult is the response to a session action
type ActionResult struct {
	Success  bool      `json:"success"`
	Outcome  string    `json:"outcome,omitempty"`
	Message  string    `json:"message"`
	Snapshot *Snapshot `json:"snapshot"`
}
