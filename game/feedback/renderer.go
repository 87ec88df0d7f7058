package feedback

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/crisisgame/game/host"
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
)

var (
	ErrNoContinue   = errors.New("continue control not available")
	ErrInvalidBoard = errors.New("invalid board")
)

const (
	DefaultCompletionDelay = 2000 * time.Millisecond
	DefaultStatusDelay     = 1500 * time.Millisecond

	ContinueLabel = "Continue"
)

// Status messages shown under the board
const (
	StatusStart     = "Select an image from the first row"
	StatusSelected  = "Now click the matching image in the second row"
	StatusCorrect   = "Correct match! Great job!"
	StatusIncorrect = "Incorrect match. Try again!"
	StatusSolved    = "Congratulations! You completed the matching game!"
	StatusNext      = "Select another image from the first row"
)

// Palette holds the connector styles
type Palette struct {
	Transient host.Style `json:"transient"`
	Permanent host.Style `json:"permanent"`
	Error     host.Style `json:"error"`
}

// DefaultPalette matches the earth-tone look of the game
var DefaultPalette = Palette{
	Transient: host.Style{Width: 4, Color: 0x8b4513, Alpha: 0.8},
	Permanent: host.Style{Width: 4, Color: 0x228b22, Alpha: 1},
	Error:     host.Style{Width: 4, Color: 0x8b0000, Alpha: 1},
}

// Board is the geometry the renderer draws against. Connectors run from the
// bottom edge of a prompt tile to the top edge of a target tile.
type Board struct {
	Prompts      []host.Point `json:"prompts"`
	Targets      []host.Point `json:"targets"`
	AnchorOffset float64      `json:"anchor_offset"`
	ContinueAt   host.Point   `json:"continue_at"`
}

// RowLayout lays n prompts and n targets out in two horizontal rows
func RowLayout(n int, centerX, promptY, targetY, spacing float64) Board {
	b := Board{
		Prompts:      make([]host.Point, n),
		Targets:      make([]host.Point, n),
		AnchorOffset: 50,
	}
	startX := centerX - spacing*float64(n)/2
	for i := 0; i < n; i++ {
		x := startX + float64(i)*spacing
		b.Prompts[i] = host.Point{X: x, Y: promptY}
		b.Targets[i] = host.Point{X: x, Y: targetY}
	}
	return b
}

// Validate checks the rows are non-empty and the same length
func (b Board) Validate() error {
	if len(b.Prompts) == 0 {
		return fmt.Errorf("%w: no prompt positions", ErrInvalidBoard)
	}
	if len(b.Prompts) != len(b.Targets) {
		return fmt.Errorf("%w: %d prompts but %d targets", ErrInvalidBoard, len(b.Prompts), len(b.Targets))
	}
	return nil
}

// Option configures a Renderer
type Option func(*Renderer)

// WithCompletionDelay sets how long after solving the Continue control appears
func WithCompletionDelay(d time.Duration) Option {
	return func(r *Renderer) {
		if d >= 0 {
			r.completionDelay = d
		}
	}
}

// WithStatusDelay sets how long the correct-match message stays up
func WithStatusDelay(d time.Duration) Option {
	return func(r *Renderer) {
		if d >= 0 {
			r.statusDelay = d
		}
	}
}

// WithPalette overrides the connector styles
func WithPalette(p Palette) Option {
	return func(r *Renderer) { r.palette = p }
}

// Renderer reacts to puzzle events
type Renderer struct {
	factory   host.Factory
	scheduler host.Scheduler
	nav       host.Navigator
	parent    string
	board     Board
	palette   Palette

	completionDelay time.Duration
	statusDelay     time.Duration

	epoch       uint64
	statusToken uint64
	torn        bool

	transient host.Handle
	permanent []host.Handle
	control   *ContinueControl

	matchedPrompt map[int]bool
	matchedTarget map[int]bool

	status string
}

// NewRenderer creates a renderer that navigates to parent on Continue
func NewRenderer(factory host.Factory, scheduler host.Scheduler, nav host.Navigator, parent string, board Board, opts ...Option) (*Renderer, error) {
	if factory == nil || scheduler == nil || nav == nil {
		return nil, fmt.Errorf("renderer requires a factory, scheduler and navigator")
	}
	if err := board.Validate(); err != nil {
		return nil, err
	}

	r := &Renderer{
		factory:         factory,
		scheduler:       scheduler,
		nav:             nav,
		parent:          parent,
		board:           board,
		palette:         DefaultPalette,
		completionDelay: DefaultCompletionDelay,
		statusDelay:     DefaultStatusDelay,
		matchedPrompt:   make(map[int]bool),
		matchedTarget:   make(map[int]bool),
		status:          StatusStart,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Handle is a puzzle.Listener
func (r *Renderer) Handle(ev puzzle.Event) {
	if r.torn {
		return
	}

	switch ev.Kind {
	case puzzle.EventPromptSelected:
		if !r.validPrompt(ev.Prompt) {
			return
		}
		r.dropTransient()
		r.resetTiles()
		r.factory.SetTileStyle(promptRef(ev.Prompt), host.TileSelected)
		r.setStatus(StatusSelected)

	case puzzle.EventAttempted:
		if !r.validPair(ev.Prompt, ev.Target) {
			return
		}
		r.dropTransient()
		r.transient = r.connect(ev.Prompt, ev.Target, r.palette.Transient)

	case puzzle.EventMatched:
		if !r.validPair(ev.Prompt, ev.Target) {
			return
		}
		r.dropTransient()
		r.permanent = append(r.permanent, r.connect(ev.Prompt, ev.Target, r.palette.Permanent))
		r.matchedPrompt[ev.Prompt] = true
		r.matchedTarget[ev.Target] = true
		r.factory.SetTileStyle(promptRef(ev.Prompt), host.TileMatched)
		r.factory.SetTileStyle(targetRef(ev.Target), host.TileMatched)
		r.setStatus(StatusCorrect)
		r.later(r.statusDelay, r.statusToken, func() { r.setStatus(StatusNext) })

	case puzzle.EventIncorrect:
		if !r.validPair(ev.Prompt, ev.Target) {
			return
		}
		r.factory.SetTileStyle(targetRef(ev.Target), host.TileError)
		r.dropTransient()
		r.transient = r.connect(ev.Prompt, ev.Target, r.palette.Error)
		r.setStatus(StatusIncorrect)

	case puzzle.EventResolved:
		r.dropTransient()
		r.resetTiles()
		r.setStatus(StatusStart)

	case puzzle.EventSolved:
		r.setStatus(StatusSolved)
		epoch := r.epoch
		r.scheduler.Schedule(r.completionDelay, func() {
			if epoch != r.epoch || r.torn {
				return
			}
			r.showContinue()
		})

	case puzzle.EventReset:
		r.clear()
		r.epoch++
		r.resetTiles()
		r.setStatus(StatusStart)
	}
}

// Continue activates the Continue control, if one is presented
func (r *Renderer) Continue() error {
	if r.control == nil {
		return ErrNoContinue
	}
	return r.control.Activate()
}

// Control returns the presented Continue control or nil
func (r *Renderer) Control() *ContinueControl {
	return r.control
}

// Status returns the current feedback message
func (r *Renderer) Status() string {
	return r.status
}

// Transient returns the handle of the in-flight connector, zero if none
func (r *Renderer) Transient() host.Handle {
	return r.transient
}

// Permanent returns the handles of the matched connectors
func (r *Renderer) Permanent() []host.Handle {
	return append([]host.Handle(nil), r.permanent...)
}

// Teardown destroys every visual the renderer created and invalidates its
// scheduled callbacks. It is safe to call more than once.
func (r *Renderer) Teardown() {
	if r.torn {
		return
	}
	r.clear()
	r.epoch++
	r.torn = true
	log.Debug().Str("parent", r.parent).Msg("feedback renderer torn down")
}

func (r *Renderer) clear() {
	r.dropTransient()
	for _, h := range r.permanent {
		r.factory.Destroy(h)
	}
	r.permanent = nil
	if r.control != nil {
		r.factory.Destroy(r.control.handle)
		r.control.owner = nil
		r.control = nil
	}
	r.matchedPrompt = make(map[int]bool)
	r.matchedTarget = make(map[int]bool)
}

func (r *Renderer) showContinue() {
	if r.control != nil {
		return
	}
	h := r.factory.CreateControl(ContinueLabel, r.board.ContinueAt)
	r.control = &ContinueControl{handle: h, owner: r}
	log.Debug().Uint64("handle", uint64(h)).Msg("continue control presented")
}

func (r *Renderer) activate(c *ContinueControl) error {
	if r.torn || r.control != c {
		return ErrNoContinue
	}
	return r.nav.RequestScene(r.parent)
}

// later runs fn after d unless the epoch or status changed in the meantime
func (r *Renderer) later(d time.Duration, token uint64, fn func()) {
	epoch := r.epoch
	r.scheduler.Schedule(d, func() {
		if r.torn || epoch != r.epoch || token != r.statusToken {
			return
		}
		fn()
	})
}

func (r *Renderer) setStatus(s string) {
	r.statusToken++
	r.status = s
}

// resetTiles returns every unmatched tile to the default style
func (r *Renderer) resetTiles() {
	for i := range r.board.Prompts {
		if !r.matchedPrompt[i] {
			r.factory.SetTileStyle(promptRef(i), host.TileDefault)
		}
	}
	for j := range r.board.Targets {
		if !r.matchedTarget[j] {
			r.factory.SetTileStyle(targetRef(j), host.TileDefault)
		}
	}
}

func (r *Renderer) connect(prompt, target int, style host.Style) host.Handle {
	from := r.board.Prompts[prompt]
	to := r.board.Targets[target]
	from.Y += r.board.AnchorOffset
	to.Y -= r.board.AnchorOffset
	return r.factory.CreateConnector(from, to, style)
}

func (r *Renderer) dropTransient() {
	if r.transient != 0 {
		r.factory.Destroy(r.transient)
		r.transient = 0
	}
}

func (r *Renderer) validPrompt(i int) bool {
	if i < 0 || i >= len(r.board.Prompts) {
		log.Warn().Int("prompt", i).Msg("event outside board ignored")
		return false
	}
	return true
}

func (r *Renderer) validPair(prompt, target int) bool {
	if !r.validPrompt(prompt) {
		return false
	}
	if target < 0 || target >= len(r.board.Targets) {
		log.Warn().Int("target", target).Msg("event outside board ignored")
		return false
	}
	return true
}

func promptRef(i int) host.TileRef {
	return host.TileRef{Group: host.GroupPrompt, Index: i}
}

func targetRef(j int) host.TileRef {
	return host.TileRef{Group: host.GroupTarget, Index: j}
}
