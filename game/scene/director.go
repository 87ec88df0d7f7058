package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

var (
	ErrSceneNotFound  = errors.New("scene not found")
	ErrDuplicateScene = errors.New("scene already registered")
	ErrNotActive      = errors.New("scene is not active")
)

// Scene is a screen the Director can switch to
type Scene interface {
	Name() string
	Enter()
	Exit()
	View() View
}

// ChangeFunc is called after every completed transition
type ChangeFunc func(from, to string)

// Director owns the registered scenes and the current one
type Director struct {
	scenes  map[string]Scene
	current Scene

	transitioning bool
	queued        []string

	onChange []ChangeFunc
}

// NewDirector creates a director with no scenes
func NewDirector() *Director {
	return &Director{
		scenes: make(map[string]Scene),
	}
}

// Register adds a scene
func (d *Director) Register(s Scene) error {
	if s == nil || s.Name() == "" {
		return fmt.Errorf("scene must have a name")
	}
	if _, exists := d.scenes[s.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateScene, s.Name())
	}
	d.scenes[s.Name()] = s
	return nil
}

// OnChange registers a callback for completed transitions
func (d *Director) OnChange(fn ChangeFunc) {
	if fn != nil {
		d.onChange = append(d.onChange, fn)
	}
}

// Start enters the first scene
func (d *Director) Start(name string) error {
	return d.RequestScene(name)
}

// RequestScene exits the current scene and enters the named one
func (d *Director) RequestScene(name string) error {
	next, ok := d.scenes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSceneNotFound, name)
	}

	if d.transitioning {
		d.queued = append(d.queued, name)
		return nil
	}

	d.transitioning = true
	d.switchTo(next)
	for len(d.queued) > 0 {
		name := d.queued[0]
		d.queued = d.queued[1:]
		d.switchTo(d.scenes[name])
	}
	d.transitioning = false
	return nil
}

func (d *Director) switchTo(next Scene) {
	from := ""
	if d.current != nil {
		from = d.current.Name()
		log.Debug().Str("scene", from).Msg("scene exit")
		d.current.Exit()
	}

	d.current = next
	log.Debug().Str("scene", next.Name()).Str("from", from).Msg("scene enter")
	next.Enter()

	for _, fn := range d.onChange {
		fn(from, next.Name())
	}
}

// Stop exits the current scene, leaving none active
func (d *Director) Stop() {
	if d.current == nil {
		return
	}
	d.current.Exit()
	d.current = nil
}

// Current returns the active scene or nil
func (d *Director) Current() Scene {
	return d.current
}

// CurrentName returns the name of the active scene, empty if none
func (d *Director) CurrentName() string {
	if d.current == nil {
		return ""
	}
	return d.current.Name()
}

// Scene returns a registered scene
func (d *Director) Scene(name string) (Scene, bool) {
	s, ok := d.scenes[name]
	return s, ok
}

// Names returns the registered scene names in sorted order
func (d *Director) Names() []string {
	names := make([]string, 0, len(d.scenes))
	for name := range d.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
