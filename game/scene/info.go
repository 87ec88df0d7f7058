package scene

import (
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/crisisgame/game/host"
)

var ErrUnknownLink = errors.New("unknown link")

// InfoDef describes a topic scene
type InfoDef struct {
	Name   string `json:"name" yaml:"name"`
	Title  string `json:"title" yaml:"title"`
	Body   string `json:"body,omitempty" yaml:"body,omitempty"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Links  []Link `json:"links,omitempty" yaml:"links,omitempty"`
}

// InfoScene is a topic page linking to other scenes
type InfoScene struct {
	def InfoDef
	nav host.Navigator
}

// NewInfoScene creates an info scene
func NewInfoScene(def InfoDef, nav host.Navigator) (*InfoScene, error) {
	if def.Name == "" {
		return nil, errors.New("info scene name is required")
	}
	if nav == nil {
		return nil, errors.New("info scene requires a navigator")
	}
	return &InfoScene{def: def, nav: nav}, nil
}

func (s *InfoScene) Name() string { return s.def.Name }
func (s *InfoScene) Enter()       {}
func (s *InfoScene) Exit()        {}

// Follow navigates to the scene of a link
func (s *InfoScene) Follow(index int) error {
	if index < 0 || index >= len(s.def.Links) {
		return fmt.Errorf("%w: %d", ErrUnknownLink, index)
	}
	return s.nav.RequestScene(s.def.Links[index].Scene)
}

// Back returns to the parent scene
func (s *InfoScene) Back() error {
	if s.def.Parent == "" {
		return fmt.Errorf("%w: %s has no parent", ErrSceneNotFound, s.def.Name)
	}
	return s.nav.RequestScene(s.def.Parent)
}

func (s *InfoScene) View() View {
	return View{
		Name:   s.def.Name,
		Kind:   KindInfo,
		Title:  s.def.Title,
		Parent: s.def.Parent,
		Body:   s.def.Body,
		Links:  append([]Link(nil), s.def.Links...),
	}
}
