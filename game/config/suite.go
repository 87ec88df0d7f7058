package config

import (
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/crisisgame/game/scene"
)

var (
	ErrSuiteNotFound = errors.New("suite not found")
	ErrInvalidSuite  = errors.New("invalid suite")
)

// Suite is a full scene graph players can be started in
type Suite struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Start       string           `json:"start" yaml:"start"`
	Hub         *scene.HubDef    `json:"hub,omitempty" yaml:"hub,omitempty"`
	Puzzles     []scene.MatchDef `json:"puzzles" yaml:"puzzles"`
	Scenes      []scene.InfoDef  `json:"scenes" yaml:"scenes"`
}

// SuiteInfo summarizes a suite for listings
type SuiteInfo struct {
	ID          string `json:"id"`
	Filename    string `json:"filename,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Start       string `json:"start"`
	Puzzles     int    `json:"puzzles"`
	Scenes      int    `json:"scenes"`
}

// Info summarizes the suite under the given id
func (s *Suite) Info(id string) SuiteInfo {
	n := len(s.Puzzles) + len(s.Scenes)
	if s.Hub != nil {
		n++
	}
	return SuiteInfo{
		ID:          id,
		Name:        s.Name,
		Description: s.Description,
		Start:       s.Start,
		Puzzles:     len(s.Puzzles),
		Scenes:      n,
	}
}

// SceneNames returns every scene name defined by the suite
func (s *Suite) SceneNames() []string {
	var names []string
	if s.Hub != nil {
		names = append(names, s.Hub.Name)
	}
	for _, p := range s.Puzzles {
		names = append(names, p.Name)
	}
	for _, sc := range s.Scenes {
		names = append(names, sc.Name)
	}
	return names
}

// Validate checks the suite is a closed, well-formed scene graph
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSuite)
	}

	defined := make(map[string]bool)
	for _, name := range s.SceneNames() {
		if name == "" {
			return fmt.Errorf("%w: scene without a name", ErrInvalidSuite)
		}
		if defined[name] {
			return fmt.Errorf("%w: scene %q defined more than once", ErrInvalidSuite, name)
		}
		defined[name] = true
	}
	if len(defined) == 0 {
		return fmt.Errorf("%w: no scenes", ErrInvalidSuite)
	}
	if !defined[s.Start] {
		return fmt.Errorf("%w: start scene %q is not defined", ErrInvalidSuite, s.Start)
	}

	ref := func(from, to string) error {
		if !defined[to] {
			return fmt.Errorf("%w: %s refers to undefined scene %q", ErrInvalidSuite, from, to)
		}
		return nil
	}

	if s.Hub != nil {
		if err := s.Hub.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSuite, err)
		}
		for _, t := range s.Hub.Tiles {
			if err := ref("hub tile "+t.Key, t.Scene); err != nil {
				return err
			}
		}
	}
	for _, p := range s.Puzzles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSuite, err)
		}
		if err := ref("puzzle "+p.Name, p.Parent); err != nil {
			return err
		}
	}
	for _, sc := range s.Scenes {
		if sc.Parent != "" {
			if err := ref("scene "+sc.Name, sc.Parent); err != nil {
				return err
			}
		}
		for _, l := range sc.Links {
			if err := ref("scene "+sc.Name, l.Scene); err != nil {
				return err
			}
		}
	}
	return nil
}
