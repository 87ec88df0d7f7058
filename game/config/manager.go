package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Extensions lists the suite file extensions in lookup order
var Extensions = []string{".json", ".yaml", ".yml"}

// Manager handles suite loading and caching
type Manager struct {
	suitesDir    string
	defaultID    string
	defaultSuite *Suite
	suites       map[string]*Suite
	mu           sync.RWMutex
}

// NewManager creates a new suite manager. An empty directory serves only the
// built-in suite.
func NewManager(suitesDir string) (*Manager, error) {
	if suitesDir != "" {
		if _, err := os.Stat(suitesDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("suites directory does not exist: %s", suitesDir)
		}
	}

	m := &Manager{
		suitesDir: suitesDir,
		suites:    make(map[string]*Suite),
	}
	m.resetDefault()
	return m, nil
}

// Load returns a suite by id
func (m *Manager) Load(id string) (*Suite, error) {
	if id == "" || id == DefaultSuiteID {
		return m.builtin(), nil
	}

	m.mu.RLock()
	if suite, exists := m.suites[id]; exists {
		m.mu.RUnlock()
		return suite, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if suite, exists := m.suites[id]; exists {
		return suite, nil
	}

	path, err := m.find(id)
	if err != nil {
		return nil, err
	}

	suite, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	m.suites[id] = suite
	log.Debug().Str("suite", id).Str("path", path).Msg("suite loaded")
	return suite, nil
}

// List returns every loadable suite, the built-in one first
func (m *Manager) List() ([]SuiteInfo, error) {
	infos := []SuiteInfo{m.builtin().Info(DefaultSuiteID)}
	if m.suitesDir == "" {
		return infos, nil
	}

	entries, err := os.ReadDir(m.suitesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read suites directory: %w", err)
	}

	seen := map[string]bool{DefaultSuiteID: true}
	for _, entry := range entries {
		id, ok := suiteID(entry.Name())
		if entry.IsDir() || !ok || seen[id] {
			continue
		}
		seen[id] = true

		suite, err := m.Load(id)
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping invalid suite")
			continue
		}
		info := suite.Info(id)
		info.Filename = entry.Name()
		infos = append(infos, info)
	}

	sort.SliceStable(infos[1:], func(i, j int) bool { return infos[1+i].ID < infos[1+j].ID })
	return infos, nil
}

// Default returns the suite sessions start with when none is named
func (m *Manager) Default() *Suite {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultSuite
}

// DefaultID returns the id of the default suite
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default suite by id
func (m *Manager) SetDefault(id string) error {
	suite, err := m.Load(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = id
	m.defaultSuite = suite
	return nil
}

// Refresh drops every cached suite so the next Load reads from disk
func (m *Manager) Refresh() {
	m.mu.Lock()
	m.suites = make(map[string]*Suite)
	m.mu.Unlock()
	m.resetDefault()
}

// Save writes a suite to the suites directory. The extension of name picks
// the format; YAML is used when there is none.
func (m *Manager) Save(name string, suite *Suite) error {
	if m.suitesDir == "" {
		return fmt.Errorf("no suites directory configured")
	}
	if err := suite.Validate(); err != nil {
		return err
	}

	filename := name
	if _, ok := suiteID(filename); !ok {
		filename = name + ".yaml"
	}
	id, _ := suiteID(filename)

	if err := WriteFile(filepath.Join(m.suitesDir, filename), suite); err != nil {
		return err
	}

	m.mu.Lock()
	m.suites[id] = suite
	m.mu.Unlock()
	return nil
}

// LoadFile reads and validates a suite file
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSuiteNotFound, path)
		}
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes and validates a suite in the format named by ext
func Parse(data []byte, ext string) (*Suite, error) {
	var suite Suite
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("failed to parse suite: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("failed to parse suite: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported suite format %q", ext)
	}

	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

// WriteFile encodes a suite in the format named by the path's extension
func WriteFile(path string, suite *Suite) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(suite, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(suite)
	default:
		return fmt.Errorf("unsupported suite format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal suite: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write suite file: %w", err)
	}
	return nil
}

func (m *Manager) builtin() *Suite {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.suites[DefaultSuiteID]; ok {
		return s
	}
	s := DefaultSuite()
	m.suites[DefaultSuiteID] = s
	return s
}

func (m *Manager) resetDefault() {
	s := m.builtin()
	m.mu.Lock()
	m.defaultID = DefaultSuiteID
	m.defaultSuite = s
	m.mu.Unlock()
}

func (m *Manager) find(id string) (string, error) {
	if m.suitesDir == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %s", ErrSuiteNotFound, id)
	}
	for _, ext := range Extensions {
		path := filepath.Join(m.suitesDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSuiteNotFound, id)
}

func suiteID(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return strings.TrimSuffix(filename, filepath.Ext(filename)), true
		}
	}
	return "", false
}
