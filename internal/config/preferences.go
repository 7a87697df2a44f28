package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/photo2video/internal/export"
)

// DefaultDisplay is how long each still stays on screen, in seconds.
const DefaultDisplay = 3.0

// Preferences is an immutable snapshot of the user's choices for one run.
type Preferences struct {
	Style      export.Style     `yaml:"style"`
	Direction  export.Direction `yaml:"direction"`
	Transition float64          `yaml:"transition"`
	Display    float64          `yaml:"display"`
	ItemCount  int              `yaml:"item_count"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Style:      export.DefaultStyle,
		Direction:  export.DefaultDirection,
		Transition: export.DefaultTransition,
		Display:    DefaultDisplay,
	}
}

func (p Preferences) Validate() error {
	if _, err := export.ParseStyle(string(p.Style)); err != nil {
		return err
	}
	if _, err := export.ParseDirection(string(p.Direction)); err != nil {
		return err
	}
	if !slices.Contains(export.Durations, p.Transition) {
		return fmt.Errorf("transition %gs is not one of %v", p.Transition, export.Durations)
	}
	if p.Display <= 0 {
		return fmt.Errorf("display duration %gs must be positive", p.Display)
	}
	if p.ItemCount < 0 {
		return fmt.Errorf("item count %d must not be negative", p.ItemCount)
	}
	return nil
}

// PreferenceStore keeps preferences in a YAML file.
type PreferenceStore struct {
	mu    sync.RWMutex
	path  string
	prefs Preferences
}

// OpenPreferenceStore reads path, starting from the defaults when the file
// does not exist yet. Fields missing from the file keep their defaults.
func OpenPreferenceStore(path string) (*PreferenceStore, error) {
	s := &PreferenceStore{path: path, prefs: DefaultPreferences()}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	prefs := DefaultPreferences()
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("preferences %s: %w", path, err)
	}
	s.prefs = prefs
	return s, nil
}

func (s *PreferenceStore) Path() string { return s.path }

// Snapshot returns a copy of the current preferences.
func (s *PreferenceStore) Snapshot() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Save validates p, writes it to disk and makes it current.
func (s *PreferenceStore) Save(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create preferences dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write preferences: %w", err)
	}
	s.prefs = p
	return nil
}
