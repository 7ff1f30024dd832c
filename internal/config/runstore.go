package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunSettings is the operator-editable simulation configuration, kept in a
// JSON file next to the database.
type RunSettings struct {
	NumTrials   int      `json:"num_trials"`
	MaxDepth    int      `json:"max_depth"`
	Concurrency int      `json:"concurrency"`
	RandomSeed  int64    `json:"random_seed"`
	Policies    []string `json:"policies"`
	StartFEN    string   `json:"start_fen"`
	// explorer parameters for the online database
	Speed     string    `json:"speed"`
	Rating    string    `json:"rating"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunStore loads and saves RunSettings, filling in defaults for missing or
// out-of-range values.
type RunStore struct {
	path string
	mu   sync.Mutex
	s    RunSettings
}

func NewRunStore(path string) (*RunStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	store := &RunStore{path: path}
	if err := store.loadOrInit(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *RunStore) Get() RunSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

func (s *RunStore) Update(settings RunSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings = clamped(settings)
	settings.UpdatedAt = time.Now().UTC()
	s.s = settings
	return s.saveLocked()
}

func (s *RunStore) loadOrInit() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.s = defaultSettings()
			return s.saveLocked()
		}
		return fmt.Errorf("read run config: %w", err)
	}

	if err := json.Unmarshal(data, &s.s); err != nil {
		return fmt.Errorf("parse run config: %w", err)
	}
	s.s = clamped(s.s)
	return nil
}

func (s *RunStore) saveLocked() error {
	data, err := json.MarshalIndent(s.s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write run config: %w", err)
	}
	return nil
}

func clamped(s RunSettings) RunSettings {
	if s.NumTrials <= 0 {
		s.NumTrials = 40
	}
	if s.MaxDepth <= 0 {
		s.MaxDepth = 60
	}
	if s.Concurrency <= 0 {
		s.Concurrency = 4
	}
	if len(s.Policies) == 0 {
		s.Policies = []string{"weighted", "top"}
	}
	if s.Speed == "" {
		s.Speed = "rapid"
	}
	if s.Rating == "" {
		s.Rating = "2000"
	}
	return s
}

func defaultSettings() RunSettings {
	s := clamped(RunSettings{RandomSeed: 1})
	s.UpdatedAt = time.Now().UTC()
	return s
}
