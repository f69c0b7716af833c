package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mzyy94/qlabel/internal/raster"
)

// Settings holds user-configurable print defaults.
type Settings struct {
	Media          string `json:"media"`     // catalog name, e.g. "62" or "29x90"
	Threshold      byte   `json:"threshold"` // grayscale darkness cutoff
	AutoCut        bool   `json:"autoCut"`
	AutoCutEvery   uint8  `json:"autoCutEvery"`
	CutAtEnd       bool   `json:"cutAtEnd"`
	HighResolution bool   `json:"highResolution"`
	TwoColor       bool   `json:"twoColor"`
	Compress       bool   `json:"compress"`
	FeedDots       uint16 `json:"feedDots"` // 0 = media default
	ArchiveDir     string `json:"archiveDir,omitempty"`
}

// DefaultSettings returns the default print settings.
func DefaultSettings() Settings {
	return Settings{
		Media:        "62",
		Threshold:    80,
		AutoCut:      true,
		AutoCutEvery: 1,
		CutAtEnd:     true,
	}
}

// PrintConfig maps the settings onto a validated print configuration for
// the given printer.
func (s Settings) PrintConfig(model raster.Model, serial string) (raster.Config, error) {
	media, err := raster.ParseMedia(s.Media)
	if err != nil {
		return raster.Config{}, err
	}
	cfg := raster.Config{
		Model:          model,
		Serial:         serial,
		Media:          media,
		AutoCut:        s.AutoCut,
		AutoCutEvery:   s.AutoCutEvery,
		TwoColor:       s.TwoColor,
		CutAtEnd:       s.CutAtEnd,
		HighResolution: s.HighResolution,
		Compress:       s.Compress,
		FeedDots:       s.FeedDots,
	}
	if cfg.FeedDots == 0 {
		cfg.FeedDots = media.DefaultFeedDots()
	}
	if err := cfg.Validate(); err != nil {
		return raster.Config{}, err
	}
	return cfg, nil
}

// Store provides thread-safe settings persistence backed by a JSON file.
type Store struct {
	mu       sync.RWMutex
	settings Settings
	path     string
}

// NewStore creates a Store that persists settings to dataDir/settings.json.
// If the file does not exist or is invalid, default settings are used.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	s := &Store{
		path:     filepath.Join(dataDir, "settings.json"),
		settings: DefaultSettings(),
	}
	s.load()
	return s, nil
}

// NewMemoryStore creates a Store that keeps settings in memory only (no file persistence).
func NewMemoryStore() *Store {
	return &Store{settings: DefaultSettings()}
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings and persists to disk.
func (s *Store) Update(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.save()
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return // file missing is OK, use defaults
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		slog.Warn("invalid settings file, using defaults", "path", s.path, "err", err)
		return
	}
	s.settings = settings
}

func (s *Store) save() error {
	if s.path == "" {
		return nil // memory-only mode
	}
	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
