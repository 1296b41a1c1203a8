package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/keycast/internal/dispatch"
)

// Settings holds user-tunable configuration.
type Settings struct {
	// TimeoutMS is the dispatch debounce window in milliseconds.
	TimeoutMS int `toml:"timeout_ms"`

	// Policy selects the match policy: "eager" or "patient".
	Policy string `toml:"policy"`

	// HistorySize is the palette history capacity.
	HistorySize int `toml:"history_size"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		TimeoutMS:   1000,
		Policy:      "eager",
		HistorySize: 100,
	}
}

// Timeout returns the debounce window as a duration.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// MatchPolicy maps the policy name to a dispatch policy.
func (s Settings) MatchPolicy() (dispatch.MatchPolicy, error) {
	switch s.Policy {
	case "eager":
		return dispatch.MatchEager, nil
	case "patient":
		return dispatch.MatchPatient, nil
	default:
		return dispatch.MatchEager, fmt.Errorf("unknown match policy %q", s.Policy)
	}
}

// Validate checks the settings for usable values.
func (s Settings) Validate() error {
	if s.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", s.TimeoutMS)
	}
	if _, err := s.MatchPolicy(); err != nil {
		return err
	}
	if s.HistorySize < 0 {
		return fmt.Errorf("history_size must not be negative, got %d", s.HistorySize)
	}
	return nil
}

// LoadSettings reads settings from a TOML file. A missing file yields
// the defaults; fields absent from the file keep their default values.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("reading settings %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("parsing settings %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return DefaultSettings(), fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes settings as TOML, creating parent directories as
// needed.
func SaveSettings(path string, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings %s: %w", path, err)
	}
	return nil
}
