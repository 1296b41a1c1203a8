package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/keycast/internal/dispatch"
)

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadSettings error = %v", err)
	}
	if settings != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keycast.toml")
	want := Settings{TimeoutMS: 750, Policy: "patient", HistorySize: 50}

	if err := SaveSettings(path, want); err != nil {
		t.Fatalf("SaveSettings error = %v", err)
	}

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings error = %v", err)
	}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}

	if got.Timeout() != 750*time.Millisecond {
		t.Errorf("Timeout() = %v, want 750ms", got.Timeout())
	}
	policy, err := got.MatchPolicy()
	if err != nil || policy != dispatch.MatchPatient {
		t.Errorf("MatchPolicy() = %v, %v; want patient", policy, err)
	}
}

func TestLoadSettingsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keycast.toml")
	if err := os.WriteFile(path, []byte("timeout_ms = 500\n"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings error = %v", err)
	}
	if settings.TimeoutMS != 500 {
		t.Errorf("TimeoutMS = %d, want 500", settings.TimeoutMS)
	}
	if settings.Policy != "eager" || settings.HistorySize != 100 {
		t.Errorf("unset fields = %+v, want defaults", settings)
	}
}

func TestLoadSettingsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad policy", `policy = "aggressive"`},
		{"zero timeout", `timeout_ms = 0`},
		{"negative history", `history_size = -1`},
		{"malformed", `timeout_ms = `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "keycast.toml")
			if err := os.WriteFile(path, []byte(tt.toml), 0o644); err != nil {
				t.Fatalf("WriteFile error = %v", err)
			}

			if _, err := LoadSettings(path); err == nil {
				t.Error("LoadSettings should reject the file")
			}
		})
	}
}
