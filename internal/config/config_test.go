package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kasl-dev/kasl/internal/kerrors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMalformedFileIsConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, kerrors.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"monitor":{"pause_threshold":90}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Monitor.PauseThreshold != 90 {
		t.Fatalf("expected overlay to apply, got %d", cfg.Monitor.PauseThreshold)
	}
	if cfg.Monitor.ActivityThreshold != Defaults().Monitor.ActivityThreshold {
		t.Fatalf("expected untouched fields to keep defaults, got %d", cfg.Monitor.ActivityThreshold)
	}
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	cfg := Defaults()
	cfg.Monitor.PauseThreshold = -1
	if err := cfg.Validate(); !errors.Is(err, kerrors.ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Defaults()
	cfg.Monitor.MinWorkInterval = 15
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != cfg {
		t.Fatalf("round-trip mismatch: %+v vs %+v", got, cfg)
	}
}
