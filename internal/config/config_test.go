package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/futctl/internal/testutil/testlog"
)

func TestLoadEngineConfigOverlaysDefaults(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "engine.toml")
	content := `
addr = "127.0.0.1:9300"
sessions = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadEngineConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9300" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.Sessions != 2 {
		t.Fatalf("unexpected sessions: %d", cfg.Sessions)
	}
	if cfg.Dimensions != 2 {
		t.Fatalf("expected default dimensions, got %d", cfg.Dimensions)
	}
	if cfg.PointsPerSession != 100 {
		t.Fatalf("expected default points per session, got %d", cfg.PointsPerSession)
	}
	if !cfg.EndTrailer {
		t.Fatalf("expected default end trailer")
	}
}

func TestLoadEngineConfigRejectsBadDimensions(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte(`dimensions = -1`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadEngineConfig(path); err == nil {
		t.Fatalf("expected dimensions validation error")
	}
}

func TestEngineTemplateLoadsAsDefaults(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := WriteTemplate(path, "engine", false); err != nil {
		t.Fatalf("write template: %v", err)
	}

	cfg, err := LoadEngineConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg != DefaultEngineConfig() {
		t.Fatalf("template config %+v differs from defaults %+v", cfg, DefaultEngineConfig())
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := WriteTemplate(path, "engine", false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteTemplate(path, "engine", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "engine", true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	testlog.Start(t)

	if _, err := Template("mirage"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
