package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/futctl/internal/config"
	"github.com/danmuck/futctl/internal/testutil/testlog"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRuntimeConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)

	path := writeConfigFile(t, `
mode = "full"
target = "surface.ripple"
address = "127.0.0.1:9200"
max_connect_attempts = 3
fail_fast = true
connect_timeout_ms = 2500
retry_delay_ms = 250
rounds = 12
continue_on_fault = true
admin_listen_addr = "127.0.0.1:7100"
admin_cors_origins = ["http://localhost:4000"]
hidden_units = 16
grid_points = 400
threshold = 0.25
store_root = "local/models/alt"
seed = 7
train_epochs = 5
train_batch_size = 8
train_learn_rate = 0.02
train_kl_weight = 0.001
train_test_frac = 0.2
graphics = true
plots_dir = "local/plots/alt"
`)

	cfg, err := loadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Mode != ModeFull {
		t.Fatalf("unexpected mode: %q", cfg.Mode)
	}
	if cfg.Target != "surface.ripple" {
		t.Fatalf("unexpected target: %q", cfg.Target)
	}
	if cfg.Explorer.Session.Address != "127.0.0.1:9200" {
		t.Fatalf("unexpected engine address: %q", cfg.Explorer.Session.Address)
	}
	if cfg.Explorer.Session.MaxConnectAttempts != 3 {
		t.Fatalf("unexpected attempts: %d", cfg.Explorer.Session.MaxConnectAttempts)
	}
	if !cfg.Explorer.Session.FailFast {
		t.Fatalf("expected fail_fast")
	}
	if cfg.Explorer.Session.ConnectTimeout != 2500*time.Millisecond {
		t.Fatalf("unexpected connect timeout: %v", cfg.Explorer.Session.ConnectTimeout)
	}
	if cfg.Explorer.Session.HandshakeTimeout != 5*time.Second {
		t.Fatalf("expected default handshake timeout, got %v", cfg.Explorer.Session.HandshakeTimeout)
	}
	if cfg.Explorer.Session.Backoff.InitialDelay != 250*time.Millisecond {
		t.Fatalf("unexpected retry delay: %v", cfg.Explorer.Session.Backoff.InitialDelay)
	}
	if cfg.Explorer.Rounds != 12 {
		t.Fatalf("unexpected rounds: %d", cfg.Explorer.Rounds)
	}
	if !cfg.Explorer.ContinueOnFault {
		t.Fatalf("expected continue_on_fault")
	}
	if cfg.Explorer.AdminListenAddr != "127.0.0.1:7100" {
		t.Fatalf("unexpected admin addr: %q", cfg.Explorer.AdminListenAddr)
	}
	if len(cfg.Explorer.AdminCORSOrigins) != 1 || cfg.Explorer.AdminCORSOrigins[0] != "http://localhost:4000" {
		t.Fatalf("unexpected cors origins: %+v", cfg.Explorer.AdminCORSOrigins)
	}
	if cfg.Hidden != 16 {
		t.Fatalf("unexpected hidden units: %d", cfg.Hidden)
	}
	if cfg.GridPoints != 400 {
		t.Fatalf("unexpected grid points: %d", cfg.GridPoints)
	}
	if cfg.Threshold != 0.25 {
		t.Fatalf("unexpected threshold: %v", cfg.Threshold)
	}
	if cfg.StoreRoot != "local/models/alt" {
		t.Fatalf("unexpected store root: %q", cfg.StoreRoot)
	}
	if cfg.Seed != 7 || cfg.Train.Seed != 7 {
		t.Fatalf("expected seed 7 for model and training, got %d and %d", cfg.Seed, cfg.Train.Seed)
	}
	if cfg.Train.Epochs != 5 || cfg.Train.BatchSize != 8 {
		t.Fatalf("unexpected train schedule: %+v", cfg.Train)
	}
	if cfg.Train.LearnRate != 0.02 || cfg.Train.KLWeight != 0.001 || cfg.Train.TestFrac != 0.2 {
		t.Fatalf("unexpected train rates: %+v", cfg.Train)
	}
	if !cfg.Graphics {
		t.Fatalf("expected graphics enabled")
	}
	if cfg.PlotsDir != "local/plots/alt" {
		t.Fatalf("unexpected plots dir: %q", cfg.PlotsDir)
	}
}

func TestLoadRuntimeConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	testlog.Start(t)

	path := writeConfigFile(t, `
mode = "train"
`)

	cfg, err := loadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := defaultRuntimeConfig()
	if cfg.Mode != ModeTrain {
		t.Fatalf("unexpected mode: %q", cfg.Mode)
	}
	if cfg.Target != def.Target {
		t.Fatalf("unexpected target: %q", cfg.Target)
	}
	if cfg.Hidden != def.Hidden || cfg.GridPoints != def.GridPoints {
		t.Fatalf("model defaults lost: hidden=%d grid=%d", cfg.Hidden, cfg.GridPoints)
	}
	if cfg.Threshold != def.Threshold {
		t.Fatalf("unexpected threshold: %v", cfg.Threshold)
	}
	if cfg.Explorer.Session.Address != def.Explorer.Session.Address {
		t.Fatalf("unexpected engine address: %q", cfg.Explorer.Session.Address)
	}
	if cfg.Explorer.Rounds != def.Explorer.Rounds {
		t.Fatalf("unexpected rounds: %d", cfg.Explorer.Rounds)
	}
	if cfg.Train != def.Train {
		t.Fatalf("train defaults lost: %+v", cfg.Train)
	}
}

func TestLoadRuntimeConfigRejectsUnknownMode(t *testing.T) {
	testlog.Start(t)

	path := writeConfigFile(t, `
mode = "observe"
`)
	if _, err := loadRuntimeConfig(path); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestLoadRuntimeConfigRejectsNegativeSeed(t *testing.T) {
	testlog.Start(t)

	path := writeConfigFile(t, `
seed = -4
`)
	if _, err := loadRuntimeConfig(path); err == nil {
		t.Fatalf("expected seed validation error")
	}
}

func TestValidateRuntimeConfigGraphicsNeedsPlotsDir(t *testing.T) {
	testlog.Start(t)

	cfg := defaultRuntimeConfig()
	cfg.Graphics = true
	cfg.PlotsDir = ""
	if err := validateRuntimeConfig(cfg); err == nil {
		t.Fatalf("expected plots_dir validation error")
	}
}

func TestExplorerTemplateLoadsAsRuntimeConfig(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteTemplate(path, "explorer", false); err != nil {
		t.Fatalf("write template: %v", err)
	}

	cfg, err := loadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("load template config: %v", err)
	}
	def := defaultRuntimeConfig()
	if cfg.Mode != def.Mode {
		t.Fatalf("template mode %q differs from default %q", cfg.Mode, def.Mode)
	}
	if cfg.Target != def.Target {
		t.Fatalf("template target %q differs from default %q", cfg.Target, def.Target)
	}
	if cfg.Threshold != def.Threshold {
		t.Fatalf("template threshold %v differs from default %v", cfg.Threshold, def.Threshold)
	}
	if cfg.Explorer.Session.Address != def.Explorer.Session.Address {
		t.Fatalf("template address %q differs from default %q", cfg.Explorer.Session.Address, def.Explorer.Session.Address)
	}
}
