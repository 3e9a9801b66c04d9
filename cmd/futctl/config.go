package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/futctl/internal/bnn"
	"github.com/danmuck/futctl/internal/explore"
)

// Run modes. Explore loads the persisted model (training it first when
// the file is missing); full always retrains before exploring.
const (
	ModeTrain   = "train"
	ModeExplore = "explore"
	ModeFull    = "full"
)

// runtimeConfig is the resolved futctl configuration: engine link,
// round loop, model and training knobs, and the optional surfaces.
type runtimeConfig struct {
	Mode   string
	Target string

	Hidden     int
	GridPoints int
	Threshold  float64
	StoreRoot  string
	Seed       uint64
	Train      bnn.TrainConfig

	Graphics bool
	PlotsDir string

	Explorer explore.ServiceConfig
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		Mode:       ModeExplore,
		Target:     "surface.poly",
		Hidden:     50,
		GridPoints: 2500,
		Threshold:  bnn.DefaultThreshold,
		StoreRoot:  bnn.DefaultStoreRoot,
		Seed:       1,
		Train:      bnn.DefaultTrainConfig(),
		PlotsDir:   "local/plots",
		Explorer:   explore.DefaultServiceConfig(),
	}
}

// futctl config.toml key mapping to runtime settings.
type fileConfig struct {
	Mode   string `toml:"mode"`
	Target string `toml:"target"`

	Address            string `toml:"address"`
	MaxConnectAttempts int    `toml:"max_connect_attempts"`
	FailFast           bool   `toml:"fail_fast"`
	ConnectTimeoutMS   int    `toml:"connect_timeout_ms"`
	HandshakeTimeoutMS int    `toml:"handshake_timeout_ms"`
	RetryDelayMS       int    `toml:"retry_delay_ms"`

	Rounds           int      `toml:"rounds"`
	ContinueOnFault  bool     `toml:"continue_on_fault"`
	AdminListenAddr  string   `toml:"admin_listen_addr"`
	AdminCORSOrigins []string `toml:"admin_cors_origins"`

	HiddenUnits int     `toml:"hidden_units"`
	GridPoints  int     `toml:"grid_points"`
	Threshold   float64 `toml:"threshold"`
	StoreRoot   string  `toml:"store_root"`
	Seed        int64   `toml:"seed"`

	TrainEpochs    int     `toml:"train_epochs"`
	TrainBatchSize int     `toml:"train_batch_size"`
	TrainLearnRate float64 `toml:"train_learn_rate"`
	TrainKLWeight  float64 `toml:"train_kl_weight"`
	TrainTestFrac  float64 `toml:"train_test_frac"`

	Graphics bool   `toml:"graphics"`
	PlotsDir string `toml:"plots_dir"`
}

// futctl loader for TOML config with default overlay.
func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load futctl config: %w", err)
	}

	if meta.IsDefined("mode") {
		cfg.Mode = strings.TrimSpace(raw.Mode)
	}
	if meta.IsDefined("target") {
		cfg.Target = strings.TrimSpace(raw.Target)
	}
	if meta.IsDefined("address") {
		cfg.Explorer.Session.Address = strings.TrimSpace(raw.Address)
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.Explorer.Session.MaxConnectAttempts = raw.MaxConnectAttempts
	}
	if meta.IsDefined("fail_fast") {
		cfg.Explorer.Session.FailFast = raw.FailFast
	}
	if meta.IsDefined("connect_timeout_ms") {
		cfg.Explorer.Session.ConnectTimeout = time.Duration(raw.ConnectTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("handshake_timeout_ms") {
		cfg.Explorer.Session.HandshakeTimeout = time.Duration(raw.HandshakeTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("retry_delay_ms") {
		cfg.Explorer.Session.Backoff.InitialDelay = time.Duration(raw.RetryDelayMS) * time.Millisecond
	}
	if meta.IsDefined("rounds") {
		cfg.Explorer.Rounds = raw.Rounds
	}
	if meta.IsDefined("continue_on_fault") {
		cfg.Explorer.ContinueOnFault = raw.ContinueOnFault
	}
	if meta.IsDefined("admin_listen_addr") {
		cfg.Explorer.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("admin_cors_origins") {
		cfg.Explorer.AdminCORSOrigins = raw.AdminCORSOrigins
	}
	if meta.IsDefined("hidden_units") {
		cfg.Hidden = raw.HiddenUnits
	}
	if meta.IsDefined("grid_points") {
		cfg.GridPoints = raw.GridPoints
	}
	if meta.IsDefined("threshold") {
		cfg.Threshold = raw.Threshold
	}
	if meta.IsDefined("store_root") {
		cfg.StoreRoot = strings.TrimSpace(raw.StoreRoot)
	}
	if meta.IsDefined("seed") {
		if raw.Seed < 0 {
			return runtimeConfig{}, fmt.Errorf("load futctl config: seed must be non-negative, got %d", raw.Seed)
		}
		cfg.Seed = uint64(raw.Seed)
		cfg.Train.Seed = uint64(raw.Seed)
	}
	if meta.IsDefined("train_epochs") {
		cfg.Train.Epochs = raw.TrainEpochs
	}
	if meta.IsDefined("train_batch_size") {
		cfg.Train.BatchSize = raw.TrainBatchSize
	}
	if meta.IsDefined("train_learn_rate") {
		cfg.Train.LearnRate = raw.TrainLearnRate
	}
	if meta.IsDefined("train_kl_weight") {
		cfg.Train.KLWeight = raw.TrainKLWeight
	}
	if meta.IsDefined("train_test_frac") {
		cfg.Train.TestFrac = raw.TrainTestFrac
	}
	if meta.IsDefined("graphics") {
		cfg.Graphics = raw.Graphics
	}
	if meta.IsDefined("plots_dir") {
		cfg.PlotsDir = strings.TrimSpace(raw.PlotsDir)
	}

	if err := validateRuntimeConfig(cfg); err != nil {
		return runtimeConfig{}, err
	}
	return cfg, nil
}

// validateRuntimeConfig runs after the file overlay and again after flag
// overrides; both entry points can produce an unusable combination.
func validateRuntimeConfig(cfg runtimeConfig) error {
	switch cfg.Mode {
	case ModeTrain, ModeExplore, ModeFull:
	default:
		return fmt.Errorf("futctl config: unknown mode %q (expected train, explore, or full)", cfg.Mode)
	}
	if strings.TrimSpace(cfg.Target) == "" {
		return fmt.Errorf("futctl config: target id is required")
	}
	if cfg.Hidden <= 0 {
		return fmt.Errorf("futctl config: hidden_units must be positive, got %d", cfg.Hidden)
	}
	if cfg.GridPoints < 4 {
		return fmt.Errorf("futctl config: grid_points must be at least 4, got %d", cfg.GridPoints)
	}
	if cfg.Threshold <= 0 {
		return fmt.Errorf("futctl config: threshold must be positive, got %v", cfg.Threshold)
	}
	if strings.TrimSpace(cfg.StoreRoot) == "" {
		return fmt.Errorf("futctl config: store_root is required")
	}
	if cfg.Graphics && strings.TrimSpace(cfg.PlotsDir) == "" {
		return fmt.Errorf("futctl config: plots_dir is required when graphics is enabled")
	}
	return nil
}
