package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EngineConfig drives the probectl explorer stand-in: where it listens,
// the dimensionality its sessions announce, and the probe script shape.
type EngineConfig struct {
	Addr             string `toml:"addr"`
	Dimensions       int    `toml:"dimensions"`
	Sessions         int    `toml:"sessions"`
	PointsPerSession int    `toml:"points_per_session"`
	Seed             int64  `toml:"seed"`
	EndTrailer       bool   `toml:"end_trailer"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Addr:             "127.0.0.1:2000",
		Dimensions:       2,
		Sessions:         5,
		PointsPerSession: 100,
		Seed:             1,
		EndTrailer:       true,
	}
}

// LoadEngineConfig overlays a TOML document onto the defaults; keys
// absent from the document keep their default values.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if err := loadToml(path, &cfg); err != nil {
		return EngineConfig{}, err
	}
	if err := ValidateEngineConfig(cfg); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateEngineConfig(cfg EngineConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("engine config missing addr")
	}
	if cfg.Dimensions <= 0 {
		return fmt.Errorf("engine config dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.Sessions <= 0 {
		return fmt.Errorf("engine config sessions must be positive, got %d", cfg.Sessions)
	}
	if cfg.PointsPerSession < 0 {
		return fmt.Errorf("engine config points_per_session must be non-negative, got %d", cfg.PointsPerSession)
	}
	if cfg.Seed < 0 {
		return fmt.Errorf("engine config seed must be non-negative, got %d", cfg.Seed)
	}
	return nil
}
