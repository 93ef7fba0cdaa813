package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string `env:"ADDR" envDefault:":8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"arena.db"`

	// Arbitration policy. Fixed defaults from the dispute-handling rules;
	// overridable per deployment.
	ConsensusThreshold float64 `env:"CONSENSUS_THRESHOLD" envDefault:"0.60"`
}

// Load reads .env (if present) and the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ConsensusThreshold <= 0 || cfg.ConsensusThreshold > 1 {
		return nil, fmt.Errorf("consensus threshold must be in (0,1], got %v", cfg.ConsensusThreshold)
	}
	return cfg, nil
}
