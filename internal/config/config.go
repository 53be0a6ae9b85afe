package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded once at startup and passed
// explicitly to each component. The required fields make startup fail
// fast when the database path or signing secret is absent.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	DatabasePath  string `env:"DATABASE_PATH,required,notEmpty"`
	JWTSecret     string `env:"JWT_SECRET,required,notEmpty"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
	BcryptCost    int    `env:"BCRYPT_COST" envDefault:"12"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 14 {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cfg.BcryptCost)
	}
	return cfg, nil
}
