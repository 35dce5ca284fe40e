package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, parsed from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string `env:"PORT" envDefault:"8080"`
	// CloseSchedule is the cron spec for the auction closer sweep.
	CloseSchedule string `env:"CLOSE_SCHEDULE" envDefault:"@every 30s"`
	// MaxProxyRounds caps the proxy-bid fixed-point iteration.
	MaxProxyRounds int `env:"MAX_PROXY_ROUNDS" envDefault:"64"`
	// BidRetryAttempts bounds handler retries on concurrent modification.
	BidRetryAttempts int `env:"BID_RETRY_ATTEMPTS" envDefault:"3"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse environment: %w", err)
	}
	return cfg, nil
}
