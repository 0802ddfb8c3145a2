package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR points at a running relay, e.g. ws://localhost:10080/ws.
	// Scenarios are skipped when it is unset.
	RelayAddr string        `envconfig:"RELAY_ADDR"`
	Timeout   time.Duration `envconfig:"E2E_TIMEOUT" default:"10s"`
	// E2E_TOKEN is required when the relay runs with DELEGATE_MODE=token
	Token string `envconfig:"E2E_TOKEN"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
