package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays cfg with the RIDEKEEPER_* variables that are set.
// RIDEKEEPER_API_CLIENTS has the form "id1:hash1,id2:hash2".
func parseEnv(cfg *Config, environ []string) error {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
