package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ridekeeper/internal/flagx"
	"github.com/dmitrijs2005/ridekeeper/internal/timex"
)

// JsonConfig is the file representation of Config.
type JsonConfig struct {
	EndpointAddrGRPC            string            `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string            `json:"database_dsn"`
	SecretKey                   string            `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration    `json:"access_token_validity_duration"`
	Clients                     map[string]string `json:"clients"`
	LogLevel                    string            `json:"log_level"`
	LogFormat                   string            `json:"log_format"`
}

// parseJson loads the file named by -c/-config, if any. Empty values in the
// file keep the current setting.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var c JsonConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	override(&cfg.EndpointAddrGRPC, c.EndpointAddrGRPC)
	override(&cfg.DatabaseDSN, c.DatabaseDSN)
	override(&cfg.SecretKey, c.SecretKey)
	override(&cfg.LogLevel, c.LogLevel)
	override(&cfg.LogFormat, c.LogFormat)
	if c.AccessTokenValidityDuration.Duration > 0 {
		cfg.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if len(c.Clients) > 0 {
		cfg.Clients = c.Clients
	}
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
