package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the ridekeeper client.
//
// S3* fields are optional; photo commands are disabled when S3Bucket is empty.
// An empty ClientSecret makes the CLI prompt for it.
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	CacheTTL            time.Duration
	ClientID            string
	ClientSecret        string
	LogLevel            string
	LogFormat           string
	S3Region            string
	S3BaseEndpoint      string
	S3Bucket            string
	S3AccessKey         string
	S3SecretKey         string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "data/ridekeeper.db"
	c.RequestTimeout = 5 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.CacheTTL = 30 * time.Second
	c.ClientID = "mobile"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.S3Region = "us-east-1"
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// flags. Later sources win.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
