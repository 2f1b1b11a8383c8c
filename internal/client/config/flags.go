package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/ridekeeper/internal/flagx"
)

var clientFlags = []string{"-a", "-d", "-t", "-i", "-u", "-l", "-b", "-e", "-g"}

// parseFlags overlays cfg with the flags it owns; other arguments are
// ignored.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the document server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local SQLite database")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.ClientID, "u", cfg.ClientID, "API client id")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for profile photos")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 endpoint (empty for AWS)")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")

	if err := fs.Parse(flagx.FilterArgs(args, clientFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	return nil
}
