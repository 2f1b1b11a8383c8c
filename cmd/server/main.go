package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/ridekeeper/internal/logging"
	"github.com/dmitrijs2005/ridekeeper/internal/server"
	"github.com/dmitrijs2005/ridekeeper/internal/server/auth"
	"github.com/dmitrijs2005/ridekeeper/internal/server/config"
)

func main() {

	// ridekeeper-server hash-secret <secret> prints a value for RIDEKEEPER_API_CLIENTS
	if len(os.Args) == 3 && os.Args[1] == "hash-secret" {
		hash, err := auth.HashSecret(os.Args[2])
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}

}
