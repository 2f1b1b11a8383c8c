// Package server wires the document server together: storage backend,
// change broker, authentication and the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ridekeeper/internal/logging"
	"github.com/dmitrijs2005/ridekeeper/internal/server/auth"
	"github.com/dmitrijs2005/ridekeeper/internal/server/broker"
	"github.com/dmitrijs2005/ridekeeper/internal/server/config"
	"github.com/dmitrijs2005/ridekeeper/internal/server/repositories/documents"
	"github.com/dmitrijs2005/ridekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ridekeeper/internal/server/services"

	gs "github.com/dmitrijs2005/ridekeeper/internal/server/grpc"
)

// openPostgres is replaced in tests.
var openPostgres = repomanager.Open

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	docs     *services.DocumentService
	auth     *auth.Authenticator
	backend  string
	stopOnce sync.Once
}

// NewApp opens storage and builds the services. With an empty DSN the
// documents live in memory.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger.With("module", "app")}

	var repo documents.Repository
	if c.DatabaseDSN == "" {
		app.backend = "memory"
		repo = documents.NewMemoryRepository()
	} else {
		m := repomanager.NewPostgresRepositoryManager()
		db, err := openPostgres(ctx, c.DatabaseDSN, m)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.backend = "postgres"
		app.db = db
		repo = m.Documents(db)
	}

	a, err := auth.NewAuthenticator(c.Clients, c.SecretKey, c.AccessTokenValidityDuration)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("api clients: %w", err)
	}
	if len(c.Clients) == 0 {
		app.logger.Warn(ctx, "no API clients configured, every login will be rejected")
	}

	app.auth = a
	app.docs = services.NewDocumentService(repo, broker.New(), logger)
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.docs, app.auth)
	return s.Run(ctx)
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.backend)

	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.startGRPCServer(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()
	app.Close()

	return runErr
}

func (app *App) Close() {
	app.stopOnce.Do(func() {
		if app.db != nil {
			if err := app.db.Close(); err != nil {
				app.logger.Error(context.Background(), "closing database", "error", err)
			}
		}
	})
}
