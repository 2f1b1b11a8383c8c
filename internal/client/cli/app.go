package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/ridekeeper/internal/client/client"
	"github.com/dmitrijs2005/ridekeeper/internal/client/config"
	"github.com/dmitrijs2005/ridekeeper/internal/client/docstore"
	"github.com/dmitrijs2005/ridekeeper/internal/client/media"
	"github.com/dmitrijs2005/ridekeeper/internal/client/overrides"
	"github.com/dmitrijs2005/ridekeeper/internal/client/services"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// secretSetter is implemented by docstore.GRPCStore.
type secretSetter interface {
	SetSecret(secret string)
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	remote  services.Remote
	secrets secretSetter
	session *services.Session
	repos   *client.Repositories
	cache   *overrides.Cache
	status  *services.UserStatus
	photos  *services.Photos // nil when S3 is not configured

	mu       sync.Mutex
	mode     Mode
	loggedIn bool

	out io.Writer
}

// NewApp opens the local database and wires the remote store, the
// overrides cache and the services on top of it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	remote, err := docstore.NewGRPCStore(c.ServerEndpointAddr, c.ClientID, c.ClientSecret, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var store docstore.Store = remote
	if c.CacheTTL > 0 {
		store = docstore.NewCached(remote, c.CacheTTL)
	}

	var photos services.PhotoStorage
	if c.S3Bucket != "" {
		m, err := media.New(ctx, media.Config{
			Region:    c.S3Region,
			Endpoint:  c.S3BaseEndpoint,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
		if err != nil {
			logger.Warn(ctx, "photo storage disabled", "error", err)
		} else {
			photos = m
		}
	}

	a := newApp(ctx, c, logger, db, store, remote, photos)
	a.secrets = remote
	return a, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB,
	store docstore.Store, remote services.Remote, photos services.PhotoStorage) *App {

	repos := client.NewRepositories(db, store)
	cache := overrides.NewCache(ctx, repos.Prefs, logger)

	a := &App{
		config:  c,
		logger:  logger.With("module", "cli"),
		db:      db,
		remote:  remote,
		session: services.NewSession(remote, logger),
		repos:   repos,
		cache:   cache,
		status:  services.NewUserStatus(repos.Users, cache, logger),
		mode:    ModeOffline,
		out:     os.Stdout,
	}
	if photos != nil {
		a.photos = services.NewPhotos(repos.Users, photos, logger)
	}
	return a
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "switched mode", "mode", mode)
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

// Run logs in, starts the connectivity watcher and blocks in the REPL until
// the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.Login(ctx, nil); err != nil && !errors.Is(err, docstore.ErrUnavailable) {
		a.logger.Warn(ctx, "initial login failed", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.session.Watch(ctx, a.config.OnlineCheckInterval, func(online bool) {
		if online {
			a.setMode(ModeOnline)
		} else {
			a.setMode(ModeOffline)
		}
	})

	a.Root(ctx)
	return nil
}

func (a *App) Close() {
	if err := a.session.Close(); err != nil {
		a.logger.Warn(context.Background(), "close remote", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "close database", "error", err)
		}
	}
}
