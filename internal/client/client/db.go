package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/ridekeeper/internal/client/docstore"
	"github.com/dmitrijs2005/ridekeeper/internal/client/migrations"
	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/drivers"
	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/prefs"
	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/rides"
	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/ridekeeper/internal/filex"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Prefs   prefs.Repository
	Users   users.Repository
	Drivers drivers.Repository
	Rides   rides.Repository
}

func NewRepositories(db *sql.DB, store docstore.Store) *Repositories {
	return &Repositories{
		Prefs:   prefs.NewSQLiteRepository(db),
		Users:   users.NewStoreRepository(store),
		Drivers: drivers.NewStoreRepository(store),
		Rides:   rides.NewStoreRepository(store),
	}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite database at dsn and
// migrates it to the latest schema.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	path, err := filex.EnsureParentDir(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer keeps SQLite from reporting SQLITE_BUSY under concurrent commits
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return db, nil
}
