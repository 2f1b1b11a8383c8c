package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ridekeeper/internal/logging"
	"github.com/dmitrijs2005/ridekeeper/internal/server/auth"
	"github.com/dmitrijs2005/ridekeeper/internal/server/config"
	"github.com/dmitrijs2005/ridekeeper/internal/server/repositories/repomanager"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := auth.HashSecret("s3cret")
	require.NoError(t, err)

	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.DatabaseDSN = ""
	c.Clients = map[string]string{"mobile": hash}
	return c
}

func TestNewApp_Memory(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "memory", app.backend)
	assert.Nil(t, app.db)
}

func TestNewApp_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	orig := openPostgres
	t.Cleanup(func() { openPostgres = orig })
	var gotDSN string
	openPostgres = func(_ context.Context, dsn string, _ repomanager.RepositoryManager) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	}

	c := testConfig(t)
	c.DatabaseDSN = "postgres://localhost/ridekeeper"

	app, err := NewApp(context.Background(), c, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "postgres", app.backend)
	assert.Equal(t, c.DatabaseDSN, gotDSN)

	app.Close()
	app.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_Errors(t *testing.T) {
	orig := openPostgres
	t.Cleanup(func() { openPostgres = orig })
	openPostgres = func(context.Context, string, repomanager.RepositoryManager) (*sql.DB, error) {
		return nil, errors.New("connection refused")
	}

	c := testConfig(t)
	c.DatabaseDSN = "postgres://localhost/ridekeeper"
	_, err := NewApp(context.Background(), c, logging.Discard())
	assert.ErrorContains(t, err, "db init error")

	c = testConfig(t)
	c.Clients = map[string]string{"mobile": "plain-text"}
	_, err = NewApp(context.Background(), c, logging.Discard())
	assert.ErrorContains(t, err, "api clients")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestApp_RunReportsListenError(t *testing.T) {
	c := testConfig(t)
	c.EndpointAddrGRPC = "127.0.0.1:99999"
	app, err := NewApp(context.Background(), c, logging.Discard())
	require.NoError(t, err)

	assert.Error(t, app.Run(context.Background()))
}
