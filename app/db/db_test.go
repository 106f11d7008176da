package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-food-course-suggestions/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDatabaseConfig(t *testing.T) {
	var cfg config.Config
	cfg.Repositories.Postgres.Host = "db"
	cfg.Repositories.Postgres.Port = "5432"
	cfg.Repositories.Postgres.Username = "postgres"
	cfg.Repositories.Postgres.Password = "p@ss word"
	cfg.Repositories.Postgres.DB = "food_courses"

	dbCfg, err := NewDatabaseConfig(&cfg, discardLogger())
	require.NoError(t, err)

	u, err := url.Parse(dbCfg.ConnectionURL)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", u.Scheme)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/food_courses", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, 10*time.Second, dbCfg.ConnectTimeout)

	cfg.Repositories.Postgres.MAXCONWAITINGTIME = 3
	dbCfg, err = NewDatabaseConfig(&cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, dbCfg.ConnectTimeout)

	_, err = NewDatabaseConfig(&config.Config{}, discardLogger())
	assert.Error(t, err)
}

type fakePinger struct {
	failures int
	calls    int
}

func (f *fakePinger) Ping(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForDB(t *testing.T) {
	t.Run("succeeds after retries", func(t *testing.T) {
		p := &fakePinger{failures: 2}
		assert.True(t, WaitForDB(context.Background(), p, discardLogger()))
		assert.Equal(t, 3, p.calls)
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := &fakePinger{failures: defaultRetries}
		assert.False(t, WaitForDB(ctx, p, discardLogger()))
		assert.Equal(t, 1, p.calls)
	})
}

func TestRunMigrations_RejectsScheme(t *testing.T) {
	err := RunMigrations("mysql://localhost/db", discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database URL scheme")
}
