package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/assetprof/internal/config"
)

func storeConfig() *config.StoreConfig {
	return &config.StoreConfig{
		Enabled:            true,
		Host:               "db.internal",
		Port:               3306,
		User:               "prof",
		Password:           "secret",
		Database:           "assets",
		TLS:                "preferred",
		Table:              "assetprof_runs",
		MaxConnections:     4,
		MaxIdleConnections: 2,
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		tls      string
		expected string
	}{
		{"preferred", "preferred", "prof:secret@tcp(db.internal:3306)/assets?parseTime=true&tls=preferred"},
		{"default", "", "prof:secret@tcp(db.internal:3306)/assets?parseTime=true&tls=preferred"},
		{"disable", "disable", "prof:secret@tcp(db.internal:3306)/assets?parseTime=true&tls=false"},
		{"required", "required", "prof:secret@tcp(db.internal:3306)/assets?parseTime=true&tls=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := storeConfig()
			cfg.TLS = tt.tls
			if got := BuildDSN(cfg); got != tt.expected {
				t.Errorf("BuildDSN() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestManager_Connect(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	mock.ExpectPing()
	mock.ExpectClose()

	var gotDSN string
	m := NewManager(storeConfig(), WithOpener(func(dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return db, nil
	}))

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, BuildDSN(storeConfig()), gotDSN)
	assert.Same(t, db, m.DB)

	require.NoError(t, m.Ping(context.Background()))
	require.NoError(t, m.Close())
	assert.Nil(t, m.DB)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_ConnectRetries(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	attempts := 0
	m := NewManager(storeConfig(),
		WithRetry(3, time.Millisecond),
		WithOpener(func(string) (*sql.DB, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("connection refused")
			}
			return db, nil
		}),
	)

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 3, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_ConnectGivesUp(t *testing.T) {
	attempts := 0
	m := NewManager(storeConfig(),
		WithRetry(2, time.Millisecond),
		WithOpener(func(string) (*sql.DB, error) {
			attempts++
			return nil, errors.New("connection refused")
		}),
	)

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 retries")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 2, attempts)
	assert.Nil(t, m.DB)
}

func TestManager_ConnectPingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("access denied"))
	mock.ExpectClose()

	m := NewManager(storeConfig(),
		WithRetry(1, 0),
		WithOpener(func(string) (*sql.DB, error) { return db, nil }),
	)

	err = m.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_ConnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(storeConfig(),
		WithRetry(5, time.Hour),
		WithOpener(func(string) (*sql.DB, error) {
			cancel()
			return nil, errors.New("connection refused")
		}),
	)

	err := m.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_NotConnected(t *testing.T) {
	m := NewManager(storeConfig())
	assert.ErrorIs(t, m.Ping(context.Background()), ErrNotConnected)
	assert.NoError(t, m.Close())
}
