// Package database manages the MySQL connection behind the run-history store.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/logger"
)

// OpenFunc opens a database handle for a DSN. It matches sql.Open with the
// driver name bound.
type OpenFunc func(dsn string) (*sql.DB, error)

func openMySQL(dsn string) (*sql.DB, error) {
	return sql.Open("mysql", dsn)
}

// Manager owns the store connection pool.
type Manager struct {
	DB *sql.DB

	config     *config.StoreConfig
	log        *logger.Logger
	open       OpenFunc
	maxRetries int
	backoff    time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithOpener replaces sql.Open, mainly so tests can hand out sqlmock handles.
func WithOpener(open OpenFunc) Option {
	return func(m *Manager) {
		if open != nil {
			m.open = open
		}
	}
}

// WithRetry sets the attempt count and the initial backoff, which doubles
// after every failed attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(m *Manager) {
		if attempts > 0 {
			m.maxRetries = attempts
		}
		if backoff >= 0 {
			m.backoff = backoff
		}
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(log *logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.StoreConfig, opts ...Option) *Manager {
	m := &Manager{
		config:     cfg,
		log:        logger.NewNop(),
		open:       openMySQL,
		maxRetries: 3,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens and pings the store database, retrying with exponential
// backoff.
func (m *Manager) Connect(ctx context.Context) error {
	if m.DB != nil {
		return nil
	}
	db, err := m.connectWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to store database: %w", err)
	}
	m.DB = db
	return nil
}

func (m *Manager) connectWithRetry(ctx context.Context) (*sql.DB, error) {
	var err error
	backoff := m.backoff

	for i := 0; i < m.maxRetries; i++ {
		var db *sql.DB
		db, err = m.connect()
		if err == nil {
			pingErr := db.PingContext(ctx)
			if pingErr == nil {
				return db, nil
			}
			_ = db.Close()
			err = pingErr
		}

		if i < m.maxRetries-1 {
			m.log.Warnw("Store connection failed, retrying",
				"attempt", i+1,
				"backoff", backoff.String(),
				"error", err,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", m.maxRetries, err)
}

func (m *Manager) connect() (*sql.DB, error) {
	db, err := m.open(BuildDSN(m.config))
	if err != nil {
		return nil, err
	}

	if m.config.MaxConnections > 0 {
		db.SetMaxOpenConns(m.config.MaxConnections)
	}
	if m.config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a MySQL DSN from store configuration.
func BuildDSN(cfg *config.StoreConfig) string {
	// user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// Close closes the pool. It is safe to call on an unconnected manager.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	err := m.DB.Close()
	m.DB = nil
	if err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	return nil
}

// ErrNotConnected is returned by Ping before Connect succeeds.
var ErrNotConnected = errors.New("store database not connected")

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB == nil {
		return ErrNotConnected
	}
	if err := m.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}
