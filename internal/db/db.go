package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"

	"github.com/crucial707/authsvc/internal/config"
	"github.com/crucial707/authsvc/internal/metrics"
)

// ErrStoreUnavailable means no connection could be established within the retry policy.
var ErrStoreUnavailable = errors.New("store unavailable")

// ==========================
// Manager
// ==========================

// attemptPolicy pairs a retry schedule with the deadline of each attempt.
type attemptPolicy struct {
	retry   RetryPolicy
	timeout time.Duration
}

// Manager hands out one connection per unit of work. Connections come from the
// database/sql pool; callers must Close every connection they receive.
//
// Startup and request connections retry on separate schedules: startup may wait
// out a slow database, while a request must answer within the HTTP write deadline.
type Manager struct {
	db      *sql.DB
	request attemptPolicy
	startup attemptPolicy
}

// NewManager wraps an already opened handle, using policy for both startup and
// request connections. attemptTimeout bounds each attempt; zero disables it.
func NewManager(db *sql.DB, policy RetryPolicy, attemptTimeout time.Duration) *Manager {
	p := attemptPolicy{retry: policy, timeout: attemptTimeout}
	return &Manager{db: db, request: p, startup: p}
}

// WithStartupPolicy replaces the schedule used by ConnectStartup.
func (m *Manager) WithStartupPolicy(policy RetryPolicy, attemptTimeout time.Duration) *Manager {
	m.startup = attemptPolicy{retry: policy, timeout: attemptTimeout}
	return m
}

// RequestBudget is the longest a request can spend acquiring a connection.
func (m *Manager) RequestBudget() time.Duration {
	return m.request.retry.Budget(m.request.timeout)
}

// Open prepares the pool described by cfg. No connection is made until Connect.
func Open(cfg config.Config) (*Manager, error) {
	db, err := sql.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)

	request := RetryPolicy{MaxAttempts: cfg.DBRequestAttempts, BaseDelay: cfg.DBRequestBackoff}
	startup := RetryPolicy{MaxAttempts: cfg.DBConnectAttempts, BaseDelay: cfg.DBConnectBackoff}
	return NewManager(db, request, cfg.DBRequestTimeout).WithStartupPolicy(startup, cfg.DBConnectTimeout), nil
}

// ==========================
// Connect
// ==========================

// Connect returns a live connection for one request, retrying on the request schedule.
// When every attempt fails the error wraps ErrStoreUnavailable and the last driver error.
func (m *Manager) Connect(ctx context.Context) (*sql.Conn, error) {
	return m.connect(ctx, m.request)
}

// ConnectStartup is Connect on the startup schedule (5 attempts, 1s, 2s, 4s, 8s by default).
func (m *Manager) ConnectStartup(ctx context.Context) (*sql.Conn, error) {
	return m.connect(ctx, m.startup)
}

func (m *Manager) connect(ctx context.Context, p attemptPolicy) (*sql.Conn, error) {
	var (
		conn    *sql.Conn
		attempt int
	)

	schedule := p.retry.Backoff()
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		wait, stop := schedule.Next()
		if !stop {
			slog.WarnContext(ctx, "retrying database connection",
				"attempt", attempt,
				"max_attempts", p.retry.MaxAttempts,
				"wait", wait)
		}
		return wait, stop
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c, err := m.open(ctx, p.timeout)
		if err != nil {
			metrics.IncStoreConnectAttempts("failure")
			slog.WarnContext(ctx, "database connection failed",
				"attempt", attempt,
				"max_attempts", p.retry.MaxAttempts,
				"error", err)
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempt(s): %w", ErrStoreUnavailable, attempt, err)
	}

	metrics.IncStoreConnectAttempts("success")
	return conn, nil
}

func (m *Manager) open(ctx context.Context, timeout time.Duration) (*sql.Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// WithConn runs fn on a fresh connection and always releases it, whatever fn returns.
func (m *Manager) WithConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := m.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(conn)
}

// Close releases the underlying pool.
func (m *Manager) Close() error {
	return m.db.Close()
}
