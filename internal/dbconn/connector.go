// In file: internal/dbconn/connector.go

// Package dbconn owns the gateway's single database connection. A Connector is
// built once in main, handed to every consumer, and opens the connection lazily
// on first use with a bounded, linearly backed-off retry.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aquataze/tool-gateway/internal/api"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	// DefaultMaxAttempts is the connection budget used when none is configured.
	DefaultMaxAttempts = 5
	// DefaultRetryStep is multiplied by the 1-indexed attempt number to get the wait.
	DefaultRetryStep = 1 * time.Second
)

// OpenFunc opens and verifies a connection for dsn.
type OpenFunc func(ctx context.Context, dsn string) (*sql.DB, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ConnectionExhaustedError reports that every connection attempt failed.
// It matches api.ErrConnectionExhausted and unwraps to the last attempt's error.
type ConnectionExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ConnectionExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", api.ErrConnectionExhausted, e.Attempts, e.Err)
}

func (e *ConnectionExhaustedError) Unwrap() []error {
	return []error{api.ErrConnectionExhausted, e.Err}
}

// Connector memoizes the first successful connection for the life of the
// process. Later calls return the cached handle without re-checking it, so a
// connection that breaks afterwards surfaces as query errors until restart.
type Connector struct {
	dsn         string
	maxAttempts int
	step        time.Duration
	open        OpenFunc
	sleep       SleepFunc

	mu      sync.Mutex
	db      *sql.DB
	pending *round
}

// round is one in-flight connection attempt sequence shared by concurrent callers.
type round struct {
	done chan struct{}
	db   *sql.DB
	err  error
}

// Option customizes a Connector.
type Option func(*Connector)

// WithMaxAttempts overrides the connection budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *Connector) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryStep overrides the per-attempt backoff unit.
func WithRetryStep(d time.Duration) Option {
	return func(c *Connector) { c.step = d }
}

// WithOpenFunc replaces the pgx opener, mainly for tests.
func WithOpenFunc(fn OpenFunc) Option {
	return func(c *Connector) { c.open = fn }
}

// WithSleepFunc replaces the backoff wait, mainly for tests.
func WithSleepFunc(fn SleepFunc) Option {
	return func(c *Connector) { c.sleep = fn }
}

// NewConnector creates a Connector for dsn. No connection is attempted here.
func NewConnector(dsn string, opts ...Option) *Connector {
	c := &Connector{
		dsn:         dsn,
		maxAttempts: DefaultMaxAttempts,
		step:        DefaultRetryStep,
		open:        openPostgres,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect returns the memoized handle, establishing it on the first call.
// Attempt i (1-indexed) that fails is followed by a wait of i × step. Failed
// rounds are not memoized, so a later call starts a fresh budget.
//
// Only one round runs at a time. The caller that starts it drives it with its
// own ctx; callers arriving meanwhile wait for its outcome but give up as soon
// as their own ctx is done. The mutex is never held across a dial or a wait.
func (c *Connector) Connect(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	if c.db != nil {
		db := c.db
		c.mu.Unlock()
		return db, nil
	}
	if r := c.pending; r != nil {
		c.mu.Unlock()
		select {
		case <-r.done:
			return r.db, r.err
		case <-ctx.Done():
			return nil, &ConnectionExhaustedError{Err: ctx.Err()}
		}
	}
	r := &round{done: make(chan struct{})}
	c.pending = r
	c.mu.Unlock()

	r.db, r.err = c.dial(ctx)

	c.mu.Lock()
	if r.err == nil {
		c.db = r.db
	}
	c.pending = nil
	c.mu.Unlock()
	close(r.done)
	return r.db, r.err
}

func (c *Connector) dial(ctx context.Context) (*sql.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		db, err := c.open(ctx, c.dsn)
		if err == nil {
			if attempt > 1 {
				log.Printf("✅ Database connected on attempt %d/%d", attempt, c.maxAttempts)
			}
			return db, nil
		}
		lastErr = err
		log.Printf("⚠️ Database connection attempt %d/%d failed: %v", attempt, c.maxAttempts, err)

		if attempt < c.maxAttempts {
			if err := c.sleep(ctx, time.Duration(attempt)*c.step); err != nil {
				return nil, &ConnectionExhaustedError{Attempts: attempt, Err: err}
			}
		}
	}
	return nil, &ConnectionExhaustedError{Attempts: c.maxAttempts, Err: lastErr}
}

// Close releases the memoized connection, if any. Only main calls this, at shutdown.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
