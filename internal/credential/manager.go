package credential

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aquataze/tool-gateway/internal/api"
)

// Manager hands out usable bearer tokens from the backend chosen per call.
// It holds no token state of its own; the stores do.
type Manager struct {
	stores map[Backend]Store
	issuer TokenIssuer
	buffer time.Duration
	now    func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithStore registers the Store used for backend b.
func WithStore(b Backend, s Store) ManagerOption {
	return func(m *Manager) { m.stores[b] = s }
}

// WithRefreshBuffer overrides DefaultRefreshBuffer.
func WithRefreshBuffer(d time.Duration) ManagerOption {
	return func(m *Manager) { m.buffer = d }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager that refreshes through issuer.
func NewManager(issuer TokenIssuer, opts ...ManagerOption) *Manager {
	m := &Manager{
		stores: make(map[Backend]Store),
		issuer: issuer,
		buffer: DefaultRefreshBuffer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetToken returns a token from backend that is valid for at least the refresh
// buffer, refreshing and persisting a new one when needed.
//
// No lock spans the read-check-issue-write sequence. Two callers that both see
// a stale record will both refresh and both write; the last write wins and
// each caller still gets its own valid token. The cost is a redundant issuer
// call, which is accepted over serializing every upload.
func (m *Manager) GetToken(ctx context.Context, backend Backend) (string, error) {
	store, ok := m.stores[backend]
	if !ok {
		return "", fmt.Errorf("token backend %s is not configured: %w", backend, api.ErrInvalidArgument)
	}

	current, err := store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read %s token: %w", backend, err)
	}
	if !current.IsStale(m.now(), m.buffer) {
		return current.Token, nil
	}

	fresh, err := m.issuer.Issue(ctx)
	if err != nil {
		return "", fmt.Errorf("refresh %s token: %w", backend, err)
	}
	if fresh.IsStale(m.now(), m.buffer) {
		return "", fmt.Errorf("issued token expires at %d, inside the %s refresh buffer: %w", fresh.ExpiresAt, m.buffer, api.ErrIssuerUnavailable)
	}

	if err := store.Put(ctx, fresh); err != nil {
		return "", fmt.Errorf("persist %s token: %w", backend, err)
	}
	log.Printf("🔑 Refreshed upload token in %s store (expires %s)", backend, time.Unix(fresh.ExpiresAt, 0).UTC().Format(time.RFC3339))
	return fresh.Token, nil
}

// Backends lists the backends this manager can serve.
func (m *Manager) Backends() []Backend {
	out := make([]Backend, 0, len(m.stores))
	for _, b := range []Backend{Memory, Disk, Database, Redis} {
		if _, ok := m.stores[b]; ok {
			out = append(out, b)
		}
	}
	return out
}
