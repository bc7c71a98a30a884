// In file: internal/credential/record.go

// Package credential manages the short-lived bearer token used to authorize
// uploads. A Manager reads the current token from a chosen Store, refreshes it
// through an Issuer when it is missing or close to expiry, and persists the
// replacement before handing it back.
package credential

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aquataze/tool-gateway/internal/api"
)

// DefaultRefreshBuffer is how long before expiry a token is already treated as stale.
const DefaultRefreshBuffer = 300 * time.Second

// Record is one issued token with its validity window in epoch seconds.
// Records are replaced wholesale on refresh and never deleted.
type Record struct {
	Token     string `json:"token"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Validate checks the invariants every issued record must satisfy.
func (r Record) Validate() error {
	if r.Token == "" {
		return fmt.Errorf("empty token: %w", api.ErrIssuerUnavailable)
	}
	if r.ExpiresAt <= r.IssuedAt {
		return fmt.Errorf("token expiresAt %d is not after issuedAt %d: %w", r.ExpiresAt, r.IssuedAt, api.ErrIssuerUnavailable)
	}
	return nil
}

// IsStale reports whether r must be refreshed at now. A nil or empty record is
// always stale, and so is any token whose expiry falls inside buffer.
func (r *Record) IsStale(now time.Time, buffer time.Duration) bool {
	if r == nil || r.Token == "" || r.ExpiresAt == 0 {
		return true
	}
	return now.Unix() >= r.ExpiresAt-int64(buffer/time.Second)
}

// Store is the persistence contract every backend implements. Get returns
// (nil, nil) when no record has been stored yet.
type Store interface {
	Get(ctx context.Context) (*Record, error)
	Put(ctx context.Context, rec Record) error
}

// Backend selects which Store a call goes to.
type Backend int

const (
	Memory Backend = iota + 1
	Disk
	Database
	Redis
)

var backendNames = map[Backend]string{
	Memory:   "MEMORY",
	Disk:     "DISK",
	Database: "DATABASE",
	Redis:    "REDIS",
}

func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend converts a configuration string such as "database" into a Backend.
func ParseBackend(s string) (Backend, error) {
	for b, name := range backendNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown token backend %q: %w", s, api.ErrInvalidArgument)
}
