package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aquataze/tool-gateway/internal/api"
)

// TokenRecordName is the fixed logical name of the singleton token row.
const TokenRecordName = "tokenStore"

// Connector hands out the shared database handle. *dbconn.Connector satisfies it.
type Connector interface {
	Connect(ctx context.Context) (*sql.DB, error)
}

// DatabaseStore keeps the latest record as one row of token_store. Every call
// obtains its handle through the Connector, so connection failures surface as
// api.ErrConnectionExhausted after the connector's retry budget.
type DatabaseStore struct {
	conn Connector
	name string
}

var _ Store = (*DatabaseStore)(nil)

// NewDatabaseStore creates a store for the singleton row named TokenRecordName.
func NewDatabaseStore(conn Connector) *DatabaseStore {
	return &DatabaseStore{conn: conn, name: TokenRecordName}
}

func (s *DatabaseStore) Get(ctx context.Context) (*Record, error) {
	db, err := s.conn.Connect(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT token, issued_at, expires_at
		FROM token_store
		WHERE name = $1
	`
	rec := &Record{}
	if err := db.QueryRowContext(ctx, query, s.name).Scan(&rec.Token, &rec.IssuedAt, &rec.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: db error: %w", api.ErrPersistence, err)
	}
	return rec, nil
}

func (s *DatabaseStore) Put(ctx context.Context, rec Record) error {
	db, err := s.conn.Connect(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO token_store (name, token, issued_at, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name) DO UPDATE
		SET token = EXCLUDED.token, issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at, updated_at = now()
	`
	if _, err := db.ExecContext(ctx, query, s.name, rec.Token, rec.IssuedAt, rec.ExpiresAt); err != nil {
		return fmt.Errorf("%w: error performing sql request: %w", api.ErrPersistence, err)
	}
	return nil
}
