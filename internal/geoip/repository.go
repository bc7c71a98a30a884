package geoip

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aquataze/tool-gateway/internal/api"
)

// Connector hands out the shared database handle.
type Connector interface {
	Connect(ctx context.Context) (*sql.DB, error)
}

// Repository persists records in the ip_lookup_cache table as JSONB.
type Repository interface {
	Find(ctx context.Context, ip string) (*storedRecord, error)
	Upsert(ctx context.Context, ip string, rec *storedRecord) error
}

// PostgresRepository is the Repository backed by the gateway database.
type PostgresRepository struct {
	conn Connector
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(conn Connector) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// Find returns (nil, nil) when ip has never been stored.
func (r *PostgresRepository) Find(ctx context.Context, ip string) (*storedRecord, error) {
	db, err := r.conn.Connect(ctx)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = db.QueryRowContext(ctx, `SELECT record FROM ip_lookup_cache WHERE ip = $1`, ip).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %w", api.ErrPersistence, err)
	}

	rec := &storedRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("%w: decode cached record for %s: %w", api.ErrPersistence, ip, err)
	}
	return rec, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, ip string, rec *storedRecord) error {
	db, err := r.conn.Connect(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record: %w", api.ErrPersistence, err)
	}

	query := `
		INSERT INTO ip_lookup_cache (ip, record, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (ip) DO UPDATE SET record = EXCLUDED.record
	`
	if _, err := db.ExecContext(ctx, query, ip, raw); err != nil {
		return fmt.Errorf("%w: error performing sql request: %w", api.ErrPersistence, err)
	}
	return nil
}
