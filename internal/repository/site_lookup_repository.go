package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/rackplan/internal/database"
)

// SiteLookupRepository persists completed geocoder and hazard lookups so a
// restart does not repeat them. Payloads are opaque JSON.
type SiteLookupRepository interface {
	// Get returns the payload for key. Returns nil, nil if the key is missing
	// or expired (not an error).
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores payload under key. A live entry is never overwritten; an
	// expired one is replaced.
	Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error

	// PurgeExpired deletes expired rows and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}

type siteLookupRepository struct {
	db  *database.Database
	now func() time.Time
}

// NewSiteLookupRepository creates a new instance of SiteLookupRepository.
func NewSiteLookupRepository(db *database.Database) SiteLookupRepository {
	return &siteLookupRepository{
		db:  db,
		now: time.Now,
	}
}

const getLookupSQL = `
	SELECT payload
	FROM site_lookups
	WHERE cache_key = $1 AND expires_at > $2
`

// Get reads a live entry.
func (r *siteLookupRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx, getLookupSQL, key, r.now()).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read site lookup %q: %w", key, err)
	}
	return payload, nil
}

// Only an expired row may be replaced, so concurrent writers across
// instances still see the first commit win.
const putLookupSQL = `
	INSERT INTO site_lookups (id, cache_key, payload, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (cache_key) DO UPDATE
	SET id = EXCLUDED.id,
		payload = EXCLUDED.payload,
		created_at = EXCLUDED.created_at,
		expires_at = EXCLUDED.expires_at
	WHERE site_lookups.expires_at <= EXCLUDED.created_at
`

// Put writes an entry.
func (r *siteLookupRepository) Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	if _, err := r.db.Pool.Exec(ctx, putLookupSQL, uuid.New(), key, payload, r.now(), expiresAt); err != nil {
		return fmt.Errorf("failed to store site lookup %q: %w", key, err)
	}
	return nil
}

const purgeLookupSQL = `DELETE FROM site_lookups WHERE expires_at <= $1`

// PurgeExpired removes expired rows.
func (r *siteLookupRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, purgeLookupSQL, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge site lookups: %w", err)
	}
	return tag.RowsAffected(), nil
}
