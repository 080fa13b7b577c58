package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"dropweight/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS weight_cache (
	category    TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	method      TEXT NOT NULL,
	payload     TEXT NOT NULL,
	computed_at TIMESTAMP NOT NULL,
	PRIMARY KEY (category, fingerprint, method)
)`

// Cache is a durable weight cache over any sqlx-supported database. The
// upsert semantics make duplicate computation under concurrent callers
// harmless: last write wins, and both writes hold the same result.
type Cache struct {
	db *sqlx.DB
}

// NewCache creates a cache over an open database handle
func NewCache(db *sqlx.DB) *Cache {
	return &Cache{db: db}
}

// Migrate creates the cache table if it does not exist
func (c *Cache) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create weight_cache table: %w", err)
	}
	return nil
}

// Get returns the stored payload and whether the key was present
func (c *Cache) Get(ctx context.Context, key ports.WeightCacheKey) ([]byte, bool, error) {
	query := c.db.Rebind(`SELECT payload FROM weight_cache WHERE category = ? AND fingerprint = ? AND method = ?`)

	var payload string
	err := c.db.GetContext(ctx, &payload, query, key.Category, key.Fingerprint.String(), key.Method)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("weight cache lookup failed: %w", err)
	}
	return []byte(payload), true, nil
}

// Put stores a payload, replacing any existing entry for the key
func (c *Cache) Put(ctx context.Context, key ports.WeightCacheKey, payload []byte) error {
	query := c.db.Rebind(`
		INSERT INTO weight_cache (category, fingerprint, method, payload, computed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (category, fingerprint, method)
		DO UPDATE SET payload = excluded.payload, computed_at = excluded.computed_at`)

	_, err := c.db.ExecContext(ctx, query, key.Category, key.Fingerprint.String(), key.Method, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("weight cache store failed: %w", err)
	}
	return nil
}
