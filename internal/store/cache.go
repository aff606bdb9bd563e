// Package store provides the content-addressed result cache: a pure
// memoization layer keyed by the source file's hash and dataset kind.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/oleoflores/planta-cli/internal/model"
)

// Cache persists serialized pipeline results in SQLite. A cached entry is
// byte-identical to a fresh computation; the cache never changes behavior,
// only avoids recomputation.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database and configures WAL mode.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS result_cache (
	id          TEXT PRIMARY KEY,
	source_hash TEXT NOT NULL,
	kind        TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (source_hash, kind)
);

CREATE INDEX IF NOT EXISTS idx_result_cache_hash ON result_cache(source_hash, kind);
`

func (c *Cache) migrate() error {
	_, err := c.db.Exec(migration)
	return eris.Wrap(err, "cache: migrate")
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// HashBytes returns the content hash used as cache key.
func HashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached dataset for (hash, kind), or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, hash, kind string) (*model.Dataset, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM result_cache WHERE source_hash = ? AND kind = ?`,
		hash, kind,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: get")
	}

	var ds model.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return nil, false, eris.Wrap(err, "cache: decode payload")
	}
	return &ds, true, nil
}

// Put stores a dataset under (hash, kind), replacing any previous entry.
func (c *Cache) Put(ctx context.Context, hash, kind string, ds *model.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return eris.Wrap(err, "cache: encode payload")
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO result_cache (id, source_hash, kind, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT (source_hash, kind) DO UPDATE SET payload = excluded.payload, created_at = datetime('now')`,
		uuid.NewString(), hash, kind, payload,
	)
	return eris.Wrap(err, "cache: put")
}

// Purge removes every cached result.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM result_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "cache: purge")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "cache: purge count")
}
