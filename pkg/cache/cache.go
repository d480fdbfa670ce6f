// Package cache stores compiled definitions in SQLite, keyed by a
// fingerprint of the preprocessed source and the compile settings.
package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"

	"ddlc/pkg/ddl"
)

var (
	// ErrNotFound is returned when no entry exists for a key.
	ErrNotFound = errors.New("cache entry not found")
	// ErrCorrupt is returned when a stored blob fails its digest or pointer check.
	ErrCorrupt = errors.New("cache entry corrupt")
)

var migrations = []struct {
	version string
	sql     string
}{
	{"001_blobs", `
		CREATE TABLE blobs (
			key        TEXT PRIMARY KEY,
			build_id   TEXT NOT NULL,
			digest     BLOB NOT NULL,
			data       BLOB NOT NULL,
			aggregates INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)
	`},
	{"002_blobs_created", `CREATE INDEX idx_blobs_created ON blobs (created_at)`},
}

// Entry is a cached compiled definition.
type Entry struct {
	Key        string
	BuildID    string
	Digest     [blake2b.Size256]byte
	Blob       []byte
	Aggregates uint32
	CreatedAt  time.Time
}

// Cache wraps a SQLite database connection.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path and applies migrations.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database.
func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		var n int
		if err := c.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.version).Scan(&n); err != nil {
			return fmt.Errorf("query migrations: %w", err)
		}
		if n > 0 {
			continue
		}

		tx, err := c.db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.version, err)
		}
	}
	return nil
}

// Key fingerprints preprocessed source together with a description of the
// compile settings. Different settings never share an entry.
func Key(src []byte, settings string) string {
	h := xxhash.New()
	h.WriteString(settings)
	h.Write([]byte{0})
	h.Write(src)
	var sum [8]byte
	return hex.EncodeToString(h.Sum(sum[:0]))
}

// Get returns the entry for key. A stored blob whose digest or pointers do
// not check out is removed and reported as ErrCorrupt.
func (c *Cache) Get(ctx context.Context, key string) (Entry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT key, build_id, digest, data, aggregates, created_at
		FROM blobs
		WHERE key = ?
	`, key)

	var (
		e      Entry
		digest []byte
	)
	err := row.Scan(&e.Key, &e.BuildID, &digest, &e.Blob, &e.Aggregates, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", key, err)
	}

	e.Digest = blake2b.Sum256(e.Blob)
	if len(digest) != len(e.Digest) || string(digest) != string(e.Digest[:]) {
		return Entry{}, c.evict(ctx, key, "digest mismatch")
	}
	if err := ddl.Verify(e.Blob); err != nil {
		return Entry{}, c.evict(ctx, key, err.Error())
	}
	return e, nil
}

func (c *Cache) evict(ctx context.Context, key, reason string) error {
	if err := c.Delete(ctx, key); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %s", ErrCorrupt, key, reason)
}

// Put stores a copy of def under key with a fresh build id, replacing any
// previous entry.
func (c *Cache) Put(ctx context.Context, key string, def ddl.Definition) (Entry, error) {
	e := Entry{
		Key:        key,
		BuildID:    uuid.New().String(),
		Blob:       append([]byte(nil), def.Bytes()...),
		Aggregates: def.NumAggregates(),
		CreatedAt:  time.Now().UTC(),
	}
	e.Digest = blake2b.Sum256(e.Blob)

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO blobs (key, build_id, digest, data, aggregates, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Key, e.BuildID, e.Digest[:], e.Blob, e.Aggregates, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("put %s: %w", key, err)
	}
	return e, nil
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Prune removes entries created before cutoff and returns how many went.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM blobs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return result.RowsAffected()
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
