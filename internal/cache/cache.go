// Package cache implements the incremental scan cache spec.md §5/§6
// describe as an implementation detail: a file content-hash keyed store of
// the analysis result produced for that file on its last run, so an
// unchanged file skips re-analysis entirely on the next invocation.
//
// The store itself is a single-table SQLite database opened through
// database/sql and modernc.org/sqlite's pure-Go driver — the teacher's own
// direct dependency, though the teacher's use of it is elsewhere in its
// build tooling; here it backs exactly the kind of small embedded
// key-value store SQLite is for. Content hashing uses xxhash, the 64-bit
// hash spec.md §5 names for the scan phase.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"
)

// ContentHash returns the 64-bit xxhash digest of a file's bytes, the key
// under which its cached Entry is stored.
func ContentHash(content []byte) uint64 {
	return xxhash.Sum64(content)
}

// IssueRecord is a serializable projection of diagnostics.Issue. The cache
// stores this rather than the live type to avoid round-tripping the
// lattice.Union pointer graphs the populator/flow analyzer build in
// memory — those are rebuilt fresh from source on any cache miss, so only
// the final, already-computed diagnostics need to survive a restart.
type IssueRecord struct {
	Severity    string   `json:"severity"`
	Code        string   `json:"code"`
	StartOffset uint32   `json:"start_offset"`
	EndOffset   uint32   `json:"end_offset"`
	Message     string   `json:"message"`
	Notes       []string `json:"notes,omitempty"`
	Help        string   `json:"help,omitempty"`
	DocURL      string   `json:"doc_url,omitempty"`
}

// Entry is everything cached for one source file.
type Entry struct {
	Hash uint64
	// Issues is the file's diagnostic result from its last analysis.
	Issues []IssueRecord
	// Symbols is the class/function names this file referenced, mirroring
	// populator.Codebase.RecordSymbolRef. The cache stores it as given;
	// the CLI leaves it empty and no code reads it to invalidate entries.
	Symbols []string
}

// Cache wraps a SQLite-backed key-value store, keyed by file path, of
// Entry values.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path, and ensures
// its schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS file_cache (
	path    TEXT PRIMARY KEY,
	hash    INTEGER NOT NULL,
	payload BLOB NOT NULL
);
`

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached Entry for path, if any. A zero-value, false,
// nil result means no entry is cached yet; callers still must compare the
// returned Entry's Hash against the file's current content hash, since a
// hit here only means "a cache row exists", not "it's still valid".
func (c *Cache) Get(path string) (*Entry, bool, error) {
	var hash int64
	var payload []byte
	err := c.db.QueryRow(`SELECT hash, payload FROM file_cache WHERE path = ?`, path).Scan(&hash, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cache for %s: %w", path, err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry for %s: %w", path, err)
	}
	entry.Hash = uint64(hash)
	return &entry, true, nil
}

// Put stores (overwriting any existing row) the Entry for path.
func (c *Cache) Put(path string, entry *Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry for %s: %w", path, err)
	}
	_, err = c.db.Exec(
		`INSERT INTO file_cache (path, hash, payload) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, payload = excluded.payload`,
		path, int64(entry.Hash), payload,
	)
	if err != nil {
		return fmt.Errorf("storing cache entry for %s: %w", path, err)
	}
	return nil
}

// Invalidate removes the cached entry for path, forcing re-analysis on the
// next run regardless of content hash.
func (c *Cache) Invalidate(path string) error {
	_, err := c.db.Exec(`DELETE FROM file_cache WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("invalidating cache entry for %s: %w", path, err)
	}
	return nil
}

// Clear removes every cached entry, the underlying operation for the CLI's
// "cache clear" subcommand.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM file_cache`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Count returns the number of cached entries, for the CLI's "cache
// inspect" subcommand.
func (c *Cache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM file_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
