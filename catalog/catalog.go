// Package catalog stores hierarchy layout snapshots in a local SQLite
// database, keyed by content digest. The lingen tool records a
// snapshot per accepted layout and verifies later manifests against
// the most recent one.
package catalog

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/lineage/dist"
)

// ErrSnapshotNotFound indicates the requested snapshot doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Catalog is a snapshot store backed by SQLite.
type Catalog struct {
	db *sql.DB
	mu sync.Mutex
}

// Entry summarizes one stored snapshot.
type Entry struct {
	Digest  string
	Package string
	TakenAt time.Time
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		hash     TEXT PRIMARY KEY,
		package  TEXT NOT NULL,
		taken_at INTEGER NOT NULL,
		data     BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

// Put stores a snapshot keyed by its digest. Storing a layout that is
// already present is a no-op; added reports whether a new row was
// written.
func (c *Catalog) Put(s *dist.Snapshot) (digest [32]byte, added bool, err error) {
	digest, err = s.Digest()
	if err != nil {
		return digest, false, fmt.Errorf("hashing snapshot: %w", err)
	}
	data, err := dist.Marshal(s)
	if err != nil {
		return digest, false, fmt.Errorf("encoding snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec(
		`INSERT OR IGNORE INTO snapshots (hash, package, taken_at, data) VALUES (?, ?, ?, ?)`,
		hex.EncodeToString(digest[:]), s.Package, time.Now().Unix(), data,
	)
	if err != nil {
		return digest, false, fmt.Errorf("storing snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return digest, false, fmt.Errorf("storing snapshot: %w", err)
	}
	return digest, n > 0, nil
}

// Get loads a snapshot by digest. Returns ErrSnapshotNotFound if no
// such layout was stored.
func (c *Catalog) Get(digest [32]byte) (*dist.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var data []byte
	err := c.db.QueryRow(
		`SELECT data FROM snapshots WHERE hash = ?`,
		hex.EncodeToString(digest[:]),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return dist.Unmarshal(data)
}

// Latest loads the most recently stored snapshot for a package.
// Returns ErrSnapshotNotFound if the package has none.
func (c *Catalog) Latest(pkg string) (*dist.Snapshot, [32]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hash string
	var data []byte
	err := c.db.QueryRow(
		`SELECT hash, data FROM snapshots WHERE package = ? ORDER BY taken_at DESC, rowid DESC LIMIT 1`,
		pkg,
	).Scan(&hash, &data)
	if err == sql.ErrNoRows {
		return nil, [32]byte{}, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("loading latest snapshot: %w", err)
	}

	var digest [32]byte
	raw, err := hex.DecodeString(hash)
	if err != nil || len(raw) != len(digest) {
		return nil, [32]byte{}, fmt.Errorf("corrupt snapshot hash %q", hash)
	}
	copy(digest[:], raw)

	s, err := dist.Unmarshal(data)
	if err != nil {
		return nil, [32]byte{}, err
	}
	return s, digest, nil
}

// History lists stored snapshots for a package, newest first.
func (c *Catalog) History(pkg string) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(
		`SELECT hash, package, taken_at FROM snapshots WHERE package = ? ORDER BY taken_at DESC, rowid DESC`,
		pkg,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.Digest, &e.Package, &at); err != nil {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}
		e.TakenAt = time.Unix(at, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
