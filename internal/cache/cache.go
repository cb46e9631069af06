// Package cache persists translations across runs so identical source texts
// never hit a translation backend twice. Lookups are served from memory;
// writes go through to a SQLite file whose failures are logged, never fatal.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/pofactory/po-translator/pkg/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Cache is the persistent translation store. Safe for concurrent use.
type Cache struct {
	mu   sync.RWMutex
	mem  map[string]string
	db   *sql.DB
	path string
}

// Open loads or creates the cache database at path, applying any pending
// schema migrations and pulling every stored row into memory.
func Open(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Cache{mem: make(map[string]string), db: db, path: path}
	if err := c.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := c.loadAll(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Path returns the database file location.
func (c *Cache) Path() string { return c.path }

// Get looks up the translation stored for (text, context). Empty stored
// translations count as misses so a bad write can never poison lookups.
func (c *Cache) Get(text, context string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.mem[memKey(text, context)]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Set stores a translation for (text, context). The in-memory view is
// updated first; a failed database write is logged and otherwise ignored.
func (c *Cache) Set(text, translation, context string) {
	c.mu.Lock()
	c.mem[memKey(text, context)] = translation
	c.mu.Unlock()

	_, err := c.db.Exec(`INSERT INTO translation_cache (key, source, direction, context, translation)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			translation = excluded.translation,
			updated_at = CURRENT_TIMESTAMP`,
		dbKey(text, context), text, direction(context), context, translation)
	if err != nil {
		log.Warn("cache: persisting entry failed: %v", err)
	}
}

// Len reports how many translations are held.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

// Clear drops every stored translation, in memory and on disk.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem = make(map[string]string)
	if _, err := c.db.Exec(`DELETE FROM translation_cache`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) init(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var applied int
		if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if applied > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := c.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := c.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (c *Cache) loadAll(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx, `SELECT source, context, translation FROM translation_cache`)
	if err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for rows.Next() {
		var source, ctxStr, translation string
		if err := rows.Scan(&source, &ctxStr, &translation); err != nil {
			return fmt.Errorf("scan cache row: %w", err)
		}
		c.mem[memKey(source, ctxStr)] = translation
	}
	return rows.Err()
}

// memKey joins text and context with a separator that cannot occur in
// either, keeping ("a|b", "c") distinct from ("a", "b|c").
func memKey(text, context string) string {
	return text + "\x00" + context
}

// dbKey is the stable primary key for a (text, context) pair.
func dbKey(text, context string) string {
	sum := sha256.Sum256([]byte(memKey(text, context)))
	return hex.EncodeToString(sum[:])
}

// direction pulls the "src→dst" prefix out of a composite context string,
// purely so stored rows can be grouped by language pair.
func direction(context string) string {
	if d, _, ok := strings.Cut(context, "|"); ok && strings.Contains(d, "→") {
		return d
	}
	return ""
}

// migrationVersion parses the numeric prefix of a migration filename.
func migrationVersion(name string) int {
	digits := strings.Builder{}
	for _, r := range name {
		if r < '0' || r > '9' {
			break
		}
		digits.WriteRune(r)
	}
	if digits.Len() == 0 {
		return 0
	}
	v, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return v
}
