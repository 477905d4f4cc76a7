package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/rcliao/botman/internal/model"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite. Writes are serialized inside
// the process; reads run concurrently on WAL snapshots.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex
	cache   *wordCache
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(wal)&_pragma=synchronous(full)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, storageErr("open db", err)
	}

	cache, err := newWordCache()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:    db,
		path:  dbPath,
		cache: cache,
	}

	if err := s.migrate(); err != nil {
		cache.close()
		db.Close()
		return nil, storageErr("migrate", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY NOT NULL,
		value TEXT
	);

	CREATE TABLE IF NOT EXISTS words (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS edges (
		prev_id     INTEGER NOT NULL,
		next_id     INTEGER NOT NULL,
		occurrences INTEGER NOT NULL DEFAULT 1 CHECK (occurrences > 0),
		PRIMARY KEY (prev_id, next_id)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_next ON edges(next_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) reader() graphOps { return graphOps{q: s.db, cache: s.cache} }

func (s *SQLiteStore) InternWord(ctx context.Context, token string) (int64, error) {
	if id, ok := s.cache.id(token); ok {
		return id, nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	// Autocommit: the id is durable once returned, so it may be cached.
	id, err := graphOps{q: s.db}.InternWord(ctx, token)
	if err != nil {
		return 0, err
	}
	s.cache.put(id, token)
	return id, nil
}

func (s *SQLiteStore) LookupWordID(ctx context.Context, token string) (int64, bool, error) {
	return s.reader().LookupWordID(ctx, token)
}

func (s *SQLiteStore) ResolveWord(ctx context.Context, id int64) (string, bool, error) {
	return s.reader().ResolveWord(ctx, id)
}

func (s *SQLiteStore) BumpEdge(ctx context.Context, prev, next int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return graphOps{q: s.db}.BumpEdge(ctx, prev, next)
}

func (s *SQLiteStore) EdgesFrom(ctx context.Context, id int64) ([]model.Neighbor, error) {
	return s.reader().EdgesFrom(ctx, id)
}

func (s *SQLiteStore) EdgesTo(ctx context.Context, id int64) ([]model.Neighbor, error) {
	return s.reader().EdgesTo(ctx, id)
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(Graph) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback()

	// No cache: ids seen here are not committed yet.
	if err := fn(graphOps{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (s *SQLiteStore) View(ctx context.Context, fn func(Graph) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback()

	return fn(graphOps{q: tx, cache: s.cache})
}

func (s *SQLiteStore) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, storageErr("read settings", err)
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, storageErr("scan setting", err)
		}
		kv[key] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read settings", err)
	}
	return kv, nil
}

func (s *SQLiteStore) PutSetting(ctx context.Context, key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return storageErr("put setting", err)
}

func (s *SQLiteStore) Close() error {
	s.cache.close()
	return s.db.Close()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// graphOps runs the Graph queries against a connection or a transaction.
// cache is nil inside write transactions.
type graphOps struct {
	q     querier
	cache *wordCache
}

func (g graphOps) InternWord(ctx context.Context, token string) (int64, error) {
	_, err := g.q.ExecContext(ctx,
		`INSERT INTO words (token) VALUES (?) ON CONFLICT(token) DO NOTHING`, token)
	if err != nil {
		return 0, storageErr("insert word", err)
	}
	var id int64
	err = g.q.QueryRowContext(ctx, `SELECT id FROM words WHERE token = ?`, token).Scan(&id)
	if err != nil {
		return 0, storageErr("select word", err)
	}
	return id, nil
}

func (g graphOps) LookupWordID(ctx context.Context, token string) (int64, bool, error) {
	if id, ok := g.cache.id(token); ok {
		return id, true, nil
	}
	var id int64
	err := g.q.QueryRowContext(ctx, `SELECT id FROM words WHERE token = ?`, token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("lookup word", err)
	}
	g.cache.put(id, token)
	return id, true, nil
}

func (g graphOps) ResolveWord(ctx context.Context, id int64) (string, bool, error) {
	if id == model.Sentinel {
		return "", false, nil
	}
	if token, ok := g.cache.token(id); ok {
		return token, true, nil
	}
	var token string
	err := g.q.QueryRowContext(ctx, `SELECT token FROM words WHERE id = ?`, id).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("resolve word", err)
	}
	g.cache.put(id, token)
	return token, true, nil
}

func (g graphOps) BumpEdge(ctx context.Context, prev, next int64) error {
	_, err := g.q.ExecContext(ctx,
		`INSERT INTO edges (prev_id, next_id, occurrences) VALUES (?, ?, 1)
		 ON CONFLICT(prev_id, next_id) DO UPDATE SET occurrences = occurrences + 1`,
		prev, next)
	return storageErr("bump edge", err)
}

func (g graphOps) EdgesFrom(ctx context.Context, id int64) ([]model.Neighbor, error) {
	return g.neighbors(ctx,
		`SELECT e.next_id, w.token, e.occurrences
		 FROM edges e LEFT JOIN words w ON w.id = e.next_id
		 WHERE e.prev_id = ? ORDER BY e.rowid`, id)
}

func (g graphOps) EdgesTo(ctx context.Context, id int64) ([]model.Neighbor, error) {
	return g.neighbors(ctx,
		`SELECT e.prev_id, w.token, e.occurrences
		 FROM edges e LEFT JOIN words w ON w.id = e.prev_id
		 WHERE e.next_id = ? ORDER BY e.rowid`, id)
}

func (g graphOps) neighbors(ctx context.Context, query string, id int64) ([]model.Neighbor, error) {
	rows, err := g.q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, storageErr("query edges", err)
	}
	defer rows.Close()

	var out []model.Neighbor
	for rows.Next() {
		var n model.Neighbor
		var token sql.NullString
		if err := rows.Scan(&n.ID, &token, &n.Occurrences); err != nil {
			return nil, storageErr("scan edge", err)
		}
		// A non-sentinel id without a word row is treated as a boundary.
		if n.ID != model.Sentinel && !token.Valid {
			n.ID = model.Sentinel
		}
		n.Token = token.String
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query edges", err)
	}
	return out, nil
}
