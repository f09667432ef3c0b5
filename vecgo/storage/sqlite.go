package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists embeddings keyed by model and content hash so that
// restarting against an unchanged page does not re-embed it.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// NewSQLiteCache opens (or creates) the cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteCache{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteCache) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS embeddings (
			model TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			embedding BLOB NOT NULL,
			PRIMARY KEY (model, content_hash)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}

// Lookup returns the cached vectors for the given content hashes.
func (s *SQLiteCache) Lookup(ctx context.Context, model string, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys)+1)
	args = append(args, model)
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT content_hash, embedding FROM embeddings WHERE model = ? AND content_hash IN ("+placeholders+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("lookup embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var embBytes []byte
		if err := rows.Scan(&key, &embBytes); err != nil {
			return nil, err
		}
		out[key] = decodeFloat32Slice(embBytes)
	}

	return out, rows.Err()
}

// Store saves vectors for the given content hashes.
func (s *SQLiteCache) Store(ctx context.Context, model string, entries map[string][]float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO embeddings (model, content_hash, embedding) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, vec := range entries {
		if _, err := stmt.ExecContext(ctx, model, key, encodeFloat32Slice(vec)); err != nil {
			return fmt.Errorf("store embedding: %w", err)
		}
	}

	return tx.Commit()
}

// Path returns the database file path.
func (s *SQLiteCache) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

// encodeFloat32Slice converts []float32 to []byte.
func encodeFloat32Slice(f []float32) []byte {
	buf := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeFloat32Slice converts []byte to []float32.
func decodeFloat32Slice(b []byte) []float32 {
	f := make([]float32, len(b)/4)
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return f
}
