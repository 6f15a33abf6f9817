package vector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteIndex stores vectors as blobs in a SQLite table and scans them from
// disk on every query. It backs the disk-resident "chroma" comparator.
type SQLiteIndex struct {
	db         *sql.DB
	dimensions int
}

// NewSQLiteIndex opens or creates the index database at dbPath.
// Parent directories are created if they do not exist.
func NewSQLiteIndex(dbPath string, dimensions int) (*SQLiteIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		id TEXT PRIMARY KEY,
		dimensions INTEGER NOT NULL,
		vector BLOB NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteIndex{db: db, dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (s *SQLiteIndex) Type() string {
	return string(TypeSQLite)
}

// Add upserts vectors in one transaction.
func (s *SQLiteIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for _, v := range vectors {
		if err := checkDim(len(v), s.dimensions); err != nil {
			return err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embeddings (id, dimensions, vector) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET dimensions = excluded.dimensions, vector = excluded.vector`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, s.dimensions, encodeFloats(vectors[i])); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Search scans every stored vector and returns the top-k by inner product.
func (s *SQLiteIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if err := checkDim(len(query), s.dimensions); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, vector FROM embeddings WHERE dimensions = ?`, s.dimensions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	best := newTopK(k)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		best.offer(id, InnerProduct(query, decodeFloats(blob)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if best.Len() == 0 {
		return nil, nil
	}
	return best.sorted(), nil
}

// Remove deletes vectors by ID.
func (s *SQLiteIndex) Remove(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

// Save is a no-op; every write is already durable.
func (s *SQLiteIndex) Save(path string) error {
	return nil
}

// Load is a no-op; the database is the index.
func (s *SQLiteIndex) Load(path string) error {
	return nil
}

// Size returns the number of stored vectors, or 0 if the count fails.
func (s *SQLiteIndex) Size() int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
