package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/cyborgbench/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		amount REAL NOT NULL DEFAULT 0,
		label INTEGER NOT NULL DEFAULT 0,
		metadata TEXT,
		source TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_source ON records(source);

	CREATE TABLE IF NOT EXISTS latency_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT,
		backend TEXT NOT NULL,
		seconds REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_samples_backend ON latency_samples(backend, id);
	`
	_, err := db.Exec(schema)
	return err
}

const recordColumns = `id, text, amount, label, metadata, source, created_at`

func scanRecord(row interface{ Scan(...any) error }) (*models.Record, error) {
	var rec models.Record
	var metadata, source sql.NullString
	if err := row.Scan(&rec.ID, &rec.Text, &rec.Amount, &rec.Label, &metadata, &source, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Metadata = metadata.String
	rec.Source = source.String
	return &rec, nil
}

// UpsertRecords inserts or replaces records in one transaction.
// CreatedAt is set for records that do not carry one.
func (s *SQLiteStorage) UpsertRecords(ctx context.Context, recs []*models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, rec := range recs {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Text, rec.Amount, rec.Label, rec.Metadata, rec.Source, rec.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// GetRecord returns a record by ID.
func (s *SQLiteStorage) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetRecords returns the records for ids in the order given; unknown ids are skipped.
func (s *SQLiteStorage) GetRecords(ctx context.Context, ids []string) ([]*models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Record, len(ids))
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*models.Record, 0, len(byID))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListRecords returns records with offset and limit, oldest first.
func (s *SQLiteStorage) ListRecords(ctx context.Context, offset, limit int) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY created_at, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteRecordsBySource removes every record loaded from source and returns their IDs
// so the caller can drop them from the indexes.
func (s *SQLiteStorage) DeleteRecordsBySource(ctx context.Context, source string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM records WHERE source = ?`, source)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE source = ?`, source); err != nil {
		return nil, err
	}
	return ids, tx.Commit()
}

// CountRecords returns the number of stored records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

// RandomTexts returns the text of up to n randomly chosen records; used as benchmark queries.
func (s *SQLiteStorage) RandomTexts(ctx context.Context, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text FROM records ORDER BY RANDOM() LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// AddSamples appends latency samples in one transaction.
func (s *SQLiteStorage) AddSamples(ctx context.Context, samples []*models.LatencySample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	for _, sm := range samples {
		if sm.CreatedAt.IsZero() {
			sm.CreatedAt = now
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO latency_samples (query, backend, seconds, created_at) VALUES (?, ?, ?, ?)`,
			sm.Query, sm.Backend, sm.Seconds, sm.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
		sm.ID, _ = res.LastInsertId()
	}
	return tx.Commit()
}

// ListSamples returns the most recent samples, newest first. An empty backend
// matches all backends; limit <= 0 means no limit.
func (s *SQLiteStorage) ListSamples(ctx context.Context, backend string, limit int) ([]*models.LatencySample, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT id, query, backend, seconds, created_at FROM latency_samples`
	args := []any{}
	if backend != "" {
		query += ` WHERE backend = ?`
		args = append(args, backend)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.LatencySample
	for rows.Next() {
		var sm models.LatencySample
		var q sql.NullString
		if err := rows.Scan(&sm.ID, &q, &sm.Backend, &sm.Seconds, &sm.CreatedAt); err != nil {
			return nil, err
		}
		sm.Query = q.String
		out = append(out, &sm)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
