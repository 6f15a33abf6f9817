// Package storage defines persistence for records and latency samples.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/cyborgbench/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines record and latency sample persistence operations.
type Storage interface {
	// Record operations
	UpsertRecords(ctx context.Context, recs []*models.Record) error
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	GetRecords(ctx context.Context, ids []string) ([]*models.Record, error)
	ListRecords(ctx context.Context, offset, limit int) ([]*models.Record, error)
	DeleteRecordsBySource(ctx context.Context, source string) ([]string, error)
	CountRecords(ctx context.Context) (int64, error)
	RandomTexts(ctx context.Context, n int) ([]string, error)

	// Latency samples
	AddSamples(ctx context.Context, samples []*models.LatencySample) error
	ListSamples(ctx context.Context, backend string, limit int) ([]*models.LatencySample, error)

	Close() error
}
