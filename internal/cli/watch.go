package cli

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/ingest"
	"github.com/hyperjump/cyborgbench/internal/models"
)

// corpus is the part of the pipeline the watcher drives.
type corpus interface {
	Ingest(ctx context.Context, recs []*models.Record) error
	RemoveSource(ctx context.Context, source string) (int, error)
}

// watchHandler reloads a changed file: its old records are removed first so
// that deleted paragraphs or rows disappear.
type watchHandler struct {
	loader   *ingest.Loader
	pipeline corpus
	logger   *zap.Logger
}

func (h *watchHandler) FileChanged(ctx context.Context, path string) {
	recs, err := h.loader.LoadFile(path)
	if err != nil {
		h.logger.Warn("watch load file failed", zap.String("path", path), zap.Error(err))
		return
	}
	if _, err := h.pipeline.RemoveSource(ctx, source(path)); err != nil {
		h.logger.Warn("watch remove stale records failed", zap.String("path", path), zap.Error(err))
		return
	}
	if err := h.pipeline.Ingest(ctx, recs); err != nil {
		h.logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
		return
	}
	h.logger.Info("re-ingested file", zap.String("path", path), zap.Int("records", len(recs)))
}

func (h *watchHandler) FileRemoved(ctx context.Context, path string) {
	n, err := h.pipeline.RemoveSource(ctx, source(path))
	if err != nil {
		h.logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
		return
	}
	h.logger.Info("removed file records", zap.String("path", path), zap.Int("records", n))
}

// source matches the Source the loader stores for path.
func source(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
