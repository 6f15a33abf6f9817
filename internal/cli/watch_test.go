package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/ingest"
	"github.com/hyperjump/cyborgbench/internal/models"
)

type stubCorpus struct {
	ingested  []*models.Record
	removed   []string
	removeErr error
}

func (c *stubCorpus) Ingest(_ context.Context, recs []*models.Record) error {
	c.ingested = append(c.ingested, recs...)
	return nil
}

func (c *stubCorpus) RemoveSource(_ context.Context, source string) (int, error) {
	c.removed = append(c.removed, source)
	return 1, c.removeErr
}

func TestWatchHandler_FileChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alerts.txt")
	require.NoError(t, os.WriteFile(path, []byte("Wire transfer to an offshore account flagged.\n\nRoutine grocery purchase at the corner store."), 0600))

	c := &stubCorpus{}
	h := &watchHandler{loader: ingest.NewLoader(nil, true, zap.NewNop()), pipeline: c, logger: zap.NewNop()}
	h.FileChanged(context.Background(), path)

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, c.removed)
	require.Len(t, c.ingested, 2)
	for _, r := range c.ingested {
		assert.Equal(t, abs, r.Source)
	}
}

func TestWatchHandler_FileChangedSkipsIngestWhenRemoveFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alerts.txt")
	require.NoError(t, os.WriteFile(path, []byte("Wire transfer to an offshore account flagged."), 0600))

	c := &stubCorpus{removeErr: errors.New("locked")}
	h := &watchHandler{loader: ingest.NewLoader(nil, true, zap.NewNop()), pipeline: c, logger: zap.NewNop()}
	h.FileChanged(context.Background(), path)
	assert.Empty(t, c.ingested)
}

func TestWatchHandler_FileRemoved(t *testing.T) {
	c := &stubCorpus{}
	h := &watchHandler{loader: ingest.NewLoader(nil, true, zap.NewNop()), pipeline: c, logger: zap.NewNop()}
	h.FileRemoved(context.Background(), "/data/corpus/gone.csv")
	assert.Equal(t, []string{"/data/corpus/gone.csv"}, c.removed)
}
