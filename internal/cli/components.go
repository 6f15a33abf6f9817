package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/config"
	"github.com/hyperjump/cyborgbench/internal/embedding"
	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/keyword"
	"github.com/hyperjump/cyborgbench/internal/retrieval"
	"github.com/hyperjump/cyborgbench/internal/storage"
	"github.com/hyperjump/cyborgbench/internal/vector"
)

// Components holds the long-lived pieces behind serve, ingest, search and bench.
type Components struct {
	Storage  *storage.SQLiteStorage
	Embedder embedding.Embedder
	Indexes  map[evaluator.Backend]vector.Index
	Keyword  *keyword.BleveIndex
	Pipeline *retrieval.Pipeline

	indexPaths map[evaluator.Backend]string
	logger     *zap.Logger
}

// Save persists the file-backed vector indexes.
func (c *Components) Save() error {
	return c.Pipeline.Save(c.indexPaths)
}

// resyncPage is the number of records re-added per batch by Resync.
const resyncPage = 1000

// Resync re-adds every stored record when a vector index holds a different
// number of vectors than the store has records, e.g. after a key change.
func (c *Components) Resync(ctx context.Context) error {
	total, err := c.Storage.CountRecords(ctx)
	if err != nil {
		return err
	}
	stale := false
	for b, idx := range c.Indexes {
		if int64(idx.Size()) != total {
			c.logger.Info("index out of sync with store", zap.String("backend", string(b)),
				zap.Int("vectors", idx.Size()), zap.Int64("records", total))
			stale = true
		}
	}
	if !stale {
		return nil
	}
	for offset := 0; int64(offset) < total; offset += resyncPage {
		recs, err := c.Storage.ListRecords(ctx, offset, resyncPage)
		if err != nil {
			return err
		}
		if err := c.Pipeline.Ingest(ctx, recs); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every component, logging failures.
func (c *Components) Close() {
	for b, idx := range c.Indexes {
		if err := idx.Close(); err != nil {
			c.logger.Warn("index close failed", zap.String("backend", string(b)), zap.Error(err))
		}
	}
	if c.Keyword != nil {
		if err := c.Keyword.Close(); err != nil {
			c.logger.Warn("keyword index close failed", zap.Error(err))
		}
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			c.logger.Warn("storage close failed", zap.Error(err))
		}
	}
}

// enabledBackends returns cyborg plus the configured comparators.
func enabledBackends(cfg *config.Config) ([]evaluator.Backend, error) {
	out := []evaluator.Backend{evaluator.BackendCyborg}
	for _, name := range cfg.Vector.Backends {
		b := evaluator.Backend(name)
		switch b {
		case evaluator.BackendFaiss, evaluator.BackendChroma:
			out = append(out, b)
		case evaluator.BackendCyborg:
		default:
			return nil, fmt.Errorf("unknown backend %q in vector.backends (supported: faiss, chroma)", name)
		}
	}
	return out, nil
}

// encryptionKey decodes the configured cyborg key. Without one, a key is
// generated for this process only and the cyborg index file is not reused.
func encryptionKey(cfg *config.Config, logger *zap.Logger) ([]byte, bool, error) {
	if cfg.Vector.EncryptionKey != "" {
		key, err := vector.ParseKey(cfg.Vector.EncryptionKey)
		if err != nil {
			return nil, false, fmt.Errorf("invalid vector.encryption_key: %w", err)
		}
		return key, true, nil
	}
	key, err := vector.GenerateKey()
	if err != nil {
		return nil, false, err
	}
	logger.Warn("no encryption key configured; using an ephemeral key (set vector.encryption_key or CYBORGBENCH_KEY to persist the cyborg index)",
		zap.String("generated_key", hex.EncodeToString(key)))
	return key, false, nil
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0755)
}

// initializeComponents opens storage and every index and builds the pipeline.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	for _, p := range []string{cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.ChromaPath,
		cfg.Storage.FAISSIndexPath, cfg.Storage.CyborgIndexPath} {
		if err := ensureDir(p); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{
		Storage:    store,
		Embedder:   embedding.NewCachedEmbedder(embedding.NewHashEmbedder(cfg.Embedding.Dimensions), cfg.Embedding.CacheSize),
		Indexes:    make(map[evaluator.Backend]vector.Index),
		indexPaths: make(map[evaluator.Backend]string),
		logger:     logger,
	}

	backends, err := enabledBackends(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	key, persistent, err := encryptionKey(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	for _, b := range backends {
		idx, err := vector.NewIndex(b, vector.Options{
			Dimensions: cfg.Embedding.Dimensions,
			Path:       cfg.Storage.ChromaPath,
			Key:        key,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize %s index: %w", b, err)
		}
		c.Indexes[b] = idx

		var path string
		switch b {
		case evaluator.BackendFaiss:
			path = cfg.Storage.FAISSIndexPath
		case evaluator.BackendCyborg:
			if persistent {
				path = cfg.Storage.CyborgIndexPath
			}
		}
		if path == "" {
			continue
		}
		c.indexPaths[b] = path
		if err := idx.Load(path); err != nil {
			logger.Warn("vector index load skipped (re-run ingest)", zap.String("backend", string(b)), zap.String("path", path), zap.Error(err))
		}
		logger.Debug("vector index initialized", zap.String("backend", string(b)), zap.String("type", idx.Type()), zap.Int("size", idx.Size()))
	}

	kw, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	c.Keyword = kw

	p, err := retrieval.New(store, c.Embedder, c.Indexes,
		retrieval.WithLogger(logger),
		retrieval.WithKeywordIndex(kw, keyword.NewSuggester(kw)),
		retrieval.WithTopK(cfg.Vector.TopK),
		retrieval.WithSampleLog(true),
	)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Pipeline = p
	return c, nil
}
