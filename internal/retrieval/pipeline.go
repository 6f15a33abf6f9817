// Package retrieval runs a chat message through routing, the timed vector
// backends and the keyword leg, and produces the reply with its metrics.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/cyborgbench/internal/embedding"
	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/keyword"
	"github.com/hyperjump/cyborgbench/internal/models"
	"github.com/hyperjump/cyborgbench/internal/router"
	"github.com/hyperjump/cyborgbench/internal/storage"
	"github.com/hyperjump/cyborgbench/internal/vector"
)

// ErrNoPrimary is returned when no cyborg index is configured.
var ErrNoPrimary = errors.New("primary (cyborg) index is required")

// Default fusion weights.
const (
	DefaultKeywordWeight  = 0.3
	DefaultSemanticWeight = 0.7
	DefaultTopK           = 3
)

// Pipeline answers chat messages.
type Pipeline struct {
	store     storage.Storage
	embedder  embedding.Embedder
	indexes   map[evaluator.Backend]vector.Index
	keyword   keyword.Index
	suggester *keyword.Suggester
	router    *router.Router
	logger    *zap.Logger

	topK           int
	keywordWeight  float64
	semanticWeight float64
	recordSamples  bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithKeywordIndex enables the keyword leg and query correction.
func WithKeywordIndex(k keyword.Index, s *keyword.Suggester) Option {
	return func(p *Pipeline) {
		p.keyword = k
		p.suggester = s
	}
}

// WithTopK sets how many hits each backend returns.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithWeights sets the keyword and semantic fusion weights.
func WithWeights(keywordWeight, semanticWeight float64) Option {
	return func(p *Pipeline) {
		p.keywordWeight = keywordWeight
		p.semanticWeight = semanticWeight
	}
}

// WithSampleLog stores every timed search in the latency sample log.
func WithSampleLog(enabled bool) Option {
	return func(p *Pipeline) { p.recordSamples = enabled }
}

// New creates a pipeline. indexes must contain the cyborg backend; faiss and
// chroma are optional and measured when present.
func New(store storage.Storage, embedder embedding.Embedder, indexes map[evaluator.Backend]vector.Index, opts ...Option) (*Pipeline, error) {
	if indexes[evaluator.BackendCyborg] == nil {
		return nil, ErrNoPrimary
	}
	p := &Pipeline{
		store:          store,
		embedder:       embedder,
		indexes:        indexes,
		router:         router.New(),
		logger:         zap.NewNop(),
		topK:           DefaultTopK,
		keywordWeight:  DefaultKeywordWeight,
		semanticWeight: DefaultSemanticWeight,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Hit is one record in a search reply.
type Hit struct {
	Record        *models.Record
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// SearchResult is the outcome of one timed search.
type SearchResult struct {
	Query string
	// Corrected is the spell-corrected query used by the keyword leg; empty if unchanged.
	Corrected string
	Latencies map[evaluator.Backend]time.Duration
	Hits      []*Hit
}

// Respond routes message and produces the wire response. CHAT replies carry an
// empty metrics object; SEARCH replies carry the elapsed seconds of every backend
// that answered.
func (p *Pipeline) Respond(ctx context.Context, message string) (*models.ChatResponse, error) {
	decision := p.router.Route(message)
	if decision.Mode != evaluator.ModeSearch {
		p.logger.Debug("routed to chat", zap.String("message", message))
		return &models.ChatResponse{
			Response: ChatReply(message),
			ModeUsed: models.ModeUsedChat,
			Metrics:  &models.ResponseMetrics{},
		}, nil
	}
	p.logger.Debug("routed to search", zap.Strings("matched", decision.Matched))

	res, err := p.Search(ctx, message)
	if err != nil {
		return nil, err
	}
	metrics := models.NewResponseMetrics(res.Latencies)
	return &models.ChatResponse{
		Response: SearchReply(res),
		ModeUsed: models.ModeUsedFor(metrics),
		Metrics:  metrics,
	}, nil
}

// Search embeds query, times every configured backend, runs the keyword leg
// and fuses it with the cyborg hits.
func (p *Pipeline) Search(ctx context.Context, query string) (*SearchResult, error) {
	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	latencies, primary, err := p.timeBackends(ctx, vec)
	if err != nil {
		return nil, err
	}
	p.logSamples(ctx, query, latencies)

	res := &SearchResult{Query: query, Latencies: latencies}
	var keywordScores map[string]float64
	if p.keyword != nil {
		kwQuery := query
		if p.suggester != nil {
			if corrected, changed := p.suggester.Correct(query); changed {
				kwQuery = corrected
				res.Corrected = corrected
			}
		}
		kw, err := p.keyword.Search(ctx, kwQuery, p.topK, &keyword.SearchOptions{MetadataBoost: 2})
		if err != nil {
			p.logger.Warn("keyword search failed", zap.Error(err))
		}
		keywordScores = NormalizeKeywordScores(kw)
	}

	fused := Fuse(keywordScores, SemanticScores(primary), p.keywordWeight, p.semanticWeight)
	if len(fused) > p.topK {
		fused = fused[:p.topK]
	}
	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.ID
	}
	recs, err := p.store.GetRecords(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	byID := make(map[string]*models.Record, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	for _, f := range fused {
		rec, ok := byID[f.ID]
		if !ok {
			continue
		}
		res.Hits = append(res.Hits, &Hit{Record: rec, Score: f.Score, KeywordScore: f.KeywordScore, SemanticScore: f.SemanticScore})
	}
	return res, nil
}

// Measure embeds query and times every backend without building a reply.
func (p *Pipeline) Measure(ctx context.Context, query string) (map[evaluator.Backend]time.Duration, error) {
	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	latencies, _, err := p.timeBackends(ctx, vec)
	return latencies, err
}

// timeBackends searches comparators first and cyborg last, one at a time so
// the timings do not contend. A failing comparator is left out of the result;
// a failing cyborg search fails the call.
func (p *Pipeline) timeBackends(ctx context.Context, vec []float32) (map[evaluator.Backend]time.Duration, []*vector.Result, error) {
	latencies := make(map[evaluator.Backend]time.Duration, len(p.indexes))
	for _, b := range evaluator.Comparators {
		idx := p.indexes[b]
		if idx == nil {
			continue
		}
		start := time.Now()
		_, err := idx.Search(ctx, vec, p.topK)
		elapsed := time.Since(start)
		if err != nil {
			p.logger.Warn("comparator search failed", zap.String("backend", string(b)), zap.Error(err))
			continue
		}
		latencies[b] = elapsed
	}

	start := time.Now()
	primary, err := p.indexes[evaluator.BackendCyborg].Search(ctx, vec, p.topK)
	elapsed := time.Since(start)
	if err != nil {
		return nil, nil, fmt.Errorf("cyborg search failed: %w", err)
	}
	latencies[evaluator.BackendCyborg] = elapsed
	return latencies, primary, nil
}

func (p *Pipeline) logSamples(ctx context.Context, query string, latencies map[evaluator.Backend]time.Duration) {
	if !p.recordSamples {
		return
	}
	samples := make([]*models.LatencySample, 0, len(latencies))
	for _, b := range evaluator.Backends {
		d, ok := latencies[b]
		if !ok {
			continue
		}
		samples = append(samples, &models.LatencySample{Query: query, Backend: string(b), Seconds: d.Seconds()})
	}
	if err := p.store.AddSamples(ctx, samples); err != nil {
		p.logger.Warn("failed to record latency samples", zap.Error(err))
	}
}

// Ingest stores recs and adds them to every index. The indexes are filled
// concurrently once the embeddings are computed.
func (p *Pipeline) Ingest(ctx context.Context, recs []*models.Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := p.store.UpsertRecords(ctx, recs); err != nil {
		return fmt.Errorf("failed to store records: %w", err)
	}
	ids := make([]string, len(recs))
	texts := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
		texts[i] = r.Text
	}
	vecs, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for b, idx := range p.indexes {
		b, idx := b, idx
		g.Go(func() error {
			if err := idx.Add(gctx, ids, vecs); err != nil {
				return fmt.Errorf("%s add failed: %w", b, err)
			}
			return nil
		})
	}
	if p.keyword != nil {
		g.Go(func() error {
			if err := p.keyword.IndexBatch(gctx, recs); err != nil {
				return fmt.Errorf("keyword index failed: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.refreshSuggester()
	p.logger.Info("ingested records", zap.Int("count", len(recs)))
	return nil
}

// RemoveSource deletes every record loaded from source from the store and indexes.
func (p *Pipeline) RemoveSource(ctx context.Context, source string) (int, error) {
	ids, err := p.store.DeleteRecordsBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for b, idx := range p.indexes {
		b, idx := b, idx
		g.Go(func() error {
			if err := idx.Remove(gctx, ids); err != nil {
				return fmt.Errorf("%s remove failed: %w", b, err)
			}
			return nil
		})
	}
	if p.keyword != nil {
		g.Go(func() error {
			for _, id := range ids {
				if err := p.keyword.Delete(gctx, id); err != nil {
					return fmt.Errorf("keyword delete failed: %w", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	p.refreshSuggester()
	return len(ids), nil
}

func (p *Pipeline) refreshSuggester() {
	if p.suggester == nil {
		return
	}
	if err := p.suggester.Refresh(); err != nil {
		p.logger.Warn("failed to refresh term dictionary", zap.Error(err))
	}
}

// Sizes returns the number of vectors in each index.
func (p *Pipeline) Sizes() map[evaluator.Backend]int {
	out := make(map[evaluator.Backend]int, len(p.indexes))
	for b, idx := range p.indexes {
		out[b] = idx.Size()
	}
	return out
}

// Save persists the in-memory indexes to the paths given per backend.
// Backends without a path are skipped.
func (p *Pipeline) Save(paths map[evaluator.Backend]string) error {
	for b, idx := range p.indexes {
		path := paths[b]
		if path == "" {
			continue
		}
		if err := idx.Save(path); err != nil {
			return fmt.Errorf("failed to save %s index: %w", b, err)
		}
	}
	return nil
}
