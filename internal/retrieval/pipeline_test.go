package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/cyborgbench/internal/embedding"
	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/keyword"
	"github.com/hyperjump/cyborgbench/internal/models"
	"github.com/hyperjump/cyborgbench/internal/storage"
	"github.com/hyperjump/cyborgbench/internal/vector"
)

const testDim = 64

type failingIndex struct{ vector.Index }

func (failingIndex) Search(context.Context, []float32, int) ([]*vector.Result, error) {
	return nil, errors.New("disk unavailable")
}

func testCorpus() []*models.Record {
	return []*models.Record{
		{ID: "n1", Text: "Purchase at Starbucks for dining. Date: 2024-03-01. Status: Cleared.", Amount: 6.5, Metadata: "merchant:Starbucks"},
		{ID: "n2", Text: "Purchase at Target for shopping. Date: 2024-03-02. Status: Cleared.", Amount: 80, Metadata: "merchant:Target"},
		{ID: "f1", Text: "Urgent wire transfer detected. Keyword: offshore. Destination: Panama. Amount: $25000.00. Risk: High.", Amount: 25000, Label: models.LabelFraud, Metadata: "keyword:offshore", Source: "feed.csv"},
		{ID: "f2", Text: "Urgent wire transfer detected. Keyword: crypto. Destination: Cyprus. Amount: $4100.00. Risk: High.", Amount: 4100, Label: models.LabelFraud, Metadata: "keyword:crypto", Source: "feed.csv"},
	}
}

type fixture struct {
	pipeline *Pipeline
	store    *storage.SQLiteStorage
	indexes  map[evaluator.Backend]vector.Index
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	key, err := vector.GenerateKey()
	require.NoError(t, err)
	indexes := make(map[evaluator.Backend]vector.Index)
	for _, b := range evaluator.Backends {
		idx, err := vector.NewIndex(b, vector.Options{Dimensions: testDim, Path: filepath.Join(dir, "chroma.db"), Key: key})
		require.NoError(t, err)
		t.Cleanup(func() { _ = idx.Close() })
		indexes[b] = idx
	}

	kw, err := keyword.NewMemBleveIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kw.Close() })

	opts = append([]Option{WithKeywordIndex(kw, keyword.NewSuggester(kw))}, opts...)
	p, err := New(store, embedding.NewHashEmbedder(testDim), indexes, opts...)
	require.NoError(t, err)
	require.NoError(t, p.Ingest(context.Background(), testCorpus()))
	return &fixture{pipeline: p, store: store, indexes: indexes}
}

func TestNew_requiresPrimary(t *testing.T) {
	_, err := New(nil, embedding.NewHashEmbedder(testDim), map[evaluator.Backend]vector.Index{})
	assert.ErrorIs(t, err, ErrNoPrimary)
}

func TestPipeline_RespondChat(t *testing.T) {
	f := newFixture(t)
	resp, err := f.pipeline.Respond(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, models.ModeUsedChat, resp.ModeUsed)
	require.NotNil(t, resp.Metrics)
	assert.Nil(t, resp.Metrics.Cyborg)
	assert.Equal(t, greetingReply, resp.Response)
}

func TestPipeline_RespondSearch(t *testing.T) {
	f := newFixture(t)
	resp, err := f.pipeline.Respond(context.Background(), "urgent wire transfer to Panama offshore")
	require.NoError(t, err)
	assert.Equal(t, models.ModeUsedSearch, resp.ModeUsed)
	require.NotNil(t, resp.Metrics.Cyborg)
	assert.Greater(t, *resp.Metrics.Cyborg, 0.0)
	assert.NotNil(t, resp.Metrics.Faiss)
	assert.NotNil(t, resp.Metrics.Chroma)
	assert.Contains(t, resp.Response, "[FRAUD] Urgent wire transfer detected. Keyword: offshore.")

	payload := resp.Payload()
	assert.Equal(t, evaluator.ModeSearch, payload.ModeUsed)
	assert.True(t, payload.Metrics.Faiss.Present)
}

func TestPipeline_SearchRanksFraudFirst(t *testing.T) {
	f := newFixture(t)
	res, err := f.pipeline.Search(context.Background(), "wire transfer offshore Panama")
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "f1", res.Hits[0].Record.ID)
	assert.LessOrEqual(t, len(res.Hits), DefaultTopK)
	assert.Len(t, res.Latencies, 3)
}

func TestPipeline_SearchCorrectsTypos(t *testing.T) {
	f := newFixture(t)
	res, err := f.pipeline.Search(context.Background(), "transfr to panama")
	require.NoError(t, err)
	assert.Equal(t, "transfer to panama", res.Corrected)
}

func TestPipeline_failingComparatorIsAbsent(t *testing.T) {
	f := newFixture(t)
	f.pipeline.indexes[evaluator.BackendChroma] = failingIndex{f.indexes[evaluator.BackendChroma]}
	resp, err := f.pipeline.Respond(context.Background(), "wire transfer")
	require.NoError(t, err)
	assert.Nil(t, resp.Metrics.Chroma)
	assert.NotNil(t, resp.Metrics.Faiss)

	model, err := evaluator.New(evaluator.DefaultPolicy())
	require.NoError(t, err)
	dm := model.Evaluate(resp.Payload())
	assert.Equal(t, evaluator.NotAvailable, dm.Overhead[evaluator.BackendChroma].Qualifier)
	assert.Equal(t, evaluator.Placeholder, dm.Latency[evaluator.BackendChroma])
}

func TestPipeline_failingPrimaryFails(t *testing.T) {
	f := newFixture(t)
	f.pipeline.indexes[evaluator.BackendCyborg] = failingIndex{f.indexes[evaluator.BackendCyborg]}
	_, err := f.pipeline.Respond(context.Background(), "wire transfer")
	assert.Error(t, err)
}

func TestPipeline_SampleLog(t *testing.T) {
	f := newFixture(t, WithSampleLog(true))
	_, err := f.pipeline.Respond(context.Background(), "sent $900 to Cyprus")
	require.NoError(t, err)
	samples, err := f.store.ListSamples(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, samples, 3)
}

func TestPipeline_Measure(t *testing.T) {
	f := newFixture(t)
	lat, err := f.pipeline.Measure(context.Background(), "Purchase at Target")
	require.NoError(t, err)
	for _, b := range evaluator.Backends {
		assert.Contains(t, lat, b)
	}
}

func TestPipeline_RemoveSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n, err := f.pipeline.RemoveSource(ctx, "feed.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for b, size := range f.pipeline.Sizes() {
		assert.Equal(t, 2, size, "backend %s", b)
	}
	res, err := f.pipeline.Search(ctx, "urgent wire transfer offshore")
	require.NoError(t, err)
	for _, h := range res.Hits {
		assert.False(t, h.Record.IsFraud())
	}
}

func TestPipeline_Save(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	paths := map[evaluator.Backend]string{
		evaluator.BackendFaiss:  filepath.Join(dir, "faiss.idx"),
		evaluator.BackendCyborg: filepath.Join(dir, "cyborg.idx"),
	}
	require.NoError(t, f.pipeline.Save(paths))
	loaded, err := vector.NewFlatIndex(testDim)
	require.NoError(t, err)
	require.NoError(t, loaded.Load(paths[evaluator.BackendFaiss]))
	assert.Equal(t, 4, loaded.Size())
}
