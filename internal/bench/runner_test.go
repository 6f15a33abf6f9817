package bench

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

type fakeMeasurer struct {
	calls int
	fail  map[string]bool
}

func (f *fakeMeasurer) Measure(_ context.Context, q string) (map[evaluator.Backend]time.Duration, error) {
	f.calls++
	if f.fail[q] {
		return nil, errors.New("boom")
	}
	return map[evaluator.Backend]time.Duration{
		evaluator.BackendFaiss:  time.Millisecond,
		evaluator.BackendChroma: 4 * time.Millisecond,
		evaluator.BackendCyborg: 2 * time.Millisecond,
	}, nil
}

func TestRunner_Run(t *testing.T) {
	m := &fakeMeasurer{fail: map[string]bool{"bad": true}}
	res, err := NewRunner(m, nil).Run(context.Background(), []string{"a", "bad", "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.calls)
	assert.Equal(t, 2, res.Queries)
	assert.Equal(t, 1, res.Failures)
	assert.Len(t, res.Samples[evaluator.BackendCyborg], 2)
	assert.InDelta(t, 0.002, res.Summaries()[evaluator.BackendCyborg].Avg, 1e-12)
}

func TestRunner_allFail(t *testing.T) {
	m := &fakeMeasurer{fail: map[string]bool{"x": true}}
	_, err := NewRunner(m, nil).Run(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestRunner_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(&fakeMeasurer{}, nil).Run(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("█", 20), Bar(2, 2, 20))
	assert.Equal(t, strings.Repeat("█", 10)+strings.Repeat("░", 10), Bar(1, 2, 20))
	assert.Equal(t, strings.Repeat("░", 20), Bar(0, 2, 20))
	assert.Equal(t, "", Bar(1, 0, 20))
}

func TestWriteReport(t *testing.T) {
	res, err := NewRunner(&fakeMeasurer{}, nil).Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "**Workload:** 2 sequential queries")
	assert.Contains(t, out, "**Privacy Cost:** +100.0% latency vs unencrypted memory.")
	assert.Contains(t, out, "**Versus disk:** -50.0% latency vs on-disk index.")
	assert.Contains(t, out, "`FAISS (RAM)  :` "+strings.Repeat("█", 5)+strings.Repeat("░", 15)+" 0.0010s")
	assert.Contains(t, out, "`Chroma (Disk):` "+strings.Repeat("█", 20)+" 0.0040s")
	assert.Contains(t, out, "| Metric | FAISS (RAM) | Chroma (Disk) | Cyborg (Enc) |")
	assert.Contains(t, out, "| **Avg Latency** | 0.0010s | 0.0040s | 0.0020s |")
}
