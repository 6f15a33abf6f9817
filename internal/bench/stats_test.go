package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 3, 2, 5})
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3.0, s.Avg, 1e-12)
	assert.InDelta(t, 3.0, s.P50, 1e-12)
	// pos = 0.95*4 = 3.8 -> 4 + 0.8*(5-4)
	assert.InDelta(t, 4.8, s.P95, 1e-12)
	assert.InDelta(t, 4.96, s.P99, 1e-12)
	// sample variance of 1..5 is 2.5
	assert.InDelta(t, 1.5811388, s.StdDev, 1e-6)
}

func TestSummarize_edgeCases(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	one := Summarize([]float64{0.25})
	assert.Equal(t, 0.25, one.P99)
	assert.Equal(t, 0.0, one.StdDev)
}

func TestSummarize_doesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Summarize(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestOverheadPercent(t *testing.T) {
	assert.InDelta(t, 100.0, OverheadPercent(0.002, 0.001), 1e-9)
	assert.InDelta(t, -50.0, OverheadPercent(0.001, 0.002), 1e-9)
	assert.Equal(t, 0.0, OverheadPercent(1, 0))
}
