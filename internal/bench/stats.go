// Package bench measures backend search latency over many queries and
// renders the comparison as a markdown report.
package bench

import (
	"math"
	"sort"
)

// Summary describes a latency distribution in seconds.
type Summary struct {
	Count  int     `json:"count"`
	Avg    float64 `json:"avg"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes the summary of values. StdDev is the sample standard
// deviation (n-1); it is 0 for fewer than two values.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	avg := sum / float64(n)

	std := 0.0
	if n > 1 {
		ss := 0.0
		for _, v := range sorted {
			ss += (v - avg) * (v - avg)
		}
		std = math.Sqrt(ss / float64(n-1))
	}
	return Summary{
		Count:  n,
		Avg:    avg,
		P50:    percentile(sorted, 50),
		P95:    percentile(sorted, 95),
		P99:    percentile(sorted, 99),
		StdDev: std,
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	pos := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	weight := pos - float64(lower)
	return sorted[lower] + weight*(sorted[upper]-sorted[lower])
}

// OverheadPercent is the relative cost of primary over baseline in percent;
// 0 when baseline is not positive.
func OverheadPercent(primary, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (primary - baseline) / baseline * 100
}
