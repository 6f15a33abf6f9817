package vector

import (
	"container/heap"
	"math"
)

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}

// topK keeps the k best results seen so far in a min-heap.
type topK struct {
	k     int
	items []*Result
}

func newTopK(k int) *topK {
	return &topK{k: k, items: make([]*Result, 0, k)}
}

func (t *topK) Len() int { return len(t.items) }
func (t *topK) Less(i, j int) bool {
	if t.items[i].Score == t.items[j].Score {
		return t.items[i].ID > t.items[j].ID
	}
	return t.items[i].Score < t.items[j].Score
}
func (t *topK) Swap(i, j int)      { t.items[i], t.items[j] = t.items[j], t.items[i] }
func (t *topK) Push(x interface{}) { t.items = append(t.items, x.(*Result)) }
func (t *topK) Pop() interface{} {
	n := len(t.items)
	it := t.items[n-1]
	t.items = t.items[:n-1]
	return it
}

func (t *topK) offer(id string, score float64) {
	r := &Result{ID: id, Score: score}
	if len(t.items) < t.k {
		heap.Push(t, r)
		return
	}
	worst := t.items[0]
	if score > worst.Score || (score == worst.Score && id < worst.ID) {
		t.items[0] = r
		heap.Fix(t, 0)
	}
}

// sorted drains the heap best-first.
func (t *topK) sorted() []*Result {
	out := make([]*Result, len(t.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(t).(*Result)
	}
	return out
}
