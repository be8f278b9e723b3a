package searchindex

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/DRSN-tech/visual-search/pkg/e"
)

const (
	BackendFlat = "flat"
	BackendHNSW = "hnsw"
)

// Hit: результат поиска по эмбеддингам.
type Hit struct {
	Slot  int
	Score float32
}

// EmbeddingIndex: append-only индекс нормированных векторов с поиском по скалярному произведению.
type EmbeddingIndex interface {
	// Add добавляет вектор. slot обязан совпадать с текущей длиной индекса.
	Add(vec []float32, slot int) error
	// Search возвращает до k слотов с наибольшим сходством, по убыванию; при равенстве меньший слот раньше.
	Search(query []float32, k int) ([]Hit, error)
	Len() int
	Dimension() int
	Vector(slot int) ([]float32, bool)
}

// NewEmbeddingIndex создаёт пустой индекс выбранного типа.
func NewEmbeddingIndex(backend string, dim int) (EmbeddingIndex, error) {
	switch backend {
	case "", BackendFlat:
		return NewFlatIndex(dim), nil
	case BackendHNSW:
		return NewHNSWIndex(dim, DefaultHNSWOptions()), nil
	default:
		return nil, e.Wrap(backend, e.ErrUnsupportedBackend)
	}
}

// FlatIndex: точный перебор по непрерывному массиву векторов.
type FlatIndex struct {
	dim  int
	data []float32
}

func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

func (f *FlatIndex) Add(vec []float32, slot int) error {
	if len(vec) != f.dim {
		return e.Wrap(fmt.Sprintf("got %d, want %d", len(vec), f.dim), e.ErrDimensionMismatch)
	}
	if slot != f.Len() {
		return e.Wrap(fmt.Sprintf("slot %d, len %d", slot, f.Len()), e.ErrSlotOutOfOrder)
	}

	f.data = append(f.data, Normalize(vec)...)
	return nil
}

func (f *FlatIndex) Len() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

func (f *FlatIndex) Dimension() int {
	return f.dim
}

func (f *FlatIndex) Vector(slot int) ([]float32, bool) {
	if slot < 0 || slot >= f.Len() {
		return nil, false
	}
	return f.data[slot*f.dim : (slot+1)*f.dim], true
}

func (f *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, e.Wrap(fmt.Sprintf("got %d, want %d", len(query), f.dim), e.ErrDimensionMismatch)
	}

	n := f.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	q := Normalize(query)
	h := make(hitHeap, 0, k)
	for slot := 0; slot < n; slot++ {
		hit := Hit{Slot: slot, Score: Dot(q, f.data[slot*f.dim:(slot+1)*f.dim])}
		if len(h) < k {
			heap.Push(&h, hit)
			continue
		}
		if better(hit, h[0]) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	hits := []Hit(h)
	SortHits(hits)
	return hits, nil
}

// SortHits сортирует по убыванию сходства, при равенстве по возрастанию слота.
func SortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool { return better(hits[i], hits[j]) })
}

func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Slot < b.Slot
}

// hitHeap это min-heap, в вершине худший из отобранных.
type hitHeap []Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)        { *h = append(*h, x.(Hit)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Normalize возвращает копию вектора единичной длины. Нулевой вектор возвращается как есть.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		copy(out, v)
		return out
	}

	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// Dot: скалярное произведение векторов одинаковой длины.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
