package searchindex

import (
	"math/rand"

	"github.com/coder/hnsw"
)

// HNSWOptions: параметры графа.
type HNSWOptions struct {
	M        int
	EfSearch int
	Seed     int64
}

func DefaultHNSWOptions() HNSWOptions {
	return HNSWOptions{M: 16, EfSearch: 200, Seed: 42}
}

// HNSWIndex: приближённый поиск на графе HNSW. Векторы дублируются во FlatIndex,
// чтобы пересчитывать точное сходство и сохранять артефакт в том же формате.
type HNSWIndex struct {
	flat  *FlatIndex
	graph *hnsw.Graph[int]
}

func NewHNSWIndex(dim int, opts HNSWOptions) *HNSWIndex {
	g := hnsw.NewGraph[int]()
	g.Distance = hnsw.CosineDistance
	g.M = opts.M
	g.EfSearch = opts.EfSearch
	g.Rng = rand.New(rand.NewSource(opts.Seed))

	return &HNSWIndex{
		flat:  NewFlatIndex(dim),
		graph: g,
	}
}

func (h *HNSWIndex) Add(vec []float32, slot int) error {
	if err := h.flat.Add(vec, slot); err != nil {
		return err
	}

	stored, _ := h.flat.Vector(slot)
	h.graph.Add(hnsw.MakeNode(slot, stored))
	return nil
}

func (h *HNSWIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != h.flat.Dimension() {
		return h.flat.Search(query, k)
	}
	if k > h.Len() {
		k = h.Len()
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	q := Normalize(query)
	nodes := h.graph.Search(q, k)

	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		vec, ok := h.flat.Vector(node.Key)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Slot: node.Key, Score: Dot(q, vec)})
	}

	SortHits(hits)
	return hits, nil
}

func (h *HNSWIndex) Len() int {
	return h.flat.Len()
}

func (h *HNSWIndex) Dimension() int {
	return h.flat.Dimension()
}

func (h *HNSWIndex) Vector(slot int) ([]float32, bool) {
	return h.flat.Vector(slot)
}
