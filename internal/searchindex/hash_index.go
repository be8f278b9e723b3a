package searchindex

import (
	"github.com/DRSN-tech/visual-search/pkg/phash"
)

// HashIndex хранит перцептивные хеши изображений в порядке слотов.
type HashIndex struct {
	hashes []phash.Hash
}

func NewHashIndex(capacity int) *HashIndex {
	return &HashIndex{hashes: make([]phash.Hash, 0, capacity)}
}

// Add добавляет хеш и возвращает его слот.
func (h *HashIndex) Add(hash phash.Hash) int {
	h.hashes = append(h.hashes, hash)
	return len(h.hashes) - 1
}

func (h *HashIndex) Len() int {
	return len(h.hashes)
}

// Hash возвращает хеш слота.
func (h *HashIndex) Hash(slot int) (phash.Hash, bool) {
	if slot < 0 || slot >= len(h.hashes) {
		return phash.Hash{}, false
	}
	return h.hashes[slot], true
}

// FindNearest ищет слот с минимальным расстоянием Хэмминга, не превышающим maxDistance.
// При равенстве расстояний выигрывает слот, добавленный раньше.
func (h *HashIndex) FindNearest(query phash.Hash, maxDistance int) (slot int, distance int, ok bool) {
	best, bestDist := -1, maxDistance+1
	for i := range h.hashes {
		d := phash.Distance(query, h.hashes[i])
		if d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}

	if best < 0 {
		return 0, 0, false
	}
	return best, bestDist, true
}
