package searchindex

import "github.com/DRSN-tech/visual-search/internal/domain"

// MetadataStore: атрибуты товаров, выровненные по слотам.
type MetadataStore struct {
	records []domain.ImageMetadata
}

func NewMetadataStore(capacity int) *MetadataStore {
	return &MetadataStore{records: make([]domain.ImageMetadata, 0, capacity)}
}

func (m *MetadataStore) Add(meta domain.ImageMetadata) int {
	m.records = append(m.records, meta)
	return len(m.records) - 1
}

func (m *MetadataStore) Get(slot int) (domain.ImageMetadata, bool) {
	if slot < 0 || slot >= len(m.records) {
		return domain.ImageMetadata{}, false
	}
	return m.records[slot], true
}

func (m *MetadataStore) Len() int {
	return len(m.records)
}

// Products возвращает число различных товаров.
func (m *MetadataStore) Products() int {
	seen := make(map[string]struct{}, len(m.records))
	for _, r := range m.records {
		seen[r.ProductURL] = struct{}{}
	}
	return len(seen)
}
