package searchindex

import (
	"fmt"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/phash"
)

// Snapshot хранит неизменяемое поколение индекса: хеши, эмбеддинги и метаданные одной длины.
type Snapshot struct {
	Manifest domain.Manifest
	Hashes   *HashIndex
	Vectors  EmbeddingIndex
	Metadata *MetadataStore
}

// NewSnapshot проверяет, что все три хранилища выровнены, и собирает поколение.
func NewSnapshot(manifest domain.Manifest, hashes *HashIndex, vectors EmbeddingIndex, metadata *MetadataStore) (*Snapshot, error) {
	if hashes == nil || vectors == nil || metadata == nil {
		return nil, e.Wrap("missing store", e.ErrIndexInconsistent)
	}
	if hashes.Len() != vectors.Len() || vectors.Len() != metadata.Len() {
		return nil, e.Wrap(
			fmt.Sprintf("hashes=%d vectors=%d metadata=%d", hashes.Len(), vectors.Len(), metadata.Len()),
			e.ErrIndexInconsistent,
		)
	}

	manifest.Images = metadata.Len()
	manifest.Products = metadata.Products()
	manifest.Dimension = vectors.Dimension()
	manifest.HashBits = phash.Bits

	return &Snapshot{
		Manifest: manifest,
		Hashes:   hashes,
		Vectors:  vectors,
		Metadata: metadata,
	}, nil
}

func (s *Snapshot) Len() int {
	return s.Metadata.Len()
}

// Builder последовательно назначает слоты при сборке поколения.
type Builder struct {
	hashes   *HashIndex
	vectors  EmbeddingIndex
	metadata *MetadataStore
}

func NewBuilder(backend string, dim, capacity int) (*Builder, error) {
	vectors, err := NewEmbeddingIndex(backend, dim)
	if err != nil {
		return nil, err
	}

	return &Builder{
		hashes:   NewHashIndex(capacity),
		vectors:  vectors,
		metadata: NewMetadataStore(capacity),
	}, nil
}

// Append добавляет запись в следующий слот. При ошибке вектора ни одно хранилище не меняется.
func (b *Builder) Append(hash phash.Hash, embedding []float32, meta domain.ImageMetadata) (int, error) {
	slot := b.metadata.Len()
	if err := b.vectors.Add(embedding, slot); err != nil {
		return 0, err
	}
	b.hashes.Add(hash)
	b.metadata.Add(meta)
	return slot, nil
}

func (b *Builder) Len() int {
	return b.metadata.Len()
}

func (b *Builder) Build(manifest domain.Manifest) (*Snapshot, error) {
	return NewSnapshot(manifest, b.hashes, b.vectors, b.metadata)
}
