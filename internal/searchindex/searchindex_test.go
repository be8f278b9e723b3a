package searchindex

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/phash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashWithBits(n int) phash.Hash {
	var h phash.Hash
	for i := 0; i < n; i++ {
		h[i/64] |= 1 << uint(i%64)
	}
	return h
}

func TestHashIndexFindNearest(t *testing.T) {
	idx := NewHashIndex(4)
	idx.Add(hashWithBits(20))
	idx.Add(hashWithBits(3))
	idx.Add(hashWithBits(3))
	idx.Add(hashWithBits(40))

	slot, dist, ok := idx.FindNearest(hashWithBits(0), 5)
	require.True(t, ok)
	assert.Equal(t, 1, slot, "ties resolve to the first inserted slot")
	assert.Equal(t, 3, dist)

	_, _, ok = idx.FindNearest(hashWithBits(0), 2)
	assert.False(t, ok)

	slot, dist, ok = idx.FindNearest(hashWithBits(40), 5)
	require.True(t, ok)
	assert.Equal(t, 3, slot)
	assert.Equal(t, 0, dist)
}

func TestHashIndexEmpty(t *testing.T) {
	_, _, ok := NewHashIndex(0).FindNearest(phash.Hash{}, 5)
	assert.False(t, ok)
}

func TestFlatIndexSearchOrdering(t *testing.T) {
	idx := NewFlatIndex(2)
	require.NoError(t, idx.Add([]float32{1, 0}, 0))
	require.NoError(t, idx.Add([]float32{0, 1}, 1))
	require.NoError(t, idx.Add([]float32{3, 3}, 2))
	require.NoError(t, idx.Add([]float32{2, 0}, 3))

	hits, err := idx.Search([]float32{5, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 4)

	assert.Equal(t, []int{0, 3, 2, 1}, slots(hits), "equal scores keep slot order")
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.7071, hits[2].Score, 1e-4)

	top, err := idx.Search([]float32{5, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, slots(top))
}

func TestFlatIndexRejectsBadInput(t *testing.T) {
	idx := NewFlatIndex(3)
	require.ErrorIs(t, idx.Add([]float32{1, 2}, 0), e.ErrDimensionMismatch)
	require.ErrorIs(t, idx.Add([]float32{1, 2, 3}, 1), e.ErrSlotOutOfOrder)
	require.NoError(t, idx.Add([]float32{1, 2, 3}, 0))

	_, err := idx.Search([]float32{1}, 1)
	require.ErrorIs(t, err, e.ErrDimensionMismatch)

	hits, err := idx.Search([]float32{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestHNSWMatchesFlatOnSmallIndex(t *testing.T) {
	flat := NewFlatIndex(8)
	approx := NewHNSWIndex(8, DefaultHNSWOptions())
	for slot := 0; slot < 50; slot++ {
		vec := make([]float32, 8)
		vec[slot%8] = float32(slot + 1)
		vec[(slot+3)%8] = 1
		require.NoError(t, flat.Add(vec, slot))
		require.NoError(t, approx.Add(vec, slot))
	}

	query := []float32{1, 0.2, 0, 0, 0, 0, 0, 0}
	want, err := flat.Search(query, 5)
	require.NoError(t, err)
	got, err := approx.Search(query, 5)
	require.NoError(t, err)

	require.NotEmpty(t, got)
	assert.Equal(t, want[0].Slot, got[0].Slot)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestSnapshotRejectsMisalignedStores(t *testing.T) {
	hashes := NewHashIndex(2)
	hashes.Add(phash.Hash{})
	hashes.Add(phash.Hash{})
	vectors := NewFlatIndex(2)
	require.NoError(t, vectors.Add([]float32{1, 0}, 0))
	metadata := NewMetadataStore(1)
	metadata.Add(domain.ImageMetadata{ProductURL: "a"})

	_, err := NewSnapshot(domain.Manifest{}, hashes, vectors, metadata)
	require.ErrorIs(t, err, e.ErrIndexInconsistent)
}

func TestBuilderKeepsStoresAligned(t *testing.T) {
	b, err := NewBuilder(BackendFlat, 2, 3)
	require.NoError(t, err)

	_, err = b.Append(phash.Hash{}, []float32{1, 0}, domain.ImageMetadata{ProductURL: "a"})
	require.NoError(t, err)
	_, err = b.Append(phash.Hash{}, []float32{1, 0, 0}, domain.ImageMetadata{ProductURL: "b"})
	require.ErrorIs(t, err, e.ErrDimensionMismatch)
	slot, err := b.Append(phash.Hash{}, []float32{0, 1}, domain.ImageMetadata{ProductURL: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, slot)

	snap, err := b.Build(domain.Manifest{Generation: "g1"})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Hashes.Len())
	assert.Equal(t, 2, snap.Vectors.Len())
	assert.Equal(t, 2, snap.Metadata.Len())
	assert.Equal(t, 1, snap.Manifest.Products)
	assert.Equal(t, phash.Bits, snap.Manifest.HashBits)
}

func TestCodecRoundTrip(t *testing.T) {
	b, err := NewBuilder(BackendFlat, 4, 3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := b.Append(hashWithBits(i*7), []float32{float32(i), 1, 2, 3}, domain.ImageMetadata{
			ProductName: fmt.Sprintf("Watch %d", i),
			ProductURL:  fmt.Sprintf("https://shop/p/%d", i),
			ImageURL:    fmt.Sprintf("https://cdn/%d.jpg", i),
			Price:       "1299",
		})
		require.NoError(t, err)
	}
	snap, err := b.Build(domain.Manifest{})
	require.NoError(t, err)

	var emb, hashes, meta bytes.Buffer
	require.NoError(t, WriteEmbeddings(&emb, snap.Vectors))
	require.NoError(t, WriteHashes(&hashes, snap.Hashes))
	require.NoError(t, WriteMetadata(&meta, snap.Metadata))

	vectors, err := ReadEmbeddings(&emb, BackendFlat)
	require.NoError(t, err)
	hashIdx, err := ReadHashes(&hashes)
	require.NoError(t, err)
	store, err := ReadMetadata(&meta)
	require.NoError(t, err)

	require.Equal(t, 3, vectors.Len())
	for slot := 0; slot < 3; slot++ {
		want, _ := snap.Vectors.Vector(slot)
		got, _ := vectors.Vector(slot)
		assert.Equal(t, want, got)

		wantHash, _ := snap.Hashes.Hash(slot)
		gotHash, _ := hashIdx.Hash(slot)
		assert.Equal(t, wantHash, gotHash)

		wantMeta, _ := snap.Metadata.Get(slot)
		gotMeta, _ := store.Get(slot)
		assert.Equal(t, wantMeta, gotMeta)
	}
}

func TestReadEmbeddingsRejectsGarbage(t *testing.T) {
	_, err := ReadEmbeddings(bytes.NewReader([]byte("nope, not an index")), BackendFlat)
	require.ErrorIs(t, err, e.ErrArtifactCorrupted)

	b, err := NewBuilder(BackendFlat, 2, 1)
	require.NoError(t, err)
	_, err = b.Append(phash.Hash{}, []float32{1, 1}, domain.ImageMetadata{})
	require.NoError(t, err)
	snap, err := b.Build(domain.Manifest{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteEmbeddings(&buf, snap.Vectors))
	truncated := buf.Bytes()[:buf.Len()-2]
	_, err = ReadEmbeddings(bytes.NewReader(truncated), BackendFlat)
	require.ErrorIs(t, err, e.ErrArtifactCorrupted)
}

func TestNewEmbeddingIndexUnknownBackend(t *testing.T) {
	_, err := NewEmbeddingIndex("annoy", 4)
	require.ErrorIs(t, err, e.ErrUnsupportedBackend)
}

func slots(hits []Hit) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.Slot
	}
	return out
}
