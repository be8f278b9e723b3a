package searchindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/phash"
	"github.com/vmihailenco/msgpack/v5"
)

// Формат embeddings.bin (little-endian):
//
//	magic   [4]byte "VSEI"
//	version uint32
//	dim     uint32
//	count   uint32
//	rows    count*dim float32
var embeddingsMagic = [4]byte{'V', 'S', 'E', 'I'}

const embeddingsVersion uint32 = 1

type hashEntry struct {
	Slot int    `msgpack:"slot"`
	Hash string `msgpack:"hash"`
}

// WriteEmbeddings сериализует векторы индекса в порядке слотов.
func WriteEmbeddings(w io.Writer, idx EmbeddingIndex) error {
	bw := bufio.NewWriter(w)

	header := []uint32{embeddingsVersion, uint32(idx.Dimension()), uint32(idx.Len())}
	if _, err := bw.Write(embeddingsMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return err
	}

	for slot := 0; slot < idx.Len(); slot++ {
		vec, _ := idx.Vector(slot)
		if err := binary.Write(bw, binary.LittleEndian, vec); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadEmbeddings читает векторы в индекс выбранного типа.
func ReadEmbeddings(r io.Reader, backend string) (EmbeddingIndex, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, e.Wrap("embeddings header", e.ErrArtifactCorrupted)
	}
	if magic != embeddingsMagic {
		return nil, e.Wrap("embeddings magic", e.ErrArtifactCorrupted)
	}

	var header [3]uint32
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, e.Wrap("embeddings header", e.ErrArtifactCorrupted)
	}
	if header[0] != embeddingsVersion {
		return nil, e.Wrap(fmt.Sprintf("embeddings version %d", header[0]), e.ErrArtifactCorrupted)
	}
	dim, count := int(header[1]), int(header[2])

	idx, err := NewEmbeddingIndex(backend, dim)
	if err != nil {
		return nil, err
	}

	row := make([]float32, dim)
	for slot := 0; slot < count; slot++ {
		if err := binary.Read(br, binary.LittleEndian, row); err != nil {
			return nil, e.Wrap(fmt.Sprintf("embeddings row %d", slot), e.ErrArtifactCorrupted)
		}
		if err := idx.Add(row, slot); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// WriteHashes сериализует отображение слот → hex-хеш.
func WriteHashes(w io.Writer, idx *HashIndex) error {
	entries := make([]hashEntry, idx.Len())
	for slot := range entries {
		h, _ := idx.Hash(slot)
		entries[slot] = hashEntry{Slot: slot, Hash: h.String()}
	}
	return msgpack.NewEncoder(w).Encode(entries)
}

func ReadHashes(r io.Reader) (*HashIndex, error) {
	var entries []hashEntry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrArtifactCorrupted)
	}

	idx := NewHashIndex(len(entries))
	for i, entry := range entries {
		if entry.Slot != i {
			return nil, e.Wrap(fmt.Sprintf("hash slot %d at position %d", entry.Slot, i), e.ErrArtifactCorrupted)
		}
		h, err := phash.Parse(entry.Hash)
		if err != nil {
			return nil, e.Wrap(fmt.Sprintf("hash slot %d", i), err)
		}
		idx.Add(h)
	}

	return idx, nil
}

func WriteMetadata(w io.Writer, store *MetadataStore) error {
	return msgpack.NewEncoder(w).Encode(store.records)
}

func ReadMetadata(r io.Reader) (*MetadataStore, error) {
	var records []domain.ImageMetadata
	if err := msgpack.NewDecoder(r).Decode(&records); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrArtifactCorrupted)
	}
	return &MetadataStore{records: records}, nil
}
