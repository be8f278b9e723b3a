package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/searchindex"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
)

// Имена файлов поколения.
const (
	CurrentFile    = "CURRENT"
	ManifestFile   = "manifest.json"
	EmbeddingsFile = "embeddings.bin"
	MetadataFile   = "metadata.msgpack"
	HashesFile     = "hashes.msgpack"

	generationsDir = "generations"
	tmpPrefix      = ".tmp-"
)

// ArtifactFiles: файлы поколения, кроме манифеста.
var ArtifactFiles = []string{EmbeddingsFile, MetadataFile, HashesFile}

// FSRepository хранит поколения в каталоге:
//
//	<root>/CURRENT
//	<root>/generations/<id>/{manifest.json, embeddings.bin, metadata.msgpack, hashes.msgpack}
//
// Поколение пишется во временный каталог и переименовывается целиком; CURRENT переключается
// через rename, поэтому читатель видит либо старое, либо новое поколение.
type FSRepository struct {
	root   string
	keep   int
	logger logger.Logger
}

func NewFSRepository(cfg *cfg.IndexCfg, logger logger.Logger) *FSRepository {
	return &FSRepository{
		root:   cfg.ArtifactDir,
		keep:   cfg.KeepGenerations,
		logger: logger,
	}
}

func (r *FSRepository) GenerationDir(generation string) string {
	return filepath.Join(r.root, generationsDir, generation)
}

func (r *FSRepository) HasGeneration(generation string) bool {
	if !validGeneration(generation) {
		return false
	}
	_, err := os.Stat(filepath.Join(r.GenerationDir(generation), ManifestFile))
	return err == nil
}

// Publish записывает поколение, делает его текущим и удаляет старые поколения.
// Если задан ready, он вызывается с каталогом записанного поколения до переключения CURRENT;
// ошибка ready оставляет текущим прежнее поколение, а новое удаляется.
func (r *FSRepository) Publish(ctx context.Context, snapshot *searchindex.Snapshot, ready func(dir string) error) error {
	const op = "FSRepository.Publish"

	generation := snapshot.Manifest.Generation
	if !validGeneration(generation) {
		return e.Wrap(op, fmt.Errorf("invalid generation id %q", generation))
	}

	err := r.Install(ctx, generation, func(dir string) error {
		return writeGeneration(dir, snapshot)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	if ready != nil {
		if err := ready(r.GenerationDir(generation)); err != nil {
			if rmErr := os.RemoveAll(r.GenerationDir(generation)); rmErr != nil {
				r.logger.Warnf("failed to remove unpublished generation %s: %v", generation, rmErr)
			}
			return e.Wrap(op, err)
		}
	}

	if err := r.Activate(generation); err != nil {
		return e.Wrap(op, err)
	}

	if err := r.Prune(); err != nil {
		r.logger.Warnf("failed to prune old generations: %v", err)
	}
	return nil
}

// Install заполняет временный каталог через fetch, проверяет контрольные суммы
// и атомарно переносит каталог на место поколения.
func (r *FSRepository) Install(ctx context.Context, generation string, fetch func(dir string) error) error {
	const op = "FSRepository.Install"

	if !validGeneration(generation) {
		return e.Wrap(op, fmt.Errorf("invalid generation id %q", generation))
	}

	base := filepath.Join(r.root, generationsDir)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return e.Wrap(op, err)
	}

	tmp, err := os.MkdirTemp(base, tmpPrefix+generation+"-")
	if err != nil {
		return e.Wrap(op, err)
	}
	defer os.RemoveAll(tmp)

	if err := fetch(tmp); err != nil {
		return e.Wrap(op, err)
	}
	if err := ctx.Err(); err != nil {
		return e.Wrap(op, err)
	}

	manifest, err := verifyDir(tmp)
	if err != nil {
		return e.Wrap(op, err)
	}
	if manifest.Generation != generation {
		return e.Wrap(op, fmt.Errorf("%w: manifest generation %q, expected %q", e.ErrArtifactCorrupted, manifest.Generation, generation))
	}

	target := r.GenerationDir(generation)
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := os.Rename(tmp, target); err != nil {
		return e.Wrap(op, err)
	}
	return nil
}

// Activate переключает CURRENT на существующее поколение.
func (r *FSRepository) Activate(generation string) error {
	const op = "FSRepository.Activate"

	if !r.HasGeneration(generation) {
		return e.Wrap(op, fmt.Errorf("%w: %s", e.ErrNoGeneration, generation))
	}

	current := filepath.Join(r.root, CurrentFile)
	tmp := current + ".tmp"
	if err := writeFileSync(tmp, []byte(generation+"\n")); err != nil {
		return e.Wrap(op, err)
	}
	if err := os.Rename(tmp, current); err != nil {
		return e.Wrap(op, err)
	}
	return nil
}

func (r *FSRepository) CurrentGeneration() (string, error) {
	const op = "FSRepository.CurrentGeneration"

	data, err := os.ReadFile(filepath.Join(r.root, CurrentFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", e.Wrap(op, e.ErrNoGeneration)
	}
	if err != nil {
		return "", e.Wrap(op, err)
	}

	generation := strings.TrimSpace(string(data))
	if !validGeneration(generation) {
		return "", e.Wrap(op, fmt.Errorf("%w: CURRENT contains %q", e.ErrArtifactCorrupted, generation))
	}
	return generation, nil
}

// LoadCurrent загружает текущее поколение, проверяя контрольные суммы и согласованность хранилищ.
func (r *FSRepository) LoadCurrent(ctx context.Context, backend string) (*searchindex.Snapshot, error) {
	const op = "FSRepository.LoadCurrent"

	generation, err := r.CurrentGeneration()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	snapshot, err := loadDir(ctx, r.GenerationDir(generation), backend)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return snapshot, nil
}

// Verify проверяет контрольные суммы файлов поколения.
func (r *FSRepository) Verify(generation string) (*domain.Manifest, error) {
	const op = "FSRepository.Verify"

	if !r.HasGeneration(generation) {
		return nil, e.Wrap(op, fmt.Errorf("%w: %s", e.ErrNoGeneration, generation))
	}

	manifest, err := verifyDir(r.GenerationDir(generation))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return manifest, nil
}

// Prune оставляет keep последних поколений; текущее поколение не удаляется никогда.
func (r *FSRepository) Prune() error {
	if r.keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(filepath.Join(r.root, generationsDir))
	if err != nil {
		return err
	}

	current, _ := r.CurrentGeneration()

	var generations []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), tmpPrefix) {
			generations = append(generations, entry.Name())
		}
	}
	// идентификаторы начинаются с UTC-времени, поэтому лексикографический порядок хронологический
	sort.Sort(sort.Reverse(sort.StringSlice(generations)))

	for i, generation := range generations {
		if i < r.keep || generation == current {
			continue
		}
		if err := os.RemoveAll(r.GenerationDir(generation)); err != nil {
			return err
		}
		r.logger.Infof("pruned generation %s", generation)
	}
	return nil
}

func writeGeneration(dir string, snapshot *searchindex.Snapshot) error {
	manifest := snapshot.Manifest
	manifest.Checksums = make(map[string]string, len(ArtifactFiles))

	writers := map[string]func(io.Writer) error{
		EmbeddingsFile: func(w io.Writer) error { return searchindex.WriteEmbeddings(w, snapshot.Vectors) },
		MetadataFile:   func(w io.Writer) error { return searchindex.WriteMetadata(w, snapshot.Metadata) },
		HashesFile:     func(w io.Writer) error { return searchindex.WriteHashes(w, snapshot.Hashes) },
	}

	for _, name := range ArtifactFiles {
		var buf bytes.Buffer
		if err := writers[name](&buf); err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := writeFileSync(filepath.Join(dir, name), buf.Bytes()); err != nil {
			return err
		}
		manifest.Checksums[name] = checksum(buf.Bytes())
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return writeFileSync(filepath.Join(dir, ManifestFile), data)
}

func readManifest(dir string) (*domain.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest domain.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", e.ErrArtifactCorrupted, err)
	}
	return &manifest, nil
}

// readVerified читает файлы поколения и сверяет их с контрольными суммами манифеста.
func readVerified(dir string) (*domain.Manifest, map[string][]byte, error) {
	manifest, err := readManifest(dir)
	if err != nil {
		return nil, nil, err
	}

	files := make(map[string][]byte, len(ArtifactFiles))
	for _, name := range ArtifactFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}

		want, ok := manifest.Checksums[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: no checksum for %s", e.ErrArtifactCorrupted, name)
		}
		if got := checksum(data); got != want {
			return nil, nil, fmt.Errorf("%w: %s checksum %s, manifest %s", e.ErrArtifactCorrupted, name, got, want)
		}
		files[name] = data
	}

	return manifest, files, nil
}

func verifyDir(dir string) (*domain.Manifest, error) {
	manifest, _, err := readVerified(dir)
	return manifest, err
}

func loadDir(ctx context.Context, dir, backend string) (*searchindex.Snapshot, error) {
	manifest, files, err := readVerified(dir)
	if err != nil {
		return nil, err
	}

	hashes, err := searchindex.ReadHashes(bytes.NewReader(files[HashesFile]))
	if err != nil {
		return nil, err
	}
	metadata, err := searchindex.ReadMetadata(bytes.NewReader(files[MetadataFile]))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors, err := searchindex.ReadEmbeddings(bytes.NewReader(files[EmbeddingsFile]), backend)
	if err != nil {
		return nil, err
	}

	snapshot, err := searchindex.NewSnapshot(*manifest, hashes, vectors, metadata)
	if err != nil {
		return nil, err
	}
	if manifest.Images != snapshot.Len() {
		return nil, e.Wrap(fmt.Sprintf("manifest images %d, loaded %d", manifest.Images, snapshot.Len()), e.ErrIndexInconsistent)
	}
	return snapshot, nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func validGeneration(generation string) bool {
	return generation != "" &&
		!strings.HasPrefix(generation, ".") &&
		!strings.ContainsAny(generation, `/\`) &&
		generation != ".."
}
