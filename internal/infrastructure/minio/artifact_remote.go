package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"
)

const currentObject = "CURRENT"

// ArtifactRemote хранит поколения индекса в бакете MinIO:
// <prefix>/<generation>/<file> и указатель <prefix>/CURRENT.
// Указатель переписывается только после загрузки всех файлов поколения.
type ArtifactRemote struct {
	mc          *minio.Client
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
	uploadLimit int
}

func NewArtifactRemote(mc *minio.Client, cfg *cfg.MinIOCfg, logger logger.Logger) *ArtifactRemote {
	const defaultUploadLimit = 4

	return &ArtifactRemote{
		mc:          mc,
		cfg:         cfg,
		logger:      logger,
		uploadLimit: defaultUploadLimit,
	}
}

// Upload загружает файлы каталога поколения параллельно и переключает CURRENT.
// При ошибке уже загруженные объекты удаляются в фоне.
func (m *ArtifactRemote) Upload(ctx context.Context, generation string, dir string) error {
	const op = "ArtifactRemote.Upload"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return e.Wrap(op, err)
	}

	keys := make(chan string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.uploadLimit)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			key := m.objectKey(generation, name)
			if _, err := m.mc.FPutObject(gctx, m.cfg.BucketName, key, filepath.Join(dir, name), minio.PutObjectOptions{
				ContentType: contentType(name),
			}); err != nil {
				return fmt.Errorf("upload %s failed: %w", name, err)
			}
			keys <- key
			return nil
		})
	}

	err = g.Wait()
	close(keys)
	if err != nil {
		uploaded := make([]string, 0, len(entries))
		for k := range keys {
			uploaded = append(uploaded, k)
		}
		go m.cleanup(uploaded)
		return e.Wrap(op, err)
	}

	pointer := strings.NewReader(generation)
	if _, err := m.mc.PutObject(ctx, m.cfg.BucketName, m.currentKey(), pointer, pointer.Size(), minio.PutObjectOptions{
		ContentType: "text/plain",
	}); err != nil {
		return e.Wrap(op, err)
	}

	m.logger.Infof("generation %s uploaded to %s/%s", generation, m.cfg.BucketName, m.generationPrefix(generation))
	return nil
}

// Download скачивает все объекты поколения в dir.
func (m *ArtifactRemote) Download(ctx context.Context, generation string, dir string) error {
	const op = "ArtifactRemote.Download"

	prefix := m.generationPrefix(generation) + "/"
	found := 0
	for obj := range m.mc.ListObjects(ctx, m.cfg.BucketName, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return e.Wrap(op, obj.Err)
		}
		name := path.Base(obj.Key)
		if err := m.mc.FGetObject(ctx, m.cfg.BucketName, obj.Key, filepath.Join(dir, name), minio.GetObjectOptions{}); err != nil {
			return e.Wrap(op, err)
		}
		found++
	}

	if found == 0 {
		return e.Wrap(op, fmt.Errorf("%w: %s not found in remote storage", e.ErrNoGeneration, generation))
	}
	return nil
}

// CurrentGeneration читает указатель CURRENT.
func (m *ArtifactRemote) CurrentGeneration(ctx context.Context) (string, error) {
	const op = "ArtifactRemote.CurrentGeneration"

	obj, err := m.mc.GetObject(ctx, m.cfg.BucketName, m.currentKey(), minio.GetObjectOptions{})
	if err != nil {
		return "", e.Wrap(op, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, 256))
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", e.Wrap(op, e.ErrNoGeneration)
		}
		return "", e.Wrap(op, err)
	}

	generation := strings.TrimSpace(string(data))
	if generation == "" {
		return "", e.Wrap(op, e.ErrNoGeneration)
	}
	return generation, nil
}

// cleanup удаляет объекты неудачной загрузки.
func (m *ArtifactRemote) cleanup(keys []string) {
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	for _, key := range keys {
		if err := m.mc.RemoveObject(ctx, m.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.Warnf("cleanup of partial upload failed: %v", err)
	}
}

func (m *ArtifactRemote) generationPrefix(generation string) string {
	return path.Join(m.cfg.Prefix, generation)
}

func (m *ArtifactRemote) objectKey(generation, name string) string {
	return path.Join(m.cfg.Prefix, generation, name)
}

func (m *ArtifactRemote) currentKey() string {
	return path.Join(m.cfg.Prefix, currentObject)
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
