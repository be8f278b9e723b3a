package usecase

import (
	"context"

	"github.com/DRSN-tech/visual-search/internal/domain"
)

// EncoderInfra: внешний энкодер эмбеддингов (CLIP-подобная модель).
type EncoderInfra interface {
	EmbedImage(ctx context.Context, image []byte) (*EmbedRes, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Ping(ctx context.Context) error
}

// ImageNormalizer декодирует изображение и приводит к каноническому виду.
type ImageNormalizer interface {
	Normalize(data []byte) (*CanonicalImage, error)
}

// ImageDownloader скачивает изображения каталога.
type ImageDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// ArtifactRemote: удалённое хранилище поколений (MinIO).
type ArtifactRemote interface {
	Upload(ctx context.Context, generation string, dir string) error
	Download(ctx context.Context, generation string, dir string) error
	CurrentGeneration(ctx context.Context) (string, error)
}

// EventPublisher публикует события о новых поколениях индекса.
type EventPublisher interface {
	PublishIndexPublished(ctx context.Context, event *domain.IndexPublishedEvent) error
}
