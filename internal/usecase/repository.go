package usecase

import (
	"context"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/searchindex"
)

// CatalogRepository: источник товаров каталога. Только чтение.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]domain.CatalogProduct, error)
}

// ArtifactRepository хранит поколения индекса на локальном диске.
type ArtifactRepository interface {
	// Publish атомарно записывает поколение и делает его текущим. ready (может быть nil)
	// вызывается до переключения; его ошибка оставляет текущим прежнее поколение.
	Publish(ctx context.Context, snapshot *searchindex.Snapshot, ready func(dir string) error) error
	// LoadCurrent загружает текущее поколение целиком.
	LoadCurrent(ctx context.Context, backend string) (*searchindex.Snapshot, error)
	CurrentGeneration() (string, error)
	HasGeneration(generation string) bool
	// Install скачивает поколение во временный каталог через fetch, проверяет и переносит на место.
	Install(ctx context.Context, generation string, fetch func(dir string) error) error
	Activate(generation string) error
	Verify(generation string) (*domain.Manifest, error)
}

// SearchCacheRepository кэширует результаты поиска. Промах: (nil, nil).
type SearchCacheRepository interface {
	Get(ctx context.Context, key string) (domain.SearchResult, error)
	Set(ctx context.Context, key string, result domain.SearchResult) error
}

// EmbeddingRepository зеркалирует векторы поколения во внешнее векторное хранилище.
type EmbeddingRepository interface {
	Upsert(ctx context.Context, vectors []domain.Embedding) error
	DeleteOtherGenerations(ctx context.Context, generation string) error
}

// BuildHistoryRepository ведёт журнал сборок индекса.
type BuildHistoryRepository interface {
	Start(ctx context.Context, report *domain.BuildReport) error
	Finish(ctx context.Context, report *domain.BuildReport) error
}
