package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/visual-search/internal/domain"
)

type SearchUC interface {
	Search(ctx context.Context, req *SearchReq) (domain.SearchResult, error)
	Reload(ctx context.Context) (*ReloadRes, error)
	Health(ctx context.Context) *HealthRes
	Stats() (*StatsRes, error)
}

type IndexerUC interface {
	Build(ctx context.Context) (*domain.BuildReport, error)
	Verify(ctx context.Context) (*domain.Manifest, error)
	RunEvery(ctx context.Context, interval time.Duration) error
}
