package pgdb

import (
	"context"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// BuildHistoryRepo ведёт журнал сборок индекса в таблицах index_builds и index_build_skips.
type BuildHistoryRepo struct {
	pool *pgxpool.Pool
	conv converter.BuildConverter
}

func NewBuildHistoryRepo(pool *pgxpool.Pool, conv converter.BuildConverter) *BuildHistoryRepo {
	return &BuildHistoryRepo{
		pool: pool,
		conv: conv,
	}
}

// Start регистрирует начатую сборку. Повторный вызов для того же поколения ничего не меняет.
func (b *BuildHistoryRepo) Start(ctx context.Context, report *domain.BuildReport) error {
	model := b.conv.ToModel(report)
	query := `
		INSERT INTO index_builds (generation, status, started_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (generation) DO NOTHING
	`

	if _, err := b.pool.Exec(ctx, query, model.Generation, model.Status, model.StartedAt); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}

// Finish записывает итог сборки и список пропущенных изображений в одной транзакции.
func (b *BuildHistoryRepo) Finish(ctx context.Context, report *domain.BuildReport) error {
	const op = "BuildHistoryRepo.Finish"

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, b.pool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	buildID, err := b.upsertBuild(ctx, b.conv.ToModel(report))
	if err != nil {
		return e.Wrap(op, err)
	}

	err = b.replaceSkips(ctx, b.conv.ToSkipModels(buildID, report.Skipped))
	if err != nil {
		return e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}
	return nil
}

func (b *BuildHistoryRepo) upsertBuild(ctx context.Context, model *converter.BuildModel) (int64, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO index_builds (
			generation, status, products, images_total, images_indexed, images_skipped,
			error, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (generation)
		DO UPDATE SET
			status = EXCLUDED.status,
			products = EXCLUDED.products,
			images_total = EXCLUDED.images_total,
			images_indexed = EXCLUDED.images_indexed,
			images_skipped = EXCLUDED.images_skipped,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, query,
		model.Generation,
		model.Status,
		model.Products,
		model.ImagesTotal,
		model.ImagesIndexed,
		model.ImagesSkipped,
		model.Error,
		model.StartedAt,
		model.FinishedAt,
	).Scan(&id)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return id, nil
}

func (b *BuildHistoryRepo) replaceSkips(ctx context.Context, skips []converter.BuildSkipModel) error {
	if len(skips) == 0 {
		return nil
	}

	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM index_build_skips WHERE build_id = $1`, skips[0].BuildID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"index_build_skips"},
		[]string{"build_id", "product_url", "image_url", "reason"},
		pgx.CopyFromSlice(len(skips), func(i int) ([]any, error) {
			s := skips[i]
			return []any{s.BuildID, s.ProductURL, s.ImageURL, s.Reason}, nil
		}),
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
