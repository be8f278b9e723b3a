package pgdb

import (
	"context"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CatalogRepo читает каталог товаров из PostgreSQL.
type CatalogRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewCatalogRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *CatalogRepo {
	return &CatalogRepo{
		pool: pool,
		conv: conv,
	}
}

// ListProducts возвращает активные товары с изображениями в порядке id.
// Порядок стабилен, поэтому слоты индекса воспроизводимы между сборками.
func (c *CatalogRepo) ListProducts(ctx context.Context) ([]domain.CatalogProduct, error) {
	query := `
		SELECT
			pr.id, pr.name, pr.url, pr.price, cat.name, cat.key,
			COALESCE(
				array_agg(img.url ORDER BY img.position, img.id) FILTER (WHERE img.url IS NOT NULL),
				'{}'
			) AS image_urls
		FROM products pr
		LEFT JOIN categories cat ON pr.category_id = cat.id
		LEFT JOIN product_images img ON img.product_id = pr.id
		WHERE NOT pr.is_archived
		GROUP BY pr.id, cat.name, cat.key
		ORDER BY pr.id
	`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.ProductModel, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(
			&model.ID, &model.Name, &model.URL, &model.Price,
			&model.CategoryName, &model.CategoryKey, &model.ImageURLs,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToArrEntity(models), nil
}
