package converter

import "time"

// ProductModel: строка выборки товара каталога вместе с категорией и изображениями.
type ProductModel struct {
	ID           int64    `db:"id"`
	Name         string   `db:"name"`
	URL          string   `db:"url"`
	Price        *int64   `db:"price"`
	CategoryName *string  `db:"category_name"`
	CategoryKey  *string  `db:"category_key"`
	ImageURLs    []string `db:"image_urls"`
}

// BuildModel представляет запись таблицы index_builds в PostgreSQL.
type BuildModel struct {
	ID            int64      `db:"id"`
	Generation    string     `db:"generation"`
	Status        string     `db:"status"`
	Products      int        `db:"products"`
	ImagesTotal   int        `db:"images_total"`
	ImagesIndexed int        `db:"images_indexed"`
	ImagesSkipped int        `db:"images_skipped"`
	Error         *string    `db:"error"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    *time.Time `db:"finished_at"`
}

// BuildSkipModel представляет запись таблицы index_build_skips.
type BuildSkipModel struct {
	BuildID    int64  `db:"build_id"`
	ProductURL string `db:"product_url"`
	ImageURL   string `db:"image_url"`
	Reason     string `db:"reason"`
}
