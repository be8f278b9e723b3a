package converter

import (
	"github.com/DRSN-tech/visual-search/internal/domain"
)

// ProductConverter преобразует строки каталога PostgreSQL в domain.CatalogProduct.
type ProductConverter struct{}

func (ProductConverter) ToEntity(model *ProductModel) domain.CatalogProduct {
	price := domain.DefaultPrice
	if model.Price != nil {
		price = domain.PriceFromMinorUnits(*model.Price)
	}

	return domain.CatalogProduct{
		Name:        model.Name,
		URL:         model.URL,
		Price:       price,
		Category:    deref(model.CategoryName),
		CategoryKey: deref(model.CategoryKey),
		ImageURLs:   model.ImageURLs,
	}
}

func (c ProductConverter) ToArrEntity(models []ProductModel) []domain.CatalogProduct {
	result := make([]domain.CatalogProduct, len(models))
	for i := range models {
		result[i] = c.ToEntity(&models[i])
	}
	return result
}

// BuildConverter преобразует отчёт о сборке в модели PostgreSQL.
type BuildConverter struct{}

func (BuildConverter) ToModel(report *domain.BuildReport) *BuildModel {
	model := &BuildModel{
		Generation:    report.Generation,
		Status:        string(report.Status),
		Products:      report.Products,
		ImagesTotal:   report.ImagesTotal,
		ImagesIndexed: report.ImagesIndexed,
		ImagesSkipped: len(report.Skipped),
		StartedAt:     report.StartedAt,
	}
	if !report.FinishedAt.IsZero() {
		finished := report.FinishedAt
		model.FinishedAt = &finished
	}
	if report.Error != "" {
		msg := report.Error
		model.Error = &msg
	}
	return model
}

func (BuildConverter) ToSkipModels(buildID int64, skipped []domain.SkippedImage) []BuildSkipModel {
	result := make([]BuildSkipModel, len(skipped))
	for i, s := range skipped {
		result[i] = BuildSkipModel{
			BuildID:    buildID,
			ProductURL: s.ProductURL,
			ImageURL:   s.ImageURL,
			Reason:     s.Reason,
		}
	}
	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
