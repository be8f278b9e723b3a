package converter

import (
	"strconv"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const unknownProductName = "Unknown"

// ProductConverter преобразует документы MongoDB в domain.CatalogProduct.
type ProductConverter struct{}

func (ProductConverter) ToEntity(model *ProductModel) domain.CatalogProduct {
	name := firstNonEmpty(model.ProductName, model.Name)
	if name == "" {
		name = unknownProductName
	}

	return domain.CatalogProduct{
		Name:        name,
		URL:         firstNonEmpty(model.ProductURL, model.URL),
		Price:       priceString(model),
		Category:    model.Category,
		CategoryKey: model.CategoryKey,
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

func priceString(model *ProductModel) string {
	v := model.Price
	switch v.Type {
	case bsontype.String:
		return domain.NormalizePrice(v.StringValue())
	case bsontype.Int32:
		return domain.NormalizePrice(strconv.FormatInt(int64(v.Int32()), 10))
	case bsontype.Int64:
		return domain.NormalizePrice(strconv.FormatInt(v.Int64(), 10))
	case bsontype.Double:
		return domain.NormalizePrice(strconv.FormatFloat(v.Double(), 'f', -1, 64))
	case bsontype.Decimal128:
		return domain.NormalizePrice(v.Decimal128().String())
	default:
		return domain.DefaultPrice
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
