package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrice подставляется, если в каталоге у товара нет цены.
const DefaultPrice = "N/A"

// CatalogProduct описывает товар, полученный из внешнего каталога.
type CatalogProduct struct {
	Name        string
	URL         string
	Price       string
	Category    string
	CategoryKey string
	ImageURLs   []string
}

func NewCatalogProduct(name, url, price, category, categoryKey string, imageURLs []string) *CatalogProduct {
	return &CatalogProduct{
		Name:        name,
		URL:         url,
		Price:       price,
		Category:    category,
		CategoryKey: categoryKey,
		ImageURLs:   imageURLs,
	}
}

// NormalizePrice приводит цену к виду "1299" / "1299.50".
// Символы валюты, пробелы и разделители тысяч отбрасываются. Если разобрать не удалось,
// возвращается исходная строка, а для пустой: DefaultPrice.
func NormalizePrice(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultPrice
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	cleaned = strings.TrimLeft(cleaned, ".")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return s
	}
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String()
	}
	return d.StringFixed(2)
}

// PriceFromMinorUnits форматирует цену, хранящуюся в минимальных единицах (копейки, пайсы).
func PriceFromMinorUnits(minor int64) string {
	return NormalizePrice(decimal.New(minor, -2).String())
}
