package domain

// ImageMetadata: денормализованные атрибуты товара для одного изображения каталога.
type ImageMetadata struct {
	ProductName string `msgpack:"product_name" json:"product_name"`
	ProductURL  string `msgpack:"product_url" json:"product_url"`
	ImageURL    string `msgpack:"image_url" json:"image_url"`
	Price       string `msgpack:"price" json:"price"`
	Category    string `msgpack:"category" json:"category"`
	CategoryKey string `msgpack:"category_key" json:"category_key"`
}

func NewImageMetadata(product *CatalogProduct, imageURL string) ImageMetadata {
	return ImageMetadata{
		ProductName: product.Name,
		ProductURL:  product.URL,
		ImageURL:    imageURL,
		Price:       product.Price,
		Category:    product.Category,
		CategoryKey: product.CategoryKey,
	}
}
