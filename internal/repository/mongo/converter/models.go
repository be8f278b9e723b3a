package converter

import "go.mongodb.org/mongo-driver/bson"

// ProductModel: документ каталога в MongoDB. Каталог наполняется парсерами разных лет,
// поэтому имя и ссылка встречаются под двумя ключами, а цена бывает строкой или числом.
type ProductModel struct {
	ProductName string        `bson:"product_name"`
	Name        string        `bson:"name"`
	ProductURL  string        `bson:"product_url"`
	URL         string        `bson:"url"`
	ImageURLs   []string      `bson:"image_urls"`
	Price       bson.RawValue `bson:"price"`
	Category    string        `bson:"category"`
	CategoryKey string        `bson:"category_key"`
}
