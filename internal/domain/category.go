package domain

// Category: человекочитаемая категория товара.
type Category string

const (
	CategoryWatch      Category = "watch"
	CategoryBag        Category = "bag"
	CategorySunglasses Category = "sunglasses"
	CategoryShoes      Category = "shoes"
	CategoryWallet     Category = "wallet"
	CategoryBracelet   Category = "bracelet"

	// CategoryFallback используется, если ни одно ключевое слово не совпало.
	CategoryFallback Category = "watches"
	// CategoryUnknown: категория изображения не определена.
	CategoryUnknown Category = ""
)
