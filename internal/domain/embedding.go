package domain

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// Embedding представляет эмбеддинг одного изображения каталога в зеркале Qdrant
type Embedding struct {
	ID      string
	Vector  []float32
	Payload Payload
}

func NewEmbedding(id string, vector []float32, payload Payload) *Embedding {
	return &Embedding{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}

func NewPayload(generation string, slot int, meta ImageMetadata) Payload {
	return Payload{
		"generation":   generation,
		"slot":         int64(slot),
		"product_name": meta.ProductName,
		"product_url":  meta.ProductURL,
		"image_url":    meta.ImageURL,
		"price":        meta.Price,
		"category":     meta.Category,
	}
}
