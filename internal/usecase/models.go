package usecase

import (
	"image"
	"time"

	"github.com/DRSN-tech/visual-search/internal/domain"
)

// SEARCH USECASE

// SearchReq: запрос на поиск товара по изображению.
type SearchReq struct {
	Image    []byte // байты загруженного файла
	Filename string // оригинальное имя файла (для логов)
}

// HealthRes: состояние сервиса для проверки готовности.
type HealthRes struct {
	ModelLoaded     bool
	IndexLoaded     bool
	HashIndexLoaded bool
	IndexedImages   int
	Generation      string
}

// StatsRes: статистика загруженного поколения и действующие пороги.
type StatsRes struct {
	TotalVectors  int
	TotalImages   int
	HashIndexSize int
	Products      int
	Generation    string
	BuiltAt       time.Time
	ModelVersion  string
	Backend       string
	Thresholds    Thresholds
}

// Thresholds: пороги поиска.
type Thresholds struct {
	ExactMatchHash int
	NearExactHash  int
	High           float64
	Medium         float64
	Low            float64
	CategoryFloor  float64
}

// ReloadRes: результат перезагрузки индекса.
type ReloadRes struct {
	Generation string
	Images     int
	Changed    bool
}

// INFRASTRUCTURE

// CanonicalImage: изображение после декодирования, масштабирования и удаления альфа-канала.
type CanonicalImage struct {
	Image *image.RGBA
	PNG   []byte // то же изображение в PNG, отправляется энкодеру
}

// EmbedRes: вектор изображения от энкодера.
type EmbedRes struct {
	Vector       []float32
	ModelVersion string
}

// MAPPERS

func NewSearchReq(image []byte, filename string) *SearchReq {
	return &SearchReq{
		Image:    image,
		Filename: filename,
	}
}

func NewCanonicalImage(img *image.RGBA, png []byte) *CanonicalImage {
	return &CanonicalImage{
		Image: img,
		PNG:   png,
	}
}

func NewEmbedRes(vector []float32, modelVersion string) *EmbedRes {
	return &EmbedRes{
		Vector:       vector,
		ModelVersion: modelVersion,
	}
}

func NewIndexPublishedEvent(id string, report *domain.BuildReport, remote bool) *domain.IndexPublishedEvent {
	return &domain.IndexPublishedEvent{
		EventID:    id,
		Generation: report.Generation,
		Images:     report.ImagesIndexed,
		Remote:     remote,
		CreatedAt:  time.Now().UTC(),
	}
}
