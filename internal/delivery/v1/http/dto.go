package http

import (
	"time"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/usecase"
)

const (
	MethodPerceptualHash = "perceptual_hash"
	MethodClipSimilarity = "clip_similarity"

	noMatchMessage = "No matching product found in catalog"
)

// SearchResponse: плоское JSON-представление результата поиска.
// Набор заполненных полей зависит от status.
type SearchResponse struct {
	Status           domain.MatchStatus `json:"status"`
	Method           string             `json:"method,omitempty"`
	Message          string             `json:"message,omitempty"`
	ProductName      string             `json:"product_name,omitempty"`
	ProductURL       string             `json:"product_url,omitempty"`
	Price            string             `json:"price,omitempty"`
	Category         string             `json:"category,omitempty"`
	MatchedImageURL  string             `json:"matched_image_url,omitempty"`
	Confidence       domain.Confidence  `json:"confidence,omitempty"`
	HammingDistance  *int               `json:"hamming_distance,omitempty"`
	SimilarityScore  float64            `json:"similarity_score"`
	DetectedCategory *string            `json:"detected_category,omitempty"`
	Top5Results      []RankedResponse   `json:"top_5_results,omitempty"`
}

type RankedResponse struct {
	ProductName     string  `json:"product_name"`
	ProductURL      string  `json:"product_url"`
	Price           string  `json:"price"`
	Category        string  `json:"category"`
	SimilarityScore float64 `json:"similarity_score"`
	ImageURL        string  `json:"image_url"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	Service         string `json:"service"`
	Version         string `json:"version"`
	ModelLoaded     bool   `json:"model_loaded"`
	IndexLoaded     bool   `json:"index_loaded"`
	HashIndexLoaded bool   `json:"hash_index_loaded"`
	IndexedImages   int    `json:"indexed_images"`
	Generation      string `json:"generation"`
}

type ThresholdsResponse struct {
	ExactMatchHash int     `json:"exact_match_hash"`
	NearExactHash  int     `json:"near_exact_hash"`
	High           float64 `json:"high"`
	Medium         float64 `json:"medium"`
	Low            float64 `json:"low"`
	CategoryFloor  float64 `json:"category_floor"`
}

type StatsResponse struct {
	TotalVectors  int                `json:"total_vectors"`
	TotalImages   int                `json:"total_images"`
	HashIndexSize int                `json:"hash_index_size"`
	Products      int                `json:"products"`
	Generation    string             `json:"generation"`
	BuiltAt       time.Time          `json:"built_at"`
	ModelVersion  string             `json:"model_version"`
	Backend       string             `json:"backend"`
	Thresholds    ThresholdsResponse `json:"thresholds"`
}

type ReloadResponse struct {
	Generation string `json:"generation"`
	Images     int    `json:"images"`
	Changed    bool   `json:"changed"`
}

func toSearchResponse(result domain.SearchResult) *SearchResponse {
	switch r := result.(type) {
	case *domain.ExactMatch:
		dist := r.HammingDistance
		return &SearchResponse{
			Status:          r.Status(),
			Method:          MethodPerceptualHash,
			ProductName:     r.Product.ProductName,
			ProductURL:      r.Product.ProductURL,
			Price:           r.Product.Price,
			Category:        string(r.Category),
			MatchedImageURL: r.Product.ImageURL,
			Confidence:      domain.ConfidenceExact,
			HammingDistance: &dist,
			SimilarityScore: 1.0,
		}
	case *domain.SimilarMatches:
		detected := string(r.DetectedCategory)
		return &SearchResponse{
			Status:           r.Status(),
			Method:           MethodClipSimilarity,
			ProductName:      r.Top.ProductName,
			ProductURL:       r.Top.ProductURL,
			Price:            r.Top.Price,
			Category:         string(r.Top.Category),
			MatchedImageURL:  r.Top.ImageURL,
			Confidence:       r.Confidence,
			SimilarityScore:  r.Top.CombinedScore,
			DetectedCategory: &detected,
			Top5Results:      toArrRankedResponse(r.Top5),
		}
	case *domain.NoMatch:
		return &SearchResponse{
			Status:          r.Status(),
			Message:         noMatchMessage,
			SimilarityScore: r.BestScore,
			Top5Results:     toArrRankedResponse(r.Top5),
		}
	default:
		return &SearchResponse{Status: domain.StatusNoMatch, Message: noMatchMessage}
	}
}

func toArrRankedResponse(products []domain.RankedProduct) []RankedResponse {
	res := make([]RankedResponse, len(products))
	for i, p := range products {
		res[i] = RankedResponse{
			ProductName:     p.ProductName,
			ProductURL:      p.ProductURL,
			Price:           p.Price,
			Category:        string(p.Category),
			SimilarityScore: p.CombinedScore,
			ImageURL:        p.ImageURL,
		}
	}
	return res
}

func toHealthResponse(res *usecase.HealthRes, service, version string) *HealthResponse {
	status := "healthy"
	if !res.IndexLoaded || !res.ModelLoaded {
		status = "degraded"
	}

	return &HealthResponse{
		Status:          status,
		Service:         service,
		Version:         version,
		ModelLoaded:     res.ModelLoaded,
		IndexLoaded:     res.IndexLoaded,
		HashIndexLoaded: res.HashIndexLoaded,
		IndexedImages:   res.IndexedImages,
		Generation:      res.Generation,
	}
}

func toStatsResponse(res *usecase.StatsRes) *StatsResponse {
	return &StatsResponse{
		TotalVectors:  res.TotalVectors,
		TotalImages:   res.TotalImages,
		HashIndexSize: res.HashIndexSize,
		Products:      res.Products,
		Generation:    res.Generation,
		BuiltAt:       res.BuiltAt,
		ModelVersion:  res.ModelVersion,
		Backend:       res.Backend,
		Thresholds: ThresholdsResponse{
			ExactMatchHash: res.Thresholds.ExactMatchHash,
			NearExactHash:  res.Thresholds.NearExactHash,
			High:           res.Thresholds.High,
			Medium:         res.Thresholds.Medium,
			Low:            res.Thresholds.Low,
			CategoryFloor:  res.Thresholds.CategoryFloor,
		},
	}
}
