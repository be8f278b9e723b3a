package domain

// MatchStatus: итог поиска.
type MatchStatus string

const (
	StatusExactMatch MatchStatus = "exact_match"
	StatusMatchFound MatchStatus = "match_found"
	StatusNoMatch    MatchStatus = "no_match"
)

// Confidence: полоса уверенности.
type Confidence string

const (
	ConfidenceExact  Confidence = "EXACT"
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceNone   Confidence = ""
)

// SearchResult принимает один из вариантов: *ExactMatch, *SimilarMatches, *NoMatch.
type SearchResult interface {
	Status() MatchStatus
	isSearchResult()
}

// RankedProduct: товар после агрегации голосов и переранжирования.
type RankedProduct struct {
	ProductName   string   `json:"product_name"`
	ProductURL    string   `json:"product_url"`
	Price         string   `json:"price"`
	Category      Category `json:"category"`
	ImageURL      string   `json:"image_url"`
	CombinedScore float64  `json:"combined_score"`
	Votes         int      `json:"votes"`
}

// ExactMatch: найден почти идентичный снимок по перцептивному хешу.
type ExactMatch struct {
	Product         ImageMetadata `json:"product"`
	Category        Category      `json:"category"`
	HammingDistance int           `json:"hamming_distance"`
}

// SimilarMatches: семантическое совпадение с полосой уверенности.
type SimilarMatches struct {
	Top              RankedProduct   `json:"top"`
	Confidence       Confidence      `json:"confidence"`
	DetectedCategory Category        `json:"detected_category"`
	Top5             []RankedProduct `json:"top_5"`
}

// NoMatch: уверенный отрицательный результат.
type NoMatch struct {
	BestScore        float64         `json:"best_score"`
	DetectedCategory Category        `json:"detected_category"`
	Top5             []RankedProduct `json:"top_5"`
}

func (*ExactMatch) Status() MatchStatus     { return StatusExactMatch }
func (*SimilarMatches) Status() MatchStatus { return StatusMatchFound }
func (*NoMatch) Status() MatchStatus        { return StatusNoMatch }

func (*ExactMatch) isSearchResult()     {}
func (*SimilarMatches) isSearchResult() {}
func (*NoMatch) isSearchResult()        {}
