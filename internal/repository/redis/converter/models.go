package converter

import "github.com/DRSN-tech/visual-search/internal/domain"

// SearchResultRedisModel: конверт для хранения варианта результата поиска в JSON.
// Заполнено ровно одно поле в соответствии со Status.
type SearchResultRedisModel struct {
	Status  domain.MatchStatus     `json:"status"`
	Exact   *domain.ExactMatch     `json:"exact,omitempty"`
	Similar *domain.SimilarMatches `json:"similar,omitempty"`
	NoMatch *domain.NoMatch        `json:"no_match,omitempty"`
}
