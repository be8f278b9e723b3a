package converter

import (
	"fmt"

	"github.com/DRSN-tech/visual-search/internal/domain"
)

// SearchResultConverter преобразует результат поиска в модель кэша и обратно.
type SearchResultConverter struct{}

func (SearchResultConverter) ToRedisModel(result domain.SearchResult) (*SearchResultRedisModel, error) {
	model := &SearchResultRedisModel{Status: result.Status()}

	switch r := result.(type) {
	case *domain.ExactMatch:
		model.Exact = r
	case *domain.SimilarMatches:
		model.Similar = r
	case *domain.NoMatch:
		model.NoMatch = r
	default:
		return nil, fmt.Errorf("unexpected search result type %T", result)
	}

	return model, nil
}

func (SearchResultConverter) ToEntity(model *SearchResultRedisModel) (domain.SearchResult, error) {
	switch {
	case model.Status == domain.StatusExactMatch && model.Exact != nil:
		return model.Exact, nil
	case model.Status == domain.StatusMatchFound && model.Similar != nil:
		return model.Similar, nil
	case model.Status == domain.StatusNoMatch && model.NoMatch != nil:
		return model.NoMatch, nil
	default:
		return nil, fmt.Errorf("malformed cached search result with status %q", model.Status)
	}
}
