package converter

import (
	"encoding/json"
	"testing"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchResultSurvivesJSON(t *testing.T) {
	conv := SearchResultConverter{}
	matches := &domain.SimilarMatches{
		Top:              domain.RankedProduct{ProductName: "Rolex", CombinedScore: 0.9, Votes: 2},
		Confidence:       domain.ConfidenceHigh,
		DetectedCategory: domain.CategoryWatch,
		Top5:             []domain.RankedProduct{{ProductName: "Rolex", CombinedScore: 0.9, Votes: 2}},
	}

	model, err := conv.ToRedisModel(matches)
	require.NoError(t, err)
	data, err := json.Marshal(model)
	require.NoError(t, err)

	var decoded SearchResultRedisModel
	require.NoError(t, json.Unmarshal(data, &decoded))
	result, err := conv.ToEntity(&decoded)
	require.NoError(t, err)
	assert.Equal(t, matches, result)
}

func TestToEntityRejectsMismatchedEnvelope(t *testing.T) {
	_, err := SearchResultConverter{}.ToEntity(&SearchResultRedisModel{
		Status:  domain.StatusExactMatch,
		NoMatch: &domain.NoMatch{},
	})
	require.Error(t, err)
}
