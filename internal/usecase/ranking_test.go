package usecase

import (
	"math"
	"testing"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/searchindex"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultThresholds = Thresholds{High: 0.82, Medium: 0.72, Low: 0.62}

func metadataFor(products ...string) *searchindex.MetadataStore {
	store := searchindex.NewMetadataStore(len(products) * 2)
	for _, p := range products {
		for _, img := range []string{"1", "2"} {
			store.Add(domain.ImageMetadata{
				ProductName: p,
				ProductURL:  "https://shop.example/" + p,
				ImageURL:    "https://cdn.example/" + p + "/" + img + ".jpg",
				Price:       "1000",
			})
		}
	}
	return store
}

func TestRankProductsThreeProductScenario(t *testing.T) {
	// A: слоты 0,1; B: 2,3; C: 4,5
	store := metadataFor("Rolex Submariner watch", "Leather tote bag", "Aviator sunglasses")
	hits := []searchindex.Hit{
		{Slot: 0, Score: 0.9},
		{Slot: 1, Score: 0.85},
		{Slot: 2, Score: 0.65},
		{Slot: 4, Score: 0.1},
	}

	ranked, err := RankProducts(hits, store, DefaultCategoryTable())
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	a, b, c := ranked[0], ranked[1], ranked[2]
	assert.Equal(t, "Rolex Submariner watch", a.ProductName)
	assert.InDelta(t, 0.8*0.9+0.1*0.875+0.1*0.875, a.CombinedScore, 1e-6)
	assert.Equal(t, 2, a.Votes)
	assert.Equal(t, "https://cdn.example/Rolex Submariner watch/1.jpg", a.ImageURL)
	assert.Equal(t, domain.CategoryWatch, a.Category)
	assert.Equal(t, domain.ConfidenceHigh, Band(a.CombinedScore, defaultThresholds))

	assert.Equal(t, "Leather tote bag", b.ProductName)
	assert.InDelta(t, 0.65, b.CombinedScore, 1e-6)
	assert.Equal(t, domain.ConfidenceLow, Band(b.CombinedScore, defaultThresholds))

	assert.Equal(t, "Aviator sunglasses", c.ProductName)
	assert.Less(t, c.CombinedScore, b.CombinedScore)
}

func TestCombinedScoreVoteBonuses(t *testing.T) {
	base := func(scores []float64) float64 {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		return 0.8*scores[0] + 0.1*sum/float64(len(scores)) + 0.1*(scores[0]+scores[1]+scores[2])/3
	}

	two := []float64{0.7, 0.7}
	assert.InDelta(t, 0.7, CombinedScore(two), 1e-9)

	three := []float64{0.7, 0.7, 0.7}
	assert.InDelta(t, base(three)*1.05, CombinedScore(three), 1e-9)

	four := []float64{0.7, 0.6, 0.5, 0.4}
	assert.InDelta(t, base(four)*1.05, CombinedScore(four), 1e-9)

	five := []float64{0.7, 0.6, 0.5, 0.4, 0.3}
	assert.InDelta(t, base(five)*1.10, CombinedScore(five), 1e-9)

	assert.Zero(t, CombinedScore(nil))
}

func TestCombinedScoreIgnoresInputOrder(t *testing.T) {
	assert.Equal(t,
		CombinedScore([]float64{0.5, 0.9, 0.7, 0.6}),
		CombinedScore([]float64{0.9, 0.7, 0.6, 0.5}),
	)
}

func TestCombinedScoreMonotonicInMaxScore(t *testing.T) {
	prev := CombinedScore([]float64{0.5, 0.4})
	for s := 0.51; s <= 1.0; s += 0.01 {
		cur := CombinedScore([]float64{s, 0.4})
		require.Greater(t, cur, prev, "score %.2f", s)
		prev = cur
	}
}

func TestBandBoundaries(t *testing.T) {
	low := defaultThresholds.Low
	assert.Equal(t, domain.ConfidenceLow, Band(low, defaultThresholds))
	assert.Equal(t, domain.ConfidenceNone, Band(math.Nextafter(low, 0), defaultThresholds))

	assert.Equal(t, domain.ConfidenceMedium, Band(defaultThresholds.Medium, defaultThresholds))
	assert.Equal(t, domain.ConfidenceLow, Band(math.Nextafter(defaultThresholds.Medium, 0), defaultThresholds))

	assert.Equal(t, domain.ConfidenceHigh, Band(defaultThresholds.High, defaultThresholds))
	assert.Equal(t, domain.ConfidenceHigh, Band(1.2, defaultThresholds))
}

func TestRankProductsVoteBonusBreaksEqualMax(t *testing.T) {
	// few: слоты 0-1, many: слоты 2-6
	store := searchindex.NewMetadataStore(7)
	for slot := 0; slot < 7; slot++ {
		name := "few"
		if slot >= 2 {
			name = "many"
		}
		store.Add(domain.ImageMetadata{ProductName: name, ProductURL: "https://shop.example/" + name})
	}

	hits := []searchindex.Hit{
		{Slot: 0, Score: 0.8},
		{Slot: 1, Score: 0.8},
		{Slot: 2, Score: 0.8},
		{Slot: 3, Score: 0.5},
		{Slot: 4, Score: 0.5},
		{Slot: 5, Score: 0.5},
		{Slot: 6, Score: 0.5},
	}

	ranked, err := RankProducts(hits, store, DefaultCategoryTable())
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "many", ranked[0].ProductName)
	assert.Equal(t, 5, ranked[0].Votes)
	assert.Equal(t, "few", ranked[1].ProductName)
	assert.Equal(t, 2, ranked[1].Votes)
	assert.Greater(t, ranked[0].CombinedScore, ranked[1].CombinedScore)
	assert.InDelta(t, (0.8*0.8+0.1*0.56+0.1*0.6)*1.10, ranked[0].CombinedScore, 1e-6)
	assert.InDelta(t, 0.8, ranked[1].CombinedScore, 1e-6)

	aggs, err := Aggregate(hits, store)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, aggs[0].MaxScore, aggs[1].MaxScore, "both products share the same best score")
}

func TestRankProductsTieBreaksOnBestSlot(t *testing.T) {
	store := metadataFor("first", "second")
	// Товар second встречается раньше в выдаче, но его лучший слот больше.
	hits := []searchindex.Hit{
		{Slot: 2, Score: 0.8},
		{Slot: 0, Score: 0.8},
	}

	for range 5 {
		ranked, err := RankProducts(hits, store, DefaultCategoryTable())
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.Equal(t, "first", ranked[0].ProductName)
		assert.Equal(t, "second", ranked[1].ProductName)
	}
}

func TestAggregateKeepsFirstBestImage(t *testing.T) {
	store := metadataFor("p")
	hits := []searchindex.Hit{
		{Slot: 1, Score: 0.7},
		{Slot: 0, Score: 0.7},
	}

	aggs, err := Aggregate(hits, store)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, 1, aggs[0].BestSlot)
	assert.Equal(t, []float64{0.7, 0.7}, roundScores(aggs[0].Scores))
}

func TestAggregateRejectsUnknownSlot(t *testing.T) {
	_, err := Aggregate([]searchindex.Hit{{Slot: 10, Score: 0.5}}, metadataFor("p"))
	require.ErrorIs(t, err, e.ErrIndexInconsistent)
}

func roundScores(scores []float64) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Round(s*1e6) / 1e6
	}
	return out
}
