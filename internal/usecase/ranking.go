package usecase

import (
	"fmt"
	"sort"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/searchindex"
	"github.com/DRSN-tech/visual-search/pkg/e"
)

// Веса переранжирования подобраны эмпирически. Их изменение меняет порядок выдачи,
// поэтому любые правки должны сопровождаться тестами.
const (
	MaxScoreWeight  = 0.8
	AvgScoreWeight  = 0.10
	Top3ScoreWeight = 0.10

	StrongVoteCount   = 5
	StrongVoteBonus   = 1.10
	ModerateVoteCount = 3
	ModerateVoteBonus = 1.05

	topVotes = 3
)

// ProductAggregate: голоса одного товара в рамках запроса.
type ProductAggregate struct {
	ProductURL   string
	ProductName  string
	Price        string
	BestImageURL string
	BestSlot     int
	MaxScore     float64
	Scores       []float64
}

// Aggregate группирует попадания по product_url в порядке первого появления.
// Лучшее изображение товара: первое попадание с максимальным сходством.
func Aggregate(hits []searchindex.Hit, metadata *searchindex.MetadataStore) ([]*ProductAggregate, error) {
	byURL := make(map[string]*ProductAggregate, len(hits))
	order := make([]*ProductAggregate, 0, len(hits))

	for _, hit := range hits {
		meta, ok := metadata.Get(hit.Slot)
		if !ok {
			return nil, e.Wrap(fmt.Sprintf("slot %d beyond metadata (%d)", hit.Slot, metadata.Len()), e.ErrIndexInconsistent)
		}

		score := float64(hit.Score)
		agg, ok := byURL[meta.ProductURL]
		if !ok {
			agg = &ProductAggregate{
				ProductURL:   meta.ProductURL,
				ProductName:  meta.ProductName,
				Price:        meta.Price,
				BestImageURL: meta.ImageURL,
				BestSlot:     hit.Slot,
				MaxScore:     score,
			}
			byURL[meta.ProductURL] = agg
			order = append(order, agg)
		} else if score > agg.MaxScore {
			agg.MaxScore = score
			agg.BestImageURL = meta.ImageURL
			agg.BestSlot = hit.Slot
		}
		agg.Scores = append(agg.Scores, score)
	}

	return order, nil
}

// CombinedScore = 0.8*max + 0.10*avg + 0.10*avg(top3), с бонусом за число голосов.
func CombinedScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	avg := sum / float64(len(sorted))

	top := sorted[:min(topVotes, len(sorted))]
	var topSum float64
	for _, s := range top {
		topSum += s
	}
	topAvg := topSum / float64(len(top))

	combined := MaxScoreWeight*sorted[0] + AvgScoreWeight*avg + Top3ScoreWeight*topAvg

	switch {
	case len(scores) >= StrongVoteCount:
		combined *= StrongVoteBonus
	case len(scores) >= ModerateVoteCount:
		combined *= ModerateVoteBonus
	}

	return combined
}

// RankProducts агрегирует попадания и сортирует товары по combined_score.
// При равенстве выше товар с меньшим слотом лучшего изображения.
func RankProducts(hits []searchindex.Hit, metadata *searchindex.MetadataStore, categories *CategoryTable) ([]domain.RankedProduct, error) {
	aggs, err := Aggregate(hits, metadata)
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.RankedProduct, len(aggs))
	bestSlots := make(map[string]int, len(aggs))
	for i, agg := range aggs {
		ranked[i] = domain.RankedProduct{
			ProductName:   agg.ProductName,
			ProductURL:    agg.ProductURL,
			Price:         agg.Price,
			Category:      categories.Classify(agg.ProductName),
			ImageURL:      agg.BestImageURL,
			CombinedScore: CombinedScore(agg.Scores),
			Votes:         len(agg.Scores),
		}
		bestSlots[agg.ProductURL] = agg.BestSlot
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CombinedScore != ranked[j].CombinedScore {
			return ranked[i].CombinedScore > ranked[j].CombinedScore
		}
		return bestSlots[ranked[i].ProductURL] < bestSlots[ranked[j].ProductURL]
	})

	return ranked, nil
}

// Band относит итоговый балл к полосе уверенности. ConfidenceNone означает no_match.
func Band(score float64, t Thresholds) domain.Confidence {
	switch {
	case score >= t.High:
		return domain.ConfidenceHigh
	case score >= t.Medium:
		return domain.ConfidenceMedium
	case score >= t.Low:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceNone
	}
}
