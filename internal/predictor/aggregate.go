package predictor

import (
	"sort"

	"github.com/grievassist/ml-service/internal/domain"
)

// Aggregator combines per-label probabilities, priority, and the anomaly
// score into a PredictionResult. The secondary threshold and top-k bounds
// are injected so they stay tunable.
type Aggregator struct {
	secondaryThreshold float64
	topKCap            int
}

// NewAggregator builds an aggregator with the given secondary-category
// threshold and top-k cap.
func NewAggregator(secondaryThreshold float64, topKCap int) *Aggregator {
	return &Aggregator{
		secondaryThreshold: secondaryThreshold,
		topKCap:            topKCap,
	}
}

// Aggregate ranks the probability map and assembles the result.
//
// Labels are sorted by probability descending; ties keep the fixed category
// order, which labelOrder supplies. The dominant category is the first
// entry and its probability becomes the confidence. Secondary categories
// are the remaining labels at or above the threshold, in ranked order.
// topK <= 0 means "all computed top entries" (bounded by the cap), not
// "zero results".
func (a *Aggregator) Aggregate(
	probs map[string]float64,
	labelOrder []string,
	priority string,
	hasPriority bool,
	fakeScore float64,
	topK int,
) domain.PredictionResult {
	ranked := make([]domain.LabelScore, 0, len(probs))
	for _, label := range labelOrder {
		if score, ok := probs[label]; ok {
			ranked = append(ranked, domain.LabelScore{Label: label, Score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	result := domain.PredictionResult{
		CategoryProbs:       probs,
		SecondaryCategories: []string{},
		Priority:            priority,
		HasPriority:         hasPriority,
		FakeScore:           fakeScore,
		TopK:                []domain.LabelScore{},
	}
	if len(ranked) == 0 {
		return result
	}

	result.DominantCategory = ranked[0].Label
	result.Confidence = ranked[0].Score

	for _, entry := range ranked[1:] {
		if entry.Score >= a.secondaryThreshold {
			result.SecondaryCategories = append(result.SecondaryCategories, entry.Label)
		}
	}

	k := topK
	if k <= 0 || k > a.topKCap {
		k = a.topKCap
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	result.TopK = append(result.TopK, ranked[:k]...)

	return result
}
