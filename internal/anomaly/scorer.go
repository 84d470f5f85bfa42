package anomaly

import (
	"github.com/grievassist/ml-service/internal/feature"
)

// FakeScore maps a raw decision value to the bounded likely-fake score:
// clamp(0.5 - decision, 0, 1). The 0.5 centring assumes decision values
// roughly within [-0.5, 0.5]; it is a fixed serving heuristic kept for
// compatibility with existing consumers, not a principled normalization.
func FakeScore(decision float64) float64 {
	score := 0.5 - decision
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Scorer turns feature vectors into likely-fake scores. Anomaly detection
// is advisory: a nil or failing model scores 0 (non-anomalous) instead of
// surfacing an error.
type Scorer struct {
	forest *Forest
}

// NewScorer wraps a fitted forest. forest may be nil.
func NewScorer(forest *Forest) *Scorer {
	return &Scorer{forest: forest}
}

// Score returns the likely-fake score for a vector, defaulting to 0 when
// no model is available or scoring panics on a malformed model.
func (s *Scorer) Score(v feature.Vector) (score float64) {
	if s == nil || s.forest == nil || len(s.forest.Trees) == 0 {
		return 0
	}

	defer func() {
		if recover() != nil {
			score = 0
		}
	}()

	return FakeScore(s.forest.Decision(v))
}
