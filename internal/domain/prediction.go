// Package domain holds the core types shared across the ml-service.
package domain

// LabelScore is one (label, probability) entry of a ranked list.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// PredictionResult is the immutable outcome of classifying one complaint.
// Priority is empty when no priority model was trained; the HTTP boundary
// applies the presentation default, not the core.
type PredictionResult struct {
	DominantCategory    string             `json:"dominant_category"`
	CategoryProbs       map[string]float64 `json:"category_probs"`
	SecondaryCategories []string           `json:"secondary_categories"`
	Priority            string             `json:"priority,omitempty"`
	HasPriority         bool               `json:"-"`
	FakeScore           float64            `json:"isFakeScore"`
	TopK                []LabelScore       `json:"top_k"`
	Confidence          float64            `json:"confidence"`
	ProcessingTimeMs    int64              `json:"processing_time_ms"`
}
