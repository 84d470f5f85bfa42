package api

import "github.com/grievassist/ml-service/internal/domain"

// PredictRequest is the body of POST /api/v1/predict. Text may be any
// JSON value; non-strings are coerced like strings downstream.
type PredictRequest struct {
	Text any `json:"text"`
	TopK int `json:"top_k"`
}

// BatchPredictRequest is the body of POST /api/v1/predict/batch.
type BatchPredictRequest struct {
	Texts []string `json:"texts"`
	TopK  int      `json:"top_k"`
}

// PredictResponse is the wire shape of one prediction.
type PredictResponse struct {
	Category            string              `json:"category"`
	Priority            string              `json:"priority"`
	Confidence          float64             `json:"confidence"`
	IsFakeScore         float64             `json:"isFakeScore"`
	TopK                []domain.LabelScore `json:"top_k"`
	SecondaryCategories []string            `json:"secondary_categories"`
	CategoryProbs       map[string]float64  `json:"category_probs"`
	ProcessingTimeMs    int64               `json:"processing_time_ms"`
}

// BatchItemResponse wraps one slot of a batch; failed slots carry an
// error message instead of a prediction.
type BatchItemResponse struct {
	Prediction *PredictResponse `json:"prediction,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// BatchPredictResponse is the body of a batch reply, aligned with the
// request order.
type BatchPredictResponse struct {
	Results []BatchItemResponse `json:"results"`
	Count   int                 `json:"count"`
}

// ModelInfoResponse describes the loaded model bundle.
type ModelInfoResponse struct {
	CreatedAt   string   `json:"created_at"`
	NSamples    int      `json:"n_samples"`
	Categories  []string `json:"categories"`
	HasPriority bool     `json:"has_priority"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// toPredictResponse maps a core result onto the wire shape, applying the
// priority presentation default for bundles without a priority model.
func toPredictResponse(result domain.PredictionResult, priorityFallback string) PredictResponse {
	priority := result.Priority
	if !result.HasPriority {
		priority = priorityFallback
	}
	return PredictResponse{
		Category:            result.DominantCategory,
		Priority:            priority,
		Confidence:          result.Confidence,
		IsFakeScore:         result.FakeScore,
		TopK:                result.TopK,
		SecondaryCategories: result.SecondaryCategories,
		CategoryProbs:       result.CategoryProbs,
		ProcessingTimeMs:    result.ProcessingTimeMs,
	}
}
