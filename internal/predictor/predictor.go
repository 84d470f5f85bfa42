// Package predictor is the inference core: it turns raw complaint text into
// a structured prediction against the immutable model bundle. Every call is
// a pure function of (text, bundle), so requests run fully in parallel
// without locking.
package predictor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/grievassist/ml-service/internal/anomaly"
	"github.com/grievassist/ml-service/internal/artifacts"
	"github.com/grievassist/ml-service/internal/config"
	"github.com/grievassist/ml-service/internal/domain"
	"github.com/grievassist/ml-service/internal/logging"
	"github.com/grievassist/ml-service/internal/telemetry"
	"github.com/grievassist/ml-service/internal/textnorm"
)

// anomalyFlagThreshold marks a prediction as suspicious for metrics only.
const anomalyFlagThreshold = 0.5

// Predictor runs the inference pipeline.
type Predictor struct {
	bundle  *artifacts.Bundle
	scorer  *anomaly.Scorer
	agg     *Aggregator
	logger  logging.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

// New builds a Predictor over a loaded bundle. tel may be nil, in which
// case no metrics or spans are emitted.
func New(bundle *artifacts.Bundle, cfg config.PredictionConfig, logger logging.Logger, tel *telemetry.Provider) *Predictor {
	p := &Predictor{
		bundle: bundle,
		scorer: anomaly.NewScorer(bundle.Forest),
		agg:    NewAggregator(cfg.SecondaryThreshold, cfg.TopKCap),
		logger: logger,
	}
	if tel != nil {
		p.tracer = tel.Tracer
		p.metrics = tel.Metrics
	}
	return p
}

// Labels returns the fixed category order of the bundle.
func (p *Predictor) Labels() []string {
	return p.bundle.Labels
}

// Metadata returns the bundle metadata.
func (p *Predictor) Metadata() artifacts.Metadata {
	return p.bundle.Meta
}

// HasPriority reports whether the optional priority model is loaded.
func (p *Predictor) HasPriority() bool {
	return p.bundle.HasPriority()
}

// Predict classifies one complaint. topK <= 0 selects the configured
// default ranking length. Any failure inside the numeric core is returned
// as a generic prediction error; it never crashes the process or affects
// concurrent requests.
func (p *Predictor) Predict(ctx context.Context, text any, topK int) (result domain.PredictionResult, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prediction failed: %v", r)
		}
		if p.metrics != nil {
			if err != nil {
				p.metrics.PredictionsFailed.Inc()
			} else {
				p.metrics.PredictionsTotal.Inc()
				p.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
				p.metrics.CategoryTotal.WithLabelValues(result.DominantCategory).Inc()
				if result.FakeScore >= anomalyFlagThreshold {
					p.metrics.AnomalyFlagged.Inc()
				}
			}
		}
	}()

	var span trace.Span
	if p.tracer != nil {
		ctx, span = p.tracer.Start(ctx, "predictor.Predict")
		defer span.End()
		_ = ctx
	}

	clean := textnorm.Normalize(text)
	vec := p.bundle.Vectorizer.Transform(clean)

	probs := p.bundle.Categories.Score(vec)

	var priority string
	hasPriority := p.bundle.HasPriority()
	if hasPriority {
		idx := p.bundle.Priority.Classify(vec)
		priority = p.bundle.PriorityEncoder.Inverse(idx)
	}

	// Advisory: failures inside the scorer already degrade to 0.
	fakeScore := p.scorer.Score(vec)

	result = p.agg.Aggregate(probs, p.bundle.Labels, priority, hasPriority, fakeScore, topK)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	p.logger.Debug("prediction complete",
		"category", result.DominantCategory,
		"confidence", result.Confidence,
		"fake_score", result.FakeScore,
		"nnz", vec.NNZ(),
	)

	if span != nil {
		span.SetAttributes(
			attribute.String("prediction.category", result.DominantCategory),
			attribute.Float64("prediction.confidence", result.Confidence),
		)
	}

	return result, nil
}
