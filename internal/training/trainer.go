package training

import (
	"fmt"
	"time"

	"github.com/grievassist/ml-service/internal/anomaly"
	"github.com/grievassist/ml-service/internal/artifacts"
	"github.com/grievassist/ml-service/internal/feature"
	"github.com/grievassist/ml-service/internal/logging"
	"github.com/grievassist/ml-service/internal/model"
	"github.com/grievassist/ml-service/internal/textnorm"
)

const minTrainingSamples = 4

// Options tunes a training run.
type Options struct {
	ForestTrees   int
	ForestSeed    int64
	Contamination float64
}

// Train fits every model of the bundle on the dataset. The priority
// classifier is trained only when the dataset carries a full priority
// column.
func Train(ds *Dataset, opts Options, logger logging.Logger) (*artifacts.Bundle, error) {
	if len(ds.Texts) < minTrainingSamples {
		return nil, fmt.Errorf("need at least %d samples, got %d", minTrainingSamples, len(ds.Texts))
	}
	if len(ds.Labels) < 2 {
		return nil, fmt.Errorf("need at least 2 categories, got %d", len(ds.Labels))
	}

	start := time.Now()

	clean := make([]string, len(ds.Texts))
	for i, text := range ds.Texts {
		clean[i] = textnorm.Normalize(text)
	}

	vec := feature.Fit(clean)
	if vec.Dim() == 0 {
		return nil, fmt.Errorf("vocabulary is empty after normalization")
	}
	vecs := vec.TransformAll(clean)
	logger.Info("vectorizer fitted", "vocabulary_size", vec.Dim(), "samples", len(clean))

	ensemble := model.TrainEnsemble(ds.Labels, vecs, ds.Targets, vec.Dim())
	logger.Info("category ensemble trained", "categories", len(ds.Labels))

	forest := anomaly.Fit(vecs, anomaly.Options{
		Trees:         opts.ForestTrees,
		Seed:          opts.ForestSeed,
		Contamination: opts.Contamination,
	})
	logger.Info("isolation forest trained", "trees", len(forest.Trees))

	bundle := &artifacts.Bundle{
		Vectorizer: vec,
		Categories: ensemble,
		Labels:     ds.Labels,
		Forest:     forest,
		Meta: artifacts.Metadata{
			CreatedAt:  time.Now().UTC(),
			NSamples:   len(ds.Texts),
			Categories: ds.Labels,
		},
	}

	if ds.HasPriority() {
		bundle.Priority, bundle.PriorityEncoder = model.TrainPriority(vecs, ds.Priorities, vec.Dim())
		bundle.Meta.HasPriority = true
		logger.Info("priority classifier trained", "classes", len(bundle.PriorityEncoder.Classes))
	} else {
		logger.Warn("no usable priority column, training without priority model")
	}

	logger.Info("training complete",
		"duration_ms", time.Since(start).Milliseconds(),
		"has_priority", bundle.Meta.HasPriority,
	)
	return bundle, nil
}
