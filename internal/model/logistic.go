// Package model implements the classifiers served by the prediction
// pipeline: a one-vs-rest ensemble of binary logistic estimators for
// category scoring and a multinomial logistic classifier for priority.
// All classifiers share the single fitted TF-IDF feature space.
package model

import (
	"encoding/gob"
	"math"

	"github.com/grievassist/ml-service/internal/feature"
)

func init() {
	gob.Register(&Logistic{})
}

// Training hyperparameters for the logistic estimators. Full-batch gradient
// descent keeps fitting deterministic.
const (
	trainEpochs   = 300
	learningRate  = 0.5
	l2Lambda      = 1e-4
	decisionPoint = 0.5
)

// Logistic is a binary logistic regression estimator over sparse TF-IDF
// vectors. Its native probability output is a two-class pair, matching the
// OutputPairs ensemble shape.
type Logistic struct {
	Weights []float64
	Bias    float64
}

// decision computes the raw linear score.
func (m *Logistic) decision(v feature.Vector) float64 {
	return v.Dot(m.Weights) + m.Bias
}

// Predict returns the binary decision: 1 when the positive class is more
// likely, 0 otherwise.
func (m *Logistic) Predict(v feature.Vector) float64 {
	if sigmoid(m.decision(v)) >= decisionPoint {
		return 1
	}
	return 0
}

// Proba returns the two-class probability pair (negative, positive).
func (m *Logistic) Proba(v feature.Vector) []float64 {
	p := sigmoid(m.decision(v))
	return []float64{1 - p, p}
}

// TrainLogistic fits a binary logistic estimator with balanced class
// weights, so rare positive labels are not drowned out by the majority
// class. Targets must be 0 or 1 and aligned with vecs.
func TrainLogistic(vecs []feature.Vector, targets []float64, dim int) *Logistic {
	m := &Logistic{Weights: make([]float64, dim)}
	if len(vecs) == 0 {
		return m
	}

	n := float64(len(vecs))
	var positives float64
	for _, y := range targets {
		positives += y
	}
	negatives := n - positives

	// Balanced weighting: w_class = n / (2 * n_class). Degenerate
	// single-class targets train with uniform weights.
	posWeight, negWeight := 1.0, 1.0
	if positives > 0 && negatives > 0 {
		posWeight = n / (2 * positives)
		negWeight = n / (2 * negatives)
	}

	grad := make([]float64, dim)
	for epoch := 0; epoch < trainEpochs; epoch++ {
		for i := range grad {
			grad[i] = l2Lambda * m.Weights[i]
		}
		var biasGrad float64

		for i, v := range vecs {
			p := sigmoid(m.decision(v))
			w := negWeight
			if targets[i] == 1 {
				w = posWeight
			}
			residual := w * (p - targets[i]) / n
			for k, col := range v.Indices {
				grad[col] += residual * v.Values[k]
			}
			biasGrad += residual
		}

		for i := range m.Weights {
			m.Weights[i] -= learningRate * grad[i]
		}
		m.Bias -= learningRate * biasGrad
	}
	return m
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
