package model

import (
	"github.com/grievassist/ml-service/internal/feature"
)

// Estimator is a binary classifier over the shared feature space.
// Predict returns the hard decision 0 or 1.
type Estimator interface {
	Predict(v feature.Vector) float64
}

// ProbabilityEstimator is an Estimator whose native output includes
// probabilities. Proba returns either a single positive-class probability
// or a two-class (negative, positive) pair, depending on the estimator.
type ProbabilityEstimator interface {
	Estimator
	Proba(v feature.Vector) []float64
}

// OutputShape identifies how an ensemble's estimators express probability.
// The shape is resolved once, when the ensemble is constructed or loaded,
// never per request.
type OutputShape int

const (
	// OutputBinary means estimators expose decisions only; 0/1 predictions
	// are served as pseudo-probabilities.
	OutputBinary OutputShape = iota
	// OutputDense means each estimator yields a single positive-class
	// probability.
	OutputDense
	// OutputPairs means each estimator yields a two-class probability pair.
	OutputPairs
)

// Ensemble is a one-vs-rest multi-label classifier: one independent binary
// estimator per category label, all over the same feature space. Labels is
// the fixed category order established at training time.
type Ensemble struct {
	Labels     []string
	Estimators []Estimator
	Shape      OutputShape
}

// NewEnsemble builds an ensemble and resolves its output shape.
func NewEnsemble(labels []string, estimators []Estimator) *Ensemble {
	e := &Ensemble{Labels: labels, Estimators: estimators}
	e.ResolveShape()
	return e
}

// TrainEnsemble fits one balanced logistic estimator per label column.
// targets[i][j] is 1 when document i carries label j.
func TrainEnsemble(labels []string, vecs []feature.Vector, targets [][]float64, dim int) *Ensemble {
	estimators := make([]Estimator, len(labels))
	column := make([]float64, len(vecs))
	for j := range labels {
		for i := range vecs {
			column[i] = targets[i][j]
		}
		estimators[j] = TrainLogistic(vecs, column, dim)
	}
	return NewEnsemble(labels, estimators)
}

// ResolveShape probes the estimators once and records which probability
// shape they produce. Call after constructing or decoding an ensemble.
func (e *Ensemble) ResolveShape() {
	e.Shape = OutputBinary
	if len(e.Estimators) == 0 {
		return
	}

	pe, ok := e.Estimators[0].(ProbabilityEstimator)
	if !ok {
		return
	}

	probe := feature.Vector{}
	switch len(pe.Proba(probe)) {
	case 1:
		e.Shape = OutputDense
	case 2:
		e.Shape = OutputPairs
	default:
		e.Shape = OutputBinary
	}
}

// Score produces one probability per label. Estimators whose probability
// output does not match the resolved shape at request time degrade to their
// binary decision instead of failing the request.
func (e *Ensemble) Score(v feature.Vector) map[string]float64 {
	probs := make(map[string]float64, len(e.Labels))
	for j, label := range e.Labels {
		probs[label] = e.scoreOne(e.Estimators[j], v)
	}
	return probs
}

func (e *Ensemble) scoreOne(est Estimator, v feature.Vector) float64 {
	switch e.Shape {
	case OutputDense:
		if pe, ok := est.(ProbabilityEstimator); ok {
			if p := pe.Proba(v); len(p) >= 1 {
				return p[0]
			}
		}
	case OutputPairs:
		if pe, ok := est.(ProbabilityEstimator); ok {
			if p := pe.Proba(v); len(p) == 2 {
				return p[1]
			}
		}
	case OutputBinary:
		// fall through to the decision below
	}
	return est.Predict(v)
}
