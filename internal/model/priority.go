package model

import (
	"math"
	"sort"

	"github.com/grievassist/ml-service/internal/feature"
)

// LabelEncoder maps priority class strings to integer indices and back.
// Classes are kept in sorted order, fixed at fit time. It is persisted as
// its own artifact alongside the priority model.
type LabelEncoder struct {
	Classes []string
}

// FitLabelEncoder builds an encoder over the sorted unique values.
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return &LabelEncoder{Classes: classes}
}

// Transform returns the index of a class, or -1 when unknown.
func (e *LabelEncoder) Transform(class string) int {
	for i, c := range e.Classes {
		if c == class {
			return i
		}
	}
	return -1
}

// Inverse returns the class string for an index, or "" when out of range.
func (e *LabelEncoder) Inverse(idx int) string {
	if idx < 0 || idx >= len(e.Classes) {
		return ""
	}
	return e.Classes[idx]
}

// PriorityClassifier is a multinomial logistic classifier producing one
// priority class index from a feature vector. The index decodes through
// the fitted LabelEncoder. It is optional equipment: a service whose
// training data lacked a priority column simply runs without one.
type PriorityClassifier struct {
	Weights [][]float64 // one weight row per class
	Biases  []float64
}

// Classify returns the index of the class with maximum probability.
func (p *PriorityClassifier) Classify(v feature.Vector) int {
	probs := p.Proba(v)
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best
}

// Proba computes softmax class probabilities.
func (p *PriorityClassifier) Proba(v feature.Vector) []float64 {
	scores := make([]float64, len(p.Weights))
	maxScore := math.Inf(-1)
	for c := range p.Weights {
		scores[c] = v.Dot(p.Weights[c]) + p.Biases[c]
		if scores[c] > maxScore {
			maxScore = scores[c]
		}
	}

	var sum float64
	for c := range scores {
		scores[c] = math.Exp(scores[c] - maxScore)
		sum += scores[c]
	}
	for c := range scores {
		scores[c] /= sum
	}
	return scores
}

// TrainPriority fits a multinomial logistic classifier with balanced class
// weights over the shared feature space. classes holds the raw priority
// string for each document. The returned encoder decodes class indices.
func TrainPriority(vecs []feature.Vector, classes []string, dim int) (*PriorityClassifier, *LabelEncoder) {
	encoder := FitLabelEncoder(classes)
	k := len(encoder.Classes)

	p := &PriorityClassifier{
		Weights: make([][]float64, k),
		Biases:  make([]float64, k),
	}
	for c := range p.Weights {
		p.Weights[c] = make([]float64, dim)
	}
	if len(vecs) == 0 || k == 0 {
		return p, encoder
	}

	targets := make([]int, len(classes))
	counts := make([]float64, k)
	for i, class := range classes {
		targets[i] = encoder.Transform(class)
		counts[targets[i]]++
	}

	n := float64(len(vecs))
	classWeight := make([]float64, k)
	for c := range classWeight {
		classWeight[c] = 1
		if counts[c] > 0 {
			classWeight[c] = n / (float64(k) * counts[c])
		}
	}

	grads := make([][]float64, k)
	for c := range grads {
		grads[c] = make([]float64, dim)
	}
	biasGrads := make([]float64, k)

	for epoch := 0; epoch < trainEpochs; epoch++ {
		for c := range grads {
			for i := range grads[c] {
				grads[c][i] = l2Lambda * p.Weights[c][i]
			}
			biasGrads[c] = 0
		}

		for i, v := range vecs {
			probs := p.Proba(v)
			w := classWeight[targets[i]]
			for c := range probs {
				y := 0.0
				if c == targets[i] {
					y = 1.0
				}
				residual := w * (probs[c] - y) / n
				for kk, col := range v.Indices {
					grads[c][col] += residual * v.Values[kk]
				}
				biasGrads[c] += residual
			}
		}

		for c := range p.Weights {
			for i := range p.Weights[c] {
				p.Weights[c][i] -= learningRate * grads[c][i]
			}
			p.Biases[c] -= learningRate * biasGrads[c]
		}
	}
	return p, encoder
}
