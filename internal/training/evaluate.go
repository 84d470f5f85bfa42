package training

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/grievassist/ml-service/internal/feature"
	"github.com/grievassist/ml-service/internal/model"
	"github.com/grievassist/ml-service/internal/textnorm"
)

const holdoutShare = 0.2

// LabelMetrics are per-category holdout metrics.
type LabelMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarises a holdout evaluation.
type Report struct {
	Accuracy  float64        `json:"accuracy"`
	TrainSize int            `json:"train_size"`
	TestSize  int            `json:"test_size"`
	PerLabel  []LabelMetrics `json:"per_label"`
}

// String renders the report for the trainer CLI.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "holdout accuracy %.3f (train=%d test=%d)\n", r.Accuracy, r.TrainSize, r.TestSize)
	for _, m := range r.PerLabel {
		fmt.Fprintf(&b, "  %-20s precision=%.3f recall=%.3f f1=%.3f support=%d\n",
			m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	return b.String()
}

// Evaluate trains on a deterministic 80/20 split and scores the held-out
// rows. The returned report reflects the split models, not the bundle
// trained on the full dataset.
func Evaluate(ds *Dataset, seed int64) (*Report, error) {
	if len(ds.Texts) < minTrainingSamples+1 {
		return nil, fmt.Errorf("too few samples for a holdout split: %d", len(ds.Texts))
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(ds.Texts))

	testSize := int(float64(len(ds.Texts)) * holdoutShare)
	if testSize < 1 {
		testSize = 1
	}
	testIdx := perm[:testSize]
	trainIdx := perm[testSize:]

	trainTexts := make([]string, 0, len(trainIdx))
	trainCategories := make([]string, 0, len(trainIdx))
	for _, i := range trainIdx {
		trainTexts = append(trainTexts, textnorm.Normalize(ds.Texts[i]))
		trainCategories = append(trainCategories, ds.Categories[i])
	}

	// The split can lose a rare category; evaluate against the labels
	// the training half actually has.
	labelSet := map[string]bool{}
	for _, c := range trainCategories {
		labelSet[c] = true
	}
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	if len(labels) < 2 {
		return nil, fmt.Errorf("holdout split left fewer than 2 categories in the training half")
	}
	labelIndex := make(map[string]int, len(labels))
	for i, label := range labels {
		labelIndex[label] = i
	}

	vec := feature.Fit(trainTexts)
	trainVecs := vec.TransformAll(trainTexts)

	targets := make([][]float64, len(trainCategories))
	for i, category := range trainCategories {
		row := make([]float64, len(labels))
		row[labelIndex[category]] = 1
		targets[i] = row
	}
	ensemble := model.TrainEnsemble(labels, trainVecs, targets, vec.Dim())

	type counts struct{ tp, fp, fn int }
	perLabel := make(map[string]*counts, len(labels))
	for _, label := range labels {
		perLabel[label] = &counts{}
	}

	correct := 0
	for _, i := range testIdx {
		probs := ensemble.Score(vec.Transform(textnorm.Normalize(ds.Texts[i])))

		predicted := ""
		best := -1.0
		for _, label := range labels {
			if probs[label] > best {
				best = probs[label]
				predicted = label
			}
		}

		actual := ds.Categories[i]
		if predicted == actual {
			correct++
			perLabel[actual].tp++
			continue
		}
		perLabel[predicted].fp++
		if _, ok := perLabel[actual]; ok {
			perLabel[actual].fn++
		}
	}

	report := &Report{
		Accuracy:  float64(correct) / float64(len(testIdx)),
		TrainSize: len(trainIdx),
		TestSize:  len(testIdx),
	}
	for _, label := range labels {
		c := perLabel[label]
		m := LabelMetrics{Label: label, Support: c.tp + c.fn}
		if c.tp+c.fp > 0 {
			m.Precision = float64(c.tp) / float64(c.tp+c.fp)
		}
		if c.tp+c.fn > 0 {
			m.Recall = float64(c.tp) / float64(c.tp+c.fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.PerLabel = append(report.PerLabel, m)
	}

	return report, nil
}
