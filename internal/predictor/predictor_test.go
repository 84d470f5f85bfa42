package predictor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/grievassist/ml-service/internal/anomaly"
	"github.com/grievassist/ml-service/internal/artifacts"
	"github.com/grievassist/ml-service/internal/config"
	"github.com/grievassist/ml-service/internal/feature"
	"github.com/grievassist/ml-service/internal/logging"
	"github.com/grievassist/ml-service/internal/model"
)

func testConfig() config.PredictionConfig {
	return config.PredictionConfig{
		SecondaryThreshold: 0.35,
		DefaultTopK:        3,
		TopKCap:            5,
		PriorityFallback:   "low",
	}
}

func testBundle(t *testing.T, withPriority bool) *artifacts.Bundle {
	t.Helper()

	docs := []string{
		"garbage pile rotting near the market",
		"garbage bin overflowing near the market",
		"huge pothole on the highway near bridge",
		"pothole damage on the highway near bridge",
		"streetlight broken on lakeshore avenue tonight",
		"streetlight flickering on lakeshore avenue tonight",
	}
	vec := feature.Fit(docs)
	vecs := vec.TransformAll(docs)

	labels := []string{"garbage", "roads", "streetlight"}
	targets := [][]float64{
		{1, 0, 0}, {1, 0, 0},
		{0, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {0, 0, 1},
	}

	b := &artifacts.Bundle{
		Vectorizer: vec,
		Categories: model.TrainEnsemble(labels, vecs, targets, vec.Dim()),
		Labels:     labels,
		Forest:     anomaly.Fit(vecs, anomaly.Options{Trees: 20, Seed: 7}),
		Meta: artifacts.Metadata{
			CreatedAt:   time.Now().UTC(),
			NSamples:    len(docs),
			Categories:  labels,
			HasPriority: withPriority,
		},
	}
	if withPriority {
		b.Priority, b.PriorityEncoder = model.TrainPriority(
			vecs,
			[]string{"medium", "medium", "high", "high", "low", "low"},
			vec.Dim())
	}
	return b
}

func TestPredict_EndToEnd(t *testing.T) {
	p := New(testBundle(t, true), testConfig(), logging.NopLogger{}, nil)

	result, err := p.Predict(context.Background(), "Garbage pile rotting near the market!!!", 3)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if result.DominantCategory != "garbage" {
		t.Errorf("dominant = %q, want garbage (probs=%v)", result.DominantCategory, result.CategoryProbs)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Errorf("confidence out of range: %v", result.Confidence)
	}
	if !result.HasPriority || result.Priority == "" {
		t.Errorf("priority missing: %+v", result)
	}
	if result.FakeScore < 0 || result.FakeScore > 1 {
		t.Errorf("fake score out of range: %v", result.FakeScore)
	}
	if len(result.TopK) != 3 {
		t.Errorf("topK length = %d, want 3", len(result.TopK))
	}
	if len(result.CategoryProbs) != 3 {
		t.Errorf("category probs must cover every label: %v", result.CategoryProbs)
	}
	if result.ProcessingTimeMs < 0 {
		t.Errorf("processing time negative: %d", result.ProcessingTimeMs)
	}
}

func TestPredict_DegradedModeWithoutPriority(t *testing.T) {
	p := New(testBundle(t, false), testConfig(), logging.NopLogger{}, nil)

	if p.HasPriority() {
		t.Fatal("bundle without priority model must report HasPriority=false")
	}

	result, err := p.Predict(context.Background(), "pothole on the highway", 0)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if result.HasPriority || result.Priority != "" {
		t.Errorf("degraded mode must leave priority empty, got %+v", result)
	}
	if result.DominantCategory != "roads" {
		t.Errorf("dominant = %q, want roads", result.DominantCategory)
	}
}

func TestPredict_NonStringInputCoerced(t *testing.T) {
	p := New(testBundle(t, false), testConfig(), logging.NopLogger{}, nil)

	// Numeric and nil inputs are coerced, never rejected.
	if _, err := p.Predict(context.Background(), 12345, 3); err != nil {
		t.Errorf("numeric input must not error: %v", err)
	}
	result, err := p.Predict(context.Background(), nil, 3)
	if err != nil {
		t.Errorf("nil input must not error: %v", err)
	}
	if result.FakeScore < 0 || result.FakeScore > 1 {
		t.Errorf("fake score out of range for empty input: %v", result.FakeScore)
	}
}

func TestPredict_MalformedBundleReturnsError(t *testing.T) {
	// A bundle with a nil vectorizer panics inside the numeric core; the
	// predictor must surface that as an error, not a crash.
	broken := &artifacts.Bundle{
		Categories: model.NewEnsemble(nil, nil),
		Labels:     []string{},
	}
	p := New(broken, testConfig(), logging.NopLogger{}, nil)

	_, err := p.Predict(context.Background(), "anything", 3)
	if err == nil {
		t.Fatal("expected an error from a malformed bundle")
	}
}

func TestPredict_ConcurrentRequests(t *testing.T) {
	p := New(testBundle(t, true), testConfig(), logging.NopLogger{}, nil)

	texts := []string{
		"garbage pile near the market",
		"pothole on the highway",
		"streetlight broken on lakeshore avenue",
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.Predict(context.Background(), texts[i%len(texts)], 3)
			if err != nil {
				t.Errorf("concurrent Predict failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
