package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grievassist/ml-service/internal/anomaly"
	"github.com/grievassist/ml-service/internal/feature"
	"github.com/grievassist/ml-service/internal/model"
)

func trainedBundle(t *testing.T, withPriority bool) *Bundle {
	t.Helper()

	docs := []string{
		"garbage pile near market",
		"garbage bin overflowing near market",
		"pothole on highway near bridge",
		"pothole damage on highway near bridge",
	}
	vec := feature.Fit(docs)
	vecs := vec.TransformAll(docs)

	labels := []string{"garbage", "roads"}
	targets := [][]float64{{1, 0}, {1, 0}, {0, 1}, {0, 1}}

	b := &Bundle{
		Vectorizer: vec,
		Categories: model.TrainEnsemble(labels, vecs, targets, vec.Dim()),
		Labels:     labels,
		Forest:     anomaly.Fit(vecs, anomaly.Options{Trees: 10, Seed: 3}),
		Meta: Metadata{
			CreatedAt:   time.Now().UTC(),
			NSamples:    len(docs),
			Categories:  labels,
			HasPriority: withPriority,
		},
	}
	if withPriority {
		b.Priority, b.PriorityEncoder = model.TrainPriority(
			vecs, []string{"high", "high", "low", "low"}, vec.Dim())
	}
	return b
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := trainedBundle(t, true)

	if err := Save(dir, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !loaded.HasPriority() {
		t.Error("loaded bundle lost its priority model")
	}
	if len(loaded.Labels) != 2 || loaded.Labels[0] != "garbage" {
		t.Errorf("labels corrupted: %v", loaded.Labels)
	}
	if loaded.Categories.Shape != model.OutputPairs {
		t.Errorf("shape not resolved on load: %v", loaded.Categories.Shape)
	}
	if loaded.Meta.NSamples != 4 {
		t.Errorf("metadata n_samples = %d, want 4", loaded.Meta.NSamples)
	}

	// The loaded ensemble must score the same as the original.
	v := loaded.Vectorizer.Transform("garbage pile near market")
	got := loaded.Categories.Score(v)
	want := original.Categories.Score(original.Vectorizer.Transform("garbage pile near market"))
	for label := range want {
		if got[label] != want[label] {
			t.Errorf("score for %q changed across round trip: %v vs %v", label, got[label], want[label])
		}
	}
}

func TestLoad_MissingPriorityIsDegradedMode(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, trainedBundle(t, false)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.HasPriority() {
		t.Error("bundle without priority artifacts must report HasPriority=false")
	}
	if loaded.Priority != nil || loaded.PriorityEncoder != nil {
		t.Error("priority fields must be nil in degraded mode")
	}
}

func TestLoad_MissingRequiredArtifactIsFatal(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, trainedBundle(t, false)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, CategoryModelFile)); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("expected ErrMissingArtifact, got %v", err)
	}
}

func TestLoad_OrphanPriorityModelTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, trainedBundle(t, true)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Encoder gone but model present: the pair is unusable.
	if err := os.Remove(filepath.Join(dir, PriorityEncoderFile)); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.HasPriority() {
		t.Error("orphan priority model must not count as a usable priority classifier")
	}
}
