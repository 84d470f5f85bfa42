package training

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grievassist/ml-service/internal/logging"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "complaints.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleCSV = `description,category,priority
Garbage pile rotting near the market,garbage,high
Garbage bin overflowing near the market,garbage,medium
Huge pothole on the highway near bridge,roads,high
Pothole damage on the highway near bridge,roads,low
Streetlight broken on lakeshore avenue,power,medium
Streetlight flickering on lakeshore avenue,power,low
`

func TestLoadCSV(t *testing.T) {
	ds, err := LoadCSV(writeCSV(t, sampleCSV))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	if len(ds.Texts) != 6 {
		t.Errorf("rows = %d, want 6", len(ds.Texts))
	}
	if !ds.HasPriority() {
		t.Error("full priority column must be detected")
	}
	want := []string{"garbage", "power", "roads"}
	if len(ds.Labels) != len(want) {
		t.Fatalf("labels = %v, want %v", ds.Labels, want)
	}
	for i := range want {
		if ds.Labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q (sorted)", i, ds.Labels[i], want[i])
		}
	}

	targets := ds.Targets
	if targets[0][0] != 1 || targets[0][1] != 0 {
		t.Errorf("one-hot row 0 wrong: %v", targets[0])
	}
	if targets[2][2] != 1 {
		t.Errorf("one-hot row 2 wrong: %v", targets[2])
	}
}

func TestLoadCSV_ExplicitOneHotColumns(t *testing.T) {
	csv := `description,garbage,roads,priority
Garbage near market,1,0,high
Pothole on highway,0,1,low
Garbage and pothole together,1,1,medium
Nothing flagged here,0,0,low
`
	ds, err := LoadCSV(writeCSV(t, csv))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	if len(ds.Texts) != 3 {
		t.Fatalf("rows = %d, want 3 (all-zero row skipped)", len(ds.Texts))
	}
	if len(ds.Labels) != 2 || ds.Labels[0] != "garbage" || ds.Labels[1] != "roads" {
		t.Errorf("labels = %v, want [garbage roads]", ds.Labels)
	}
	if ds.Targets[0][0] != 1 || ds.Targets[0][1] != 0 {
		t.Errorf("row 0 targets wrong: %v", ds.Targets[0])
	}
	if ds.Targets[2][0] != 1 || ds.Targets[2][1] != 1 {
		t.Errorf("multi-label row must keep both labels: %v", ds.Targets[2])
	}
	if ds.Categories[2] != "garbage" {
		t.Errorf("dominant of multi-label row = %q, want first positive label", ds.Categories[2])
	}
	if !ds.HasPriority() {
		t.Error("priority column must survive the one-hot layout")
	}
}

func TestLoadCSV_NoPriorityColumn(t *testing.T) {
	csv := `description,category
Garbage near market,garbage
Pothole on highway,roads
`
	ds, err := LoadCSV(writeCSV(t, csv))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if ds.HasPriority() {
		t.Error("dataset without priority column must report HasPriority=false")
	}
}

func TestLoadCSV_PartialPriorityDropped(t *testing.T) {
	csv := `description,category,priority
Garbage near market,garbage,high
Pothole on highway,roads,
`
	ds, err := LoadCSV(writeCSV(t, csv))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if ds.HasPriority() {
		t.Error("partially filled priority column must be dropped")
	}
}

func TestLoadCSV_SkipsBlankRows(t *testing.T) {
	csv := `description,category
Garbage near market,garbage
,roads
Pothole on highway,
Pothole on highway,roads
`
	ds, err := LoadCSV(writeCSV(t, csv))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if len(ds.Texts) != 2 {
		t.Errorf("rows = %d, want 2 (blank description/category skipped)", len(ds.Texts))
	}
}

func TestLoadCSV_MissingColumns(t *testing.T) {
	if _, err := LoadCSV(writeCSV(t, "text,label\na,b\n")); err == nil {
		t.Error("missing description column must fail")
	}
	if _, err := LoadCSV(writeCSV(t, "description\nonly text\n")); err == nil {
		t.Error("missing category column must fail")
	}
}

func TestTrain_FullBundle(t *testing.T) {
	ds, err := LoadCSV(writeCSV(t, sampleCSV))
	if err != nil {
		t.Fatal(err)
	}

	bundle, err := Train(ds, Options{ForestTrees: 10, ForestSeed: 1}, logging.NopLogger{})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if !bundle.HasPriority() {
		t.Error("bundle must carry a priority model for a full priority column")
	}
	if bundle.Meta.NSamples != 6 || !bundle.Meta.HasPriority {
		t.Errorf("metadata wrong: %+v", bundle.Meta)
	}

	v := bundle.Vectorizer.Transform("garbage pile rotting near the market")
	probs := bundle.Categories.Score(v)
	if probs["garbage"] <= probs["roads"] {
		t.Errorf("garbage text must score garbage highest: %v", probs)
	}
}

func TestTrain_WithoutPriority(t *testing.T) {
	ds, err := LoadCSV(writeCSV(t, strings.ReplaceAll(sampleCSV, ",priority", "")))
	if err != nil {
		t.Fatal(err)
	}
	// Stripping the header leaves the old priority values as an extra
	// unnamed column, which LoadCSV ignores.
	bundle, err := Train(ds, Options{ForestTrees: 10, ForestSeed: 1}, logging.NopLogger{})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if bundle.HasPriority() {
		t.Error("bundle must omit the priority model without a priority column")
	}
}

func TestTrain_RejectsTinyDatasets(t *testing.T) {
	ds := &Dataset{
		Texts:      []string{"a", "b"},
		Categories: []string{"x", "y"},
		Labels:     []string{"x", "y"},
	}
	if _, err := Train(ds, Options{}, logging.NopLogger{}); err == nil {
		t.Error("tiny dataset must be rejected")
	}
}

func TestEvaluate(t *testing.T) {
	// Repeat the corpus so the 20% holdout keeps every category on the
	// training side.
	var b strings.Builder
	b.WriteString("description,category\n")
	rows := []string{
		"Garbage pile rotting near the market,garbage",
		"Garbage bin overflowing near the market,garbage",
		"Huge pothole on the highway near bridge,roads",
		"Pothole damage on the highway near bridge,roads",
	}
	for i := 0; i < 5; i++ {
		for _, row := range rows {
			b.WriteString(row + "\n")
		}
	}

	ds, err := LoadCSV(writeCSV(t, b.String()))
	if err != nil {
		t.Fatal(err)
	}

	report, err := Evaluate(ds, 42)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if report.TestSize != 4 || report.TrainSize != 16 {
		t.Errorf("split sizes = %d/%d, want 16/4", report.TrainSize, report.TestSize)
	}
	if report.Accuracy < 0.5 {
		t.Errorf("accuracy suspiciously low on a separable corpus: %v", report.Accuracy)
	}
	if len(report.PerLabel) == 0 {
		t.Error("per-label metrics missing")
	}
	if report.String() == "" {
		t.Error("report must render")
	}
}
