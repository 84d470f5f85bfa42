package feature

import (
	"math"
	"testing"
)

func trainingDocs() []string {
	return []string{
		"garbage pile on main street",
		"garbage not collected near park",
		"street light broken on main street",
		"water leak near park entrance",
		"water supply disrupted in sector",
		"broken street light near school",
	}
}

func TestFit_VocabularyRules(t *testing.T) {
	v := Fit(trainingDocs())

	// "garbage" appears in 2 documents: kept.
	if _, ok := v.Vocabulary["garbage"]; !ok {
		t.Error("expected 'garbage' in vocabulary (df=2)")
	}

	// "pile" appears in 1 document: dropped by min document frequency.
	if _, ok := v.Vocabulary["pile"]; ok {
		t.Error("did not expect 'pile' in vocabulary (df=1)")
	}

	// bigram present in 2 documents: kept.
	if _, ok := v.Vocabulary["main street"]; !ok {
		t.Error("expected bigram 'main street' in vocabulary (df=2)")
	}

	// Single-character tokens never enter the vocabulary.
	if _, ok := v.Vocabulary["a"]; ok {
		t.Error("single-character token must not be in vocabulary")
	}

	if v.Dim() != len(v.Terms) || v.Dim() != len(v.IDF) {
		t.Errorf("inconsistent dimensions: dim=%d terms=%d idf=%d", v.Dim(), len(v.Terms), len(v.IDF))
	}
}

func TestFit_ColumnOrderIsStable(t *testing.T) {
	a := Fit(trainingDocs())
	b := Fit(trainingDocs())

	if len(a.Terms) != len(b.Terms) {
		t.Fatalf("vocabulary size differs between fits: %d vs %d", len(a.Terms), len(b.Terms))
	}
	for i := range a.Terms {
		if a.Terms[i] != b.Terms[i] {
			t.Fatalf("column %d differs: %q vs %q", i, a.Terms[i], b.Terms[i])
		}
	}
	for i := 1; i < len(a.Terms); i++ {
		if a.Terms[i-1] >= a.Terms[i] {
			t.Fatalf("terms not in lexicographic order at %d: %q >= %q", i, a.Terms[i-1], a.Terms[i])
		}
	}
}

func TestTransform_L2Normalized(t *testing.T) {
	v := Fit(trainingDocs())

	vec := v.Transform("garbage on main street")
	if vec.NNZ() == 0 {
		t.Fatal("expected nonzero vector for in-vocabulary text")
	}

	if norm := vec.Norm(); math.Abs(norm-1.0) > 1e-9 {
		t.Errorf("expected unit norm, got %v", norm)
	}
}

func TestTransform_OutOfVocabulary(t *testing.T) {
	v := Fit(trainingDocs())

	vec := v.Transform("zebra quantum flux")
	if vec.NNZ() != 0 {
		t.Errorf("expected zero vector for out-of-vocabulary text, got %d nonzeros", vec.NNZ())
	}
	if vec.Dim != v.Dim() {
		t.Errorf("zero vector must keep feature-space dimension %d, got %d", v.Dim(), vec.Dim)
	}

	empty := v.Transform("")
	if empty.NNZ() != 0 {
		t.Errorf("expected zero vector for empty text, got %d nonzeros", empty.NNZ())
	}
}

func TestTransform_Deterministic(t *testing.T) {
	v := Fit(trainingDocs())

	a := v.Transform("water leak near park")
	b := v.Transform("water leak near park")

	if a.NNZ() != b.NNZ() {
		t.Fatalf("nonzero counts differ: %d vs %d", a.NNZ(), b.NNZ())
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] || a.Values[i] != b.Values[i] {
			t.Fatalf("entry %d differs: (%d,%v) vs (%d,%v)",
				i, a.Indices[i], a.Values[i], b.Indices[i], b.Values[i])
		}
	}
}

func TestVector_At_Dot(t *testing.T) {
	vec := Vector{Indices: []int{1, 4}, Values: []float64{0.5, 2.0}, Dim: 6}

	if got := vec.At(1); got != 0.5 {
		t.Errorf("At(1) = %v, want 0.5", got)
	}
	if got := vec.At(2); got != 0 {
		t.Errorf("At(2) = %v, want 0", got)
	}

	weights := []float64{0, 1, 0, 0, 3, 0}
	if got := vec.Dot(weights); got != 0.5+6.0 {
		t.Errorf("Dot = %v, want 6.5", got)
	}
}

func TestNgrams(t *testing.T) {
	got := Ngrams("garbage on main street")
	// "on" is kept (len 2); expect 4 unigrams + 3 bigrams
	want := []string{
		"garbage", "on", "main", "street",
		"garbage on", "on main", "main street",
	}
	if len(got) != len(want) {
		t.Fatalf("Ngrams length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Ngrams[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
