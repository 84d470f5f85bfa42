// Package feature maps normalized complaint text onto the fixed TF-IDF
// feature space shared by every downstream classifier. The vocabulary and
// per-term IDF weights are fitted once during training and are immutable
// afterwards; a single fitted Vectorizer instance serves all inference calls.
package feature

import (
	"math"
	"sort"
	"strings"
)

// Fit-time defaults. Terms seen in fewer than minDocFreq documents or in
// more than maxDocShare of all documents are dropped from the vocabulary.
const (
	minDocFreq   = 2
	maxDocShare  = 0.95
	minTokenLen  = 2
	maxNgramSize = 2
)

// Vectorizer holds a fitted TF-IDF model: term vocabulary over unigrams and
// bigrams plus smoothed inverse document frequencies.
type Vectorizer struct {
	Vocabulary map[string]int
	Terms      []string // column index -> term, fixed order
	IDF        []float64
}

// Fit builds a Vectorizer from a corpus of already-normalized documents.
// The vocabulary keeps unigrams and bigrams occurring in at least two
// documents and at most 95% of them, in lexicographic column order.
func Fit(docs []string) *Vectorizer {
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range Ngrams(doc) {
			seen[term] = struct{}{}
		}
		for term := range seen {
			docFreq[term]++
		}
	}

	n := len(docs)
	maxDF := int(maxDocShare * float64(n))

	terms := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df < minDocFreq || df > maxDF {
			continue
		}
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		Terms:      terms,
		IDF:        make([]float64, len(terms)),
	}
	for i, term := range terms {
		v.Vocabulary[term] = i
		// smoothed IDF: ln((1+n)/(1+df)) + 1
		v.IDF[i] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}
	return v
}

// Dim returns the dimensionality of the feature space.
func (v *Vectorizer) Dim() int {
	return len(v.Terms)
}

// Transform maps normalized text to an L2-normalised TF-IDF vector.
// Out-of-vocabulary terms contribute nothing; unknown text yields the zero
// vector rather than an error.
func (v *Vectorizer) Transform(text string) Vector {
	counts := make(map[int]float64)
	for _, term := range Ngrams(text) {
		if col, ok := v.Vocabulary[term]; ok {
			counts[col]++
		}
	}

	vec := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
		Dim:     len(v.Terms),
	}
	for col := range counts {
		vec.Indices = append(vec.Indices, col)
	}
	sort.Ints(vec.Indices)

	var sumSq float64
	for _, col := range vec.Indices {
		w := counts[col] * v.IDF[col]
		vec.Values = append(vec.Values, w)
		sumSq += w * w
	}

	if sumSq > 0 {
		norm := math.Sqrt(sumSq)
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

// TransformAll maps a corpus of normalized documents to vectors.
func (v *Vectorizer) TransformAll(docs []string) []Vector {
	vecs := make([]Vector, len(docs))
	for i, doc := range docs {
		vecs[i] = v.Transform(doc)
	}
	return vecs
}

// Ngrams tokenizes normalized text into unigrams and bigrams. Tokens
// shorter than two characters are dropped, matching the fitted vocabulary's
// token rule.
func Ngrams(text string) []string {
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}

	grams := make([]string, 0, len(tokens)*maxNgramSize)
	grams = append(grams, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}
