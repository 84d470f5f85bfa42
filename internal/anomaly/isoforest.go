// Package anomaly provides the likely-fake scoring for complaint text: an
// isolation forest fitted on the training corpus's TF-IDF vectors, plus the
// mapping from raw decision values to the bounded [0,1] fake score.
package anomaly

import (
	"math"
	"math/rand"
	"sort"

	"github.com/grievassist/ml-service/internal/feature"
)

// Fit-time defaults, matching the offline training routine.
const (
	DefaultTrees         = 200
	DefaultSubsample     = 256
	DefaultContamination = 0.01

	eulerMascheroni = 0.5772156649
	splitRetries    = 8
	defaultOffset   = -0.5
)

// Node is a single isolation tree node. Leaves carry the sample size that
// reached them; internal nodes split one feature at a random threshold.
type Node struct {
	Feature int
	Split   float64
	Left    *Node
	Right   *Node
	Size    int
}

// Forest is a fitted isolation forest. Offset is the decision threshold
// fitted from the contamination rate: Decision(v) = normality - Offset,
// so larger decision values mean more normal inputs.
type Forest struct {
	Trees     []*Node
	Subsample int
	Offset    float64
}

// Options controls forest fitting. The zero value selects the defaults.
type Options struct {
	Trees         int
	Subsample     int
	Contamination float64
	Seed          int64
}

func (o *Options) setDefaults() {
	if o.Trees == 0 {
		o.Trees = DefaultTrees
	}
	if o.Subsample == 0 {
		o.Subsample = DefaultSubsample
	}
	if o.Contamination == 0 {
		o.Contamination = DefaultContamination
	}
}

// Fit trains an isolation forest on the given vectors.
func Fit(vecs []feature.Vector, opts Options) *Forest {
	opts.setDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	f := &Forest{
		Trees:     make([]*Node, 0, opts.Trees),
		Subsample: opts.Subsample,
		Offset:    defaultOffset,
	}
	if len(vecs) == 0 {
		return f
	}

	psi := opts.Subsample
	if psi > len(vecs) {
		psi = len(vecs)
	}
	heightLimit := int(math.Ceil(math.Log2(float64(psi + 1))))

	for t := 0; t < opts.Trees; t++ {
		sample := make([]feature.Vector, psi)
		for i, idx := range rng.Perm(len(vecs))[:psi] {
			sample[i] = vecs[idx]
		}
		f.Trees = append(f.Trees, buildTree(sample, 0, heightLimit, rng))
	}

	// Fit the offset so roughly `contamination` of the training data falls
	// below zero, mirroring the offline fitting convention.
	scores := make([]float64, len(vecs))
	for i, v := range vecs {
		scores[i] = f.normality(v)
	}
	sort.Float64s(scores)
	rank := int(float64(len(scores)) * opts.Contamination)
	if rank >= len(scores) {
		rank = len(scores) - 1
	}
	f.Offset = scores[rank]

	return f
}

// buildTree grows one isolation tree over the sample.
func buildTree(sample []feature.Vector, depth, limit int, rng *rand.Rand) *Node {
	if depth >= limit || len(sample) <= 1 {
		return &Node{Size: len(sample)}
	}

	// Candidate split features are the columns that actually occur in the
	// sample; splitting an all-zero column cannot separate anything.
	candidates := candidateFeatures(sample)
	if len(candidates) == 0 {
		return &Node{Size: len(sample)}
	}

	for attempt := 0; attempt < splitRetries; attempt++ {
		f := candidates[rng.Intn(len(candidates))]
		lo, hi := featureRange(sample, f)
		if hi <= lo {
			continue
		}
		split := lo + rng.Float64()*(hi-lo)

		var left, right []feature.Vector
		for _, v := range sample {
			if v.At(f) < split {
				left = append(left, v)
			} else {
				right = append(right, v)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}

		return &Node{
			Feature: f,
			Split:   split,
			Left:    buildTree(left, depth+1, limit, rng),
			Right:   buildTree(right, depth+1, limit, rng),
		}
	}

	return &Node{Size: len(sample)}
}

func candidateFeatures(sample []feature.Vector) []int {
	seen := make(map[int]struct{})
	for _, v := range sample {
		for _, idx := range v.Indices {
			seen[idx] = struct{}{}
		}
	}
	features := make([]int, 0, len(seen))
	for idx := range seen {
		features = append(features, idx)
	}
	sort.Ints(features)
	return features
}

func featureRange(sample []feature.Vector, f int) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range sample {
		val := v.At(f)
		if val < lo {
			lo = val
		}
		if val > hi {
			hi = val
		}
	}
	return lo, hi
}

// pathLength walks a point down one tree.
func pathLength(n *Node, v feature.Vector, depth float64) float64 {
	if n.Left == nil {
		return depth + avgPathLength(n.Size)
	}
	if v.At(n.Feature) < n.Split {
		return pathLength(n.Left, v, depth+1)
	}
	return pathLength(n.Right, v, depth+1)
}

// avgPathLength is c(n): the average unsuccessful-search path length of a
// binary search tree with n nodes.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	nf := float64(n)
	return 2*(math.Log(nf-1)+eulerMascheroni) - 2*(nf-1)/nf
}

// normality returns -anomalyScore(v), in (-1, 0): values near 0 are normal,
// values near -1 are isolated quickly and therefore anomalous.
func (f *Forest) normality(v feature.Vector) float64 {
	if len(f.Trees) == 0 {
		return 0
	}

	var total float64
	for _, t := range f.Trees {
		total += pathLength(t, v, 0)
	}
	mean := total / float64(len(f.Trees))

	c := avgPathLength(f.Subsample)
	if c == 0 {
		return 0
	}
	return -math.Pow(2, -mean/c)
}

// Decision returns the raw decision value for a vector: positive for
// normal-looking inputs, negative for anomalous ones, roughly within
// [-0.5, 0.5].
func (f *Forest) Decision(v feature.Vector) float64 {
	return f.normality(v) - f.Offset
}
