package feature

import (
	"math"
	"sort"
)

// Vector is a sparse feature vector over a fixed vocabulary.
// Indices are sorted ascending and hold the nonzero columns; Values holds
// the corresponding weights. Vectors are created per request and never
// mutated after construction.
type Vector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// At returns the value at column i, or zero when the column is not set.
func (v Vector) At(i int) float64 {
	pos := sort.SearchInts(v.Indices, i)
	if pos < len(v.Indices) && v.Indices[pos] == i {
		return v.Values[pos]
	}
	return 0
}

// Dot computes the dot product with a dense weight slice.
// Columns beyond len(weights) are ignored.
func (v Vector) Dot(weights []float64) float64 {
	var sum float64
	for k, idx := range v.Indices {
		if idx < len(weights) {
			sum += v.Values[k] * weights[idx]
		}
	}
	return sum
}

// Norm returns the Euclidean norm of the vector.
func (v Vector) Norm() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// NNZ returns the number of nonzero entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}
