package similarity

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Cosine returns the cosine similarity of a and b clamped to [0, 1].
// Vectors of different length, empty vectors and zero-magnitude vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	unitA, ok := normalize(mat.NewVecDense(len(a), a))
	if !ok {
		return 0
	}
	unitB, ok := normalize(mat.NewVecDense(len(b), b))
	if !ok {
		return 0
	}

	score := mat.Dot(unitA, unitB)
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// Norm returns the euclidean length of v.
func Norm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return mat.Norm(mat.NewVecDense(len(v), v), 2)
}

// normalize scales v to unit length into a new vector, leaving the backing slice untouched.
// The norm is computed with scaling so huge or tiny components neither overflow nor underflow.
func normalize(v *mat.VecDense) (*mat.VecDense, bool) {
	norm := mat.Norm(v, 2)
	if norm == 0 || math.IsInf(norm, 0) || math.IsNaN(norm) {
		return nil, false
	}
	unit := mat.NewVecDense(v.Len(), nil)
	unit.ScaleVec(1/norm, v)
	return unit, true
}
