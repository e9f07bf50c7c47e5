package vector

import "math"

// Vector is a track embedding with its magnitude precomputed at snapshot
// build time.
type Vector struct {
	V   []float64
	Mag float64
}

// New wraps an embedding and precomputes its magnitude.
func New(v []float64) Vector {
	return Vector{V: v, Mag: Magnitude(v)}
}

// Dot returns the sum of elementwise products over the common prefix of the
// two vectors. Differing lengths are not an error; only the overlapping
// prefix contributes.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	d := 0.0
	for i := 0; i < n; i++ {
		d += a[i] * b[i]
	}
	return d
}

// Magnitude returns the euclidean norm of v.
func Magnitude(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// Cosine returns the cosine similarity of a and b. The second return is false
// when either vector has zero magnitude; callers treat that as "no score
// contribution" rather than propagating a division by zero.
func Cosine(a, b Vector) (float64, bool) {
	if a.Mag == 0 || b.Mag == 0 {
		return 0, false
	}
	return Dot(a.V, b.V) / (a.Mag * b.Mag), true
}
