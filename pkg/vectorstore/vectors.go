package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/iamabhishek-n/vectra-go/pkg/calque"
)

// Normalize returns a copy of v scaled to unit L2 norm (§3 invariant 3). A
// zero vector is returned unchanged to avoid a division by zero.
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// IsNormalized reports whether v has unit L2 norm within the 1e-6 tolerance
// required by §3 invariant 3 / §8.
func IsNormalized(v []float32) bool {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	return math.Abs(math.Sqrt(sumSq)-1) < 1e-6
}

// Dot computes the dot product of two equal-length vectors. Since stored
// vectors are normalized, this is cosine similarity (§3 invariant 3).
func Dot(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// CheckDimension validates that v has the expected dimension D, returning
// the fatal DimensionMismatch error from §3 invariant 2 / §7 otherwise.
func CheckDimension(ctx context.Context, v []float32, expected int) error {
	if expected > 0 && len(v) != expected {
		return calque.NewErr(ctx, fmt.Sprintf("dimension mismatch: expected %d, got %d", expected, len(v))).
			Tags(
				slog.Int("expected", expected),
				slog.Int("got", len(v)),
			)
	}
	return nil
}
