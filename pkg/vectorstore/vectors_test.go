package vectorstore

import (
	"context"
	"math"
	"testing"
)

func TestNormalize_ScalesToUnitNorm(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if !IsNormalized(v) {
		t.Fatalf("Normalize output not normalized: %v", v)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3 4]) = %v, want approximately [0.6 0.8]", v)
	}
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	v := Normalize([]float32{0, 0})
	if v[0] != 0 || v[1] != 0 {
		t.Errorf("Normalize of zero vector should stay zero, got %v", v)
	}
}

func TestIsNormalized_RejectsNonUnitVector(t *testing.T) {
	if IsNormalized([]float32{1, 1}) {
		t.Error("expected [1 1] to not be normalized")
	}
}

func TestDot(t *testing.T) {
	if got := Dot([]float32{1, 2, 3}, []float32{4, 5, 6}); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
}

func TestCheckDimension_MismatchIsError(t *testing.T) {
	err := CheckDimension(context.Background(), []float32{1, 2}, 3)
	if err == nil {
		t.Fatal("expected an error for a dimension mismatch")
	}
}

func TestCheckDimension_MatchIsNil(t *testing.T) {
	if err := CheckDimension(context.Background(), []float32{1, 2, 3}, 3); err != nil {
		t.Errorf("expected no error for a matching dimension, got %v", err)
	}
}

func TestCheckDimension_ZeroExpectedSkipsCheck(t *testing.T) {
	if err := CheckDimension(context.Background(), []float32{1}, 0); err != nil {
		t.Errorf("expected no check when expected=0, got %v", err)
	}
}
