package repulsive

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestKernelMatrix_SymmetricWithZeroedNeighbors(t *testing.T) {
	g := mustCurveGroup(t, unitSquareLoop())
	a := KernelMatrix(g, 2, 4)

	n, _ := a.Dims()
	if n != 4 {
		t.Fatalf("Dims() = %d, want 4", n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if a.At(i, j) != a.At(j, i) {
				t.Errorf("a(%d,%d) = %g, a(%d,%d) = %g", i, j, a.At(i, j), j, i, a.At(j, i))
			}
		}
		// Self and adjacent-edge entries are excluded.
		if a.At(i, i) != 0 {
			t.Errorf("a(%d,%d) = %g, want 0", i, i, a.At(i, i))
		}
		next := (i + 1) % n
		if a.At(i, next) != 0 || a.At(next, i) != 0 {
			t.Errorf("adjacent entry a(%d,%d) not zero", i, next)
		}
	}

	// Opposite edges of the square interact: midpoints at distance 1,
	// unit l1 lengths, s=2, so the kernel value is exactly 1.
	if got := a.At(0, 2); math.Abs(got-1) > 1e-12 {
		t.Errorf("a(0,2) = %g, want 1", got)
	}
	if got := a.At(1, 3); math.Abs(got-1) > 1e-12 {
		t.Errorf("a(1,3) = %g, want 1", got)
	}
}

func TestKernelMatrixParallel_MatchesSequential(t *testing.T) {
	g := mustCurveGroup(t, circleLoop(33, 1))
	seq := KernelMatrix(g, 2, 4)

	for _, workers := range []int{1, 2, 4, 7} {
		par := KernelMatrixParallel(g, 2, 4, workers)
		n, _ := seq.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if seq.At(i, j) != par.At(i, j) {
					t.Fatalf("workers=%d: entry (%d,%d) differs: %g vs %g",
						workers, i, j, seq.At(i, j), par.At(i, j))
				}
			}
		}
	}
}

func TestDenseMultiply_ConstantFieldMapsToZero(t *testing.T) {
	// For a constant field, rowsum*v_i equals Σ_j a_ij v_j exactly, so
	// the bilinear form vanishes.
	g := mustCurveGroup(t, circleLoop(12, 1))
	a := KernelMatrix(g, 2, 4)

	v := make([]r3.Vec, 12)
	for i := range v {
		v[i] = r3.Vec{X: 1, Y: -2, Z: 0.5}
	}

	out := DenseMultiply(a, v)
	for i, p := range out {
		if r3.Norm(p) > 1e-10 {
			t.Errorf("out[%d] = %v, want ~zero", i, p)
		}
	}
}

func TestDenseMultiply_BilinearFormSymmetric(t *testing.T) {
	const n = 20
	g := mustCurveGroup(t, circleLoop(n, 1))
	a := KernelMatrix(g, 2, 4)

	v := randomField(n, 11)
	w := randomField(n, 12)
	lhs := fieldDot(w, DenseMultiply(a, v))
	rhs := fieldDot(v, DenseMultiply(a, w))
	if rel := math.Abs(lhs-rhs) / math.Abs(lhs); rel > 1e-10 {
		t.Errorf("w·(Av) = %g, v·(Aw) = %g (rel %g)", lhs, rhs, rel)
	}
}
