package repulsive

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func unitSquareLoop() []r3.Vec {
	return []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
}

func TestCurveGroup_Construction(t *testing.T) {
	g, err := NewCurveGroup([][]r3.Vec{unitSquareLoop()})
	if err != nil {
		t.Fatalf("NewCurveGroup failed: %v", err)
	}
	if g.NumVertices() != 4 {
		t.Errorf("NumVertices() = %d, want 4", g.NumVertices())
	}

	for i := 0; i < 4; i++ {
		if got := g.GetCurvePoint(i).GlobalIndex(); got != i {
			t.Errorf("GetCurvePoint(%d).GlobalIndex() = %d, want %d", i, got, i)
		}
	}
}

func TestCurveGroup_MultipleCurves(t *testing.T) {
	shifted := make([]r3.Vec, 4)
	for i, p := range unitSquareLoop() {
		shifted[i] = r3.Add(p, r3.Vec{X: 10})
	}
	g, err := NewCurveGroup([][]r3.Vec{unitSquareLoop(), shifted})
	if err != nil {
		t.Fatalf("NewCurveGroup failed: %v", err)
	}
	if g.NumVertices() != 8 {
		t.Errorf("NumVertices() = %d, want 8", g.NumVertices())
	}

	// Points on different curves are never equal, and Next stays on the
	// same curve.
	p0 := g.GetCurvePoint(0)
	p4 := g.GetCurvePoint(4)
	if p0 == p4 {
		t.Error("points on different curves compare equal")
	}
	if p4.Next().GlobalIndex() != 5 {
		t.Errorf("Next().GlobalIndex() = %d, want 5", p4.Next().GlobalIndex())
	}
}

func TestCurveGroup_InvalidInput(t *testing.T) {
	if _, err := NewCurveGroup(nil); err == nil {
		t.Error("expected error for empty group")
	}
	if _, err := NewCurveGroup([][]r3.Vec{{{X: 1}}}); err == nil {
		t.Error("expected error for 1-vertex loop")
	}
}

func TestCurvePoint_NextWrapsAround(t *testing.T) {
	g, err := NewCurveGroup([][]r3.Vec{unitSquareLoop()})
	if err != nil {
		t.Fatalf("NewCurveGroup failed: %v", err)
	}

	p := g.GetCurvePoint(3)
	if p.Next() != g.GetCurvePoint(0) {
		t.Error("Next() of last vertex should wrap to first")
	}
	if p.Next().Next() != g.GetCurvePoint(1) {
		t.Error("double Next() should reach second vertex")
	}
}

func TestCurvePoint_EdgeGeometry(t *testing.T) {
	g, err := NewCurveGroup([][]r3.Vec{unitSquareLoop()})
	if err != nil {
		t.Fatalf("NewCurveGroup failed: %v", err)
	}

	p := g.GetCurvePoint(0)
	mid := p.EdgeMidpoint()
	want := r3.Vec{X: 0.5, Y: 0, Z: 0}
	if r3.Norm(r3.Sub(mid, want)) > 1e-15 {
		t.Errorf("EdgeMidpoint() = %v, want %v", mid, want)
	}
	if l := p.EdgeLength(); math.Abs(l-1) > 1e-15 {
		t.Errorf("EdgeLength() = %g, want 1", l)
	}

	// Wrap-around edge from vertex 3 back to vertex 0.
	p3 := g.GetCurvePoint(3)
	if l := p3.EdgeLength(); math.Abs(l-1) > 1e-15 {
		t.Errorf("wrap-around EdgeLength() = %g, want 1", l)
	}
}
