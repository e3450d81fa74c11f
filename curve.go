package repulsive

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Curve is a single closed polyline in 3D. Vertex i connects to vertex
// (i+1) mod len, so a curve with n vertices has n edges.
type Curve struct {
	positions []r3.Vec
	offset    int // global index of this curve's first vertex
}

// NumVertices returns the number of vertices (and edges) on this curve.
func (c *Curve) NumVertices() int { return len(c.positions) }

// CurveGroup is one or more closed curves sharing a global vertex
// numbering: vertices of curve k start where curve k-1's end.
type CurveGroup struct {
	curves []*Curve
	points []CurvePoint // global index -> point handle
}

// NewCurveGroup builds a curve group from one or more closed vertex loops.
// Each loop must have at least 2 vertices. The input positions are copied.
func NewCurveGroup(loops [][]r3.Vec) (*CurveGroup, error) {
	if len(loops) == 0 {
		return nil, fmt.Errorf("repulsive: curve group needs at least one curve")
	}

	g := &CurveGroup{}
	offset := 0
	for k, loop := range loops {
		if len(loop) < 2 {
			return nil, fmt.Errorf("repulsive: curve %d has %d vertices, need at least 2", k, len(loop))
		}
		positions := make([]r3.Vec, len(loop))
		copy(positions, loop)
		curve := &Curve{positions: positions, offset: offset}
		g.curves = append(g.curves, curve)
		for i := range positions {
			g.points = append(g.points, CurvePoint{curve: curve, index: i})
		}
		offset += len(loop)
	}
	return g, nil
}

// NumVertices returns the total number of vertices across all curves.
func (g *CurveGroup) NumVertices() int { return len(g.points) }

// GetCurvePoint returns the point handle for a global vertex index.
func (g *CurveGroup) GetCurvePoint(i int) CurvePoint { return g.points[i] }

// CurvePoint is a handle to one vertex on one curve. Handles compare equal
// iff they reference the same vertex of the same curve, so == implements
// the adjacency identity tests used by the kernel.
type CurvePoint struct {
	curve *Curve
	index int
}

// Position returns the vertex position.
func (p CurvePoint) Position() r3.Vec { return p.curve.positions[p.index] }

// Next returns the next vertex along the curve, wrapping around.
func (p CurvePoint) Next() CurvePoint {
	return CurvePoint{curve: p.curve, index: (p.index + 1) % len(p.curve.positions)}
}

// GlobalIndex returns the vertex's index in the group-wide numbering.
func (p CurvePoint) GlobalIndex() int { return p.curve.offset + p.index }

// EdgeMidpoint returns the midpoint of the edge from this vertex to the next.
func (p CurvePoint) EdgeMidpoint() r3.Vec {
	return r3.Scale(0.5, r3.Add(p.Position(), p.Next().Position()))
}

// EdgeLength returns the length of the edge from this vertex to the next.
func (p CurvePoint) EdgeLength() float64 {
	return r3.Norm(r3.Sub(p.Position(), p.Next().Position()))
}
