package repulsive

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Body is one element of the bounding-volume hierarchy: the edge leaving
// vertex Index, collapsed to its midpoint with the edge length as mass.
type Body struct {
	Index    int
	Position r3.Vec
	Mass     float64
}

// BVHNode is a node of a binary bounding-volume hierarchy over the edge
// bodies of a curve group. Leaves hold exactly one body.
//
// Each node carries scratch scalars (vI, bI, aIJVJ) whose meaning is owned
// by the block cluster tree's fast far-field sweep; they are zeroed before
// each sweep and are not safe for concurrent multiplies.
type BVHNode struct {
	children []*BVHNode
	bodies   []Body

	centerOfMass r3.Vec
	totalMass    float64

	minCorner r3.Vec
	maxCorner r3.Vec

	vertexIndex int // leaf's body index; -1 for internal nodes

	// Fast-sweep scratch: upward-accumulated value, downward-propagated
	// value, and the accumulated far-field weighted sum.
	vI, bI, aIJVJ float64

	// Root only: mass of every body, indexed by global vertex index.
	fullMasses []float64
}

// NewBVH builds a bounding-volume hierarchy over the edge bodies of the
// curve group: one body per vertex, positioned at the edge midpoint with
// the edge length as mass. Nodes split at the median along the widest
// axis of their bounding box, down to singleton leaves.
func NewBVH(curves *CurveGroup) *BVHNode {
	n := curves.NumVertices()
	bodies := make([]Body, n)
	masses := make([]float64, n)
	for i := 0; i < n; i++ {
		p := curves.GetCurvePoint(i)
		bodies[i] = Body{Index: i, Position: p.EdgeMidpoint(), Mass: p.EdgeLength()}
		masses[i] = bodies[i].Mass
	}

	root := buildBVHNode(bodies)
	root.fullMasses = masses
	return root
}

// buildBVHNode recursively builds the subtree for the given bodies.
func buildBVHNode(bodies []Body) *BVHNode {
	node := &BVHNode{
		bodies:      make([]Body, len(bodies)),
		vertexIndex: -1,
	}
	copy(node.bodies, bodies)

	node.minCorner = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	node.maxCorner = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}

	var weighted r3.Vec
	for _, b := range node.bodies {
		node.totalMass += b.Mass
		weighted = r3.Add(weighted, r3.Scale(b.Mass, b.Position))
		node.minCorner = vecMin(node.minCorner, b.Position)
		node.maxCorner = vecMax(node.maxCorner, b.Position)
	}
	if node.totalMass > 0 {
		node.centerOfMass = r3.Scale(1/node.totalMass, weighted)
	}

	if len(node.bodies) == 1 {
		node.vertexIndex = node.bodies[0].Index
		node.centerOfMass = node.bodies[0].Position
		return node
	}

	// Median split along the widest axis of the bounding box.
	axis := widestAxis(node.minCorner, node.maxCorner)
	sorted := make([]Body, len(node.bodies))
	copy(sorted, node.bodies)
	sort.Slice(sorted, func(i, j int) bool {
		return axisValue(sorted[i].Position, axis) < axisValue(sorted[j].Position, axis)
	})
	mid := len(sorted) / 2

	node.children = []*BVHNode{
		buildBVHNode(sorted[:mid]),
		buildBVHNode(sorted[mid:]),
	}
	return node
}

// NumElements returns the number of bodies contained in this node.
func (n *BVHNode) NumElements() int { return len(n.bodies) }

// Bodies returns the bodies contained in this node, in tree order.
// The returned slice must not be modified.
func (n *BVHNode) Bodies() []Body { return n.bodies }

// Children returns the child nodes; nil for leaves.
func (n *BVHNode) Children() []*BVHNode { return n.children }

// IsLeaf reports whether this node holds a single body.
func (n *BVHNode) IsLeaf() bool { return len(n.children) == 0 }

// VertexIndex returns the global vertex index of a leaf's body, or -1 for
// internal nodes.
func (n *BVHNode) VertexIndex() int { return n.vertexIndex }

// CenterOfMass returns the mass-weighted centroid of the node's bodies.
func (n *BVHNode) CenterOfMass() r3.Vec { return n.centerOfMass }

// TotalMass returns the sum of the node's body masses.
func (n *BVHNode) TotalMass() float64 { return n.totalMass }

// ClusterMasses returns the per-body mass vector, ordered like Bodies.
func (n *BVHNode) ClusterMasses() []float64 {
	masses := make([]float64, len(n.bodies))
	for i, b := range n.bodies {
		masses[i] = b.Mass
	}
	return masses
}

// ViewspaceBounds returns the node's extent as seen from an external
// viewpoint: the depth along the viewing direction to the node's center
// of mass (radial) and the maximum offset perpendicular to it (lateral).
// Both collapse for a singleton leaf. If the viewpoint coincides with the
// center of mass, the box diagonal is returned for both extents.
func (n *BVHNode) ViewspaceBounds(viewpoint r3.Vec) (radial, lateral float64) {
	dir := r3.Sub(n.centerOfMass, viewpoint)
	dist := r3.Norm(dir)
	if dist == 0 {
		diag := r3.Norm(r3.Sub(n.maxCorner, n.minCorner))
		return diag, diag
	}
	u := r3.Scale(1/dist, dir)

	minAlong := math.Inf(1)
	maxAlong := math.Inf(-1)
	var maxPerp float64

	for _, corner := range boxCorners(n.minCorner, n.maxCorner) {
		rel := r3.Sub(corner, viewpoint)
		along := r3.Dot(rel, u)
		perp := r3.Norm(r3.Sub(rel, r3.Scale(along, u)))
		minAlong = math.Min(minAlong, along)
		maxAlong = math.Max(maxAlong, along)
		maxPerp = math.Max(maxPerp, perp)
	}

	return maxAlong - minAlong, maxPerp
}

// zeroScratch resets the fast-sweep scratch fields in this subtree.
func (n *BVHNode) zeroScratch() {
	n.vI = 0
	n.bI = 0
	n.aIJVJ = 0
	for _, child := range n.children {
		child.zeroScratch()
	}
}

func boxCorners(minCorner, maxCorner r3.Vec) [8]r3.Vec {
	var corners [8]r3.Vec
	for i := 0; i < 8; i++ {
		c := minCorner
		if i&1 != 0 {
			c.X = maxCorner.X
		}
		if i&2 != 0 {
			c.Y = maxCorner.Y
		}
		if i&4 != 0 {
			c.Z = maxCorner.Z
		}
		corners[i] = c
	}
	return corners
}

func widestAxis(minCorner, maxCorner r3.Vec) int {
	spread := r3.Sub(maxCorner, minCorner)
	axis := 0
	best := spread.X
	if spread.Y > best {
		axis, best = 1, spread.Y
	}
	if spread.Z > best {
		axis = 2
	}
	return axis
}

func axisValue(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func vecMin(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func vecMax(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
