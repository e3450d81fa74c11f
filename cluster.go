package repulsive

import "gonum.org/v1/gonum/spatial/r3"

// Cluster is the read surface the block cluster tree consumes from the
// point hierarchy. The hierarchy additionally owns mutable per-node
// scratch state for the fast far-field sweep; that state lives on the
// concrete node type, so the tree stores *BVHNode directly and this
// interface documents the geometric queries it depends on.
type Cluster interface {
	// NumElements returns the number of bodies contained in the cluster.
	NumElements() int

	// Bodies returns the contained bodies (global index, position, mass)
	// in tree order.
	Bodies() []Body

	// IsLeaf reports whether the cluster holds a single body.
	IsLeaf() bool

	// VertexIndex returns a leaf's global vertex index, -1 otherwise.
	VertexIndex() int

	// CenterOfMass returns the mass-weighted centroid of the cluster.
	CenterOfMass() r3.Vec

	// TotalMass returns the summed body mass of the cluster.
	TotalMass() float64

	// ClusterMasses returns the per-body mass vector, ordered like Bodies.
	ClusterMasses() []float64

	// ViewspaceBounds returns the cluster's radial and lateral extents as
	// seen from an external viewpoint.
	ViewspaceBounds(viewpoint r3.Vec) (radial, lateral float64)
}

var _ Cluster = (*BVHNode)(nil)
