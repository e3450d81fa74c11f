package repulsive

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// TreeMode selects the far-field evaluation strategy used by Multiply.
type TreeMode int

const (
	// ModeMatrixOnly evaluates each admissible pair's rank-1 block
	// directly, one pair at a time.
	ModeMatrixOnly TreeMode = iota

	// ModeBarnesHut evaluates the sum over all admissible pairs with a
	// single upward/downward sweep over the tree.
	ModeBarnesHut
)

// smallClusterThreshold is the combined element count below which a pair
// is evaluated exactly instead of being subdivided further.
const smallClusterThreshold = 8

// ClusterPair is an unordered pair of hierarchy nodes whose mutual kernel
// interactions are evaluated as one block.
type ClusterPair struct {
	Cluster1 *BVHNode
	Cluster2 *BVHNode
}

// Stats accumulates per-tree timing buckets across multiply calls.
// TraversalTime covers mass-vector gathering inside the far-field pass
// and is a subset of FarFieldTime.
type Stats struct {
	NearFieldTime time.Duration
	FarFieldTime  time.Duration
	TraversalTime time.Duration
}

// BlockClusterTree partitions the pairwise kernel interactions of a curve
// group into near-field blocks, evaluated exactly, and well-separated
// far-field blocks, approximated at rank 1. The pair sets are fixed at
// construction; the multiply entry points accumulate into their output.
//
// Per-node scratch state is mutated during the fast far-field sweep, so
// at most one multiply may run against a tree at a time.
type BlockClusterTree struct {
	curves *CurveGroup
	root   *BVHNode

	alpha           float64
	beta            float64
	separationCoeff float64
	epsilon         float64 // caller-side regularization, not used by the operator
	nVerts          int

	mode TreeMode

	admissiblePairs   []ClusterPair
	inadmissiblePairs []ClusterPair

	stats Stats
}

// NewBlockClusterTree enumerates the admissible and inadmissible cluster
// pairs of the hierarchy rooted at root, for the kernel |x-y|^-(beta-alpha)
// and separation coefficient sepCoeff (larger values admit more pairs).
// The tree starts in ModeMatrixOnly.
func NewBlockClusterTree(curves *CurveGroup, root *BVHNode, sepCoeff, alpha, beta, epsilon float64) *BlockClusterTree {
	t := &BlockClusterTree{
		curves:          curves,
		root:            root,
		alpha:           alpha,
		beta:            beta,
		separationCoeff: sepCoeff,
		epsilon:         epsilon,
		nVerts:          curves.NumVertices(),
		mode:            ModeMatrixOnly,
	}

	unresolved := []ClusterPair{{root, root}}
	for len(unresolved) > 0 {
		unresolved = t.splitInadmissibleNodes(unresolved)
	}
	return t
}

// splitInadmissibleNodes classifies every unresolved pair and returns the
// next generation of pairs to resolve (the child cross-products of pairs
// that were neither admissible nor small enough).
func (t *BlockClusterTree) splitInadmissibleNodes(unresolved []ClusterPair) []ClusterPair {
	var next []ClusterPair

	for _, pair := range unresolved {
		switch {
		case pair.Cluster1.NumElements() == 0 || pair.Cluster2.NumElements() == 0:
			// Drop pairs where one of the sides is empty.

		case pair.Cluster1.NumElements() == 1 && pair.Cluster2.NumElements() == 1:
			// Two singletons get multiplied exactly.
			t.inadmissiblePairs = append(t.inadmissiblePairs, pair)

		case t.isPairAdmissible(pair, t.separationCoeff):
			t.admissiblePairs = append(t.admissiblePairs, pair)

		case isPairSmallEnough(pair):
			t.inadmissiblePairs = append(t.inadmissiblePairs, pair)

		default:
			for _, c1 := range pair.Cluster1.children {
				for _, c2 := range pair.Cluster2.children {
					next = append(next, ClusterPair{c1, c2})
				}
			}
		}
	}
	return next
}

func isPairSmallEnough(pair ClusterPair) bool {
	s1 := pair.Cluster1.NumElements()
	s2 := pair.Cluster2.NumElements()
	return s1 <= 1 || s2 <= 1 || s1+s2 <= smallClusterThreshold
}

// isPairAdmissible is the well-separatedness test: the pair is admissible
// iff the largest radial or lateral extent of either cluster, as seen
// from the other's center of mass, is below theta times the distance
// between the centers of mass. A cluster is never admissible with itself.
func (t *BlockClusterTree) isPairAdmissible(pair ClusterPair, theta float64) bool {
	if pair.Cluster1 == pair.Cluster2 {
		return false
	}

	r1, l1 := pair.Cluster1.ViewspaceBounds(pair.Cluster2.CenterOfMass())
	r2, l2 := pair.Cluster2.ViewspaceBounds(pair.Cluster1.CenterOfMass())

	spread := math.Max(math.Max(r1, r2), math.Max(l1, l2))
	distance := r3.Norm(r3.Sub(pair.Cluster1.CenterOfMass(), pair.Cluster2.CenterOfMass()))

	return spread < theta*distance
}

// SetTreeMode selects the far-field strategy used by Multiply.
func (t *BlockClusterTree) SetTreeMode(mode TreeMode) { t.mode = mode }

// TreeStats returns the accumulated timing buckets.
func (t *BlockClusterTree) TreeStats() Stats { return t.stats }

// PairCounts returns the number of admissible and inadmissible pairs.
func (t *BlockClusterTree) PairCounts() (admissible, inadmissible int) {
	return len(t.admissiblePairs), len(t.inadmissiblePairs)
}

// AdmissiblePairs returns the admissible pair set. Read-only.
func (t *BlockClusterTree) AdmissiblePairs() []ClusterPair { return t.admissiblePairs }

// InadmissiblePairs returns the inadmissible pair set. Read-only.
func (t *BlockClusterTree) InadmissiblePairs() []ClusterPair { return t.inadmissiblePairs }

func (t *BlockClusterTree) String() string {
	return fmt.Sprintf("BlockClusterTree(%d admissible pairs, %d inadmissible pairs)",
		len(t.admissiblePairs), len(t.inadmissiblePairs))
}

// Multiply applies the full operator: the near field exactly and the far
// field with the strategy selected by SetTreeMode, accumulating into out.
// v and out must both have NumVertices entries.
func (t *BlockClusterTree) Multiply(v, out []r3.Vec) {
	switch t.mode {
	case ModeBarnesHut:
		t.MultiplyAdmissibleFast(v, out)
	default:
		t.MultiplyAdmissible(v, out)
	}
	t.MultiplyInadmissible(v, out)
}

// MultiplyInadmissible applies the exact near-field contribution of every
// inadmissible pair, accumulating into out.
func (t *BlockClusterTree) MultiplyInadmissible(v, out []r3.Vec) {
	start := time.Now()
	for _, pair := range t.inadmissiblePairs {
		t.afFullProduct(pair, v, out)
	}
	t.stats.NearFieldTime += time.Since(start)
}

// MultiplyAdmissible applies the rank-1 far-field approximation of every
// admissible pair, one pair at a time, accumulating into out.
func (t *BlockClusterTree) MultiplyAdmissible(v, out []r3.Vec) {
	start := time.Now()
	for _, pair := range t.admissiblePairs {
		t.afApproxProduct(pair, v, out)
	}
	t.stats.FarFieldTime += time.Since(start)
}

// afFullProduct evaluates one near-field block exactly: row sums and
// weighted sums of the true kernel, with adjacent-edge interactions
// excluded.
func (t *BlockClusterTree) afFullProduct(pair ClusterPair, v, out []r3.Vec) {
	powS := t.beta - t.alpha

	for _, b1 := range pair.Cluster1.bodies {
		p1 := t.curves.GetCurvePoint(b1.Index)
		mid1 := p1.EdgeMidpoint()
		l1 := p1.EdgeLength()

		var rowSum float64
		var weighted r3.Vec

		for _, b2 := range pair.Cluster2.bodies {
			p2 := t.curves.GetCurvePoint(b2.Index)
			if edgesAdjacent(p1, p2) {
				continue
			}

			mid2 := p2.EdgeMidpoint()
			l2 := p2.EdgeLength()
			af := (l1 * l2) / math.Pow(r3.Norm(r3.Sub(mid1, mid2)), powS)

			rowSum += af
			weighted = r3.Add(weighted, r3.Scale(af, v[b2.Index]))
		}

		add := r3.Scale(2, r3.Sub(r3.Scale(rowSum, v[b1.Index]), weighted))
		out[b1.Index] = r3.Add(out[b1.Index], add)
	}
}

// edgesAdjacent reports whether the edges leaving p1 and p2 share a
// vertex, including the case p1 == p2. Such interactions are singular and
// excluded from the operator by contract.
func edgesAdjacent(p1, p2 CurvePoint) bool {
	n1 := p1.Next()
	n2 := p2.Next()
	return p1 == p2 || n1 == p2 || p1 == n2 || n1 == n2
}

// afApproxProduct evaluates one far-field block at rank 1: every kernel
// entry of the block is replaced by the single centroid-distance value
// a_IJ, weighted by the clusters' mass vectors.
func (t *BlockClusterTree) afApproxProduct(pair ClusterPair, v, out []r3.Vec) {
	start := time.Now()
	wfI := pair.Cluster1.ClusterMasses()
	wfJ := pair.Cluster2.ClusterMasses()
	t.stats.TraversalTime += time.Since(start)

	powS := t.beta - t.alpha
	aIJ := 1 / math.Pow(r3.Norm(r3.Sub(pair.Cluster1.CenterOfMass(), pair.Cluster2.CenterOfMass())), powS)

	// a(I,J) * w_f(J)^T * 1(J)
	aWf1 := aIJ * floats.Sum(wfJ)

	// a(I,J) * w_f(J)^T * v(J)
	var aWfJ r3.Vec
	for j, b2 := range pair.Cluster2.bodies {
		aWfJ = r3.Add(aWfJ, r3.Scale(wfJ[j], v[b2.Index]))
	}
	aWfJ = r3.Scale(aIJ, aWfJ)

	for i, b1 := range pair.Cluster1.bodies {
		add := r3.Scale(2*wfI[i], r3.Sub(r3.Scale(aWf1, v[b1.Index]), aWfJ))
		out[b1.Index] = r3.Add(out[b1.Index], add)
	}
}

// MultiplyAdmissibleFast applies the far-field contribution of all
// admissible pairs at once with an upward/downward tree sweep per spatial
// component, accumulating into out. The result agrees with
// MultiplyAdmissible up to floating-point accumulation order.
func (t *BlockClusterTree) MultiplyAdmissibleFast(v, out []r3.Vec) {
	start := time.Now()

	ones := make([]float64, t.nVerts)
	for i := range ones {
		ones[i] = 1
	}
	hf := t.MultiplyAf(ones)

	var b [3][]float64
	col := make([]float64, t.nVerts)
	for c := 0; c < 3; c++ {
		for i := range col {
			col[i] = axisValue(v[i], c)
		}
		b[c] = t.MultiplyAf(col)
	}

	for i := range out {
		out[i] = r3.Add(out[i], r3.Vec{
			X: 2 * (hf[i]*v[i].X - b[0][i]),
			Y: 2 * (hf[i]*v[i].Y - b[1][i]),
			Z: 2 * (hf[i]*v[i].Z - b[2][i]),
		})
	}

	t.stats.FarFieldTime += time.Since(start)
}

// MultiplyAf applies the admissible (far-field) part of the kernel matrix
// to a scalar vector: leaf values are mass-weighted and accumulated to
// the root, every admissible pair deposits a_IJ times the partner's
// accumulated value, and the deposits are propagated back to the leaves.
func (t *BlockClusterTree) MultiplyAf(v []float64) []float64 {
	t.root.zeroScratch()

	result := make([]float64, t.nVerts)
	t.setVIs(t.root, v)
	t.setBIs(t.root, result)
	for i := range result {
		result[i] *= t.root.fullMasses[i]
	}
	return result
}

// setVIs is the upward pass: V_I of a leaf is its mass times its input
// entry; V_I of an internal node is the sum over its children.
func (t *BlockClusterTree) setVIs(node *BVHNode, v []float64) {
	if node.IsLeaf() {
		node.vI = node.totalMass * v[node.vertexIndex]
		return
	}
	node.vI = 0
	for _, child := range node.children {
		t.setVIs(child, v)
		node.vI += child.vI
	}
}

// setBIs deposits the far-field sums of all admissible pairs and then
// propagates them down to the leaves. The pair set is symmetric (both
// (I,J) and (J,I) are enumerated), so a one-directional deposit suffices.
func (t *BlockClusterTree) setBIs(node *BVHNode, bTilde []float64) {
	powS := t.beta - t.alpha
	for _, pair := range t.admissiblePairs {
		aIJ := 1 / math.Pow(r3.Norm(r3.Sub(pair.Cluster1.CenterOfMass(), pair.Cluster2.CenterOfMass())), powS)
		pair.Cluster1.aIJVJ += aIJ * pair.Cluster2.vI
	}
	t.propagateBIs(node, 0, bTilde)
}

// propagateBIs is the downward pass: each node's B_I is its parent's B_I
// plus its own deposited sum; leaves write their B_I to the output.
func (t *BlockClusterTree) propagateBIs(node *BVHNode, parentBI float64, bTilde []float64) {
	node.bI = parentBI + node.aIJVJ
	if node.IsLeaf() {
		bTilde[node.vertexIndex] = node.bI
		return
	}
	for _, child := range node.children {
		t.propagateBIs(child, node.bI, bTilde)
	}
}
