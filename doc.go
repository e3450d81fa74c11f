// Package repulsive implements a hierarchical (block cluster tree)
// approximation of the fractional kernel operator that drives repulsive
// curve energies.
//
// Given N vertices sampled along one or more closed space curves, the
// operator applies the bilinear form
//
//	(A v)_i = 2 * (Σ_j a_ij * v_i - Σ_j a_ij * v_j)
//
// where a_ij = (l_i * l_j) / |m_i - m_j|^(β-α) is a pairwise kernel over
// edge midpoints m and edge lengths l, with interactions between adjacent
// edges excluded. The full matrix is never formed: a dual-tree traversal
// over a bounding-volume hierarchy splits the interaction space into
// near-field blocks (evaluated exactly) and well-separated far-field
// blocks (replaced by rank-1 approximations).
//
// Basic usage:
//
//	curves, err := repulsive.NewCurveGroup(loops)
//	root := repulsive.NewBVH(curves)
//	bct := repulsive.NewBlockClusterTree(curves, root, 0.25, 2, 4, 0)
//	bct.SetTreeMode(repulsive.ModeBarnesHut)
//	out := make([]r3.Vec, curves.NumVertices())
//	bct.Multiply(v, out)
//
// # Far-field strategies
//
// Two equivalent far-field evaluators are provided. ModeMatrixOnly visits
// every admissible cluster pair and applies its rank-1 block directly.
// ModeBarnesHut evaluates the sum over all admissible pairs with a single
// upward/downward sweep over the tree, fast-multipole style, in O(N log N)
// total work. The two agree to floating-point accumulation order.
//
// A tree instance carries per-node scratch state mutated by the fast
// sweep; at most one multiply may be in flight per tree at a time.
package repulsive
