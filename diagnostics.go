package repulsive

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// worstPairThreshold is the relative block error (percent) above which a
// pair is listed in the CompareBlocks report.
const worstPairThreshold = 50

// FullBlock materializes the exact kernel block for a cluster pair: entry
// (i,j) is -w_i * w_j / |x_i - x_j|^(beta-alpha) over the pair's flattened
// bodies, zero for adjacent edges.
func (t *BlockClusterTree) FullBlock(pair ClusterPair) *mat.Dense {
	bodies1 := pair.Cluster1.Bodies()
	bodies2 := pair.Cluster2.Bodies()
	powS := t.beta - t.alpha

	block := mat.NewDense(len(bodies1), len(bodies2), nil)
	for i, b1 := range bodies1 {
		p1 := t.curves.GetCurvePoint(b1.Index)
		for j, b2 := range bodies2 {
			p2 := t.curves.GetCurvePoint(b2.Index)
			if edgesAdjacent(p1, p2) {
				continue
			}
			d := r3.Norm(r3.Sub(b1.Position, b2.Position))
			block.Set(i, j, -b1.Mass*b2.Mass/math.Pow(d, powS))
		}
	}
	return block
}

// ApproxBlock materializes the rank-1 approximation of a cluster pair's
// block: the outer product of the mass vectors scaled by the single
// centroid-distance kernel value.
func (t *BlockClusterTree) ApproxBlock(pair ClusterPair) *mat.Dense {
	wfI := pair.Cluster1.ClusterMasses()
	wfJ := pair.Cluster2.ClusterMasses()

	powS := t.beta - t.alpha
	aIJ := 1 / math.Pow(r3.Norm(r3.Sub(pair.Cluster1.CenterOfMass(), pair.Cluster2.CenterOfMass())), powS)

	block := mat.NewDense(len(wfI), len(wfJ), nil)
	for i, wi := range wfI {
		for j, wj := range wfJ {
			block.Set(i, j, -wi*aIJ*wj)
		}
	}
	return block
}

// PairError describes one admissible pair whose rank-1 block deviates
// from the exact block by more than worstPairThreshold percent.
type PairError struct {
	Pair            ClusterPair
	Error           float64
	RelativePercent float64
}

// BlockError aggregates the Frobenius-norm approximation error over all
// cluster pairs of a tree.
type BlockError struct {
	TotalError      float64
	TotalNorm       float64
	RelativePercent float64
	WorstPairs      []PairError
}

func (e BlockError) String() string {
	return fmt.Sprintf("total error = %g (%g percent; total norm = %g; %d pairs above %d%%)",
		e.TotalError, e.RelativePercent, e.TotalNorm, len(e.WorstPairs), worstPairThreshold)
}

// CompareBlocks materializes every block of the tree and reports the
// aggregate relative Frobenius-norm error of the far-field approximation.
// Inadmissible blocks are exact, so they contribute only to the total
// norm. Purely diagnostic; does not affect multiply results.
func (t *BlockClusterTree) CompareBlocks() BlockError {
	var totalErrSq, totalNormSq float64
	var report BlockError

	for _, pair := range t.inadmissiblePairs {
		normFull := mat.Norm(t.FullBlock(pair), 2)
		totalNormSq += normFull * normFull
	}

	for _, pair := range t.admissiblePairs {
		full := t.FullBlock(pair)
		approx := t.ApproxBlock(pair)

		normFull := mat.Norm(full, 2)
		var diff mat.Dense
		diff.Sub(full, approx)
		normDiff := mat.Norm(&diff, 2)

		if relative := 100 * normDiff / normFull; relative > worstPairThreshold {
			report.WorstPairs = append(report.WorstPairs, PairError{
				Pair:            pair,
				Error:           normDiff,
				RelativePercent: relative,
			})
		}

		totalNormSq += normFull * normFull
		totalErrSq += normDiff * normDiff
	}

	report.TotalError = math.Sqrt(totalErrSq)
	report.TotalNorm = math.Sqrt(totalNormSq)
	report.RelativePercent = 100 * report.TotalError / report.TotalNorm
	return report
}
