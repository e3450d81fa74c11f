package repulsive

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// KernelMatrix computes the full N×N kernel matrix for the curve group:
// entry (i,j) is (l_i * l_j) / |m_i - m_j|^(beta-alpha) over edge
// midpoints m and edge lengths l, zero for adjacent edges. This is the
// O(N²) reference the hierarchical operator approximates.
func KernelMatrix(curves *CurveGroup, alpha, beta float64) *mat.Dense {
	n := curves.NumVertices()
	data := make([]float64, n*n)
	kernelRows(curves, alpha, beta, data, 0, n)
	return mat.NewDense(n, n, data)
}

// KernelMatrixParallel computes the same matrix using multiple
// goroutines. Each worker handles a contiguous range of source rows i and
// writes entries (i,j) and (j,i) for j > i; the mirrored cells are
// distinct across workers, so no synchronization is needed. Falls back to
// KernelMatrix if numWorkers <= 1.
func KernelMatrixParallel(curves *CurveGroup, alpha, beta float64, numWorkers int) *mat.Dense {
	n := curves.NumVertices()
	if numWorkers <= 1 || n <= 1 {
		return KernelMatrix(curves, alpha, beta)
	}

	data := make([]float64, n*n)

	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > n {
			endRow = n
		}
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			kernelRows(curves, alpha, beta, data, start, end)
		}(startRow, endRow)
	}

	wg.Wait()
	return mat.NewDense(n, n, data)
}

// kernelRows fills rows [start, end) of the symmetric kernel matrix,
// writing both (i,j) and (j,i) for j > i.
func kernelRows(curves *CurveGroup, alpha, beta float64, data []float64, start, end int) {
	n := curves.NumVertices()
	powS := beta - alpha

	for i := start; i < end; i++ {
		p1 := curves.GetCurvePoint(i)
		mid1 := p1.EdgeMidpoint()
		l1 := p1.EdgeLength()

		for j := i + 1; j < n; j++ {
			p2 := curves.GetCurvePoint(j)
			if edgesAdjacent(p1, p2) {
				continue
			}
			a := (l1 * p2.EdgeLength()) / math.Pow(r3.Norm(r3.Sub(mid1, p2.EdgeMidpoint())), powS)
			data[i*n+j] = a
			data[j*n+i] = a
		}
	}
}

// DenseMultiply applies the bilinear form 2*(rowsum_i * v_i - Σ_j a_ij v_j)
// for a dense kernel matrix a, returning a fresh result vector.
func DenseMultiply(a *mat.Dense, v []r3.Vec) []r3.Vec {
	n, _ := a.Dims()
	out := make([]r3.Vec, n)

	for i := 0; i < n; i++ {
		var rowSum float64
		var weighted r3.Vec
		for j := 0; j < n; j++ {
			aij := a.At(i, j)
			rowSum += aij
			weighted = r3.Add(weighted, r3.Scale(aij, v[j]))
		}
		out[i] = r3.Scale(2, r3.Sub(r3.Scale(rowSum, v[i]), weighted))
	}
	return out
}
