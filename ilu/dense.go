package ilu

import "math"

// Dense kernels for the Nb x Nb blocks. All blocks are stored column major
// within a flat []float64, entry (r,c) at a[r+c*n]. The sizes involved are
// small, so the loops below beat the overhead of wrapping every block in a
// heap-allocated dense matrix.

// luFactor replaces a with its LU factors with partial pivoting, P*A = L*U,
// L unit lower triangular below the diagonal, U upper. piv records the row
// interchange made at each step, LAPACK style. Returns false if a zero
// pivot is hit.
func luFactor(a []float64, n int, piv []int) (ok bool) {
	for k := 0; k < n; k++ {
		var (
			p    = k
			maxA = math.Abs(a[k+k*n])
		)
		for r := k + 1; r < n; r++ {
			if absA := math.Abs(a[r+k*n]); absA > maxA {
				maxA = absA
				p = r
			}
		}
		if maxA == 0. || math.IsNaN(maxA) {
			return false
		}
		piv[k] = p
		if p != k {
			for c := 0; c < n; c++ {
				a[k+c*n], a[p+c*n] = a[p+c*n], a[k+c*n]
			}
		}
		pivVal := a[k+k*n]
		for r := k + 1; r < n; r++ {
			a[r+k*n] /= pivVal
			mult := a[r+k*n]
			for c := k + 1; c < n; c++ {
				a[r+c*n] -= mult * a[k+c*n]
			}
		}
	}
	return true
}

// luSolve solves D*x = b in place, lu and piv from luFactor.
func luSolve(lu []float64, n int, piv []int, b []float64) {
	for k := 0; k < n; k++ {
		if p := piv[k]; p != k {
			b[k], b[p] = b[p], b[k]
		}
	}
	for k := 1; k < n; k++ {
		for m := 0; m < k; m++ {
			b[k] -= lu[k+m*n] * b[m]
		}
	}
	for k := n - 1; k >= 0; k-- {
		for m := k + 1; m < n; m++ {
			b[k] -= lu[k+m*n] * b[m]
		}
		b[k] /= lu[k+k*n]
	}
}

// luSolveTrans solves D^T*x = b in place. Used to form B*D^-1 one row of B
// at a time, since (B*D^-1)^T = D^-T * B^T.
func luSolveTrans(lu []float64, n int, piv []int, b []float64) {
	// U^T is lower triangular with the U diagonal.
	for k := 0; k < n; k++ {
		for m := 0; m < k; m++ {
			b[k] -= lu[m+k*n] * b[m]
		}
		b[k] /= lu[k+k*n]
	}
	// L^T is unit upper triangular.
	for k := n - 2; k >= 0; k-- {
		for m := k + 1; m < n; m++ {
			b[k] -= lu[m+k*n] * b[m]
		}
	}
	// Undo the row interchanges.
	for k := n - 1; k >= 0; k-- {
		if p := piv[k]; p != k {
			b[k], b[p] = b[p], b[k]
		}
	}
}

// blockRightSolve replaces B with B*D^-1.
func blockRightSolve(b []float64, lu []float64, n int, piv []int, work []float64) {
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			work[c] = b[r+c*n]
		}
		luSolveTrans(lu, n, piv, work)
		for c := 0; c < n; c++ {
			b[r+c*n] = work[c]
		}
	}
}

// blockMulSub computes C -= A*B.
func blockMulSub(c, a, b []float64, n int) {
	for cc := 0; cc < n; cc++ {
		for m := 0; m < n; m++ {
			bv := b[m+cc*n]
			if bv == 0. {
				continue
			}
			for r := 0; r < n; r++ {
				c[r+cc*n] -= a[r+m*n] * bv
			}
		}
	}
}

// blockGemvSub computes y -= A*x for a block and vector segments.
func blockGemvSub(y []float64, a []float64, x []float64, n int) {
	for cc := 0; cc < n; cc++ {
		xv := x[cc]
		if xv == 0. {
			continue
		}
		for r := 0; r < n; r++ {
			y[r] -= a[r+cc*n] * xv
		}
	}
}
