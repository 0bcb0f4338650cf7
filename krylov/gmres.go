package krylov

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// GMRES solves A*x = b by the restarted, left-preconditioned GMRES(m)
// method with Givens-rotation least squares. x holds the initial guess on
// entry and the solution on return. Convergence is declared when the
// preconditioned residual norm drops below Tolerance times the
// preconditioned right-hand-side norm.
func GMRES(A Operator, M Preconditioner, b, x []float64, settings Settings) (res Result, err error) {
	if err = checkSystem(A, b, x); err != nil {
		return
	}
	var (
		n = len(b)
	)
	settings.setDefaults(n)
	m := settings.Restart
	if m > settings.MaxIterations {
		m = settings.MaxIterations
	}

	var (
		w      = make([]float64, n)
		r      = make([]float64, n)
		v      = make([][]float64, m+1)
		h      = make([][]float64, m+1) // Hessenberg, h[i][j] filled at step j
		g      = make([]float64, m+1)
		cs, sn = make([]float64, m), make([]float64, m)
		bnorm  float64
	)
	for i := range v {
		v[i] = make([]float64, n)
	}
	for i := range h {
		h[i] = make([]float64, m)
	}
	if err = M.Mult(b, r); err != nil {
		return
	}
	bnorm = floats.Norm(r, 2)
	if bnorm == 0. {
		// b = 0 in the preconditioned norm, x = 0 is the solution.
		for i := range x {
			x[i] = 0.
		}
		res.Converged = true
		return
	}

	for res.Iterations < settings.MaxIterations {
		// r = M^-1 * (b - A*x)
		A.MulVec(x, w)
		for i := range w {
			w[i] = b[i] - w[i]
		}
		if err = M.Mult(w, r); err != nil {
			return
		}
		beta := floats.Norm(r, 2)
		res.ResidualNorm = beta / bnorm
		if res.ResidualNorm < settings.Tolerance {
			res.Converged = true
			return
		}
		for i := range g {
			g[i] = 0.
		}
		g[0] = beta
		copy(v[0], r)
		floats.Scale(1./beta, v[0])

		var j int
		for j = 0; j < m && res.Iterations < settings.MaxIterations; j++ {
			res.Iterations++
			A.MulVec(v[j], w)
			if err = M.Mult(w, w); err != nil {
				return
			}
			// Modified Gram-Schmidt.
			for i := 0; i <= j; i++ {
				h[i][j] = floats.Dot(w, v[i])
				floats.AddScaled(w, -h[i][j], v[i])
			}
			h[j+1][j] = floats.Norm(w, 2)
			if h[j+1][j] != 0. {
				copy(v[j+1], w)
				floats.Scale(1./h[j+1][j], v[j+1])
			}
			// Apply the accumulated rotations to the new column, then
			// form the rotation that annihilates h[j+1][j].
			for i := 0; i < j; i++ {
				h[i][j], h[i+1][j] = cs[i]*h[i][j]+sn[i]*h[i+1][j],
					-sn[i]*h[i][j]+cs[i]*h[i+1][j]
			}
			denom := math.Hypot(h[j][j], h[j+1][j])
			if denom == 0. {
				err = ErrBreakdown
				return
			}
			cs[j], sn[j] = h[j][j]/denom, h[j+1][j]/denom
			h[j][j] = denom
			h[j+1][j] = 0.
			g[j], g[j+1] = cs[j]*g[j], -sn[j]*g[j]

			res.ResidualNorm = math.Abs(g[j+1]) / bnorm
			if res.ResidualNorm < settings.Tolerance {
				j++
				break
			}
		}
		// Back-substitute for y and update x += V*y.
		for i := j - 1; i >= 0; i-- {
			for k := i + 1; k < j; k++ {
				g[i] -= h[i][k] * g[k]
			}
			g[i] /= h[i][i]
			floats.AddScaled(x, g[i], v[i])
		}
		if res.ResidualNorm < settings.Tolerance {
			res.Converged = true
			return
		}
	}
	return
}
