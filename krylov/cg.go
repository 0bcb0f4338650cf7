package krylov

import (
	"gonum.org/v1/gonum/floats"
)

// CG solves A*x = b with the preconditioned conjugate gradient method. A
// must be symmetric positive definite and M symmetric; for nonsymmetric
// systems use GMRES. x holds the initial guess on entry and the solution
// on return.
func CG(A Operator, M Preconditioner, b, x []float64, settings Settings) (res Result, err error) {
	if err = checkSystem(A, b, x); err != nil {
		return
	}
	var (
		n = len(b)
		r = make([]float64, n)
		z = make([]float64, n)
		p = make([]float64, n)
		q = make([]float64, n)
	)
	settings.setDefaults(n)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0. {
		for i := range x {
			x[i] = 0.
		}
		res.Converged = true
		return
	}

	A.MulVec(x, r)
	for i := range r {
		r[i] = b[i] - r[i]
	}
	if err = M.Mult(r, z); err != nil {
		return
	}
	copy(p, z)
	rz := floats.Dot(r, z)

	for res.Iterations < settings.MaxIterations {
		res.Iterations++
		A.MulVec(p, q)
		pq := floats.Dot(p, q)
		if pq <= 0. {
			err = ErrBreakdown
			return
		}
		alpha := rz / pq
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, q)
		res.ResidualNorm = floats.Norm(r, 2) / bnorm
		if res.ResidualNorm < settings.Tolerance {
			res.Converged = true
			return
		}
		if err = M.Mult(r, z); err != nil {
			return
		}
		rzNext := floats.Dot(r, z)
		beta := rzNext / rz
		rz = rzNext
		for i := range p {
			p[i] = z[i] + beta*p[i]
		}
	}
	return
}
