// Package testprob builds sparse model operators with known structure,
// used by the solver tests and the demo command in place of a finite
// element assembly.
package testprob

import (
	"github.com/notargets/blocksolve/utils"
)

// Tridiagonal returns the 1D Poisson operator [-1, 2, -1] of dimension n.
// Its scalar ILU(0) factorization is exact, which makes it the reference
// problem for round-trip solve tests.
func Tridiagonal(n int) utils.CSR {
	M := utils.NewDOK(n, n)
	for i := 0; i < n; i++ {
		M.Set(i, i, 2.)
		if i > 0 {
			M.Set(i, i-1, -1.)
		}
		if i < n-1 {
			M.Set(i, i+1, -1.)
		}
	}
	return M.ToCSR()
}

// Laplace2D returns the symmetric positive definite 5-point Laplacian on
// an nx x ny grid, dimension nx*ny.
func Laplace2D(nx, ny int) utils.CSR {
	var (
		n   = nx * ny
		M   = utils.NewDOK(n, n)
		ind = func(i, j int) int { return i + nx*j }
	)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			row := ind(i, j)
			M.Set(row, row, 4.)
			if i > 0 {
				M.Set(row, ind(i-1, j), -1.)
			}
			if i < nx-1 {
				M.Set(row, ind(i+1, j), -1.)
			}
			if j > 0 {
				M.Set(row, ind(i, j-1), -1.)
			}
			if j < ny-1 {
				M.Set(row, ind(i, j+1), -1.)
			}
		}
	}
	return M.ToCSR()
}

// BlockConvectionDiffusion2D returns a nonsymmetric block operator on an
// nx x ny grid with nb coupled fields per grid point, dimension
// nx*ny*nb. Each 5-point stencil coefficient is expanded into a dense
// nb x nb coupling block; peclet skews the east/west connections, making
// the operator nonsymmetric the way an advection term does. The center
// weight keeps every row strictly diagonally dominant.
func BlockConvectionDiffusion2D(nx, ny, nb int, peclet float64) utils.CSR {
	var (
		n   = nx * ny
		M   = utils.NewDOK(n*nb, n*nb)
		ind = func(i, j int) int { return i + nx*j }

		diag = couplingBlock(nb, 6., 0.5)
		west = couplingBlock(nb, -1.-peclet, 0.1)
		east = couplingBlock(nb, -1.+peclet, 0.1)
		vert = couplingBlock(nb, -1., 0.1)
	)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			row := ind(i, j)
			M.AssignBlock(row*nb, row*nb, diag)
			if i > 0 {
				M.AssignBlock(row*nb, ind(i-1, j)*nb, west)
			}
			if i < nx-1 {
				M.AssignBlock(row*nb, ind(i+1, j)*nb, east)
			}
			if j > 0 {
				M.AssignBlock(row*nb, ind(i, j-1)*nb, vert)
			}
			if j < ny-1 {
				M.AssignBlock(row*nb, ind(i, j+1)*nb, vert)
			}
		}
	}
	return M.ToCSR()
}

// couplingBlock builds an nb x nb block with center on the diagonal and
// off-diagonal entries decaying with distance from it. The decay keeps the
// assembled operator diagonally dominant for |eps| < |center|/(2*nb).
func couplingBlock(nb int, center, eps float64) (R utils.Matrix) {
	R = utils.NewMatrix(nb, nb)
	for r := 0; r < nb; r++ {
		for c := 0; c < nb; c++ {
			if r == c {
				R.Set(r, c, center)
			} else {
				d := r - c
				if d < 0 {
					d = -d
				}
				R.Set(r, c, eps/float64(1+d))
			}
		}
	}
	return
}
