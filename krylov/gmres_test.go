package krylov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/blocksolve/ilu"
	"github.com/notargets/blocksolve/testprob"
	"github.com/notargets/blocksolve/utils"
)

func manufactured(A utils.CSR) (xExact, b []float64) {
	n, _ := A.Dims()
	xExact = make([]float64, n)
	for i := range xExact {
		xExact[i] = math.Cos(float64(i))
	}
	b = make([]float64, n)
	A.MulVec(xExact, b)
	return
}

func assertClose(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	var num, den float64
	for i := range want {
		d := got[i] - want[i]
		num += d * d
		den += want[i] * want[i]
	}
	assert.Less(t, math.Sqrt(num/den), tol)
}

func TestGMRESUnpreconditioned(t *testing.T) {
	A := testprob.Laplace2D(12, 12)
	xExact, b := manufactured(A)

	x := make([]float64, len(b))
	res, err := GMRES(A, Identity{}, b, x, Settings{Tolerance: 1.e-10})
	assert.Nil(t, err)
	assert.True(t, res.Converged)
	assertClose(t, xExact, x, 1.e-7)
}

func TestGMRESWithBlockILU(t *testing.T) {
	var (
		nb = 4
		A  = testprob.BlockConvectionDiffusion2D(16, 16, nb, 0.5)
	)
	xExact, b := manufactured(A)

	M, err := ilu.NewBlockILU0(A, nb)
	assert.Nil(t, err)

	settings := Settings{Tolerance: 1.e-10}
	xPlain := make([]float64, len(b))
	plain, err := GMRES(A, Identity{}, b, xPlain, settings)
	assert.Nil(t, err)

	xPrec := make([]float64, len(b))
	prec, err := GMRES(A, M, b, xPrec, settings)
	assert.Nil(t, err)

	assert.True(t, prec.Converged)
	assertClose(t, xExact, xPrec, 1.e-7)
	// The whole point of the preconditioner: fewer outer iterations.
	assert.Less(t, prec.Iterations, plain.Iterations)
}

func TestGMRESExactPreconditioner(t *testing.T) {
	// BlockILU(0) of a tridiagonal matrix is its exact LU, so
	// preconditioned GMRES finishes in a single iteration.
	A := testprob.Tridiagonal(50)
	xExact, b := manufactured(A)

	M, err := ilu.NewBlockILU0(A, 1)
	assert.Nil(t, err)

	x := make([]float64, len(b))
	res, err := GMRES(A, M, b, x, Settings{Tolerance: 1.e-10})
	assert.Nil(t, err)
	assert.True(t, res.Converged)
	assert.LessOrEqual(t, res.Iterations, 2)
	assertClose(t, xExact, x, 1.e-8)
}

func TestGMRESZeroRHS(t *testing.T) {
	A := testprob.Tridiagonal(10)
	x := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	res, err := GMRES(A, Identity{}, make([]float64, 10), x, Settings{})
	assert.Nil(t, err)
	assert.True(t, res.Converged)
	for i := range x {
		assert.Equal(t, 0., x[i])
	}
}

func TestGMRESDimensionMismatch(t *testing.T) {
	A := testprob.Tridiagonal(10)
	_, err := GMRES(A, Identity{}, make([]float64, 9), make([]float64, 10), Settings{})
	assert.Equal(t, ErrDimension, err)
}
