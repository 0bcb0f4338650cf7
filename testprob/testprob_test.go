package testprob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTridiagonal(t *testing.T) {
	A := Tridiagonal(5)
	nr, nc := A.Dims()
	assert.Equal(t, 5, nr)
	assert.Equal(t, 5, nc)
	assert.Equal(t, 13, A.NNZ())
	assert.Equal(t, 2., A.At(2, 2))
	assert.Equal(t, -1., A.At(2, 3))
	assert.Equal(t, 0., A.At(0, 4))
}

func TestLaplace2DSymmetric(t *testing.T) {
	A := Laplace2D(6, 4)
	nr, _ := A.Dims()
	assert.Equal(t, 24, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nr; j++ {
			assert.Equal(t, A.At(i, j), A.At(j, i))
		}
	}
}

func TestBlockConvectionDiffusion2D(t *testing.T) {
	var (
		nx, ny, nb = 4, 3, 3
		A          = BlockConvectionDiffusion2D(nx, ny, nb, 0.5)
	)
	nr, nc := A.Dims()
	assert.Equal(t, nx*ny*nb, nr)
	assert.Equal(t, nr, nc)

	// Diagonal block center and intra-block coupling.
	assert.Equal(t, 6., A.At(0, 0))
	assert.Equal(t, 0.5/2., A.At(0, 1))
	assert.Equal(t, 0.5/3., A.At(0, 2))

	// Convection skews east against west.
	east := A.At(0, nb)
	west := A.At(nb, 0)
	assert.Equal(t, -0.5, east)
	assert.Equal(t, -1.5, west)

	// Zero Peclet restores symmetry.
	S := BlockConvectionDiffusion2D(3, 3, 2, 0.)
	nr, _ = S.Dims()
	for i := 0; i < nr; i++ {
		for j := 0; j < nr; j++ {
			assert.Equal(t, S.At(i, j), S.At(j, i))
		}
	}
}
