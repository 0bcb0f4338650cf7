// Package krylov provides preconditioned Krylov solvers for the sparse
// systems produced elsewhere in this module. The preconditioner interface
// is satisfied by ilu.BlockILU0.
package krylov

import "errors"

var (
	// ErrDimension - operator, right hand side and solution sizes disagree.
	ErrDimension = errors.New("dimension mismatch between operator and vectors")

	// ErrBreakdown - the iteration produced a zero direction or curvature
	// and cannot continue.
	ErrBreakdown = errors.New("krylov iteration breakdown")
)

// Operator is the matrix side of the system, typically a utils.CSR.
type Operator interface {
	Dims() (r, c int)
	MulVec(x, y []float64)
}

// Preconditioner applies an approximate inverse: x = M^-1 * b.
// Implementations must tolerate x aliasing b.
type Preconditioner interface {
	Mult(b, x []float64) error
}

// Identity is the no-preconditioning fallback.
type Identity struct{}

func (Identity) Mult(b, x []float64) error {
	copy(x, b)
	return nil
}

// Settings controls the iteration. Zero values select the defaults noted
// on each field.
type Settings struct {
	Tolerance     float64 // relative residual target, default 1e-8
	MaxIterations int     // default 2x the system dimension
	Restart       int     // GMRES restart length, default 30
}

// Result reports how an iteration ended.
type Result struct {
	Iterations   int
	ResidualNorm float64
	Converged    bool
}

func (s *Settings) setDefaults(dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 1.e-8
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 2 * dim
	}
	if s.Restart == 0 {
		s.Restart = 30
	}
}

func checkSystem(A Operator, b, x []float64) error {
	nr, nc := A.Dims()
	if nr != nc || len(b) != nr || len(x) != nr {
		return ErrDimension
	}
	return nil
}
