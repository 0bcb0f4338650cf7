package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is the assembly form of a sparse matrix. Entries can be set in any
// order; call ToCSR to finalize into the compressed row form consumed by
// the numeric kernels.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m DOK) Set(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

// AssignBlock writes the dense sub-matrix A into the scalar matrix with its
// upper-left corner at (i0, j0). Explicit zeros within A are skipped so the
// scalar sparsity reflects only actual non-zero entries.
func (m DOK) AssignBlock(i0, j0 int, A Matrix) DOK { // Changes receiver
	var (
		nr, nc = A.Dims()
	)
	m.checkWritable()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if val := A.At(i, j); val != 0. {
				m.M.Set(i0+i, j0+j, val)
			}
		}
	}
	return m
}

// ToCSR finalizes the matrix. The returned CSR is the only form accepted by
// the factorization kernels; there are no deferred entries in it.
func (m DOK) ToCSR() CSR {
	return CSR{
		M:        m.M.ToCSR(),
		readOnly: m.readOnly,
		name:     m.name,
	}
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

// CSR wraps a finalized compressed-row sparse matrix.
type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }

// RowPtr, ColInd and Data expose the three flat CSR arrays.
func (m CSR) RowPtr() []int   { return m.RawMatrix().Indptr }
func (m CSR) ColInd() []int   { return m.RawMatrix().Ind }
func (m CSR) Data() []float64 { return m.RawMatrix().Data }
func (m CSR) NNZ() int        { return len(m.RawMatrix().Data) }
func (m CSR) IsEmpty() bool   { return m.M == nil }

func (m *CSR) SetReadOnly(name ...string) CSR {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

// MulVec computes y = A*x over the raw CSR arrays, avoiding the generic
// dense path in gonum's mat.Mul.
func (m CSR) MulVec(x, y []float64) {
	var (
		raw            = m.RawMatrix()
		ia, ja, values = raw.Indptr, raw.Ind, raw.Data
		nr, nc         = m.Dims()
	)
	if len(x) != nc || len(y) != nr {
		panic(fmt.Errorf("dimension mismatch in MulVec: matrix is %dx%d, len(x) = %d, len(y) = %d",
			nr, nc, len(x), len(y)))
	}
	for i := 0; i < nr; i++ {
		var sum float64
		for jj := ia[i]; jj < ia[i+1]; jj++ {
			sum += values[jj] * x[ja[jj]]
		}
		y[i] = sum
	}
}
