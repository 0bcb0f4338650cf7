package ilu

import (
	"fmt"
	"sort"

	"github.com/notargets/blocksolve/utils"
)

// BlockPattern is the compressed-row block graph of a scalar sparse matrix
// partitioned into Nb x Nb blocks. Block (i,j) is present iff at least one
// scalar entry inside that sub-matrix is structurally non zero. Diagonal
// blocks are always present so that every block row has a pivot location.
type BlockPattern struct {
	N  int // matrix dimension in block rows
	Nb int // scalar rows per block

	// IB has length N+1; the block columns of block row i are
	// JB[IB[i]:IB[i+1]], sorted ascending.
	IB, JB []int

	// Diag[i] is the position of block (i,i) within JB.
	Diag []int
}

// ExtractBlockPattern scans the finalized scalar matrix A and builds its
// block graph for block size nb. Runs in O(nnz(A)) using a per-block-row
// marker array, never touching absent blocks.
func ExtractBlockPattern(A utils.CSR, nb int) (p BlockPattern, err error) {
	var (
		nr, nc = A.Dims()
		ia, ja = A.RowPtr(), A.ColInd()
	)
	if nb < 1 {
		err = fmt.Errorf("%w: block size %d", ErrBlockSize, nb)
		return
	}
	if nr != nc {
		err = fmt.Errorf("%w: matrix is %dx%d, must be square", ErrBlockSize, nr, nc)
		return
	}
	if nr%nb != 0 {
		err = fmt.Errorf("%w: dimension %d, block size %d", ErrBlockSize, nr, nb)
		return
	}
	n := nr / nb
	p = BlockPattern{
		N:    n,
		Nb:   nb,
		IB:   make([]int, n+1),
		Diag: make([]int, n),
	}
	var (
		marker = make([]int, n)
		cols   []int
	)
	for b := range marker {
		marker[b] = -1
	}
	for i := 0; i < n; i++ {
		// The diagonal is force-included regardless of the scalar entries,
		// it holds the pivot block.
		cols = append(cols[:0], i)
		marker[i] = i
		for bi := 0; bi < nb; bi++ {
			row := i*nb + bi
			for jj := ia[row]; jj < ia[row+1]; jj++ {
				b := ja[jj] / nb
				if marker[b] != i {
					marker[b] = i
					cols = append(cols, b)
				}
			}
		}
		sort.Ints(cols)
		for _, b := range cols {
			if b == i {
				p.Diag[i] = len(p.JB)
			}
			p.JB = append(p.JB, b)
		}
		p.IB[i+1] = len(p.JB)
	}
	return
}

// NNZBlocks reports the number of structurally non-zero blocks.
func (p BlockPattern) NNZBlocks() int { return len(p.JB) }

// find returns the position of block (i,j) within JB, or -1 when the block
// is absent. Row entries are sorted, so this is a binary search.
func (p BlockPattern) find(i, j int) int {
	var (
		lo, hi = p.IB[i], p.IB[i+1]
	)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case p.JB[mid] == j:
			return mid
		case p.JB[mid] < j:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}

// permute builds the pattern of the symmetrically permuted block matrix
// P^T A P, where block row i of the result is block row perm[i] of p.
func (p BlockPattern) permute(perm []int) (r BlockPattern) {
	var (
		iperm = make([]int, p.N)
		cols  []int
	)
	for i, old := range perm {
		iperm[old] = i
	}
	r = BlockPattern{
		N:    p.N,
		Nb:   p.Nb,
		IB:   make([]int, p.N+1),
		JB:   make([]int, 0, len(p.JB)),
		Diag: make([]int, p.N),
	}
	for i := 0; i < p.N; i++ {
		old := perm[i]
		cols = cols[:0]
		for jj := p.IB[old]; jj < p.IB[old+1]; jj++ {
			cols = append(cols, iperm[p.JB[jj]])
		}
		sort.Ints(cols)
		for _, b := range cols {
			if b == i {
				r.Diag[i] = len(r.JB)
			}
			r.JB = append(r.JB, b)
		}
		r.IB[i+1] = len(r.JB)
	}
	return
}
