package ilu

import "errors"

var (
	// ErrBlockSize - the matrix dimension is not an even multiple of the
	// block size, or the block size is not positive.
	ErrBlockSize = errors.New("matrix dimension is not a multiple of the block size")

	// ErrSingularBlock - a diagonal block turned out singular during
	// factorization. The wrapping error names the block row.
	ErrSingularBlock = errors.New("singular diagonal block")

	// ErrVectorLength - a vector passed to Mult does not match the matrix
	// dimension.
	ErrVectorLength = errors.New("vector length does not match matrix dimension")

	// ErrNotFactorized - Mult was called before a successful Factorize.
	ErrNotFactorized = errors.New("factorization has not completed")
)
