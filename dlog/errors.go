package dlog

import "github.com/Lafeng/nobus/exception"

var (
	ErrNoCollision       = exception.New(10, "pollard: no collision within")
	ErrNotInvertible     = exception.New(11, "not invertible:")
	ErrUnverified        = exception.New(12, "pollard: candidate does not verify")
	ErrRetriesExhausted  = exception.New(13, "pollard: retries exhausted")
	ErrNoSolutionInRange = exception.New(14, "bsgs: no solution in range")
	ErrTableTooLarge     = exception.New(15, "bsgs: baby-step table too large")
	ErrNoResidues        = exception.New(16, "crt: no residues")
	ErrInvalidModulus    = exception.New(17, "crt: invalid modulus")
	ErrModuliNotCoprime  = exception.New(18, "crt: moduli are not pairwise coprime at")
	ErrInconsistent      = exception.New(19, "crt: inconsistent congruences at")
	ErrInvalidFactor     = exception.New(20, "pohlig: invalid factor")
	ErrNoSolution        = exception.New(21, "pohlig: no solution in subgroup of order")
)
