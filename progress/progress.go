// Package progress carries diagnostic events out of the number-theoretic
// core. Observers see what happened; they never influence results.
package progress

import "math/big"

type Kind uint8

const (
	// paramgen
	SmoothFactorDrawn Kind = iota + 1
	ClosingWidthAdjusted
	ClosingAttemptFailed
	SmoothPrimeFound
	SmoothRestarted
	ParamsRegenerated
	ParamsFound

	// dlog
	FactorSolved
	RhoRetry
	RhoCollision
	FallbackBabyGiant

	// exploit
	HalfSolved
	Recovered
)

var kindNames = map[Kind]string{
	SmoothFactorDrawn:    "smooth-factor",
	ClosingWidthAdjusted: "closing-width",
	ClosingAttemptFailed: "closing-attempt",
	SmoothPrimeFound:     "smooth-prime",
	SmoothRestarted:      "smooth-restart",
	ParamsRegenerated:    "regenerate",
	ParamsFound:          "params",
	FactorSolved:         "factor",
	RhoRetry:             "rho-retry",
	RhoCollision:         "rho-collision",
	FallbackBabyGiant:    "fallback",
	HalfSolved:           "half",
	Recovered:            "recovered",
}

func (k Kind) String() string {
	if s, y := kindNames[k]; y {
		return s
	}
	return "unknown"
}

type Event struct {
	Kind Kind
	// Index and Total locate a sub-problem, 1-based.
	Index, Total int
	Attempt      int
	Bits         int
	Iterations   int64
	Value        *big.Int
	Modulus      *big.Int
	Err          error
}

// Observer receives events synchronously from the goroutine that produced
// them; with parallel workers it must be safe for concurrent use.
type Observer func(Event)

// Emit is a nil-safe call of o.
func (o Observer) Emit(e Event) {
	if o != nil {
		o(e)
	}
}
