package paramgen

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/Lafeng/nobus/progress"
	"github.com/pkg/errors"
)

const (
	MinSmoothness     = 3
	MinSmoothBits     = 12
	MinModulusBits    = 2 * MinSmoothBits
	minClosingBits    = 3
	maxDuplicateDraws = 1000

	// floor of fruitless closing attempts before the smooth product is redrawn
	minRestartAttempts = 256

	DefaultBits       = 2048
	DefaultSmoothness = 32
)

// SmoothPrime is a prime P with P-1 equal to the product of Factors.
type SmoothPrime struct {
	P *big.Int
	// distinct primes sorted ascending, Factors[0] == 2
	Factors []*big.Int
	// the two factors chosen last to reach the exact bit length
	Closing [2]*big.Int
}

// IsClosing reports whether f is one of the two closing factors.
func (sp *SmoothPrime) IsClosing(f *big.Int) bool {
	return sp.Closing[0].Cmp(f) == 0 || sp.Closing[1].Cmp(f) == 0
}

// Generator builds backdoor parameters from one random State.
// Budgets of zero leave the corresponding search unbounded.
type Generator struct {
	State *State
	// closing-prime trials per smooth prime
	ClosingBudget int
	// full regenerations of the (p, q) pair
	RegenBudget int
	Observer    progress.Observer
}

type factorSet struct {
	list []*big.Int
	seen map[string]bool
}

func newFactorSet() *factorSet {
	return &factorSet{seen: make(map[string]bool)}
}

func (fs *factorSet) has(f *big.Int) bool {
	return fs.seen[string(f.Bytes())]
}

func (fs *factorSet) add(f *big.Int) {
	fs.seen[string(f.Bytes())] = true
	fs.list = append(fs.list, f)
}

// SmoothPrime returns a prime of exactly bits bits whose p-1 is 2 times
// distinct smoothness-bit primes times two closing primes. When
// restartAfter(bits) closing attempts in a row go nowhere, the smooth
// product is discarded and drawn again from [2].
func (g *Generator) SmoothPrime(ctx context.Context, bits, smoothness int) (*SmoothPrime, error) {
	if smoothness < MinSmoothness || bits < MinSmoothBits {
		return nil, ErrInvalidParams.Apply(fmt.Sprintf("bits=%d smoothness=%d", bits, smoothness))
	}

	attempt := 0
	for restart := 0; ; restart++ {
		if restart > 0 {
			g.Observer.Emit(progress.Event{Kind: progress.SmoothRestarted, Attempt: attempt, Index: restart})
		}
		factors, acc, err := g.accumulate(bits, smoothness)
		if err != nil {
			return nil, err
		}
		sp, err := g.closing(ctx, factors, acc, bits, &attempt)
		if sp != nil || err != nil {
			return sp, err
		}
	}
}

// accumulate multiplies fresh smoothness-bit primes into 2 until the
// product is within 2·smoothness bits of the target.
func (g *Generator) accumulate(bits, smoothness int) (*factorSet, *big.Int, error) {
	factors := newFactorSet()
	factors.add(big.NewInt(2))
	acc := big.NewInt(2)
	dups := 0
	for acc.BitLen() < bits-2*smoothness {
		f := g.State.Prime(smoothness)
		if factors.has(f) {
			// the pool of smoothness-bit primes ran dry
			if dups++; dups > maxDuplicateDraws {
				return nil, nil, ErrInvalidParams.Apply(fmt.Sprintf("too few %d-bit primes for %d bits", smoothness, bits))
			}
			continue
		}
		dups = 0
		factors.add(f)
		acc.Mul(acc, f)
		g.Observer.Emit(progress.Event{Kind: progress.SmoothFactorDrawn, Value: f, Bits: acc.BitLen()})
	}
	return factors, acc, nil
}

func restartAfter(bits int) int {
	if n := 4 * bits; n > minRestartAttempts {
		return n
	}
	return minRestartAttempts
}

// closing searches two closing primes for acc. It returns nil, nil once
// restartAfter(bits) attempts have failed; attempt counts across calls
// so ClosingBudget bounds the whole search.
func (g *Generator) closing(ctx context.Context, factors *factorSet, acc *big.Int, bits int, attempt *int) (*SmoothPrime, error) {
	s := g.State
	width := (bits - acc.BitLen()) / 2
	if width < minClosingBits {
		width = minClosingBits
	}
	t := new(big.Int)
	for stall := 0; stall < restartAfter(bits); stall++ {
		*attempt++
		if g.ClosingBudget > 0 && *attempt > g.ClosingBudget {
			return nil, ErrBudgetExhausted.Apply(fmt.Sprintf("%d closing attempts", g.ClosingBudget))
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "closing-prime search")
		}

		f1 := s.Prime(width)
		f2 := s.Prime(width)
		if f1.Cmp(f2) == 0 || factors.has(f1) || factors.has(f2) {
			continue
		}
		t.Mul(acc, f1)
		t.Mul(t, f2)
		if n := t.BitLen(); n != bits {
			if n < bits {
				width++
			} else if width > minClosingBits {
				width--
			}
			g.Observer.Emit(progress.Event{Kind: progress.ClosingWidthAdjusted, Attempt: *attempt, Bits: width})
			continue
		}
		p := new(big.Int).Add(t, one)
		if !isPrime(p) {
			g.Observer.Emit(progress.Event{Kind: progress.ClosingAttemptFailed, Attempt: *attempt, Bits: width})
			continue
		}

		factors.add(f1)
		factors.add(f2)
		list := factors.list
		sort.Slice(list, func(i, j int) bool {
			return list[i].Cmp(list[j]) < 0
		})
		g.Observer.Emit(progress.Event{Kind: progress.SmoothPrimeFound, Attempt: *attempt, Bits: p.BitLen(), Value: p})
		return &SmoothPrime{P: p, Factors: list, Closing: [2]*big.Int{f1, f2}}, nil
	}
	return nil, nil
}
