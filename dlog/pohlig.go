package dlog

import (
	"context"
	"errors"
	"math/big"
	"math/rand"

	"github.com/Lafeng/nobus/exception"
	"github.com/Lafeng/nobus/progress"
	"golang.org/x/sync/errgroup"
)

// PohligHellman reduces a discrete logarithm modulo a prime P to one
// sub-problem per known prime factor of P-1. The zero value solves the
// sub-problems sequentially with MaxRetries rho attempts each.
type PohligHellman struct {
	// rho attempts per factor before falling back to baby-step giant-step
	Retries int
	// concurrent sub-problems, <= 1 means sequential
	Workers int
	// base seed of the per-factor retry randomness
	Seed     int64
	Tables   *TableCache
	Observer progress.Observer
}

// Solve returns x modulo the product of factors such that
// G^x ≡ H (mod P) holds in every projected subgroup. Each factor must be
// a prime divisor of P-1, and the factors must be distinct.
func (ph *PohligHellman) Solve(ctx context.Context, g, h, p *big.Int, factors []*big.Int) (*big.Int, error) {
	if err := checkFactors(p, factors); err != nil {
		return nil, err
	}
	workers := ph.Workers
	if workers < 1 {
		workers = 1
	}

	residues := make([]Residue, len(factors))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, f := range factors {
		i, f := i, f
		eg.Go(func() (err error) {
			defer func() {
				exception.Catch(recover(), &err)
			}()
			x, err := ph.solveFactor(ctx, i, len(factors), g, h, p, f)
			if err == nil {
				residues[i] = Residue{A: x, M: f}
			}
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return CRT(residues)
}

func (ph *PohligHellman) solveFactor(ctx context.Context, i, total int, g, h, p, f *big.Int) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := new(big.Int).Sub(p, one)
	e.Quo(e, f)
	gf := new(big.Int).Exp(g, e, p)
	hf := new(big.Int).Exp(h, e, p)

	var (
		x   *big.Int
		err error
	)
	if gf.Cmp(one) == 0 {
		// g has no component of order f, only h == 1 is reachable
		if hf.Cmp(one) != 0 {
			return nil, ErrNoSolution.Apply(f)
		}
		x = new(big.Int)
	} else {
		rnd := rand.New(rand.NewSource(ph.Seed + int64(i)))
		x, err = PollardRetry(ctx, gf, hf, p, f, ph.Retries, rnd, ph.Observer)
		if errors.Is(err, ErrRetriesExhausted) {
			ph.Observer.Emit(progress.Event{
				Kind:    progress.FallbackBabyGiant,
				Index:   i + 1,
				Total:   total,
				Modulus: f,
				Err:     err,
			})
			var bs *BabySteps
			if bs, err = ph.Tables.Get(gf, p, f); err == nil {
				x, err = bs.Solve(hf)
			}
		}
		if err != nil {
			return nil, err
		}
		x.Mod(x, f)
	}

	ph.Observer.Emit(progress.Event{
		Kind:    progress.FactorSolved,
		Index:   i + 1,
		Total:   total,
		Value:   x,
		Modulus: f,
	})
	return x, nil
}

func checkFactors(p *big.Int, factors []*big.Int) error {
	pm1 := new(big.Int).Sub(p, one)
	r := new(big.Int)
	for _, f := range factors {
		if f == nil || f.Cmp(one) <= 0 {
			return ErrInvalidFactor.Apply(f)
		}
		if !f.ProbablyPrime(20) {
			return ErrInvalidFactor.Apply(f.String() + " is not prime")
		}
		if r.Mod(pm1, f).Sign() != 0 {
			return ErrInvalidFactor.Apply(f.String() + " does not divide P-1")
		}
	}
	return nil
}
