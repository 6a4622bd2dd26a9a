// Package exploit recovers Diffie-Hellman exponents under a composite
// modulus n = p·q whose p-1 and q-1 factor into published small primes.
package exploit

import (
	"context"
	"math/big"
	"strings"

	"github.com/Lafeng/nobus/dlog"
	"github.com/Lafeng/nobus/exception"
	"github.com/Lafeng/nobus/progress"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotPrime       = exception.New(40, "exploit: reconstructed modulus is not prime:")
	ErrUnverified     = exception.New(41, "exploit: recovered exponent does not verify")
	ErrDegenerate     = exception.New(42, "exploit: generator is not a unit modulo")
	ErrUnknownRescale = exception.New(43, "exploit: unknown rescale mode")
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Rescale selects how the two per-prime logarithms are fused.
type Rescale int

const (
	// RescaleOrder reduces each half modulo the order of g in that prime
	// field and merges with a generalized CRT.
	RescaleOrder Rescale = iota
	// RescaleGCD uses (p-1)/gcd(p-1, px) and (q-1)/gcd(q-1, qx) as the
	// CRT moduli. Heuristic.
	RescaleGCD
)

func ParseRescale(s string) (Rescale, error) {
	switch strings.ToLower(s) {
	case "", "order":
		return RescaleOrder, nil
	case "gcd":
		return RescaleGCD, nil
	}
	return 0, ErrUnknownRescale.Apply(s)
}

func (r Rescale) String() string {
	if r == RescaleGCD {
		return "gcd"
	}
	return "order"
}

// Exploiter holds the solver configuration shared by all recoveries.
type Exploiter struct {
	Solver   *dlog.PohligHellman
	Rescale  Rescale
	Observer progress.Observer
}

// Half is one prime field of the composite modulus.
type Half struct {
	P       *big.Int
	Factors []*big.Int // without 2
	X       *big.Int   // logarithm modulo P as returned by Pohlig-Hellman
	M       *big.Int   // modulus used for the final combination
}

type Result struct {
	X    *big.Int
	P, Q Half
}

// StripTwo drops the trivial factor 2 and returns the remaining factors.
func StripTwo(factors []*big.Int) []*big.Int {
	out := make([]*big.Int, 0, len(factors))
	for _, f := range factors {
		if f.Cmp(two) != 0 {
			out = append(out, f)
		}
	}
	return out
}

// Rebuild returns 2·∏factors + 1 and checks that it is prime.
func Rebuild(factors []*big.Int) (*big.Int, error) {
	p := dlog.Product(factors)
	p.Lsh(p, 1)
	p.Add(p, one)
	if !p.ProbablyPrime(20) {
		return nil, ErrNotPrime.Apply(p)
	}
	return p, nil
}

func (e *Exploiter) solver() *dlog.PohligHellman {
	if e.Solver == nil {
		return &dlog.PohligHellman{}
	}
	return e.Solver
}

// Recover finds x with g^x ≡ h (mod p·q). A combined exponent that fails
// verification is returned together with ErrUnverified.
func (e *Exploiter) Recover(ctx context.Context, pFactors, qFactors []*big.Int, g, h *big.Int) (*Result, error) {
	res := &Result{
		P: Half{Factors: StripTwo(pFactors)},
		Q: Half{Factors: StripTwo(qFactors)},
	}
	var err error
	if res.P.P, err = Rebuild(res.P.Factors); err != nil {
		return nil, err
	}
	if res.Q.P, err = Rebuild(res.Q.Factors); err != nil {
		return nil, err
	}

	eg, ectx := errgroup.WithContext(ctx)
	for i, half := range []*Half{&res.P, &res.Q} {
		i, half := i, half
		eg.Go(func() (err error) {
			defer func() {
				exception.Catch(recover(), &err)
			}()
			return e.solveHalf(ectx, i, half, g, h)
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, err
	}

	residues := []dlog.Residue{
		{A: res.P.X, M: res.P.M},
		{A: res.Q.X, M: res.Q.M},
	}
	switch e.Rescale {
	case RescaleGCD:
		res.X, err = dlog.CRT(residues)
	default:
		res.X, _, err = dlog.Merge(residues)
	}
	if err != nil {
		return nil, err
	}
	if !verify(g, h, res.X, res.P.P) || !verify(g, h, res.X, res.Q.P) {
		return res, ErrUnverified
	}
	e.Observer.Emit(progress.Event{Kind: progress.Recovered, Value: res.X})
	return res, nil
}

func (e *Exploiter) solveHalf(ctx context.Context, i int, half *Half, g, h *big.Int) error {
	p := half.P
	gp := new(big.Int).Mod(g, p)
	hp := new(big.Int).Mod(h, p)
	if gp.Sign() == 0 {
		return ErrDegenerate.Apply(p)
	}
	pm1 := new(big.Int).Sub(p, one)

	var err error
	switch e.Rescale {
	case RescaleGCD:
		if half.X, err = e.solver().Solve(ctx, gp, hp, p, half.Factors); err != nil {
			return err
		}
		gcd := new(big.Int).GCD(nil, nil, pm1, half.X)
		half.M = new(big.Int).Quo(pm1, gcd)
	case RescaleOrder:
		factors := append([]*big.Int{big.NewInt(2)}, half.Factors...)
		if half.X, err = e.solver().Solve(ctx, gp, hp, p, factors); err != nil {
			return err
		}
		half.M = dlog.Order(gp, p, factors)
		half.X.Mod(half.X, half.M)
	default:
		return ErrUnknownRescale.Apply(int(e.Rescale))
	}
	e.Observer.Emit(progress.Event{
		Kind:    progress.HalfSolved,
		Index:   i + 1,
		Total:   2,
		Value:   half.X,
		Modulus: half.M,
	})
	return nil
}

func verify(g, h, x, p *big.Int) bool {
	hp := new(big.Int).Mod(h, p)
	return new(big.Int).Exp(g, x, p).Cmp(hp) == 0
}

// RecoverAll recovers one exponent per public value under the same
// generator. Sub-problems share the solver's baby-step tables.
func (e *Exploiter) RecoverAll(ctx context.Context, pFactors, qFactors []*big.Int, g *big.Int, hs []*big.Int) ([]*Result, error) {
	out := make([]*Result, len(hs))
	for i, h := range hs {
		res, err := e.Recover(ctx, pFactors, qFactors, g, h)
		if err != nil {
			return out[:i], err
		}
		out[i] = res
	}
	return out, nil
}
