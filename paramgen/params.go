package paramgen

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Lafeng/nobus/progress"
	"github.com/pkg/errors"
)

// Params are the published domain parameters of one backdoor instance
// together with the secret factor lists.
type Params struct {
	P, Q, N  *big.Int
	PFactors []*big.Int
	QFactors []*big.Int
}

// Params regenerates both halves until n = p·q has exactly bits bits.
// An odd bit count gives p the extra bit. A half that exhausts
// ClosingBudget costs a round like a bit-length mismatch.
func (g *Generator) Params(ctx context.Context, bits, smoothness int) (*Params, error) {
	if bits < MinModulusBits {
		return nil, ErrInvalidParams.Apply(fmt.Sprintf("bits=%d < %d", bits, MinModulusBits))
	}
	pBits, qBits := (bits+1)/2, bits/2

	for round := 1; ; round++ {
		if g.RegenBudget > 0 && round > g.RegenBudget {
			return nil, ErrBudgetExhausted.Apply(fmt.Sprintf("%d regenerations", g.RegenBudget))
		}
		p, err := g.SmoothPrime(ctx, pBits, smoothness)
		if errors.Is(err, ErrBudgetExhausted) {
			g.Observer.Emit(progress.Event{Kind: progress.ParamsRegenerated, Attempt: round, Err: err})
			continue
		} else if err != nil {
			return nil, err
		}
		q, err := g.SmoothPrime(ctx, qBits, smoothness)
		if errors.Is(err, ErrBudgetExhausted) {
			g.Observer.Emit(progress.Event{Kind: progress.ParamsRegenerated, Attempt: round, Err: err})
			continue
		} else if err != nil {
			return nil, err
		}
		n := new(big.Int).Mul(p.P, q.P)
		if n.BitLen() != bits || p.P.Cmp(q.P) == 0 {
			g.Observer.Emit(progress.Event{Kind: progress.ParamsRegenerated, Attempt: round, Bits: n.BitLen()})
			continue
		}
		g.Observer.Emit(progress.Event{Kind: progress.ParamsFound, Attempt: round, Bits: n.BitLen(), Value: n})
		return &Params{
			P:        p.P,
			Q:        q.P,
			N:        n,
			PFactors: p.Factors,
			QFactors: q.Factors,
		}, nil
	}
}

// Check verifies the structural invariants of a parameter set: n = p·q,
// p and q prime, p-1 and q-1 equal to the products of their factor lists,
// every factor prime.
func (ps *Params) Check() error {
	if new(big.Int).Mul(ps.P, ps.Q).Cmp(ps.N) != 0 {
		return ErrInvalidParams.Apply("n != p·q")
	}
	for _, half := range []struct {
		name    string
		p       *big.Int
		factors []*big.Int
	}{
		{"p", ps.P, ps.PFactors},
		{"q", ps.Q, ps.QFactors},
	} {
		if !isPrime(half.p) {
			return ErrInvalidParams.Apply(half.name + " is not prime")
		}
		prod := big.NewInt(1)
		for _, f := range half.factors {
			if !isPrime(f) {
				return ErrInvalidParams.Apply(fmt.Sprintf("%s factor %s is not prime", half.name, f))
			}
			prod.Mul(prod, f)
		}
		if prod.Add(prod, one).Cmp(half.p) != 0 {
			return ErrInvalidParams.Apply(half.name + "-1 != product of factors")
		}
	}
	return nil
}
