package dlog

import (
	"context"
	"math"
	"math/big"
	"math/rand"

	"github.com/Lafeng/nobus/progress"
)

const (
	MaxRetries = 3

	// how often the walk looks at its context
	ctxPollMask = 1<<12 - 1
)

// Seed is the starting exponent pair of a rho walk, x0 = G^A · H^B.
type Seed struct {
	A, B *big.Int
}

// DefaultSeed is (1, 1), i.e. x0 = G·H.
func DefaultSeed() Seed {
	return Seed{A: big.NewInt(1), B: big.NewInt(1)}
}

// RandomSeed draws both exponents uniformly from [1, order).
func RandomSeed(rnd *rand.Rand, order *big.Int) Seed {
	span := new(big.Int).Sub(order, one)
	if span.Sign() <= 0 {
		return DefaultSeed()
	}
	a := new(big.Int).Rand(rnd, span)
	b := new(big.Int).Rand(rnd, span)
	return Seed{A: a.Add(a, one), B: b.Add(b, one)}
}

// walk is one point of the rho sequence: x = G^a · H^b (mod P).
type walk struct {
	x, a, b *big.Int
}

type rho struct {
	g, h, p, order *big.Int
	three, r       *big.Int
}

func (w *walk) set(o *walk) {
	w.x.Set(o.x)
	w.a.Set(o.a)
	w.b.Set(o.b)
}

func (r *rho) step(w *walk) {
	switch r.r.Mod(w.x, r.three).Int64() {
	case 0:
		w.x.Mul(w.x, r.g)
		w.a.Add(w.a, one)
		w.a.Mod(w.a, r.order)
	case 1:
		w.x.Mul(w.x, r.h)
		w.b.Add(w.b, one)
		w.b.Mod(w.b, r.order)
	default:
		w.x.Mul(w.x, w.x)
		w.a.Lsh(w.a, 1)
		w.a.Mod(w.a, r.order)
		w.b.Lsh(w.b, 1)
		w.b.Mod(w.b, r.order)
	}
	w.x.Mod(w.x, r.p)
}

// Pollard solves G^x ≡ H (mod P) in the subgroup of order (P-1)/2.
func Pollard(ctx context.Context, g, h, p *big.Int, seed Seed) (*big.Int, error) {
	order := new(big.Int).Sub(p, one)
	order.Rsh(order, 1)
	return PollardOrder(ctx, g, h, p, order, seed, nil)
}

// PollardOrder runs a single rho walk with Floyd cycle detection, exponents
// tracked modulo order. The result x or x+order is returned, whichever
// verifies.
func PollardOrder(ctx context.Context, g, h, p, order *big.Int, seed Seed, observer progress.Observer) (*big.Int, error) {
	if order.Sign() <= 0 {
		return nil, ErrInvalidModulus.Apply(order)
	}
	hp := new(big.Int).Mod(h, p)
	r := &rho{
		g:     new(big.Int).Mod(g, p),
		h:     hp,
		p:     p,
		order: order,
		three: big.NewInt(3),
		r:     new(big.Int),
	}

	x0 := new(big.Int).Exp(r.g, seed.A, p)
	x0.Mul(x0, new(big.Int).Exp(r.h, seed.B, p))
	x0.Mod(x0, p)
	slow := &walk{
		x: x0,
		a: new(big.Int).Mod(seed.A, order),
		b: new(big.Int).Mod(seed.B, order),
	}
	fast := &walk{x: new(big.Int), a: new(big.Int), b: new(big.Int)}
	fast.set(slow)

	collided := false
	limit := int64(math.MaxInt64)
	if p.IsInt64() {
		limit = p.Int64()
	}
	var i int64
	for i = 1; i < limit; i++ {
		if i&ctxPollMask == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		r.step(slow)
		r.step(fast)
		r.step(fast)
		if slow.x.Cmp(fast.x) == 0 {
			collided = true
			break
		}
	}
	if !collided {
		return nil, ErrNoCollision.Apply(p)
	}
	observer.Emit(progress.Event{Kind: progress.RhoCollision, Iterations: i, Modulus: order})

	// (a - A) ≡ (B - b)·x (mod order)
	num := new(big.Int).Sub(slow.a, fast.a)
	den := new(big.Int).Sub(fast.b, slow.b)
	den.Mod(den, order)
	inv := new(big.Int).ModInverse(den, order)
	if inv == nil {
		return nil, ErrNotInvertible.Apply(den)
	}
	x := num.Mul(num, inv)
	x.Mod(x, order)

	t := new(big.Int)
	if t.Exp(r.g, x, p).Cmp(hp) == 0 {
		return x, nil
	}
	x.Add(x, order)
	if t.Exp(r.g, x, p).Cmp(hp) == 0 {
		return x, nil
	}
	return nil, ErrUnverified
}

// PollardRetry makes up to retries attempts: the default seed first, then
// seeds drawn from rnd. A context error ends the attempts immediately.
func PollardRetry(ctx context.Context, g, h, p, order *big.Int, retries int, rnd *rand.Rand, observer progress.Observer) (*big.Int, error) {
	if retries <= 0 {
		retries = MaxRetries
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	seed := DefaultSeed()
	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		var x *big.Int
		x, err = PollardOrder(ctx, g, h, p, order, seed, observer)
		if err == nil {
			return x, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		seed = RandomSeed(rnd, order)
		observer.Emit(progress.Event{
			Kind:    progress.RhoRetry,
			Attempt: attempt,
			Total:   retries,
			Modulus: order,
			Err:     err,
		})
	}
	return nil, ErrRetriesExhausted.Apply(err)
}
