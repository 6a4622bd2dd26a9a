package dlog

import "math/big"

// Order is the multiplicative order of g modulo the prime p, where
// factors are the distinct primes of a square-free p-1.
func Order(g, p *big.Int, factors []*big.Int) *big.Int {
	pm1 := new(big.Int).Sub(p, one)
	gp := new(big.Int).Mod(g, p)
	ord := big.NewInt(1)
	e := new(big.Int)
	t := new(big.Int)
	for _, f := range factors {
		e.Quo(pm1, f)
		if t.Exp(gp, e, p).Cmp(one) != 0 {
			ord.Mul(ord, f)
		}
	}
	return ord
}
