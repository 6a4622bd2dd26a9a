package dlog

import (
	"fmt"
	"math/big"
)

var one = big.NewInt(1)

// Residue is the congruence x ≡ A (mod M).
type Residue struct {
	A, M *big.Int
}

func (r Residue) String() string {
	return fmt.Sprintf("%s (mod %s)", r.A, r.M)
}

// Product multiplies all of xs; the empty product is 1.
func Product(xs []*big.Int) *big.Int {
	p := big.NewInt(1)
	for _, x := range xs {
		p.Mul(p, x)
	}
	return p
}

// CRT returns the unique x in [0, ∏M) with x ≡ A (mod M) for every residue.
// The moduli must be pairwise coprime.
func CRT(residues []Residue) (*big.Int, error) {
	if len(residues) == 0 {
		return nil, ErrNoResidues
	}
	N := big.NewInt(1)
	g := new(big.Int)
	for i, r := range residues {
		if r.M == nil || r.M.Sign() <= 0 {
			return nil, ErrInvalidModulus.Apply(r.M)
		}
		// gcd(m1·…·m(i-1), mi) == 1 for every i <=> pairwise coprime
		if g.GCD(nil, nil, N, r.M).Cmp(one) != 0 {
			return nil, ErrModuliNotCoprime.Apply(i)
		}
		N.Mul(N, r.M)
	}

	x := new(big.Int)
	n := new(big.Int)
	u := new(big.Int)
	t := new(big.Int)
	for _, r := range residues {
		n.Quo(N, r.M)
		if r.M.Cmp(one) == 0 {
			continue
		}
		if u.ModInverse(n, r.M) == nil {
			return nil, ErrNotInvertible.Apply(r.M)
		}
		t.Mul(r.A, n)
		t.Mul(t, u)
		x.Add(x, t)
	}
	return x.Mod(x, N), nil
}

// Merge combines congruences whose moduli may share factors. The result is
// taken modulo the lcm of the moduli; congruences that disagree on a common
// factor give ErrInconsistent.
func Merge(residues []Residue) (*big.Int, *big.Int, error) {
	if len(residues) == 0 {
		return nil, nil, ErrNoResidues
	}
	for _, r := range residues {
		if r.M == nil || r.M.Sign() <= 0 {
			return nil, nil, ErrInvalidModulus.Apply(r.M)
		}
	}
	x := new(big.Int).Mod(residues[0].A, residues[0].M)
	m := new(big.Int).Set(residues[0].M)

	g := new(big.Int)
	d := new(big.Int)
	rem := new(big.Int)
	for i, r := range residues[1:] {
		g.GCD(nil, nil, m, r.M)
		d.Sub(r.A, x)
		d.DivMod(d, g, rem)
		if rem.Sign() != 0 {
			return nil, nil, ErrInconsistent.Apply(i + 1)
		}
		// x += m·(d·(m/g)^-1 mod r.M/g)
		mg := new(big.Int).Quo(m, g)
		rg := new(big.Int).Quo(r.M, g)
		k := new(big.Int)
		if rg.Cmp(one) != 0 {
			inv := new(big.Int).ModInverse(new(big.Int).Mod(mg, rg), rg)
			if inv == nil {
				return nil, nil, ErrNotInvertible.Apply(rg)
			}
			k.Mul(d, inv)
			k.Mod(k, rg)
		}
		x.Add(x, k.Mul(k, m))
		m.Mul(m, rg)
		x.Mod(x, m)
	}
	return x, m, nil
}
