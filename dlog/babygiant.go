package dlog

import (
	"math/big"
)

// DefaultTableLimit caps the number of baby steps kept in memory.
const DefaultTableLimit = 1 << 22

// BabySteps is the precomputed half of a baby-step giant-step search:
// the table G^j -> j for j in [0, m) and the giant factor G^-m.
// It is immutable after construction and may be shared.
type BabySteps struct {
	g, p  *big.Int
	m     int64
	table map[string]int64
	giant *big.Int
}

// NewBabySteps covers exponents in [0, bound]; a nil bound means P.
func NewBabySteps(g, p, bound *big.Int, limit int64) (*BabySteps, error) {
	if p.Sign() <= 0 {
		return nil, ErrInvalidModulus.Apply(p)
	}
	if bound == nil {
		bound = p
	}
	if limit <= 0 {
		limit = DefaultTableLimit
	}
	m := new(big.Int).Sqrt(bound)
	m.Add(m, one)
	if !m.IsInt64() || m.Int64() > limit {
		return nil, ErrTableTooLarge.Apply(m)
	}

	gp := new(big.Int).Mod(g, p)
	ginv := new(big.Int).ModInverse(gp, p)
	if ginv == nil {
		return nil, ErrNotInvertible.Apply(gp)
	}

	bs := &BabySteps{
		g:     gp,
		p:     p,
		m:     m.Int64(),
		table: make(map[string]int64, m.Int64()),
		giant: new(big.Int).Exp(ginv, m, p),
	}
	cur := big.NewInt(1)
	for j := int64(0); j < bs.m; j++ {
		key := string(cur.Bytes())
		// keep the smallest exponent on a wrap-around
		if _, y := bs.table[key]; !y {
			bs.table[key] = j
		}
		cur.Mul(cur, gp)
		cur.Mod(cur, p)
	}
	return bs, nil
}

// Solve runs the giant steps for h.
func (bs *BabySteps) Solve(h *big.Int) (*big.Int, error) {
	y := new(big.Int).Mod(h, bs.p)
	for i := int64(0); i < bs.m; i++ {
		if j, ok := bs.table[string(y.Bytes())]; ok {
			x := big.NewInt(i)
			x.Mul(x, big.NewInt(bs.m))
			return x.Add(x, big.NewInt(j)), nil
		}
		y.Mul(y, bs.giant)
		y.Mod(y, bs.p)
	}
	return nil, ErrNoSolutionInRange
}

// BabyGiant solves G^x ≡ H (mod P) for 0 <= x < P.
func BabyGiant(g, h, p *big.Int) (*big.Int, error) {
	bs, err := NewBabySteps(g, p, nil, 0)
	if err != nil {
		return nil, err
	}
	return bs.Solve(h)
}
