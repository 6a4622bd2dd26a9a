package paramgen

import (
	"math/big"
)

const primeRounds = 20

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

func isPrime(n *big.Int) bool {
	return n.ProbablyPrime(primeRounds)
}

// NextPrime returns the smallest probable prime >= n.
func NextPrime(n *big.Int) *big.Int {
	if n.Cmp(two) <= 0 {
		return big.NewInt(2)
	}
	p := new(big.Int).Set(n)
	if p.Bit(0) == 0 {
		p.Add(p, one)
	}
	for !isPrime(p) {
		p.Add(p, two)
	}
	return p
}

// Prime draws a prime of exactly bits bits: the next prime above a random
// integer with its top bit set, drawn again when that overflows the width.
func (s *State) Prime(bits int) *big.Int {
	for {
		c := s.Bits(bits)
		c.SetBit(c, bits-1, 1)
		if p := NextPrime(c); p.BitLen() == bits {
			return p
		}
	}
}
