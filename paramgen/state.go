package paramgen

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/big"
	"math/rand"

	"github.com/pkg/errors"
)

// State is the random state threaded through parameter generation.
// Draws advance it sequentially; it is not safe for concurrent use.
type State struct {
	rnd  *rand.Rand
	seed int64
}

func NewState(seed int64) *State {
	return &State{
		rnd:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// NewEntropyState seeds a State from the operating system.
func NewEntropyState() (*State, error) {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return nil, errors.Wrap(err, "read entropy")
	}
	return NewState(int64(binary.BigEndian.Uint64(buf[:]))), nil
}

func (s *State) Seed() int64 {
	return s.seed
}

// Bits returns a uniform integer in [0, 2^n).
func (s *State) Bits(n int) *big.Int {
	limit := new(big.Int).Lsh(one, uint(n))
	return new(big.Int).Rand(s.rnd, limit)
}

// Int63 exposes the underlying source for derived seeds.
func (s *State) Int63() int64 {
	return s.rnd.Int63()
}
