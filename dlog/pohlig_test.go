package dlog

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/Lafeng/nobus/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 14804791 = 2·3·5·7·11·13·17·29 + 1; 4 has order (P-1)/2
var (
	smoothP       = big.NewInt(14804791)
	smoothFactors = ints(3, 5, 7, 11, 13, 17, 29)
)

func ints(xs ...int64) []*big.Int {
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = big.NewInt(x)
	}
	return out
}

func TestPohligHellman_RoundTrip(t *testing.T) {
	g := big.NewInt(4)
	ph := &PohligHellman{}
	for _, x := range []int64{0, 1, 12345, 987654, 7402394} {
		h := new(big.Int).Exp(g, big.NewInt(x), smoothP)
		got, err := ph.Solve(context.Background(), g, h, smoothP, smoothFactors)
		require.NoError(t, err, "x=%d", x)
		assert.Equal(t, x, got.Int64())
	}
}

func TestPohligHellman_Parallel(t *testing.T) {
	g := big.NewInt(4)
	h := new(big.Int).Exp(g, big.NewInt(4242424), smoothP)
	var solved int32
	ph := &PohligHellman{
		Workers: 4,
		Tables:  NewTableCache(16, 0),
		Observer: func(e progress.Event) {
			if e.Kind == progress.FactorSolved {
				atomic.AddInt32(&solved, 1)
			}
		},
	}
	got, err := ph.Solve(context.Background(), g, h, smoothP, smoothFactors)
	require.NoError(t, err)
	assert.Equal(t, int64(4242424), got.Int64())
	assert.Equal(t, int32(len(smoothFactors)), atomic.LoadInt32(&solved))
}

func TestPohligHellman_WithTwo(t *testing.T) {
	// 3 has order 510510 = 2·3·5·7·11·13·17, so x is recovered mod 510510
	g := big.NewInt(3)
	factors := append(ints(2), smoothFactors...)
	for _, x := range []int64{5, 510509, 7654321} {
		h := new(big.Int).Exp(g, big.NewInt(x), smoothP)
		got, err := (&PohligHellman{}).Solve(context.Background(), g, h, smoothP, factors)
		require.NoError(t, err)
		assert.Equal(t, 0, new(big.Int).Exp(g, got, smoothP).Cmp(h), "x=%d", x)
		assert.Equal(t, x%510510, got.Int64()%510510)
	}
}

func TestPohligHellman_InvalidFactors(t *testing.T) {
	g, h := big.NewInt(4), big.NewInt(16)
	ph := &PohligHellman{}
	for _, factors := range [][]*big.Int{ints(3, 4), ints(3, 23), ints(1)} {
		_, err := ph.Solve(context.Background(), g, h, smoothP, factors)
		assert.True(t, errors.Is(err, ErrInvalidFactor), "factors=%v got %v", factors, err)
	}
	_, err := ph.Solve(context.Background(), g, h, smoothP, ints(3, 3))
	assert.True(t, errors.Is(err, ErrModuliNotCoprime), "got %v", err)
}

func TestPohligHellman_NoSolution(t *testing.T) {
	// 4 is a square, so its projection onto the order-2 subgroup is 1
	// while 3 is a non-residue
	_, err := (&PohligHellman{}).Solve(context.Background(), big.NewInt(4), big.NewInt(3), smoothP, ints(2))
	assert.True(t, errors.Is(err, ErrNoSolution), "got %v", err)
}

func TestOrder(t *testing.T) {
	factors := append(ints(2), smoothFactors...)
	assert.Equal(t, int64(7402395), Order(big.NewInt(4), smoothP, factors).Int64())
	assert.Equal(t, int64(510510), Order(big.NewInt(3), smoothP, factors).Int64())
	assert.Equal(t, int64(1), Order(big.NewInt(1), smoothP, factors).Int64())
}

func BenchmarkPohligHellman(b *testing.B) {
	g := big.NewInt(4)
	h := new(big.Int).Exp(g, big.NewInt(987654), smoothP)
	ph := &PohligHellman{}
	for i := 0; i < b.N; i++ {
		ph.Solve(context.Background(), g, h, smoothP, smoothFactors)
	}
}
