package exploit

import (
	"context"
	"errors"
	"math/big"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/Lafeng/nobus/dlog"
	"github.com/Lafeng/nobus/paramgen"
	"github.com/Lafeng/nobus/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(xs ...int64) []*big.Int {
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = big.NewInt(x)
	}
	return out
}

func testParams(t testing.TB, bits, smoothness int, seed int64) *paramgen.Params {
	g := &paramgen.Generator{State: paramgen.NewState(seed)}
	ps, err := g.Params(context.Background(), bits, smoothness)
	require.NoError(t, err)
	require.NoError(t, ps.Check())
	return ps
}

func TestStripTwo(t *testing.T) {
	assert.Equal(t, ints(3, 5, 7), StripTwo(ints(2, 3, 5, 7)))
	assert.Equal(t, ints(3, 5, 7), StripTwo(ints(3, 5, 7)))
	assert.Empty(t, StripTwo(ints(2)))
}

func TestRebuild(t *testing.T) {
	p, err := Rebuild(ints(3, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(31), p.Int64())

	_, err = Rebuild(ints(7, 11))
	assert.True(t, errors.Is(err, ErrNotPrime), "got %v", err)
}

func TestParseRescale(t *testing.T) {
	for s, want := range map[string]Rescale{"": RescaleOrder, "order": RescaleOrder, "GCD": RescaleGCD} {
		r, err := ParseRescale(s)
		require.NoError(t, err)
		assert.Equal(t, want, r)
		if s != "" {
			assert.Equal(t, want.String(), r.String())
		}
	}
	_, err := ParseRescale("lcm")
	assert.True(t, errors.Is(err, ErrUnknownRescale))
}

func TestRecover_EndToEnd(t *testing.T) {
	ps := testParams(t, 64, 8, 64)
	rnd := rand.New(rand.NewSource(7))
	g := big.NewInt(2)

	var halves, recovered int32
	e := &Exploiter{
		Solver: &dlog.PohligHellman{Workers: 4, Tables: dlog.NewTableCache(16, 0)},
		Observer: func(ev progress.Event) {
			switch ev.Kind {
			case progress.HalfSolved:
				atomic.AddInt32(&halves, 1)
			case progress.Recovered:
				atomic.AddInt32(&recovered, 1)
			}
		},
	}
	for i := 0; i < 8; i++ {
		x := new(big.Int).Rand(rnd, ps.N)
		h := new(big.Int).Exp(g, x, ps.N)
		res, err := e.Recover(context.Background(), ps.PFactors, ps.QFactors, g, h)
		require.NoError(t, err, "x=%s", x)
		assert.Equal(t, 0, new(big.Int).Exp(g, res.X, ps.N).Cmp(h), "x=%s got %s", x, res.X)
		assert.Equal(t, ps.P, res.P.P)
		assert.Equal(t, ps.Q, res.Q.P)
	}
	assert.Equal(t, int32(16), halves)
	assert.Equal(t, int32(8), recovered)
}

func TestRecover_GCD(t *testing.T) {
	ps := testParams(t, 64, 8, 65)
	rnd := rand.New(rand.NewSource(8))
	g := big.NewInt(2)
	e := &Exploiter{Rescale: RescaleGCD}
	for i := 0; i < 8; i++ {
		x := new(big.Int).Rand(rnd, ps.N)
		h := new(big.Int).Exp(g, x, ps.N)
		res, err := e.Recover(context.Background(), ps.PFactors, ps.QFactors, g, h)
		if err != nil {
			// the heuristic is allowed to miss, never to lie
			assert.True(t, errors.Is(err, ErrUnverified) || errors.Is(err, dlog.ErrModuliNotCoprime), "got %v", err)
			continue
		}
		assert.Equal(t, 0, new(big.Int).Exp(g, res.X, ps.N).Cmp(h))
	}
}

func TestRecover_Preconditions(t *testing.T) {
	e := &Exploiter{}
	_, err := e.Recover(context.Background(), ints(7, 11), ints(3, 5), big.NewInt(2), big.NewInt(4))
	assert.True(t, errors.Is(err, ErrNotPrime), "got %v", err)

	// 31 = 2·3·5+1, 43 = 2·3·7+1, g ≡ 0 mod 31
	_, err = e.Recover(context.Background(), ints(3, 5), ints(3, 7), big.NewInt(31), big.NewInt(4))
	assert.True(t, errors.Is(err, ErrDegenerate), "got %v", err)

	e.Rescale = Rescale(9)
	_, err = e.Recover(context.Background(), ints(3, 5), ints(3, 7), big.NewInt(2), big.NewInt(4))
	assert.True(t, errors.Is(err, ErrUnknownRescale), "got %v", err)
}

func TestRecoverAll(t *testing.T) {
	ps := testParams(t, 64, 8, 66)
	g := big.NewInt(2)
	xs := ints(1, 12345, 987654321, 1<<40+3)
	hs := make([]*big.Int, len(xs))
	for i, x := range xs {
		hs[i] = new(big.Int).Exp(g, x, ps.N)
	}
	e := &Exploiter{Solver: &dlog.PohligHellman{Tables: dlog.NewTableCache(8, 0)}}
	out, err := e.RecoverAll(context.Background(), ps.PFactors, ps.QFactors, g, hs)
	require.NoError(t, err)
	require.Len(t, out, len(hs))
	for i, res := range out {
		assert.Equal(t, 0, new(big.Int).Exp(g, res.X, ps.N).Cmp(hs[i]))
	}
}

func TestRecover_Cancelled(t *testing.T) {
	ps := testParams(t, 64, 8, 67)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &Exploiter{}
	h := new(big.Int).Exp(big.NewInt(2), big.NewInt(99991), ps.N)
	_, err := e.Recover(ctx, ps.PFactors, ps.QFactors, big.NewInt(2), h)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func BenchmarkRecover_128(b *testing.B) {
	ps := testParams(b, 128, 16, 128)
	g := big.NewInt(2)
	h := new(big.Int).Exp(g, big.NewInt(0x5eed5eed5eed), ps.N)
	e := &Exploiter{Solver: &dlog.PohligHellman{Tables: dlog.NewTableCache(64, 0)}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Recover(context.Background(), ps.PFactors, ps.QFactors, g, h); err != nil {
			b.Fatal(err)
		}
	}
}
