package paramgen

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/Lafeng/nobus/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkHalf(t *testing.T, p *big.Int, factors []*big.Int, bits, smoothness int) {
	t.Helper()
	assert.Equal(t, bits, p.BitLen())
	large := 0
	for _, f := range factors {
		if f.BitLen() > smoothness {
			large++
		}
	}
	assert.LessOrEqual(t, large, 2, "more than two closing factors")
}

func TestParams(t *testing.T) {
	cases := []struct{ bits, smoothness int }{
		{64, 8},
		{128, 16},
		{255, 16},
		{512, 32},
	}
	for _, c := range cases {
		var found int
		g := &Generator{
			State: NewState(int64(c.bits)),
			Observer: func(e progress.Event) {
				if e.Kind == progress.ParamsFound {
					found++
				}
			},
		}
		ps, err := g.Params(context.Background(), c.bits, c.smoothness)
		require.NoError(t, err, "bits=%d", c.bits)
		require.NoError(t, ps.Check())
		assert.Equal(t, c.bits, ps.N.BitLen())
		checkHalf(t, ps.P, ps.PFactors, (c.bits+1)/2, c.smoothness)
		checkHalf(t, ps.Q, ps.QFactors, c.bits/2, c.smoothness)
		assert.Equal(t, 1, found)
	}
}

func TestParams_Budgets(t *testing.T) {
	// every half exhausts its closing budget, so only RegenBudget ends it
	var regenerated int
	g := &Generator{
		State:         NewState(3),
		ClosingBudget: 20,
		RegenBudget:   4,
		Observer: func(e progress.Event) {
			if e.Kind == progress.ParamsRegenerated {
				assert.True(t, errors.Is(e.Err, ErrBudgetExhausted), "got %v", e.Err)
				regenerated++
			}
		},
	}
	_, err := g.Params(context.Background(), 24, 3)
	assert.True(t, errors.Is(err, ErrBudgetExhausted), "got %v", err)
	assert.Equal(t, 4, regenerated)
	g.Observer = nil

	_, err = g.Params(context.Background(), 16, 8)
	assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)

	g = &Generator{State: NewState(3), RegenBudget: 1}
	ps, err := g.Params(context.Background(), 64, 8)
	if err != nil {
		assert.True(t, errors.Is(err, ErrBudgetExhausted), "got %v", err)
	} else {
		assert.NoError(t, ps.Check())
	}
}

func TestParams_SmallSmoothness(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		g := &Generator{State: NewState(seed), ClosingBudget: 50000, RegenBudget: 1000}
		ps, err := g.Params(context.Background(), 128, 8)
		require.NoError(t, err, "seed=%d", seed)
		require.NoError(t, ps.Check())
		assert.Equal(t, 128, ps.N.BitLen())
	}
}

func TestParams_Check(t *testing.T) {
	ps := &Params{
		P:        big.NewInt(23),
		Q:        big.NewInt(47),
		N:        big.NewInt(23 * 47),
		PFactors: []*big.Int{big.NewInt(2), big.NewInt(11)},
		QFactors: []*big.Int{big.NewInt(2), big.NewInt(23)},
	}
	assert.NoError(t, ps.Check())

	ps.QFactors = []*big.Int{big.NewInt(46)}
	assert.True(t, errors.Is(ps.Check(), ErrInvalidParams))

	ps.N = big.NewInt(1)
	assert.True(t, errors.Is(ps.Check(), ErrInvalidParams))
}
