package config

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lafeng/nobus/paramgen"
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

// 31 = 2·3·5+1, 43 = 2·3·7+1
func tinyParams() *paramgen.Params {
	return &paramgen.Params{
		P:        big.NewInt(31),
		Q:        big.NewInt(43),
		N:        big.NewInt(31 * 43),
		PFactors: ints(2, 3, 5),
		QFactors: ints(2, 3, 7),
	}
}

func TestParseInt(t *testing.T) {
	for s, want := range map[string]int64{"42": 42, "0x2a": 42, " 0X2A ": 42, "0b101010": 42} {
		n, err := ParseInt(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, n.Int64(), s)
	}
	_, err := ParseInt("0xzz")
	assert.Error(t, err)
}

func TestParseInts(t *testing.T) {
	xs, err := ParseInts("2, 0x3,5,")
	require.NoError(t, err)
	assert.Equal(t, ints(2, 3, 5), xs)
	assert.Equal(t, "0x2,0x3,0x5", FormatInts(xs))

	_, err = ParseInts(" , ")
	assert.Error(t, err)
	_, err = ParseInts("3,five")
	assert.Error(t, err)
}

func TestParamsRoundTrip(t *testing.T) {
	ps := tinyParams()
	var buf bytes.Buffer
	require.NoError(t, WriteParams(&buf, ps))
	assert.Contains(t, buf.String(), "[n]")
	assert.Contains(t, buf.String(), "0x535")

	got, err := LoadParams(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ps, got)
}

func TestParamsRoundTrip_Generated(t *testing.T) {
	g := &paramgen.Generator{State: paramgen.NewState(11)}
	ps, err := g.Params(context.Background(), 128, 16)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "params.ini")
	require.NoError(t, SaveParams(file, ps))
	fi, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	got, err := LoadParams(file)
	require.NoError(t, err)
	assert.Equal(t, 0, ps.N.Cmp(got.N))
	assert.Equal(t, FormatInts(ps.PFactors), FormatInts(got.PFactors))
	assert.Equal(t, FormatInts(ps.QFactors), FormatInts(got.QFactors))
}

func TestLoadParams_Tampered(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParams(&buf, tinyParams()))
	content := buf.String()

	// n changed without the fingerprint
	bad := strings.Replace(content, "0x535", "0x537", 1)
	_, err := LoadParams([]byte(bad))
	assert.True(t, errors.Is(err, ErrParamsFile), "got %v", err)

	// factor list no longer matches p-1
	bad = strings.Replace(content, "0x2,0x3,0x5", "0x2,0x3,0x7", 1)
	_, err = LoadParams([]byte(bad))
	assert.True(t, errors.Is(err, ErrParamsFile), "got %v", err)

	_, err = LoadParams([]byte("[p]\nValue = 0x1f\n"))
	assert.True(t, errors.Is(err, ErrParamsFile), "got %v", err)
}
