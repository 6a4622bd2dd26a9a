package config

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/Lafeng/nobus/crypto"
	"github.com/Lafeng/nobus/paramgen"
	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

const (
	CF_P           = "p"
	CF_Q           = "q"
	CF_N           = "n"
	CF_VALUE       = "Value"
	CF_FACTORS     = "Factors"
	CF_FINGERPRINT = "Fingerprint"
)

// ParseInt accepts decimal or 0x-prefixed hex.
func ParseInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, errors.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// ParseInts splits a comma-separated list.
func ParseInts(s string) ([]*big.Int, error) {
	var out []*big.Int
	for _, f := range strings.Split(s, ",") {
		if strings.TrimSpace(f) == NULL {
			continue
		}
		n, err := ParseInt(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("empty list")
	}
	return out, nil
}

func Hex(n *big.Int) string {
	return fmt.Sprintf("%#x", n)
}

func FormatInts(xs []*big.Int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = Hex(x)
	}
	return strings.Join(parts, ",")
}

// WriteParams serializes the secret parameters as ini.
func WriteParams(w io.Writer, ps *paramgen.Params) error {
	iniInst := ini.Empty()
	for _, half := range []struct {
		name    string
		value   *big.Int
		factors []*big.Int
	}{
		{CF_P, ps.P, ps.PFactors},
		{CF_Q, ps.Q, ps.QFactors},
	} {
		sec, _ := iniInst.NewSection(half.name)
		sec.NewKey(CF_VALUE, Hex(half.value))
		sec.NewKey(CF_FACTORS, FormatInts(half.factors))
	}
	sec, _ := iniInst.NewSection(CF_N)
	sec.Comment = strings.TrimSpace(_PARAMS_NOTICE)
	sec.NewKey(CF_VALUE, Hex(ps.N))
	sec.NewKey(CF_FINGERPRINT, crypto.Fingerprint(ps.N))
	_, err := iniInst.WriteTo(w)
	return err
}

// SaveParams writes the parameter file readable by the owner only.
func SaveParams(file string, ps *paramgen.Params) error {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "save params")
	}
	defer f.Close()
	if err = WriteParams(f, ps); err != nil {
		return errors.Wrap(err, "save params")
	}
	return f.Sync()
}

// LoadParams reads and checks a parameter file. source is a file name or
// raw []byte content.
func LoadParams(source interface{}) (*paramgen.Params, error) {
	iniInst, err := ini.Load(source)
	if err != nil {
		return nil, ErrParamsFile.Apply(err)
	}
	ps := new(paramgen.Params)
	if ps.P, ps.PFactors, err = readHalf(iniInst, CF_P); err != nil {
		return nil, err
	}
	if ps.Q, ps.QFactors, err = readHalf(iniInst, CF_Q); err != nil {
		return nil, err
	}

	sec, err := iniInst.GetSection(CF_N)
	if err != nil {
		return nil, ErrParamsFile.Apply(err)
	}
	if ps.N, err = ParseInt(sec.Key(CF_VALUE).String()); err != nil {
		return nil, ErrParamsFile.Apply(errors.Wrap(err, CF_N))
	}
	if fp := sec.Key(CF_FINGERPRINT).String(); fp != NULL && fp != crypto.Fingerprint(ps.N) {
		return nil, ErrParamsFile.Apply("fingerprint mismatch")
	}
	if err = ps.Check(); err != nil {
		return nil, ErrParamsFile.Apply(err)
	}
	return ps, nil
}

func readHalf(iniInst *ini.File, name string) (*big.Int, []*big.Int, error) {
	sec, err := iniInst.GetSection(name)
	if err != nil {
		return nil, nil, ErrParamsFile.Apply(err)
	}
	value, err := ParseInt(sec.Key(CF_VALUE).String())
	if err != nil {
		return nil, nil, ErrParamsFile.Apply(errors.Wrap(err, name))
	}
	factors, err := ParseInts(sec.Key(CF_FACTORS).String())
	if err != nil {
		return nil, nil, ErrParamsFile.Apply(errors.Wrap(err, name+" factors"))
	}
	return value, factors, nil
}

const _PARAMS_NOTICE = `
# Publish n only. The factor lists above are the backdoor.
`
