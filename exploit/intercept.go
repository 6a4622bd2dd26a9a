package exploit

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"io"
	"math/big"

	"github.com/Lafeng/nobus/crypto"
	"github.com/Lafeng/nobus/exception"
	"github.com/Lafeng/nobus/paramgen"
)

var ErrSecretMismatch = exception.New(44, "exploit: derived secret differs from the agreed key")

// Interception is what a passive observer learns from one exchange.
type Interception struct {
	Group  *crypto.Group
	X      *big.Int // Alice's exponent, modulo the order of G
	Secret []byte
	Result *Result
	// set by Simulate
	Plaintext []byte
}

// Intercept recovers Alice's exponent from her public value and derives
// the session key from Bob's.
func (e *Exploiter) Intercept(ctx context.Context, ps *paramgen.Params, g *big.Int, alicePub, bobPub []byte) (*Interception, error) {
	group, err := crypto.NewGroup(ps.N, g)
	if err != nil {
		return nil, err
	}
	h := new(big.Int).SetBytes(alicePub)
	if h.Sign() == 0 || h.Cmp(ps.N) >= 0 {
		return nil, crypto.InvalidPubKey.Apply("alice")
	}
	res, err := e.Recover(ctx, ps.PFactors, ps.QFactors, g, h)
	if err != nil {
		return nil, err
	}
	return &Interception{
		Group:  group,
		X:      res.X,
		Secret: group.SharedSecret(bobPub, res.X),
		Result: res,
	}, nil
}

// Decrypt reads traffic of the intercepted session.
func (ic *Interception) Decrypt(cipherName string, iv, enc []byte) ([]byte, error) {
	c, err := crypto.NewSessionCipher(cipherName, ic.Secret)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(iv, enc)
}

// Session is the traffic Alice sends once the key is agreed.
type Session struct {
	Cipher  string
	Message []byte
}

// Exchange is a simulated session between two honest parties.
type Exchange struct {
	AlicePub, BobPub []byte
	// the key both parties agreed on
	Key []byte
	IV  []byte
	// Session.Message under Key
	Ciphertext []byte
}

// Simulate runs a dhkx exchange over (ps.N, g), lets Alice send
// s.Message and intercepts both. A nil rand uses crypto/rand.
func (e *Exploiter) Simulate(ctx context.Context, ps *paramgen.Params, g *big.Int, rand io.Reader, s Session) (*Exchange, *Interception, error) {
	if s.Cipher == "" {
		s.Cipher = crypto.DefaultCipher
	}
	if rand == nil {
		rand = crand.Reader
	}
	group, err := crypto.NewGroup(ps.N, g)
	if err != nil {
		return nil, nil, err
	}
	alice, err := crypto.GenerateDHEKey(group, rand)
	if err != nil {
		return nil, nil, err
	}
	bob, err := crypto.GenerateDHEKey(group, rand)
	if err != nil {
		return nil, nil, err
	}
	ex := &Exchange{
		AlicePub: alice.ExportPubKey(),
		BobPub:   bob.ExportPubKey(),
	}
	if ex.Key, err = alice.ComputeKey(ex.BobPub); err != nil {
		return ex, nil, err
	}
	sc, err := crypto.NewSessionCipher(s.Cipher, ex.Key)
	if err != nil {
		return ex, nil, err
	}
	ex.IV = make([]byte, sc.IVSize())
	if _, err = io.ReadFull(rand, ex.IV); err != nil {
		return ex, nil, err
	}
	if ex.Ciphertext, err = sc.Encrypt(ex.IV, s.Message); err != nil {
		return ex, nil, err
	}

	ic, err := e.Intercept(ctx, ps, g, ex.AlicePub, ex.BobPub)
	if err != nil {
		return ex, nil, err
	}
	if !bytes.Equal(ic.Secret, ex.Key) {
		return ex, ic, ErrSecretMismatch
	}
	ic.Plaintext, err = ic.Decrypt(s.Cipher, ex.IV, ex.Ciphertext)
	return ex, ic, err
}
