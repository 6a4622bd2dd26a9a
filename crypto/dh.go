package crypto

import (
	"io"
	"math/big"

	"github.com/Lafeng/nobus/exception"
	"github.com/monnand/dhkx"
)

var (
	InvalidDHParam = exception.New(50, "Invalid DH parameters")
	InvalidPubKey  = exception.New(51, "Invalid DH public key")
)

type DHKE interface {
	ExportPubKey() []byte
	ComputeKey(bobPub []byte) ([]byte, error)
}

// Group is a classical DH group over an arbitrary modulus. Nothing here
// requires the modulus to be prime, which is what the backdoor relies on.
type Group struct {
	N, G *big.Int
	dh   *dhkx.DHGroup
}

func NewGroup(n, g *big.Int) (*Group, error) {
	if n == nil || g == nil || n.Cmp(big.NewInt(3)) < 0 {
		return nil, InvalidDHParam.Apply("modulus")
	}
	if g.Cmp(big.NewInt(1)) <= 0 || g.Cmp(n) >= 0 {
		return nil, InvalidDHParam.Apply("generator")
	}
	return &Group{
		N:  n,
		G:  g,
		dh: dhkx.CreateGroup(n, g),
	}, nil
}

// KeySize is the byte length of public values and shared secrets.
func (g *Group) KeySize() int {
	return (g.N.BitLen() + 7) / 8
}

// SharedSecret computes pub^x mod N encoded as dhkx encodes agreed keys.
func (g *Group) SharedSecret(pub []byte, x *big.Int) []byte {
	y := new(big.Int).SetBytes(pub)
	k := y.Exp(y, x, g.N).Bytes()
	ret := make([]byte, g.KeySize())
	copy(ret[len(ret)-len(k):], k)
	return ret
}

// classical Diffie–Hellman–Merkle key exchange
type DHEKey struct {
	group *Group
	priv  *dhkx.DHKey
	pub   []byte
}

func GenerateDHEKey(group *Group, rand io.Reader) (k *DHEKey, err error) {
	k = &DHEKey{group: group}
	// nil rand means crypto/rand
	k.priv, err = group.dh.GeneratePrivateKey(rand)
	if k.priv != nil {
		k.pub = k.priv.Bytes()
	}
	return k, err
}

func (d *DHEKey) ExportPubKey() []byte {
	return d.pub
}

// Public is the exported value g^x mod N as an integer.
func (d *DHEKey) Public() *big.Int {
	return new(big.Int).SetBytes(d.pub)
}

func (d *DHEKey) ComputeKey(pub []byte) ([]byte, error) {
	// Recover Bob's public key
	opubkey := dhkx.NewPublicKey(pub)
	// Compute the key
	k, e := d.group.dh.ComputeKey(opubkey, d.priv)
	if e == nil {
		// Get the key in the form of []byte
		return k.Bytes(), nil
	}
	return nil, InvalidPubKey.Apply(e)
}
