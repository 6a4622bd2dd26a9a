package crypto

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/dchest/siphash"
)

// fixed keys: fingerprints only need to be stable, not secret
const (
	fpKey0 uint64 = 0x6e6f6275732d6470
	fpKey1 uint64 = 0x682d6261636b646f
)

// Fingerprint is a short stable identifier of a modulus,
// eight colon-separated hex bytes.
func Fingerprint(n *big.Int) string {
	h := siphash.Hash(fpKey0, fpKey1, n.Bytes())
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	parts := make([]string, len(buf))
	for i, b := range buf {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// FingerprintOf hashes several values, e.g. a modulus and its generator.
func FingerprintOf(values ...*big.Int) string {
	h := siphash.New(fingerprintKey())
	for _, v := range values {
		var l [4]byte
		b := v.Bytes()
		binary.BigEndian.PutUint32(l[:], uint32(len(b)))
		h.Write(l[:])
		h.Write(b)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func fingerprintKey() []byte {
	key := make([]byte, 16)
	binary.LittleEndian.PutUint64(key, fpKey0)
	binary.LittleEndian.PutUint64(key[8:], fpKey1)
	return key
}
