package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"hash/fnv"
	"strings"

	"github.com/Lafeng/nobus/exception"
	"golang.org/x/crypto/chacha20"
)

const DefaultCipher = "CHACHA20"

var (
	UnsupportedCipher = exception.NewW("Unsupported cipher")
	InvalidIV         = exception.New(52, "Invalid IV length")
)

type cipherBuilder func(k, iv []byte) (*XORCipherKit, error)

type cipherDecr struct {
	keyLen  int
	ivLen   int
	builder cipherBuilder
}

type XORCipherKit struct {
	enc cipher.Stream
	dec cipher.Stream
}

// Uppercase Name
var availableCiphers = []interface{}{
	"CHACHA20", &cipherDecr{32, 12, new_ChaCha20},
	"AES128CFB", &cipherDecr{16, 16, new_AES_CFB},
	"AES256CFB", &cipherDecr{32, 16, new_AES_CFB},
	"AES128CTR", &cipherDecr{16, 16, new_AES_CTR},
	"AES256CTR", &cipherDecr{32, 16, new_AES_CTR},
}

func GetAvailableCipher(wants string) (*cipherDecr, error) {
	wants = strings.ToUpper(wants)
	for i := 0; i < len(availableCiphers); i += 2 {
		name := availableCiphers[i].(string)
		decr := availableCiphers[i+1].(*cipherDecr)
		if name == wants {
			return decr, nil
		}
	}
	return nil, UnsupportedCipher.Apply(wants)
}

func new_ChaCha20(key, iv []byte) (*XORCipherKit, error) {
	ec, err := chacha20.NewUnauthenticatedCipher(key, iv)
	if err != nil {
		return nil, err
	}
	dc, err := chacha20.NewUnauthenticatedCipher(key, iv)
	if err != nil {
		return nil, err
	}
	return &XORCipherKit{ec, dc}, nil
}

func new_AES_CFB(key, iv []byte) (*XORCipherKit, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	ec := cipher.NewCFBEncrypter(block, iv)
	dc := cipher.NewCFBDecrypter(block, iv)
	return &XORCipherKit{ec, dc}, nil
}

func new_AES_CTR(key, iv []byte) (*XORCipherKit, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &XORCipherKit{cipher.NewCTR(block, iv), cipher.NewCTR(block, iv)}, nil
}

// SessionCipher turns a DH shared secret into a symmetric stream cipher.
type SessionCipher struct {
	name string
	key  []byte
	decr *cipherDecr
}

func NewSessionCipher(name string, secret []byte) (*SessionCipher, error) {
	decr, err := GetAvailableCipher(name)
	if err != nil {
		return nil, err
	}
	return &SessionCipher{
		name: strings.ToUpper(name),
		key:  normalizeKey(secret, nil, decr.keyLen),
		decr: decr,
	}, nil
}

func (c *SessionCipher) Name() string {
	return c.name
}

func (c *SessionCipher) IVSize() int {
	return c.decr.ivLen
}

func (c *SessionCipher) kit(iv []byte) (*XORCipherKit, error) {
	if len(iv) != c.decr.ivLen {
		return nil, InvalidIV.Apply(len(iv))
	}
	return c.decr.builder(c.key, iv)
}

func (c *SessionCipher) Encrypt(iv, plain []byte) ([]byte, error) {
	kit, err := c.kit(iv)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, len(plain))
	kit.enc.XORKeyStream(dst, plain)
	return dst, nil
}

func (c *SessionCipher) Decrypt(iv, enc []byte) ([]byte, error) {
	kit, err := c.kit(iv)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, len(enc))
	kit.dec.XORKeyStream(dst, enc)
	return dst, nil
}

// MUST have:  0 = size (mod 8)
func normalizeKey(raw, ref []byte, size int) []byte {
	var key = make([]byte, 0, size)
	hs := fnv.New64a()
	count := size >> 3
	step := len(raw) / count
	for i, j := 0, 0; i < count; i, j = i+1, j+step {
		hs.Write(raw[j : j+step])
		if i == 0 && ref != nil {
			hs.Write(ref[:len(ref)>>1])
		} else {
			hs.Write(key)
		}
		key = hs.Sum(key)
	}
	return key
}
