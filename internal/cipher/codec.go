package cipher

import (
	stdcipher "crypto/cipher"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/deploymenttheory/go-ebd/internal/interfaces"
	"github.com/deploymenttheory/go-ebd/internal/types"
)

// Options configures a Codec
type Options struct {
	// Algorithm is the cipher name (aes, twofish, blowfish, cast5). Empty means aes.
	Algorithm string

	// Key is the configured key material
	Key []byte

	// Derivation is "pbkdf2" (default) or "raw"
	Derivation string

	// Salt and Iterations tune PBKDF2. Zero values select the defaults.
	Salt       []byte
	Iterations int
}

// Codec encrypts and decrypts single cipher blocks under a fixed key
type Codec struct {
	alg       algorithm
	block     stdcipher.Block
	key       []byte
	closeOnce sync.Once
}

var _ interfaces.BlockCodec = (*Codec)(nil)

// New builds a codec. Any failure to accept the key is reported as
// types.ErrUnsupportedCipherKey; an unknown algorithm as types.ErrUnsupportedCipher.
func New(opts Options) (*Codec, error) {
	name := opts.Algorithm
	if name == "" {
		name = types.DefaultCipher
	}

	alg, ok := lookupAlgorithm(name)
	if !ok {
		return nil, errors.Wrapf(types.ErrUnsupportedCipher, "%q (supported: %v)", name, Algorithms())
	}

	key, err := deriveKey(alg, opts)
	if err != nil {
		return nil, err
	}

	block, err := alg.newBlock(key)
	if err != nil {
		zero(key)
		return nil, errors.Wrapf(types.ErrUnsupportedCipherKey, "%s key setup failed: %v", alg.name, err)
	}

	if block.BlockSize() != alg.blockSize {
		zero(key)
		return nil, errors.Wrapf(types.ErrUnsupportedCipher,
			"%s reported block size %d, expected %d", alg.name, block.BlockSize(), alg.blockSize)
	}

	return &Codec{
		alg:   alg,
		block: block,
		key:   key,
	}, nil
}

// Algorithm returns the cipher name
func (c *Codec) Algorithm() string {
	return c.alg.name
}

// BlockSize returns the cipher block size in bytes
func (c *Codec) BlockSize() int {
	return c.alg.blockSize
}

// EncryptBlock encrypts exactly one block. dst and src must both be BlockSize bytes.
func (c *Codec) EncryptBlock(dst, src []byte) {
	c.mustBeBlock("EncryptBlock", dst, src)
	c.block.Encrypt(dst, src)
}

// DecryptBlock decrypts exactly one block. dst and src must both be BlockSize bytes.
func (c *Codec) DecryptBlock(dst, src []byte) {
	c.mustBeBlock("DecryptBlock", dst, src)
	c.block.Decrypt(dst, src)
}

func (c *Codec) mustBeBlock(op string, dst, src []byte) {
	if c.block == nil {
		panic(fmt.Sprintf("cipher: %s on closed %s codec", op, c.alg.name))
	}
	if len(src) != c.alg.blockSize || len(dst) != c.alg.blockSize {
		panic(fmt.Sprintf("cipher: %s requires %d-byte blocks, got dst=%d src=%d",
			op, c.alg.blockSize, len(dst), len(src)))
	}
}

// Close zeroes the retained key and drops the key schedule. Safe to call more than once.
func (c *Codec) Close() error {
	c.closeOnce.Do(func() {
		zero(c.key)
		c.key = nil
		c.block = nil
	})
	return nil
}
