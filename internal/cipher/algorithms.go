package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"sort"
	"strings"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/twofish"
)

// algorithm describes one block cipher the codec can be built on
type algorithm struct {
	name           string
	blockSize      int
	derivedKeySize int
	validKeySize   func(n int) bool
	newBlock       func(key []byte) (stdcipher.Block, error)
}

func oneOf(sizes ...int) func(int) bool {
	return func(n int) bool {
		for _, s := range sizes {
			if n == s {
				return true
			}
		}
		return false
	}
}

var algorithms = map[string]algorithm{
	"aes": {
		name:           "aes",
		blockSize:      aes.BlockSize,
		derivedKeySize: 32,
		validKeySize:   oneOf(16, 24, 32),
		newBlock:       aes.NewCipher,
	},
	"twofish": {
		name:           "twofish",
		blockSize:      twofish.BlockSize,
		derivedKeySize: 32,
		validKeySize:   oneOf(16, 24, 32),
		newBlock: func(key []byte) (stdcipher.Block, error) {
			return twofish.NewCipher(key)
		},
	},
	"blowfish": {
		name:           "blowfish",
		blockSize:      blowfish.BlockSize,
		derivedKeySize: 32,
		validKeySize:   func(n int) bool { return n >= 1 && n <= 56 },
		newBlock: func(key []byte) (stdcipher.Block, error) {
			return blowfish.NewCipher(key)
		},
	},
	"cast5": {
		name:           "cast5",
		blockSize:      cast5.BlockSize,
		derivedKeySize: cast5.KeySize,
		validKeySize:   oneOf(cast5.KeySize),
		newBlock: func(key []byte) (stdcipher.Block, error) {
			return cast5.NewCipher(key)
		},
	},
}

// lookupAlgorithm resolves a configured cipher name; matching is case-insensitive
func lookupAlgorithm(name string) (algorithm, bool) {
	alg, ok := algorithms[strings.ToLower(strings.TrimSpace(name))]
	return alg, ok
}

// Algorithms returns the supported cipher names in sorted order
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BlockSizeOf returns the block size of a supported algorithm
func BlockSizeOf(name string) (int, bool) {
	alg, ok := lookupAlgorithm(name)
	if !ok {
		return 0, false
	}
	return alg.blockSize, true
}
