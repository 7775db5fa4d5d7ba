package cipher

import (
	"crypto/sha256"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"

	"github.com/deploymenttheory/go-ebd/internal/types"
)

// Key derivation modes
const (
	// DerivationPBKDF2 stretches the configured key with PBKDF2-HMAC-SHA256
	DerivationPBKDF2 = "pbkdf2"

	// DerivationRaw uses the configured key bytes verbatim
	DerivationRaw = "raw"
)

// deriveKey turns the configured key material into a key the algorithm accepts.
// The returned slice is always a fresh copy owned by the caller.
func deriveKey(alg algorithm, opts Options) ([]byte, error) {
	if len(opts.Key) == 0 {
		return nil, errors.Wrap(types.ErrUnsupportedCipherKey, "key cannot be empty")
	}

	mode := strings.ToLower(strings.TrimSpace(opts.Derivation))
	if mode == "" {
		mode = DerivationPBKDF2
	}

	switch mode {
	case DerivationRaw:
		if !alg.validKeySize(len(opts.Key)) {
			return nil, errors.Wrapf(types.ErrUnsupportedCipherKey,
				"%s does not accept a %d-byte key", alg.name, len(opts.Key))
		}
		key := make([]byte, len(opts.Key))
		copy(key, opts.Key)
		return key, nil

	case DerivationPBKDF2:
		salt := opts.Salt
		if len(salt) == 0 {
			salt = []byte(types.DefaultKeySalt)
		}
		iterations := opts.Iterations
		if iterations <= 0 {
			iterations = types.DefaultKeyIterations
		}
		return pbkdf2.Key(opts.Key, salt, iterations, alg.derivedKeySize, sha256.New), nil

	default:
		return nil, errors.Wrapf(types.ErrUnsupportedCipherKey, "unknown key derivation %q", opts.Derivation)
	}
}

// zero overwrites key material in place
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
