// Package cipher provides the block cipher codec used by the encrypted block device.
//
// A Codec wraps a single symmetric block cipher keyed once at device setup and
// immutable afterwards. It exposes exactly two operations:
//
// - EncryptBlock: transform one plaintext block into one ciphertext block
// - DecryptBlock: transform one ciphertext block back into plaintext
//
// Both operate on exactly BlockSize() bytes. Anything else is a programming error
// and panics. The transfer engine is responsible for only ever handing the codec
// whole blocks.
//
// Blocks are substituted independently: there is no chaining, no IV and no
// authentication tag, so identical plaintext blocks produce identical ciphertext
// blocks anywhere on the device. Ciphertext occupies exactly the byte range the
// plaintext would have occupied.
//
// Supported algorithms:
//
//	aes       16-byte block, 16/24/32-byte keys (default)
//	twofish   16-byte block, 16/24/32-byte keys
//	blowfish   8-byte block, 1..56-byte keys
//	cast5      8-byte block, 16-byte keys
//
// The configured key is either used verbatim ("raw") or stretched with
// PBKDF2-HMAC-SHA256 to the algorithm's preferred key size ("pbkdf2", the
// default). PBKDF2 lets a short passphrase such as the placeholder "password"
// key any of the algorithms.
//
// Basic usage:
//
//	codec, err := cipher.New(cipher.Options{
//		Algorithm: "aes",
//		Key:       []byte("password"),
//	})
//	if err != nil {
//		return err
//	}
//	defer codec.Close()
//
//	ct := make([]byte, codec.BlockSize())
//	codec.EncryptBlock(ct, plaintextBlock)
package cipher
