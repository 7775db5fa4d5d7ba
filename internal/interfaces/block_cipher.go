// File: internal/interfaces/block_cipher.go
package interfaces

// BlockCodec transforms single cipher blocks under a fixed key
type BlockCodec interface {
	// Algorithm returns the cipher name
	Algorithm() string

	// BlockSize returns the cipher block size in bytes
	BlockSize() int

	// EncryptBlock encrypts exactly one block of src into dst
	EncryptBlock(dst, src []byte)

	// DecryptBlock decrypts exactly one block of src into dst
	DecryptBlock(dst, src []byte)

	// Close destroys the key schedule
	Close() error
}
