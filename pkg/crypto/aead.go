// aead.go constructs the authenticated encryption ciphers used for record
// protection.
//
// Two suites are supported:
//   - AES-256-GCM: FIPS-approved, hardware-accelerated on modern CPUs
//   - ChaCha20-Poly1305: constant-time in software, fast without AES-NI
//
// Both use 256-bit keys, 96-bit nonces, and 128-bit authentication tags.
//
// CRITICAL: nonce reuse under one key completely breaks both suites.
// Nonce management lives in pkg/channel, which derives each nonce from a
// direction label and a per-direction counter so that no (key, nonce)
// pair ever repeats within a channel.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
)

// NewAEAD creates the AEAD for the given cipher suite and 32-byte key.
// The key slice is used directly; callers wipe their copy after the
// cipher is constructed.
func NewAEAD(suite constants.CipherSuite, key []byte) (cipher.AEAD, error) {
	if len(key) != constants.AEADKeySize {
		return nil, aerrors.ErrInvalidKeySize
	}

	switch suite {
	case constants.CipherSuiteAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, aerrors.NewCryptoError("NewAEAD", err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, aerrors.NewCryptoError("NewAEAD", err)
		}
		return aead, nil

	case constants.CipherSuiteChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, aerrors.NewCryptoError("NewAEAD", err)
		}
		return aead, nil

	default:
		return nil, aerrors.ErrUnsupportedCipherSuite
	}
}
