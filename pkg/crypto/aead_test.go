package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
)

func TestNewAEADRoundTrip(t *testing.T) {
	for _, suite := range []constants.CipherSuite{
		constants.CipherSuiteAES256GCM,
		constants.CipherSuiteChaCha20Poly1305,
	} {
		t.Run(suite.String(), func(t *testing.T) {
			key, err := SecureRandomBytes(constants.AEADKeySize)
			if err != nil {
				t.Fatalf("SecureRandomBytes() error = %v", err)
			}

			aead, err := NewAEAD(suite, key)
			if err != nil {
				t.Fatalf("NewAEAD() error = %v", err)
			}
			if aead.NonceSize() != constants.AEADNonceSize {
				t.Errorf("nonce size = %d, want %d", aead.NonceSize(), constants.AEADNonceSize)
			}
			if aead.Overhead() != constants.AEADTagSize {
				t.Errorf("overhead = %d, want %d", aead.Overhead(), constants.AEADTagSize)
			}

			nonce := make([]byte, aead.NonceSize())
			plaintext := []byte("record payload")
			aad := []byte{0, 0, 0, 0, 0, 0, 0, 1}

			ct := aead.Seal(nil, nonce, plaintext, aad)
			pt, err := aead.Open(nil, nonce, ct, aad)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(pt, plaintext) {
				t.Error("decrypted plaintext mismatch")
			}

			// Wrong AAD must fail authentication.
			if _, err := aead.Open(nil, nonce, ct, []byte{9}); err == nil {
				t.Error("Open() with wrong AAD should fail")
			}
		})
	}
}

func TestNewAEADRejectsBadKeySize(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33} {
		if _, err := NewAEAD(constants.CipherSuiteAES256GCM, make([]byte, n)); !errors.Is(err, aerrors.ErrInvalidKeySize) {
			t.Errorf("NewAEAD(key len %d) error = %v, want ErrInvalidKeySize", n, err)
		}
	}
}

func TestNewAEADRejectsUnknownSuite(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	if _, err := NewAEAD(constants.CipherSuite(0x7777), key); !errors.Is(err, aerrors.ErrUnsupportedCipherSuite) {
		t.Errorf("NewAEAD(unknown suite) error = %v, want ErrUnsupportedCipherSuite", err)
	}
}

func TestSuitesProduceDifferentCiphertext(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	nonce := make([]byte, constants.AEADNonceSize)
	plaintext := []byte("same input")

	gcm, _ := NewAEAD(constants.CipherSuiteAES256GCM, key)
	chacha, _ := NewAEAD(constants.CipherSuiteChaCha20Poly1305, key)

	if bytes.Equal(gcm.Seal(nil, nonce, plaintext, nil), chacha.Seal(nil, nonce, plaintext, nil)) {
		t.Error("distinct suites should not produce identical ciphertext")
	}
}
