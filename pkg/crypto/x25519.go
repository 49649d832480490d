// x25519.go implements X25519 Elliptic Curve Diffie-Hellman operations.
//
// X25519 (RFC 7748) is an elliptic curve Diffie-Hellman function using
// Curve25519. It provides approximately 128 bits of security against
// classical computers.
//
// Note: X25519 is NOT quantum-resistant. In the hybrid exchange it provides
// defense-in-depth and maintains security if the post-quantum algorithm
// (ML-KEM) is broken.
package crypto

import (
	"crypto/ecdh"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
)

// X25519KeyPair represents an ephemeral X25519 key pair for the classical
// half of the hybrid exchange.
//
// The private key is single-use: SharedSecret consumes it, after which the
// pair can only report its public bytes.
type X25519KeyPair struct {
	publicKey  *ecdh.PublicKey
	privateKey *ecdh.PrivateKey
}

// GenerateX25519KeyPair generates a new ephemeral X25519 key pair.
// Returns error if the system's CSPRNG fails.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	curve := ecdh.X25519()

	privateKey, err := curve.GenerateKey(Reader)
	if err != nil {
		return nil, aerrors.NewCryptoError("X25519KeyPair.Generate", err)
	}

	return &X25519KeyPair{
		publicKey:  privateKey.PublicKey(),
		privateKey: privateKey,
	}, nil
}

// PublicKeyBytes returns the 32-byte encoding of the public key.
func (kp *X25519KeyPair) PublicKeyBytes() []byte {
	return kp.publicKey.Bytes()
}

// SharedSecret computes the X25519 shared secret with the peer's public
// key and consumes the private key. A second call fails with
// ErrSecretConsumed.
//
// The crypto/ecdh implementation rejects low-order peer points, which
// would otherwise force the all-zero shared secret; such peers surface
// as ErrInvalidPeerKey.
//
// Security Note: The result must never be used directly as a key.
// It feeds the hybrid combiner together with the KEM shared secret.
func (kp *X25519KeyPair) SharedSecret(peerPublic []byte) (*Secret, error) {
	if kp.privateKey == nil {
		return nil, aerrors.ErrSecretConsumed
	}
	if len(peerPublic) != constants.X25519PublicKeySize {
		return nil, aerrors.ErrInvalidPeerKey
	}

	curve := ecdh.X25519()
	peer, err := curve.NewPublicKey(peerPublic)
	if err != nil {
		return nil, aerrors.NewCryptoError("X25519.ParsePeer", aerrors.ErrInvalidPeerKey)
	}

	shared, err := kp.privateKey.ECDH(peer)
	kp.privateKey = nil
	if err != nil {
		return nil, aerrors.NewCryptoError("X25519.ECDH", aerrors.ErrInvalidPeerKey)
	}

	return NewSecret(shared), nil
}

// Wipe drops the private key so the pair can no longer derive secrets.
//
// Note: ecdh.PrivateKey does not expose its backing bytes for explicit
// zeroization, so dropping the reference is the best available erasure.
func (kp *X25519KeyPair) Wipe() {
	kp.privateKey = nil
}

// ValidateX25519PublicKey checks that data is a well-formed X25519 public
// key without performing any secret-dependent computation.
func ValidateX25519PublicKey(data []byte) error {
	if len(data) != constants.X25519PublicKeySize {
		return aerrors.ErrInvalidPeerKey
	}
	if _, err := ecdh.X25519().NewPublicKey(data); err != nil {
		return aerrors.NewCryptoError("ValidateX25519PublicKey", aerrors.ErrInvalidPeerKey)
	}
	return nil
}
