// kem.go wraps CIRCL key encapsulation mechanisms behind a small variant
// registry.
//
// ML-KEM (Module-Lattice-based Key-Encapsulation Mechanism) is standardized
// in NIST FIPS 203. Its security rests on the Module Learning With Errors
// (MLWE) problem, believed hard for both classical and quantum adversaries.
//
// ML-KEM-768 targets NIST Category 3 and is the default; ML-KEM-1024
// targets Category 5. The pre-standard Kyber round-3 variants are kept only
// so that historical configuration values still decode; they are refused
// for new channels.
//
// Decapsulation is IND-CCA2 secure via the Fujisaki-Okamoto transform with
// implicit rejection: a well-formed but corrupted ciphertext decapsulates to
// an unpredictable value rather than an error, and the mismatch surfaces
// later as an authentication failure on the channel.
package crypto

import (
	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
)

// KEMVariant identifies a post-quantum KEM parameter set.
type KEMVariant uint16

const (
	// KEMMLKEM768 is ML-KEM-768 (FIPS 203, NIST Category 3). Default.
	KEMMLKEM768 KEMVariant = 0x0001

	// KEMMLKEM1024 is ML-KEM-1024 (FIPS 203, NIST Category 5)
	KEMMLKEM1024 KEMVariant = 0x0002

	// KEMKyber768 is pre-standard Kyber round 3.
	//
	// Deprecated: decodes historical configuration only. Refused for new
	// channels; use KEMMLKEM768.
	KEMKyber768 KEMVariant = 0x0101

	// KEMKyber1024 is pre-standard Kyber round 3.
	//
	// Deprecated: decodes historical configuration only. Refused for new
	// channels; use KEMMLKEM1024.
	KEMKyber1024 KEMVariant = 0x0102
)

// String returns a human-readable name for the KEM variant
func (v KEMVariant) String() string {
	switch v {
	case KEMMLKEM768:
		return "ML-KEM-768"
	case KEMMLKEM1024:
		return "ML-KEM-1024"
	case KEMKyber768:
		return "Kyber768"
	case KEMKyber1024:
		return "Kyber1024"
	default:
		return "Unknown"
	}
}

// IsSupported reports whether the variant may be used for new channels.
// Deprecated Kyber variants decode but are not supported.
func (v KEMVariant) IsSupported() bool {
	return v == KEMMLKEM768 || v == KEMMLKEM1024
}

// IsDeprecated reports whether the variant is a recognized historical
// value that new channels must refuse.
func (v KEMVariant) IsDeprecated() bool {
	return v == KEMKyber768 || v == KEMKyber1024
}

// scheme maps a variant to its CIRCL implementation.
func (v KEMVariant) scheme() kem.Scheme {
	switch v {
	case KEMMLKEM768:
		return mlkem768.Scheme()
	case KEMMLKEM1024:
		return mlkem1024.Scheme()
	case KEMKyber768:
		return kyber768.Scheme()
	case KEMKyber1024:
		return kyber1024.Scheme()
	default:
		return nil
	}
}

// PublicKeySize returns the encoded public key size for the variant,
// or 0 for unknown variants.
func (v KEMVariant) PublicKeySize() int {
	s := v.scheme()
	if s == nil {
		return 0
	}
	return s.PublicKeySize()
}

// CiphertextSize returns the encapsulation ciphertext size for the variant,
// or 0 for unknown variants.
func (v KEMVariant) CiphertextSize() int {
	s := v.scheme()
	if s == nil {
		return 0
	}
	return s.CiphertextSize()
}

// SharedKeySize returns the shared secret size for the variant,
// or 0 for unknown variants.
func (v KEMVariant) SharedKeySize() int {
	s := v.scheme()
	if s == nil {
		return 0
	}
	return s.SharedKeySize()
}

// KEMKeyPair holds a post-quantum encapsulation/decapsulation key pair.
type KEMKeyPair struct {
	variant    KEMVariant
	publicKey  kem.PublicKey
	privateKey kem.PrivateKey
}

// GenerateKEMKeyPair generates a fresh key pair for the given variant.
// Deprecated variants are refused.
func GenerateKEMKeyPair(variant KEMVariant) (*KEMKeyPair, error) {
	if !variant.IsSupported() {
		return nil, aerrors.ErrUnsupportedVariant
	}

	pk, sk, err := variant.scheme().GenerateKeyPair()
	if err != nil {
		return nil, aerrors.NewCryptoError("KEMKeyPair.Generate", aerrors.ErrKeyGenerationFailed)
	}

	return &KEMKeyPair{
		variant:    variant,
		publicKey:  pk,
		privateKey: sk,
	}, nil
}

// Variant returns the key pair's parameter set.
func (kp *KEMKeyPair) Variant() KEMVariant {
	return kp.variant
}

// PublicKeyBytes returns the encoded encapsulation key.
func (kp *KEMKeyPair) PublicKeyBytes() []byte {
	buf, err := kp.publicKey.MarshalBinary()
	if err != nil {
		return nil
	}
	return buf
}

// Decapsulate recovers the shared secret from a ciphertext.
//
// Length is the only ciphertext property checked here: a wrong-length
// ciphertext fails with ErrInvalidCiphertext, while a correct-length but
// corrupted ciphertext decapsulates to an unrelated secret (implicit
// rejection, see package comment).
func (kp *KEMKeyPair) Decapsulate(ciphertext []byte) (*Secret, error) {
	if kp.privateKey == nil {
		return nil, aerrors.ErrSecretConsumed
	}
	if len(ciphertext) != kp.variant.CiphertextSize() {
		return nil, aerrors.ErrInvalidCiphertext
	}

	ss, err := kp.variant.scheme().Decapsulate(kp.privateKey, ciphertext)
	if err != nil {
		return nil, aerrors.NewCryptoError("KEM.Decapsulate", aerrors.ErrInvalidCiphertext)
	}

	return NewSecret(ss), nil
}

// Wipe drops the decapsulation key.
//
// Note: CIRCL does not expose key zeroization, so dropping the reference
// is the best available erasure.
func (kp *KEMKeyPair) Wipe() {
	kp.privateKey = nil
}

// Encapsulate generates a fresh shared secret for the peer public key and
// the ciphertext that transports it.
//
// A peer key of the wrong length or with an invalid encoding fails with
// ErrInvalidPeerKey before any secret-dependent work.
func Encapsulate(variant KEMVariant, peerPublic []byte) (ciphertext []byte, shared *Secret, err error) {
	if !variant.IsSupported() {
		return nil, nil, aerrors.ErrUnsupportedVariant
	}

	s := variant.scheme()
	if len(peerPublic) != s.PublicKeySize() {
		return nil, nil, aerrors.ErrInvalidPeerKey
	}

	pk, err := s.UnmarshalBinaryPublicKey(peerPublic)
	if err != nil {
		return nil, nil, aerrors.NewCryptoError("KEM.ParsePeer", aerrors.ErrInvalidPeerKey)
	}

	ct, ss, err := s.Encapsulate(pk)
	if err != nil {
		return nil, nil, aerrors.NewCryptoError("KEM.Encapsulate", aerrors.ErrEncapsulationFailed)
	}

	return ct, NewSecret(ss), nil
}

// ParseVariant converts a wire or configuration value into a KEMVariant.
// Unknown values fail with ErrUnsupportedVariant; recognized but
// deprecated values parse so that callers can warn or refuse them.
func ParseVariant(value uint16) (KEMVariant, error) {
	v := KEMVariant(value)
	if v.scheme() == nil {
		return 0, aerrors.ErrUnsupportedVariant
	}
	return v, nil
}
