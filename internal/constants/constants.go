// Package constants defines security parameters and protocol constants for
// the Aegis-Flow hybrid secure channel.
//
// Security target: NIST Category 3 by default (ML-KEM-768 + X25519), with
// ML-KEM-1024 available for Category 5 deployments.
package constants

// Protocol version and identification
const (
	// ProtocolVersion is the current version of the hybrid channel protocol
	ProtocolVersion uint16 = 0x0001

	// ProtocolName is used for domain separation in key derivation
	ProtocolName = "aegis-hybrid-v1"
)

// X25519 Parameters (RFC 7748)
const (
	// X25519PublicKeySize is the size of an X25519 public key in bytes
	X25519PublicKeySize = 32

	// X25519PrivateKeySize is the size of an X25519 private key in bytes
	X25519PrivateKeySize = 32

	// X25519SharedSecretSize is the size of the X25519 shared secret in bytes
	X25519SharedSecretSize = 32
)

// KEM Parameters
//
// Per-variant public key and ciphertext sizes come from the scheme itself
// (see pkg/crypto); only the shared-secret size is uniform.
const (
	// KEMSharedSecretSize is the size of the KEM shared secret in bytes
	KEMSharedSecretSize = 32
)

// Session key derivation
const (
	// SessionKeySize is the size of the derived symmetric session key
	SessionKeySize = 32

	// ChannelBindingSize is the size of the public channel binding
	// identifier derived from the handshake transcript
	ChannelBindingSize = 16

	// KDFSaltLabel is the HKDF salt for session key derivation. Versioned:
	// bump the suffix on any wire- or derivation-incompatible change.
	KDFSaltLabel = "aegis-hybrid-v1 hkdf salt"

	// ChannelBindingLabel separates the public channel binding identifier
	// from every key derivation
	ChannelBindingLabel = "aegis-hybrid-v1 channel binding"

	// FingerprintLabel separates the short human-checkable fingerprint
	// derived from the channel binding
	FingerprintLabel = "aegis-hybrid-v1 fingerprint"

	// SessionKeyLabel is the context label bound into session key derivation
	SessionKeyLabel = "aegis-hybrid-v1 session key"
)

// Symmetric Encryption Parameters
const (
	// AEADKeySize is the size of AES-256 and ChaCha20 keys in bytes
	AEADKeySize = 32

	// AEADNonceSize is the 96-bit nonce size shared by both suites
	AEADNonceSize = 12

	// AEADTagSize is the size of the authentication tag in bytes
	AEADTagSize = 16
)

// Record framing
const (
	// FrameLengthPrefixSize is the byte length of the big-endian frame
	// length prefix
	FrameLengthPrefixSize = 4

	// FrameSequenceSize is the byte length of the explicit frame sequence
	// number
	FrameSequenceSize = 8

	// DefaultChunkSize is the default maximum plaintext bytes per frame
	DefaultChunkSize = 16 * 1024

	// MaxChunkSize caps the configurable per-frame plaintext size
	MaxChunkSize = 64 * 1024

	// MaxFrameSize is the largest on-wire frame body (sequence + ciphertext
	// + tag) a receiver will accept
	MaxFrameSize = FrameSequenceSize + MaxChunkSize + AEADTagSize
)

// Stream direction labels, mixed into the AEAD nonce so that the two
// directions of one channel never seal under the same (key, nonce) pair.
const (
	// DirectionInitiator labels frames sealed by the handshake initiator
	DirectionInitiator byte = 0x00

	// DirectionResponder labels frames sealed by the handshake responder
	DirectionResponder byte = 0x01
)

// Handshake parameters
const (
	// HandshakeMessageLimit bounds a length-prefixed handshake message.
	// The largest legitimate message is X25519 public + ML-KEM-1024 public.
	HandshakeMessageLimit = 8 * 1024

	// DefaultHandshakeTimeoutSeconds bounds the full two-message exchange
	DefaultHandshakeTimeoutSeconds = 10
)

// CipherSuite identifiers
type CipherSuite uint16

const (
	// CipherSuiteAES256GCM uses AES-256-GCM for record protection
	CipherSuiteAES256GCM CipherSuite = 0x0001

	// CipherSuiteChaCha20Poly1305 uses ChaCha20-Poly1305 for record protection
	CipherSuiteChaCha20Poly1305 CipherSuite = 0x0002
)

// String returns a human-readable name for the cipher suite
func (cs CipherSuite) String() string {
	switch cs {
	case CipherSuiteAES256GCM:
		return "AES-256-GCM"
	case CipherSuiteChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// IsSupported returns true if the cipher suite is supported
func (cs CipherSuite) IsSupported() bool {
	return cs == CipherSuiteAES256GCM || cs == CipherSuiteChaCha20Poly1305
}
