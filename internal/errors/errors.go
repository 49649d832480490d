// Package errors defines custom error types for the Aegis-Flow hybrid
// secure channel. These errors provide detailed information for debugging
// while maintaining security by not leaking sensitive information in
// error messages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for key exchange operations
var (
	// ErrInvalidPeerKey indicates peer key material failed validation
	ErrInvalidPeerKey = errors.New("kex: invalid peer key")

	// ErrInvalidCiphertext indicates a KEM ciphertext is malformed or invalid
	ErrInvalidCiphertext = errors.New("kex: invalid ciphertext")

	// ErrCombinerMismatch indicates hybrid key combination produced
	// inconsistent output
	ErrCombinerMismatch = errors.New("kex: combiner mismatch")

	// ErrKeyGenerationFailed indicates key generation failed
	ErrKeyGenerationFailed = errors.New("kex: key generation failed")

	// ErrEncapsulationFailed indicates KEM encapsulation failed
	ErrEncapsulationFailed = errors.New("kex: encapsulation failed")

	// ErrInvalidKeySize indicates that a key has an incorrect size
	ErrInvalidKeySize = errors.New("kex: invalid key size")

	// ErrUnsupportedVariant indicates an unknown or refused KEM variant
	ErrUnsupportedVariant = errors.New("kex: unsupported kem variant")

	// ErrSecretConsumed indicates single-use secret material was reused
	ErrSecretConsumed = errors.New("kex: secret already consumed")
)

// Sentinel errors for record protection
var (
	// ErrAuthenticationFailed indicates AEAD authentication/decryption failed
	ErrAuthenticationFailed = errors.New("stream: authentication failed")

	// ErrSequenceViolation indicates a frame arrived out of sequence
	ErrSequenceViolation = errors.New("stream: sequence violation")

	// ErrFrameTooLarge indicates a frame exceeds the maximum size
	ErrFrameTooLarge = errors.New("stream: frame too large")

	// ErrFrameTooShort indicates a frame is too short to be valid
	ErrFrameTooShort = errors.New("stream: frame too short")

	// ErrNonceExhausted indicates nonce space is exhausted for the
	// current key
	ErrNonceExhausted = errors.New("stream: nonce space exhausted")

	// ErrStreamPoisoned indicates the stream was shut down after a
	// prior authentication or sequence failure
	ErrStreamPoisoned = errors.New("stream: poisoned by earlier failure")
)

// Sentinel errors for handshake and channel operations
var (
	// ErrHandshakeTimeout indicates the handshake did not complete in time
	ErrHandshakeTimeout = errors.New("channel: handshake timeout")

	// ErrInvalidState indicates an operation is illegal in the current
	// handshake state
	ErrInvalidState = errors.New("channel: invalid state")

	// ErrInvalidMessage indicates a handshake message is malformed
	ErrInvalidMessage = errors.New("channel: invalid message")

	// ErrUnsupportedCipherSuite indicates an unsupported cipher suite
	ErrUnsupportedCipherSuite = errors.New("channel: unsupported cipher suite")

	// ErrChannelClosed indicates the channel has been closed
	ErrChannelClosed = errors.New("channel: closed")
)

// CryptoError wraps a cryptographic error with additional context
type CryptoError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// HandshakeError wraps a handshake failure with the phase it occurred in
type HandshakeError struct {
	Phase string // Handshake phase (e.g., "keygen", "encapsulate", "derive")
	Err   error  // Underlying error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake %s: %v", e.Phase, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// NewHandshakeError creates a new HandshakeError
func NewHandshakeError(phase string, err error) *HandshakeError {
	return &HandshakeError{Phase: phase, Err: err}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
