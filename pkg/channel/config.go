// Package channel implements the Aegis-Flow secure channel: a hybrid
// post-quantum key exchange over an unreliable-free ordered transport,
// followed by AEAD record protection with per-direction nonce counters.
package channel

import (
	"time"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
	"github.com/aegis-flow/aegis-go/pkg/crypto"
)

// Config controls channel establishment. The zero value is usable:
// Validate fills in ML-KEM-768, ChaCha20-Poly1305, the default chunk
// size, and the default handshake timeout.
//
// CipherSuite and KEMVariant are fixed for the lifetime of a channel.
// There is no renegotiation.
type Config struct {
	// CipherSuite selects the AEAD for record protection.
	CipherSuite constants.CipherSuite

	// KEMVariant selects the post-quantum parameter set.
	KEMVariant crypto.KEMVariant

	// ChunkSize is the maximum plaintext bytes per record. Larger
	// writes are split. Capped at constants.MaxChunkSize.
	ChunkSize int

	// HandshakeTimeout bounds the full two-message key exchange.
	HandshakeTimeout time.Duration

	// Observer receives lifecycle and record callbacks. Optional.
	Observer Observer
}

// Validate applies defaults and rejects unusable configurations.
// Deprecated KEM variants are refused here: they decode from
// configuration but cannot establish new channels.
func (c *Config) Validate() error {
	if c.CipherSuite == 0 {
		c.CipherSuite = constants.CipherSuiteChaCha20Poly1305
	}
	if !c.CipherSuite.IsSupported() {
		return aerrors.ErrUnsupportedCipherSuite
	}

	if c.KEMVariant == 0 {
		c.KEMVariant = crypto.KEMMLKEM768
	}
	if !c.KEMVariant.IsSupported() {
		return aerrors.ErrUnsupportedVariant
	}

	if c.ChunkSize == 0 {
		c.ChunkSize = constants.DefaultChunkSize
	}
	if c.ChunkSize < 0 || c.ChunkSize > constants.MaxChunkSize {
		return aerrors.ErrFrameTooLarge
	}

	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = constants.DefaultHandshakeTimeoutSeconds * time.Second
	}

	if c.Observer == nil {
		c.Observer = nopObserver{}
	}

	return nil
}
