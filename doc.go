// Package aegisgo provides a hybrid post-quantum secure channel for the
// Aegis-Flow proxy.
//
// The channel combines X25519 classical key exchange with an ML-KEM
// post-quantum key encapsulation mechanism, derives a single 32-byte session
// key from both secrets, and frames application bytes into authenticated
// encrypted records over any duplex byte transport.
//
// # Quick Start
//
// For a complete secure channel over TCP:
//
//	import "github.com/aegis-flow/aegis-go/pkg/channel"
//
//	// Server. The zero Config selects ML-KEM-768 with ChaCha20-Poly1305.
//	ln, _ := net.Listen("tcp", ":8443")
//	conn, _ := ln.Accept()
//	ch, _ := channel.Server(ctx, conn, channel.Config{})
//	buf := make([]byte, 4096)
//	n, _ := ch.Read(buf)
//
//	// Client
//	ch, _ := channel.Dial(ctx, "tcp", "localhost:8443", channel.Config{})
//	ch.Write([]byte("Hello!"))
//
// For the low-level primitives:
//
//	import (
//		"github.com/aegis-flow/aegis-go/pkg/crypto"
//		"github.com/aegis-flow/aegis-go/pkg/hybrid"
//	)
//
//	kp, _ := crypto.GenerateKEMKeyPair(crypto.KEMMLKEM768)
//	ct, ss, _ := crypto.Encapsulate(crypto.KEMMLKEM768, kp.PublicKeyBytes())
//
// # Package Structure
//
//   - pkg/channel: handshake state machine and encrypted record stream
//   - pkg/hybrid: mandatory-hybrid session key derivation
//   - pkg/crypto: X25519, ML-KEM, KDF, and AEAD primitives
//   - pkg/config: YAML configuration surface for the surrounding proxy
//   - pkg/metrics: logging, tracing, and channel counters
//   - internal/constants: protocol parameters and domain-separation labels
//   - internal/errors: typed error taxonomy
//
// # Security Properties
//
//   - Hybrid guarantee: the session key is only ever derived from BOTH the
//     classical and the post-quantum secret; there is no single-algorithm path
//   - Forward secrecy: all key material is ephemeral, one handshake per channel
//   - Authenticated encryption: AES-256-GCM or ChaCha20-Poly1305, fixed per
//     channel
//   - Strict ordering: frames carry a monotone sequence number checked against
//     the receiver's counter; any mismatch or tamper closes the channel
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
//   - RFC 7748: Elliptic Curves for Security
//   - RFC 5869: HMAC-based Extract-and-Expand Key Derivation Function
package aegisgo
