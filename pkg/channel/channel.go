// channel.go ties the handshake and the record streams together behind
// an io.ReadWriteCloser.
package channel

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
	"github.com/aegis-flow/aegis-go/pkg/crypto"
)

// nextChannelID hands out process-unique channel identifiers.
var nextChannelID atomic.Uint64

// Channel is an established secure channel over a net.Conn. It
// implements io.ReadWriteCloser: writes are sealed into records and
// reads return the peer's decrypted byte stream.
//
// Channel is safe for one concurrent reader and one concurrent writer.
// The session key, cipher suite, and KEM variant are fixed for the
// channel's lifetime; to change any of them, establish a new channel.
type Channel struct {
	id       uint64
	conn     net.Conn
	writer   *streamWriter
	reader   *streamReader
	observer Observer
	suite    constants.CipherSuite
	variant  crypto.KEMVariant
	binding  []byte

	closeOnce sync.Once
	closeErr  error
}

// Client establishes a channel over conn as the handshake initiator.
// On failure the connection is left open; the caller owns it.
func Client(ctx context.Context, conn net.Conn, cfg Config) (*Channel, error) {
	return establish(ctx, conn, RoleInitiator, cfg)
}

// Server establishes a channel over conn as the handshake responder.
// On failure the connection is left open; the caller owns it.
func Server(ctx context.Context, conn net.Conn, cfg Config) (*Channel, error) {
	return establish(ctx, conn, RoleResponder, cfg)
}

// Dial connects to addr and establishes a channel as initiator. On any
// failure the underlying connection is closed.
func Dial(ctx context.Context, network, addr string, cfg Config) (*Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	ch, err := Client(ctx, conn, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ch, nil
}

func establish(ctx context.Context, conn net.Conn, role Role, cfg Config) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result, err := runHandshake(ctx, conn, role, cfg)
	if err != nil {
		return nil, err
	}

	key, err := result.sessionKey.Consume()
	if err != nil {
		return nil, aerrors.NewCryptoError("channel.establish", err)
	}
	defer crypto.Zeroize(key)

	sendAEAD, err := crypto.NewAEAD(cfg.CipherSuite, key)
	if err != nil {
		return nil, err
	}
	recvAEAD, err := crypto.NewAEAD(cfg.CipherSuite, key)
	if err != nil {
		return nil, err
	}

	ch := &Channel{
		id:       nextChannelID.Add(1),
		conn:     conn,
		writer:   newStreamWriter(conn, sendAEAD, result.sendDir, cfg.ChunkSize, cfg.Observer),
		reader:   newStreamReader(conn, recvAEAD, result.recvDir, cfg.Observer),
		observer: cfg.Observer,
		suite:    cfg.CipherSuite,
		variant:  cfg.KEMVariant,
		binding:  result.binding,
	}

	ch.observer.OnChannelEstablished(ch.id)
	return ch, nil
}

// ID returns the process-unique identifier of this channel.
func (c *Channel) ID() uint64 {
	return c.id
}

// BindingID returns the public channel binding identifier. Both ends of
// a channel hold the same value; it is derived from the handshake
// transcript only and carries no key material.
func (c *Channel) BindingID() []byte {
	out := make([]byte, len(c.binding))
	copy(out, c.binding)
	return out
}

// Fingerprint returns a short hex fingerprint of the channel binding for
// out-of-band comparison, for example "3f9c2a1b8de04477".
func (c *Channel) Fingerprint() string {
	fp, err := crypto.DeriveKey(constants.FingerprintLabel, c.binding, 8)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(fp)
}

// AlgorithmName describes the channel's key exchange and cipher suite,
// for example "X25519-ML-KEM-768-Hybrid/ChaCha20-Poly1305". Intended
// for logs and diagnostics.
func (c *Channel) AlgorithmName() string {
	return fmt.Sprintf("X25519-%s-Hybrid/%s", c.variant, c.suite)
}

// Read returns decrypted bytes from the peer.
func (c *Channel) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

// Write seals p into records and sends them.
func (c *Channel) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}

// Close shuts down both record streams and the underlying connection.
// Safe to call multiple times.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.writer.close()
		c.reader.close()
		c.closeErr = c.conn.Close()
		c.observer.OnChannelClosed(c.id)
	})
	return c.closeErr
}

// SendSequence returns the next record sequence number for the send
// direction. Intended for diagnostics.
func (c *Channel) SendSequence() uint64 {
	return c.writer.Sequence()
}

// RecvSequence returns the next expected sequence number for the
// receive direction. Intended for diagnostics.
func (c *Channel) RecvSequence() uint64 {
	return c.reader.Sequence()
}

// LocalAddr returns the local address of the underlying connection.
func (c *Channel) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote address of the underlying connection.
func (c *Channel) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
