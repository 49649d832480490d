// handshake.go implements the hybrid key exchange state machine.
//
// Handshake Protocol:
//
//	Initiator                              Responder
//	    |                                      |
//	    | -------- KeyShare -----------------> |
//	    |   - version, suite, kem variant      |
//	    |   - X25519 public key                |
//	    |   - KEM encapsulation key            |
//	    |                                      |
//	    | <------- KeyConfirm ---------------- |
//	    |   - version, suite, kem variant      |
//	    |   - X25519 public key                |
//	    |   - KEM ciphertext                   |
//	    |                                      |
//	    |   [Both derive the session key]      |
//	    |                                      |
//	    |    === Channel Established ===       |
//
// Security Properties:
//   - Forward secrecy: both sides use fresh ephemeral keys per handshake
//   - Quantum resistance: session key depends on the ML-KEM secret
//   - No downgrade: both secrets always feed the combiner; suite and
//     variant must match the local configuration exactly
//
// There is no negotiation. The responder refuses any suite or variant
// other than its own, so a tampered offer fails the handshake instead of
// weakening it.
package channel

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
	"github.com/aegis-flow/aegis-go/pkg/crypto"
	"github.com/aegis-flow/aegis-go/pkg/hybrid"
)

// HandshakeState represents the current state of the handshake.
type HandshakeState int

const (
	HandshakeStateInit HandshakeState = iota
	HandshakeStateKeysReady
	HandshakeStateAwaitingPeer
	HandshakeStateEncapsulating
	HandshakeStateDecapsulating
	HandshakeStateComplete
	HandshakeStateFailed
)

// String returns a human-readable state name.
func (s HandshakeState) String() string {
	switch s {
	case HandshakeStateInit:
		return "Init"
	case HandshakeStateKeysReady:
		return "KeysReady"
	case HandshakeStateAwaitingPeer:
		return "AwaitingPeer"
	case HandshakeStateEncapsulating:
		return "Encapsulating"
	case HandshakeStateDecapsulating:
		return "Decapsulating"
	case HandshakeStateComplete:
		return "Complete"
	case HandshakeStateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Role identifies which side of the handshake a party plays.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

// handshakeResult carries the derived session key, the direction labels
// for the two record streams, and the public channel binding identifier.
type handshakeResult struct {
	sessionKey *crypto.Secret
	binding    []byte
	sendDir    byte
	recvDir    byte
}

// channelBinding derives the public binding identifier from the two
// handshake messages. Unlike the session key it carries no secret input,
// so it is safe to log and to compare out of band.
func channelBinding(keyShare, keyConfirm []byte) ([]byte, error) {
	return crypto.DeriveKeyMultiple(constants.ChannelBindingLabel,
		[][]byte{keyShare, keyConfirm}, constants.ChannelBindingSize)
}

// handshake tracks one key exchange in progress.
type handshake struct {
	role    Role
	config  Config
	state   HandshakeState
	classic *crypto.X25519KeyPair
	pq      *crypto.KEMKeyPair
}

// advance moves the state machine strictly forward. Revisiting the
// current or an earlier state is a bug and fails the handshake.
func (h *handshake) advance(next HandshakeState) error {
	if next <= h.state {
		return h.fail("state transition", aerrors.ErrInvalidState)
	}
	h.state = next
	return nil
}

// fail records a terminal failure and wipes any generated key material.
func (h *handshake) fail(phase string, err error) error {
	h.state = HandshakeStateFailed
	if h.classic != nil {
		h.classic.Wipe()
		h.classic = nil
	}
	if h.pq != nil {
		h.pq.Wipe()
		h.pq = nil
	}
	return aerrors.NewHandshakeError(phase, err)
}

// generateKeys moves Init -> KeysReady by creating both ephemeral key
// pairs. The responder's KEM pair is never generated; it only
// encapsulates against the initiator's key.
func (h *handshake) generateKeys() error {
	if h.state != HandshakeStateInit {
		return h.fail("keygen", aerrors.ErrInvalidState)
	}

	classic, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return h.fail("keygen", err)
	}
	h.classic = classic

	if h.role == RoleInitiator {
		pq, err := crypto.GenerateKEMKeyPair(h.config.KEMVariant)
		if err != nil {
			return h.fail("keygen", err)
		}
		h.pq = pq
	}

	return h.advance(HandshakeStateKeysReady)
}

// --- Wire format ---
//
// Every handshake message travels as [4-byte big-endian length][body].
// Both bodies share a fixed header:
//
//	version(2) || suite(2) || variant(2) || x25519_public(32) || tail
//
// The tail is the KEM encapsulation key in the initiator's KeyShare and
// the KEM ciphertext in the responder's KeyConfirm.

const handshakeHeaderSize = 2 + 2 + 2 + constants.X25519PublicKeySize

func encodeHandshakeBody(suite constants.CipherSuite, variant crypto.KEMVariant, classicalPub, tail []byte) []byte {
	body := make([]byte, 0, handshakeHeaderSize+len(tail))
	body = binary.BigEndian.AppendUint16(body, constants.ProtocolVersion)
	body = binary.BigEndian.AppendUint16(body, uint16(suite))
	body = binary.BigEndian.AppendUint16(body, uint16(variant))
	body = append(body, classicalPub...)
	body = append(body, tail...)
	return body
}

// decodeHandshakeBody validates the header against the local
// configuration and returns the classical public key and the tail.
// Tail length is NOT checked here; the caller knows the expected size
// for its message type.
func decodeHandshakeBody(cfg Config, body []byte) (classicalPub, tail []byte, err error) {
	if len(body) < handshakeHeaderSize {
		return nil, nil, aerrors.ErrInvalidMessage
	}

	version := binary.BigEndian.Uint16(body[0:2])
	suite := constants.CipherSuite(binary.BigEndian.Uint16(body[2:4]))

	if version != constants.ProtocolVersion {
		return nil, nil, aerrors.ErrInvalidMessage
	}
	if suite != cfg.CipherSuite {
		return nil, nil, aerrors.ErrUnsupportedCipherSuite
	}
	variant, err := crypto.ParseVariant(binary.BigEndian.Uint16(body[4:6]))
	if err != nil {
		return nil, nil, err
	}
	if variant != cfg.KEMVariant {
		return nil, nil, aerrors.ErrUnsupportedVariant
	}

	classicalPub = body[6:handshakeHeaderSize]
	tail = body[handshakeHeaderSize:]
	return classicalPub, tail, nil
}

// writeHandshakeMessage writes [4-byte big-endian length][body].
func writeHandshakeMessage(w io.Writer, body []byte) error {
	buf := make([]byte, 0, constants.FrameLengthPrefixSize+len(body))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(body)))
	buf = append(buf, body...)
	_, err := w.Write(buf)
	return err
}

// readHandshakeMessage reads one length-prefixed handshake message.
func readHandshakeMessage(r io.Reader) ([]byte, error) {
	lenBuf := make([]byte, constants.FrameLengthPrefixSize)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf)

	if length > constants.HandshakeMessageLimit {
		return nil, aerrors.ErrInvalidMessage
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// --- Initiator ---

// initiatorHandshake performs the complete key exchange as initiator.
func initiatorHandshake(conn io.ReadWriter, cfg Config) (*handshakeResult, error) {
	h := &handshake{role: RoleInitiator, config: cfg}

	if err := h.generateKeys(); err != nil {
		return nil, err
	}

	// KeyShare
	keyShare := encodeHandshakeBody(cfg.CipherSuite, cfg.KEMVariant,
		h.classic.PublicKeyBytes(), h.pq.PublicKeyBytes())
	if err := writeHandshakeMessage(conn, keyShare); err != nil {
		return nil, h.fail("send key share", err)
	}
	if err := h.advance(HandshakeStateAwaitingPeer); err != nil {
		return nil, err
	}

	// KeyConfirm
	keyConfirm, err := readHandshakeMessage(conn)
	if err != nil {
		return nil, h.fail("read key confirm", err)
	}

	peerClassical, pqCiphertext, err := decodeHandshakeBody(cfg, keyConfirm)
	if err != nil {
		return nil, h.fail("decode key confirm", err)
	}

	if err := h.advance(HandshakeStateDecapsulating); err != nil {
		return nil, err
	}
	if len(pqCiphertext) != cfg.KEMVariant.CiphertextSize() {
		return nil, h.fail("decapsulate", aerrors.ErrInvalidCiphertext)
	}
	pqShared, err := h.pq.Decapsulate(pqCiphertext)
	if err != nil {
		return nil, h.fail("decapsulate", err)
	}

	classicalShared, err := h.classic.SharedSecret(peerClassical)
	if err != nil {
		pqShared.Wipe()
		return nil, h.fail("classical exchange", err)
	}

	transcript := crypto.TranscriptHash(keyShare, keyConfirm)
	sessionKey, err := hybrid.Derive(classicalShared, pqShared, transcript)
	if err != nil {
		return nil, h.fail("derive", err)
	}

	binding, err := channelBinding(keyShare, keyConfirm)
	if err != nil {
		sessionKey.Wipe()
		return nil, h.fail("channel binding", err)
	}

	h.pq.Wipe()
	if err := h.advance(HandshakeStateComplete); err != nil {
		sessionKey.Wipe()
		return nil, err
	}

	return &handshakeResult{
		sessionKey: sessionKey,
		binding:    binding,
		sendDir:    constants.DirectionInitiator,
		recvDir:    constants.DirectionResponder,
	}, nil
}

// --- Responder ---

// responderHandshake performs the complete key exchange as responder.
// The responder's ephemeral keys are independent of the peer's offer, so
// they are generated up front and the state machine only moves forward.
func responderHandshake(conn io.ReadWriter, cfg Config) (*handshakeResult, error) {
	h := &handshake{role: RoleResponder, config: cfg}

	if err := h.generateKeys(); err != nil {
		return nil, err
	}
	if err := h.advance(HandshakeStateAwaitingPeer); err != nil {
		return nil, err
	}

	// KeyShare
	keyShare, err := readHandshakeMessage(conn)
	if err != nil {
		return nil, h.fail("read key share", err)
	}

	peerClassical, peerPQPublic, err := decodeHandshakeBody(cfg, keyShare)
	if err != nil {
		return nil, h.fail("decode key share", err)
	}

	// A truncated or padded encapsulation key is detectable here because
	// the body length is bound by the frame.
	if len(peerPQPublic) != cfg.KEMVariant.PublicKeySize() {
		return nil, h.fail("decode key share", aerrors.ErrInvalidPeerKey)
	}
	if err := crypto.ValidateX25519PublicKey(peerClassical); err != nil {
		return nil, h.fail("decode key share", err)
	}

	if err := h.advance(HandshakeStateEncapsulating); err != nil {
		return nil, err
	}
	pqCiphertext, pqShared, err := crypto.Encapsulate(cfg.KEMVariant, peerPQPublic)
	if err != nil {
		return nil, h.fail("encapsulate", err)
	}

	keyConfirm := encodeHandshakeBody(cfg.CipherSuite, cfg.KEMVariant,
		h.classic.PublicKeyBytes(), pqCiphertext)

	classicalShared, err := h.classic.SharedSecret(peerClassical)
	if err != nil {
		pqShared.Wipe()
		return nil, h.fail("classical exchange", err)
	}

	transcript := crypto.TranscriptHash(keyShare, keyConfirm)
	sessionKey, err := hybrid.Derive(classicalShared, pqShared, transcript)
	if err != nil {
		return nil, h.fail("derive", err)
	}

	binding, err := channelBinding(keyShare, keyConfirm)
	if err != nil {
		sessionKey.Wipe()
		return nil, h.fail("channel binding", err)
	}

	if err := writeHandshakeMessage(conn, keyConfirm); err != nil {
		sessionKey.Wipe()
		return nil, h.fail("send key confirm", err)
	}

	if err := h.advance(HandshakeStateComplete); err != nil {
		sessionKey.Wipe()
		return nil, err
	}

	return &handshakeResult{
		sessionKey: sessionKey,
		binding:    binding,
		sendDir:    constants.DirectionResponder,
		recvDir:    constants.DirectionInitiator,
	}, nil
}

// runHandshake applies the deadline from ctx and cfg, runs the key
// exchange for the given role, and normalizes timeout errors to
// ErrHandshakeTimeout.
func runHandshake(ctx context.Context, conn net.Conn, role Role, cfg Config) (*handshakeResult, error) {
	ctx, done := cfg.Observer.OnHandshakeStart(ctx)

	deadline := time.Now().Add(cfg.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		done(err)
		return nil, aerrors.NewHandshakeError("set deadline", err)
	}

	// Cancellation without a deadline must still interrupt the exchange:
	// force the connection deadline into the past when ctx fires.
	stop := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			_ = conn.SetDeadline(time.Unix(1, 0))
		case <-stop:
		}
	}()

	var result *handshakeResult
	var err error
	if role == RoleInitiator {
		result, err = initiatorHandshake(conn, cfg)
	} else {
		result, err = responderHandshake(conn, cfg)
	}

	close(stop)
	<-watcherDone

	// Clear the handshake deadline; record I/O manages its own.
	_ = conn.SetDeadline(time.Time{})

	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			err = aerrors.NewHandshakeError("exchange", ctx.Err())
		case isTimeout(err):
			err = aerrors.NewHandshakeError("exchange", aerrors.ErrHandshakeTimeout)
		}
		done(err)
		return nil, err
	}

	done(nil)
	return result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
