// stream.go implements the encrypted record layer.
//
// Record format:
//
//	[4-byte big-endian length][8-byte big-endian sequence][ciphertext || tag]
//
// The length covers the sequence and the ciphertext. The sequence number
// is authenticated as associated data, and doubles as the nonce counter:
//
//	nonce[0]    = direction label
//	nonce[1:4]  = zero
//	nonce[4:12] = big-endian sequence
//
// The session key is shared by both directions, so the direction byte in
// the nonce is what keeps the two record streams from ever sealing under
// the same (key, nonce) pair. Counters start at zero in each direction
// and increment by exactly one per record; the nonce itself never
// travels on the wire.
//
// A receiver accepts a record only at the exact expected sequence. A
// repeated, reordered, or dropped record fails with ErrSequenceViolation
// before any decryption happens; a tampered record fails authentication.
// Either failure poisons the stream permanently.
package channel

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
)

// recordNonce builds the deterministic nonce for one record.
func recordNonce(dir byte, seq uint64) []byte {
	nonce := make([]byte, constants.AEADNonceSize)
	nonce[0] = dir
	binary.BigEndian.PutUint64(nonce[4:], seq)
	return nonce
}

// streamWriter seals plaintext into records for one direction.
type streamWriter struct {
	mu       sync.Mutex
	w        io.Writer
	aead     cipher.AEAD
	dir      byte
	seq      uint64
	chunk    int
	observer Observer
	err      error // sticky: set once, every later call fails with it
}

func newStreamWriter(w io.Writer, aead cipher.AEAD, dir byte, chunk int, obs Observer) *streamWriter {
	return &streamWriter{w: w, aead: aead, dir: dir, chunk: chunk, observer: obs}
}

// Write seals p into one or more records. Writes larger than the chunk
// size are split; the record boundaries are not visible to the reader's
// byte stream.
func (sw *streamWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.err != nil {
		return 0, sw.err
	}

	written := 0
	for len(p) > 0 {
		n := len(p)
		if n > sw.chunk {
			n = sw.chunk
		}
		if err := sw.sealRecord(p[:n]); err != nil {
			return written, err
		}
		written += n
		p = p[n:]
	}
	return written, nil
}

// sealRecord seals one chunk under the next sequence number and writes
// the framed record. Callers hold sw.mu.
func (sw *streamWriter) sealRecord(plaintext []byte) error {
	// The final sequence value is reserved so that seq never wraps.
	if sw.seq == math.MaxUint64 {
		sw.err = aerrors.ErrNonceExhausted
		sw.observer.OnSeal(len(plaintext), sw.err)
		return sw.err
	}

	seqBuf := make([]byte, constants.FrameSequenceSize)
	binary.BigEndian.PutUint64(seqBuf, sw.seq)
	nonce := recordNonce(sw.dir, sw.seq)

	bodyLen := constants.FrameSequenceSize + len(plaintext) + sw.aead.Overhead()
	frame := make([]byte, 0, constants.FrameLengthPrefixSize+bodyLen)
	frame = binary.BigEndian.AppendUint32(frame, uint32(bodyLen))
	frame = append(frame, seqBuf...)
	frame = sw.aead.Seal(frame, nonce, plaintext, seqBuf)

	if _, err := sw.w.Write(frame); err != nil {
		sw.err = err
		sw.observer.OnSeal(len(plaintext), err)
		return err
	}

	sw.seq++
	sw.observer.OnSeal(len(plaintext), nil)
	return nil
}

// Sequence returns the next sequence number to be used.
func (sw *streamWriter) Sequence() uint64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.seq
}

// close makes further writes fail with ErrChannelClosed.
func (sw *streamWriter) close() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.err == nil {
		sw.err = aerrors.ErrChannelClosed
	}
}

// streamReader opens records for one direction and serves the recovered
// plaintext as a byte stream.
type streamReader struct {
	mu       sync.Mutex
	r        io.Reader
	aead     cipher.AEAD
	dir      byte
	expected uint64
	observer Observer
	buf      []byte // plaintext not yet consumed by Read
	err      error  // sticky
}

func newStreamReader(r io.Reader, aead cipher.AEAD, dir byte, obs Observer) *streamReader {
	return &streamReader{r: r, aead: aead, dir: dir, observer: obs}
}

// Read returns decrypted bytes, pulling and opening the next record when
// the buffer is empty. After any authentication or sequence failure the
// stream is poisoned: every subsequent Read fails with the same error.
func (sr *streamReader) Read(p []byte) (int, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	for len(sr.buf) == 0 {
		if sr.err != nil {
			return 0, sr.err
		}
		if err := sr.readRecord(); err != nil {
			return 0, err
		}
	}

	n := copy(p, sr.buf)
	sr.buf = sr.buf[n:]
	return n, nil
}

// readRecord reads, validates, and opens exactly one record into sr.buf.
// Callers hold sr.mu.
func (sr *streamReader) readRecord() error {
	lenBuf := make([]byte, constants.FrameLengthPrefixSize)
	if _, err := io.ReadFull(sr.r, lenBuf); err != nil {
		sr.err = err
		return err
	}
	bodyLen := binary.BigEndian.Uint32(lenBuf)

	if bodyLen > constants.MaxFrameSize {
		return sr.poison(aerrors.ErrFrameTooLarge)
	}
	if bodyLen < constants.FrameSequenceSize+uint32(sr.aead.Overhead()) {
		return sr.poison(aerrors.ErrFrameTooShort)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(sr.r, body); err != nil {
		sr.err = err
		return err
	}

	seqBuf := body[:constants.FrameSequenceSize]
	ciphertext := body[constants.FrameSequenceSize:]
	seq := binary.BigEndian.Uint64(seqBuf)

	if seq != sr.expected {
		sr.observer.OnSequenceViolation()
		return sr.poison(aerrors.ErrSequenceViolation)
	}

	nonce := recordNonce(sr.dir, seq)
	plaintext, err := sr.aead.Open(nil, nonce, ciphertext, seqBuf)
	if err != nil {
		sr.observer.OnAuthFailure()
		return sr.poison(aerrors.ErrAuthenticationFailed)
	}

	sr.expected++
	sr.buf = plaintext
	sr.observer.OnOpen(len(ciphertext), nil)
	return nil
}

// poison records a terminal stream failure. The stored error carries
// both the cause and ErrStreamPoisoned, so callers can match either.
func (sr *streamReader) poison(err error) error {
	sr.err = fmt.Errorf("%w: %w", err, aerrors.ErrStreamPoisoned)
	sr.observer.OnOpen(0, err)
	return sr.err
}

// Sequence returns the next expected sequence number.
func (sr *streamReader) Sequence() uint64 {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.expected
}

// close makes further reads fail with ErrChannelClosed once the buffered
// plaintext is drained. An existing poison error is preserved.
func (sr *streamReader) close() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.err == nil {
		sr.err = aerrors.ErrChannelClosed
	}
}
