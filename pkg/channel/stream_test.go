package channel

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
	"github.com/aegis-flow/aegis-go/pkg/crypto"
)

func testAEAD(t *testing.T) (send, recv cipher.AEAD) {
	t.Helper()
	key := make([]byte, constants.AEADKeySize)
	for i := range key {
		key[i] = byte(i)
	}
	a, err := crypto.NewAEAD(constants.CipherSuiteChaCha20Poly1305, key)
	if err != nil {
		t.Fatalf("NewAEAD() error = %v", err)
	}
	b, err := crypto.NewAEAD(constants.CipherSuiteChaCha20Poly1305, key)
	if err != nil {
		t.Fatalf("NewAEAD() error = %v", err)
	}
	return a, b
}

func testStreams(t *testing.T, buf *bytes.Buffer) (*streamWriter, *streamReader) {
	t.Helper()
	send, recv := testAEAD(t)
	sw := newStreamWriter(buf, send, constants.DirectionInitiator, constants.DefaultChunkSize, nopObserver{})
	sr := newStreamReader(buf, recv, constants.DirectionInitiator, nopObserver{})
	return sw, sr
}

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sw, sr := testStreams(t, &buf)

	messages := [][]byte{
		[]byte("first"),
		[]byte("second record"),
		bytes.Repeat([]byte{0xAB}, 1000),
	}

	for _, msg := range messages {
		if _, err := sw.Write(msg); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	for _, want := range messages {
		got := make([]byte, len(want))
		if _, err := io.ReadFull(sr, got); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Error("decrypted record mismatch")
		}
	}
}

func TestStreamChunksLargeWrites(t *testing.T) {
	var buf bytes.Buffer
	send, recv := testAEAD(t)
	const chunk = 64
	sw := newStreamWriter(&buf, send, constants.DirectionInitiator, chunk, nopObserver{})
	sr := newStreamReader(&buf, recv, constants.DirectionInitiator, nopObserver{})

	payload := bytes.Repeat([]byte{0x5C}, 10*chunk+7)
	n, err := sw.Write(payload)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(payload) {
		t.Errorf("Write() = %d, want %d", n, len(payload))
	}
	if sw.Sequence() != 11 {
		t.Errorf("writer used %d records, want 11", sw.Sequence())
	}

	got := make([]byte, len(payload))
	if _, err := io.ReadFull(sr, got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("reassembled payload mismatch")
	}
}

func TestStreamSequenceMonotonic(t *testing.T) {
	var buf bytes.Buffer
	sw, sr := testStreams(t, &buf)

	for i := 0; i < 5; i++ {
		if sw.Sequence() != uint64(i) {
			t.Errorf("writer sequence before record %d = %d", i, sw.Sequence())
		}
		if _, err := sw.Write([]byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 5; i++ {
		if sr.Sequence() != uint64(i) {
			t.Errorf("reader sequence before record %d = %d", i, sr.Sequence())
		}
		b := make([]byte, 1)
		if _, err := sr.Read(b); err != nil {
			t.Fatal(err)
		}
	}
}

func TestStreamTamperedRecordFailsAndPoisons(t *testing.T) {
	trials := []struct {
		name   string
		offset func(frame []byte) int
	}{
		{"flip ciphertext bit", func(f []byte) int {
			return constants.FrameLengthPrefixSize + constants.FrameSequenceSize
		}},
		{"flip tag bit", func(f []byte) int {
			// Last byte of the first record's tag; the frame length
			// prefix gives the record boundary.
			rec := binary.BigEndian.Uint32(f[:constants.FrameLengthPrefixSize])
			return constants.FrameLengthPrefixSize + int(rec) - 1
		}},
	}

	for _, trial := range trials {
		t.Run(trial.name, func(t *testing.T) {
			var buf bytes.Buffer
			sw, _ := testStreams(t, &buf)

			if _, err := sw.Write([]byte("protected payload")); err != nil {
				t.Fatal(err)
			}
			if _, err := sw.Write([]byte("second payload")); err != nil {
				t.Fatal(err)
			}

			frames := buf.Bytes()
			frames[trial.offset(frames)] ^= 0x01

			_, recv := testAEAD(t)
			sr := newStreamReader(bytes.NewReader(frames), recv, constants.DirectionInitiator, nopObserver{})

			if _, err := sr.Read(make([]byte, 64)); !errors.Is(err, aerrors.ErrAuthenticationFailed) {
				t.Fatalf("Read(tampered) error = %v, want ErrAuthenticationFailed", err)
			}

			// The second, untouched record must not be readable either.
			_, err := sr.Read(make([]byte, 64))
			if !errors.Is(err, aerrors.ErrAuthenticationFailed) {
				t.Errorf("Read() after poisoning error = %v, want sticky ErrAuthenticationFailed", err)
			}
			if !errors.Is(err, aerrors.ErrStreamPoisoned) {
				t.Errorf("Read() after poisoning error = %v, should also match ErrStreamPoisoned", err)
			}
		})
	}
}

func TestStreamTamperRejectionRandomizedTrials(t *testing.T) {
	trials := 100_000
	if testing.Short() {
		trials = 1_000
	}

	var buf bytes.Buffer
	sw, _ := testStreams(t, &buf)
	if _, err := sw.Write([]byte("randomized tamper target")); err != nil {
		t.Fatal(err)
	}
	frame := buf.Bytes()
	_, recv := testAEAD(t)

	// Flip a random byte of the ciphertext or tag each trial; every
	// corruption must be rejected.
	rng := rand.New(rand.NewSource(1))
	body := constants.FrameLengthPrefixSize + constants.FrameSequenceSize
	tampered := make([]byte, len(frame))
	for i := 0; i < trials; i++ {
		copy(tampered, frame)
		pos := body + rng.Intn(len(frame)-body)
		tampered[pos] ^= byte(1 + rng.Intn(255))

		sr := newStreamReader(bytes.NewReader(tampered), recv, constants.DirectionInitiator, nopObserver{})
		if _, err := sr.Read(make([]byte, 64)); !errors.Is(err, aerrors.ErrAuthenticationFailed) {
			t.Fatalf("trial %d: Read(tampered) error = %v, want ErrAuthenticationFailed", i, err)
		}
	}
}

func TestStreamNonceMonotonicityBulk(t *testing.T) {
	writes := 1_000_000
	if testing.Short() {
		writes = 10_000
	}

	send, _ := testAEAD(t)
	sw := newStreamWriter(io.Discard, send, constants.DirectionInitiator, constants.DefaultChunkSize, nopObserver{})

	payload := []byte{0xA5}
	for i := 0; i < writes; i++ {
		if sw.Sequence() != uint64(i) {
			t.Fatalf("sequence before write %d = %d, counters must advance by one", i, sw.Sequence())
		}
		if _, err := sw.Write(payload); err != nil {
			t.Fatalf("Write %d error = %v", i, err)
		}
	}
	if sw.Sequence() != uint64(writes) {
		t.Errorf("final sequence = %d, want %d", sw.Sequence(), writes)
	}
}

func TestStreamReplayedRecordFails(t *testing.T) {
	var buf bytes.Buffer
	sw, _ := testStreams(t, &buf)

	if _, err := sw.Write([]byte("once")); err != nil {
		t.Fatal(err)
	}
	frame := append([]byte(nil), buf.Bytes()...)
	buf.Write(frame) // replay the identical record

	_, recv := testAEAD(t)
	sr := newStreamReader(&buf, recv, constants.DirectionInitiator, nopObserver{})

	got := make([]byte, 4)
	if _, err := io.ReadFull(sr, got); err != nil {
		t.Fatalf("first Read() error = %v", err)
	}
	if _, err := sr.Read(got); !errors.Is(err, aerrors.ErrSequenceViolation) {
		t.Errorf("Read(replayed) error = %v, want ErrSequenceViolation", err)
	}
}

func TestStreamReorderedRecordFails(t *testing.T) {
	var first, second bytes.Buffer
	send, recv := testAEAD(t)
	sw := newStreamWriter(&first, send, constants.DirectionInitiator, constants.DefaultChunkSize, nopObserver{})

	if _, err := sw.Write([]byte("record zero")); err != nil {
		t.Fatal(err)
	}
	sw.w = &second
	if _, err := sw.Write([]byte("record one")); err != nil {
		t.Fatal(err)
	}

	// Deliver record one before record zero.
	var wire bytes.Buffer
	wire.Write(second.Bytes())
	wire.Write(first.Bytes())

	sr := newStreamReader(&wire, recv, constants.DirectionInitiator, nopObserver{})
	if _, err := sr.Read(make([]byte, 32)); !errors.Is(err, aerrors.ErrSequenceViolation) {
		t.Errorf("Read(reordered) error = %v, want ErrSequenceViolation", err)
	}
}

func TestStreamRejectsOversizedFrame(t *testing.T) {
	var wire bytes.Buffer
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, constants.MaxFrameSize+1)
	wire.Write(lenBuf)

	_, recv := testAEAD(t)
	sr := newStreamReader(&wire, recv, constants.DirectionInitiator, nopObserver{})

	if _, err := sr.Read(make([]byte, 1)); !errors.Is(err, aerrors.ErrFrameTooLarge) {
		t.Errorf("Read(oversized) error = %v, want ErrFrameTooLarge", err)
	}
}

func TestStreamRejectsUndersizedFrame(t *testing.T) {
	var wire bytes.Buffer
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, constants.FrameSequenceSize) // no room for a tag
	wire.Write(lenBuf)
	wire.Write(make([]byte, constants.FrameSequenceSize))

	_, recv := testAEAD(t)
	sr := newStreamReader(&wire, recv, constants.DirectionInitiator, nopObserver{})

	if _, err := sr.Read(make([]byte, 1)); !errors.Is(err, aerrors.ErrFrameTooShort) {
		t.Errorf("Read(undersized) error = %v, want ErrFrameTooShort", err)
	}
}

func TestStreamNonceExhaustion(t *testing.T) {
	var buf bytes.Buffer
	sw, _ := testStreams(t, &buf)
	sw.seq = math.MaxUint64

	if _, err := sw.Write([]byte("x")); !errors.Is(err, aerrors.ErrNonceExhausted) {
		t.Fatalf("Write(exhausted) error = %v, want ErrNonceExhausted", err)
	}
	// Exhaustion is terminal for the stream.
	if _, err := sw.Write([]byte("x")); !errors.Is(err, aerrors.ErrNonceExhausted) {
		t.Errorf("Write() after exhaustion error = %v, want sticky ErrNonceExhausted", err)
	}
}

func TestDirectionsNeverShareNonces(t *testing.T) {
	if bytes.Equal(recordNonce(constants.DirectionInitiator, 7), recordNonce(constants.DirectionResponder, 7)) {
		t.Error("same sequence in opposite directions must produce distinct nonces")
	}
	if bytes.Equal(recordNonce(constants.DirectionInitiator, 1), recordNonce(constants.DirectionInitiator, 2)) {
		t.Error("distinct sequences must produce distinct nonces")
	}
}

func TestCrossDirectionRecordRejected(t *testing.T) {
	// A record sealed for one direction must not open in the other, even
	// under the shared session key.
	var buf bytes.Buffer
	send, recv := testAEAD(t)
	sw := newStreamWriter(&buf, send, constants.DirectionInitiator, constants.DefaultChunkSize, nopObserver{})
	if _, err := sw.Write([]byte("directional")); err != nil {
		t.Fatal(err)
	}

	sr := newStreamReader(&buf, recv, constants.DirectionResponder, nopObserver{})
	if _, err := sr.Read(make([]byte, 32)); !errors.Is(err, aerrors.ErrAuthenticationFailed) {
		t.Errorf("Read(cross-direction) error = %v, want ErrAuthenticationFailed", err)
	}
}

func TestStreamCloseSticks(t *testing.T) {
	var buf bytes.Buffer
	sw, sr := testStreams(t, &buf)

	sw.close()
	if _, err := sw.Write([]byte("x")); !errors.Is(err, aerrors.ErrChannelClosed) {
		t.Errorf("Write() after close error = %v, want ErrChannelClosed", err)
	}

	sr.close()
	if _, err := sr.Read(make([]byte, 1)); !errors.Is(err, aerrors.ErrChannelClosed) {
		t.Errorf("Read() after close error = %v, want ErrChannelClosed", err)
	}
}
