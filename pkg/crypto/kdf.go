// kdf.go implements auxiliary key derivation using SHAKE-256 (FIPS 202).
//
// SHAKE-256 is an extendable-output function based on the Keccak sponge
// construction. Length-prefixed inputs make the encoding unambiguous, and
// the domain separator prevents cross-protocol key reuse.
//
// The hybrid session key itself is derived with HKDF in pkg/hybrid; the
// functions here serve secondary derivations such as the channel binding
// identifier and its fingerprint.
package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
)

// DeriveKey derives outputLen bytes from input using SHAKE-256 with
// domain separation.
//
// The construction:
//
//	output = SHAKE-256(
//	    len(domain) || domain || len(input) || input,
//	    outputLen
//	)
//
// Length prefixes are 4-byte big-endian integers.
func DeriveKey(domain string, input []byte, outputLen int) ([]byte, error) {
	if outputLen <= 0 || outputLen > 1<<20 { // Max 1MB
		return nil, aerrors.NewCryptoError("DeriveKey", aerrors.ErrInvalidKeySize)
	}

	h := sha3.NewShake256()
	lenBuf := make([]byte, 4)

	domainBytes := []byte(domain)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(domainBytes)))
	h.Write(lenBuf)
	h.Write(domainBytes)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(input)))
	h.Write(lenBuf)
	h.Write(input)

	output := make([]byte, outputLen)
	_, _ = h.Read(output) // SHAKE256.Read never fails

	return output, nil
}

// DeriveKeyMultiple derives a key from multiple inputs with domain
// separation. Each input is length-prefixed so that concatenation
// boundaries cannot be shifted between inputs.
func DeriveKeyMultiple(domain string, inputs [][]byte, outputLen int) ([]byte, error) {
	if outputLen <= 0 || outputLen > 1<<20 {
		return nil, aerrors.NewCryptoError("DeriveKeyMultiple", aerrors.ErrInvalidKeySize)
	}

	h := sha3.NewShake256()
	lenBuf := make([]byte, 4)

	domainBytes := []byte(domain)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(domainBytes)))
	h.Write(lenBuf)
	h.Write(domainBytes)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(inputs)))
	h.Write(lenBuf)

	for _, input := range inputs {
		binary.BigEndian.PutUint32(lenBuf, uint32(len(input)))
		h.Write(lenBuf)
		h.Write(input)
	}

	output := make([]byte, outputLen)
	_, _ = h.Read(output) // SHAKE256.Read never fails

	return output, nil
}

// TranscriptHash computes a SHA3-256 hash over ordered, length-prefixed
// components. Used to bind the exchanged public values into key
// derivation context.
func TranscriptHash(components ...[]byte) []byte {
	h := sha3.New256()
	lenBuf := make([]byte, 4)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(components)))
	h.Write(lenBuf)

	for _, component := range components {
		binary.BigEndian.PutUint32(lenBuf, uint32(len(component)))
		h.Write(lenBuf)
		h.Write(component)
	}

	return h.Sum(nil)
}
