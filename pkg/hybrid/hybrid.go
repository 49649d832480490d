// Package hybrid combines the classical and post-quantum shared secrets
// into the single session key.
//
// The combiner is HKDF (RFC 5869) over SHA3-256:
//
//	SessionKey = HKDF-Expand(
//	    HKDF-Extract(salt, K_classical || K_pq),
//	    info = label || transcript, 32,
//	)
//
// Both inputs always contribute. There is no classical-only or pq-only
// derivation path, so a peer cannot negotiate the hybrid protection away.
// The session key is indistinguishable from random as long as EITHER
// input secret remains secure.
package hybrid

import (
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
	"github.com/aegis-flow/aegis-go/pkg/crypto"
)

// Derive combines the classical and post-quantum shared secrets into a
// 32-byte session key. Both input secrets are consumed: their material is
// wiped before Derive returns, on success and on failure alike.
//
// transcript binds the exchanged public values into the derivation so
// that a swapped or replayed key share changes the session key.
func Derive(classical, pq *crypto.Secret, transcript []byte) (*crypto.Secret, error) {
	classicalBytes, err := classical.Consume()
	if err != nil {
		pq.Wipe()
		return nil, aerrors.NewCryptoError("hybrid.Derive", err)
	}

	pqBytes, err := pq.Consume()
	if err != nil {
		crypto.Zeroize(classicalBytes)
		return nil, aerrors.NewCryptoError("hybrid.Derive", err)
	}
	defer crypto.ZeroizeMultiple(classicalBytes, pqBytes)

	if len(classicalBytes) != constants.X25519SharedSecretSize {
		return nil, aerrors.NewCryptoError("hybrid.Derive", aerrors.ErrInvalidKeySize)
	}
	if len(pqBytes) != constants.KEMSharedSecretSize {
		return nil, aerrors.NewCryptoError("hybrid.Derive", aerrors.ErrInvalidKeySize)
	}

	ikm := make([]byte, 0, len(classicalBytes)+len(pqBytes))
	ikm = append(ikm, classicalBytes...)
	ikm = append(ikm, pqBytes...)
	defer crypto.Zeroize(ikm)

	info := make([]byte, 0, len(constants.SessionKeyLabel)+len(transcript))
	info = append(info, constants.SessionKeyLabel...)
	info = append(info, transcript...)

	r := hkdf.New(sha3.New256, ikm, []byte(constants.KDFSaltLabel), info)
	key := make([]byte, constants.SessionKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, aerrors.NewCryptoError("hybrid.Derive", err)
	}

	if err := checkCombined(key); err != nil {
		crypto.Zeroize(key)
		return nil, err
	}

	return crypto.NewSecret(key), nil
}

// checkCombined rejects combiner output that cannot be a real derivation:
// wrong length or all zero bytes.
func checkCombined(key []byte) error {
	if len(key) != constants.SessionKeySize {
		return aerrors.ErrCombinerMismatch
	}
	if crypto.ConstantTimeCompare(key, make([]byte, constants.SessionKeySize)) {
		return aerrors.ErrCombinerMismatch
	}
	return nil
}
