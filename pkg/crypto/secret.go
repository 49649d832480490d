// secret.go wraps sensitive key material so that it is wiped exactly once
// and never escapes through formatting or serialization.
package crypto

import (
	"sync"

	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
)

// Secret holds sensitive byte material. Callers obtain the bytes through
// Bytes or Consume; once Wipe or Consume has run, the material is zeroed
// and gone.
//
// Secret intentionally implements fmt.Stringer and the text/JSON marshalers
// with redacted output so that secret bytes cannot leak through logging or
// accidental serialization.
type Secret struct {
	mu    sync.Mutex
	data  []byte
	wiped bool
}

// NewSecret takes ownership of data. The caller must not retain or reuse
// the slice after handing it over.
func NewSecret(data []byte) *Secret {
	return &Secret{data: data}
}

// Bytes returns the underlying material for immediate use.
// The returned slice aliases the Secret's storage: do not retain it,
// and treat it as invalid after Wipe or Consume.
func (s *Secret) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wiped {
		return nil, aerrors.ErrSecretConsumed
	}
	return s.data, nil
}

// Len returns the length of the secret material, or 0 after wiping.
func (s *Secret) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wiped {
		return 0
	}
	return len(s.data)
}

// Consume returns a copy of the material and wipes the original in the
// same step. Use this when the secret feeds exactly one derivation.
// The caller is responsible for zeroizing the returned copy.
func (s *Secret) Consume() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wiped {
		return nil, aerrors.ErrSecretConsumed
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	s.wipeLocked()
	return out, nil
}

// Wipe zeroes the material. Safe to call multiple times.
func (s *Secret) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
}

func (s *Secret) wipeLocked() {
	if s.wiped {
		return
	}
	Zeroize(s.data)
	s.data = nil
	s.wiped = true
}

// IsWiped reports whether the material has been erased.
func (s *Secret) IsWiped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wiped
}

// String implements fmt.Stringer with redacted output.
func (s *Secret) String() string {
	return "Secret(REDACTED)"
}

// GoString implements fmt.GoStringer with redacted output.
func (s *Secret) GoString() string {
	return "Secret(REDACTED)"
}

// MarshalText refuses to serialize secret material.
func (s *Secret) MarshalText() ([]byte, error) {
	return []byte("REDACTED"), nil
}

// MarshalJSON refuses to serialize secret material.
func (s *Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"REDACTED"`), nil
}
