// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package security provides a small wrapper type for sensitive byte material.
// A Secret never prints or marshals its contents; the only way to read it is
// an explicit call to Bytes().
package security

import "fmt"

// redacted is the placeholder emitted wherever a Secret would otherwise leak.
const redacted = "[SECRET]"

// Secret holds sensitive bytes (a password, a passphrase, key material).
// It redacts itself in fmt verbs and JSON marshalling so that accidental
// logging or serialization of a Secret never exposes the underlying value.
type Secret struct {
	value []byte
}

// FromString wraps a string value in a Secret.
func FromString(s string) Secret {
	return Secret{value: []byte(s)}
}

// FromBytes wraps a copy of b in a Secret. The caller keeps ownership of b
// and should zero it when no longer needed.
func FromBytes(b []byte) Secret {
	v := make([]byte, len(b))
	copy(v, b)
	return Secret{value: v}
}

// Bytes returns a copy of the underlying value. The caller is responsible
// for zeroing the returned slice after use.
func (s Secret) Bytes() []byte {
	if s.value == nil {
		return nil
	}
	b := make([]byte, len(s.value))
	copy(b, s.value)
	return b
}

// IsZero reports whether the secret holds no value.
func (s Secret) IsZero() bool {
	return len(s.value) == 0
}

// Zero overwrites the underlying value in place. Copies previously handed
// out by Bytes() are unaffected.
func (s *Secret) Zero() {
	for i := range s.value {
		s.value[i] = 0
	}
}

// String implements fmt.Stringer and always returns the redaction marker.
func (s Secret) String() string {
	return redacted
}

// Format implements fmt.Formatter so that all verbs (%v, %s, %q, %x, ...)
// print the redaction marker rather than the secret bytes.
func (s Secret) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, redacted)
}

// MarshalJSON implements json.Marshaler; a Secret always serializes as the
// redaction marker.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}
