// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package secretgen generates random secrets from crypto/rand for the
// `generate` command and `set --generate`.
package secretgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Charset flags select which character classes a generated secret draws from.
const (
	Lower = 1 << iota
	Upper
	Digits
	Symbols

	// All is the default character set.
	All = Lower | Upper | Digits | Symbols
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}:,.?/"
)

// DefaultLength is used when the caller does not specify one.
const DefaultLength = 24

// Generate returns a random secret of the given length drawn uniformly from
// the selected character classes.
func Generate(length int, charset int) ([]byte, error) {
	if length <= 0 {
		length = DefaultLength
	}
	if charset == 0 {
		charset = All
	}

	var pool string
	if charset&Lower != 0 {
		pool += lowerChars
	}
	if charset&Upper != 0 {
		pool += upperChars
	}
	if charset&Digits != 0 {
		pool += digitChars
	}
	if charset&Symbols != 0 {
		pool += symbolChars
	}
	if pool == "" {
		return nil, fmt.Errorf("empty character set")
	}

	max := big.NewInt(int64(len(pool)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, fmt.Errorf("failed to read randomness: %w", err)
		}
		out[i] = pool[n.Int64()]
	}
	return out, nil
}
