// Package token generates opaque public-access tokens: fixed-length strings
// over a lowercase alphanumeric alphabet, uniformly random per character and
// independent across calls.
//
// Tokens act as anonymous read capabilities, so they are drawn from
// crypto/rand rather than a seeded PRNG. Collisions are treated as
// negligible but never impossible: the store layer enforces a uniqueness
// constraint at write time and the caller regenerates on conflict.
package token

import (
	"crypto/rand"
	"fmt"
)

// Alphabet is the fixed character set tokens are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength is the token length used when callers pass n <= 0.
const DefaultLength = 12

// Generate returns a new random token of length n (DefaultLength when
// n <= 0). It only fails when the platform randomness source does.
func Generate(n int) (string, error) {
	if n <= 0 {
		n = DefaultLength
	}

	// Rejection sampling keeps the per-character distribution uniform:
	// 252 is the largest multiple of len(Alphabet) below 256, so bytes
	// >= 252 are discarded instead of folded.
	const limit = byte(252)

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
