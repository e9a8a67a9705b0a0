// Package sampler provides the shuffling primitives behind exam and practice papers.
// A seeded shuffle is fully determined by its inputs and keeps no state between calls.
package sampler

import (
	"math/rand/v2"
	"unicode"
	"unicode/utf16"
)

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// seedHash sums the leading UTF-16 code unit of every code point in seed.
// Astral characters contribute only their high surrogate.
func seedHash(seed string) int64 {
	var h int64
	for _, r := range seed {
		if hi, _ := utf16.EncodeRune(r); hi != unicode.ReplacementChar {
			h += int64(hi)
			continue
		}
		h += int64(r)
	}
	return h
}

// SeededShuffle returns a permutation of items determined only by items and seed.
// The input slice is not modified.
func SeededShuffle[T any](items []T, seed string) []T {
	out := make([]T, len(items))
	copy(out, items)

	hash := seedHash(seed)
	for i := len(out) - 1; i > 0; i-- {
		hash = (hash*lcgMultiplier + lcgIncrement) % lcgModulus
		j := int(float64(hash) / lcgModulus * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Shuffle returns a non-deterministic permutation of items.
func Shuffle[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Sample shuffles items (deterministically when seed is non-empty) and returns the
// first count. A count larger than the input yields the whole shuffled set.
func Sample[T any](items []T, count int, seed string) []T {
	var shuffled []T
	if seed != "" {
		shuffled = SeededShuffle(items, seed)
	} else {
		shuffled = Shuffle(items)
	}
	if count < 0 {
		count = 0
	}
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}
