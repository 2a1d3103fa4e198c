// internal/deck/deck.go
package deck

import (
	"crypto/sha256"
	"encoding/binary"
	mathrand "math/rand/v2"
)

// New returns all 52 cards in a fixed canonical order: suits in
// hearts/diamonds/clubs/spades order, ranks ace-low within each suit.
func New() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	return cards
}

// Shuffle returns a Fisher-Yates permutation of cards driven by a stream
// derived from seed. The same seed always yields the same order. An empty
// seed falls back to a fresh unpredictable seed, so the result is still a
// general random permutation. The input slice is never mutated.
func Shuffle(cards []Card, seed string) []Card {
	if seed == "" {
		seed = GenerateSeed()
	}
	out := make([]Card, len(cards))
	copy(out, cards)

	r := rngFromSeed(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// rngFromSeed derives the two 64-bit PCG seeds from an arbitrary seed string.
// Centralising the derivation keeps every call site reproducible.
func rngFromSeed(seed string) *mathrand.Rand {
	sum := sha256.Sum256([]byte(seed))
	hi := binary.BigEndian.Uint64(sum[0:8])
	lo := binary.BigEndian.Uint64(sum[8:16])
	return mathrand.New(mathrand.NewPCG(hi, lo))
}
