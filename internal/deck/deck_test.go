// internal/deck/deck_test.go
package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCanonicalOrder(t *testing.T) {
	cards := New()
	require.Len(t, cards, 52)

	// First suit is hearts, ace low.
	assert.Equal(t, Card{Rank: Ace, Suit: Hearts}, cards[0])
	assert.Equal(t, Card{Rank: King, Suit: Hearts}, cards[12])
	assert.Equal(t, Card{Rank: Ace, Suit: Diamonds}, cards[13])
	assert.Equal(t, Card{Rank: King, Suit: Spades}, cards[51])

	// Deterministic: two fresh decks are identical.
	assert.Equal(t, cards, New())
}

func TestShuffleIsPermutation(t *testing.T) {
	for _, seed := range []string{"a", "b", "0123456789abcdef", "another-seed"} {
		shuffled := Shuffle(New(), seed)
		require.Len(t, shuffled, 52)

		seen := make(map[Card]int)
		for _, c := range shuffled {
			seen[c]++
		}
		assert.Len(t, seen, 52, "seed %q produced duplicate cards", seed)
		for c, n := range seen {
			assert.Equal(t, 1, n, "card %s appeared %d times", c, n)
		}
	}
}

func TestShuffleDeterministic(t *testing.T) {
	a := Shuffle(New(), "fixed-seed")
	b := Shuffle(New(), "fixed-seed")
	assert.Equal(t, a, b)

	c := Shuffle(New(), "other-seed")
	assert.NotEqual(t, a, c)
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	original := New()
	snapshot := make([]Card, len(original))
	copy(snapshot, original)

	_ = Shuffle(original, "whatever")
	assert.Equal(t, snapshot, original)
}

func TestShuffleEmptySeedStillShuffles(t *testing.T) {
	// No seed means a general random source; two calls should essentially
	// never agree on all 52 positions.
	a := Shuffle(New(), "")
	b := Shuffle(New(), "")
	assert.NotEqual(t, a, b)
}

func TestGenerateSeedUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := GenerateSeed()
		require.NotEmpty(t, s)
		assert.False(t, seen[s], "seed %q generated twice", s)
		seen[s] = true
	}
}

func TestHashSeed(t *testing.T) {
	h := HashSeed("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashSeed("abc"))
	assert.NotEqual(t, h, HashSeed("abd"))
}
