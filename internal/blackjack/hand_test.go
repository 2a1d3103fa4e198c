// internal/blackjack/hand_test.go
package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/filiprollner/royale-platform/internal/deck"
)

func hand(ranks ...deck.Rank) []deck.Card {
	cards := make([]deck.Card, len(ranks))
	for i, r := range ranks {
		cards[i] = deck.Card{Rank: r, Suit: deck.Spades}
	}
	return cards
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name  string
		hand  []deck.Card
		value int
	}{
		{"ace king natural", hand(deck.Ace, deck.King), 21},
		{"two aces and a nine", hand(deck.Ace, deck.Ace, deck.Nine), 21},
		{"face cards bust", hand(deck.King, deck.Queen, deck.Five), 25},
		{"soft seventeen", hand(deck.Ace, deck.Six), 17},
		{"hard sixteen with demoted ace", hand(deck.Ace, deck.Nine, deck.Six), 16},
		{"four aces", hand(deck.Ace, deck.Ace, deck.Ace, deck.Ace), 14},
		{"ten value cards", hand(deck.Ten, deck.Jack), 20},
		{"empty hand", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, HandValue(tt.hand))
		})
	}
}

func TestIsBlackjack(t *testing.T) {
	assert.True(t, IsBlackjack(hand(deck.Ace, deck.King)))
	assert.True(t, IsBlackjack(hand(deck.Ten, deck.Ace)))

	// 21 with three cards is not a natural.
	assert.False(t, IsBlackjack(hand(deck.Ace, deck.Ace, deck.Nine)))
	assert.False(t, IsBlackjack(hand(deck.Seven, deck.Seven, deck.Seven)))
	assert.False(t, IsBlackjack(hand(deck.Ten, deck.Nine)))
}

func TestIsBust(t *testing.T) {
	assert.True(t, IsBust(hand(deck.King, deck.Queen, deck.Five)))
	assert.False(t, IsBust(hand(deck.King, deck.Queen, deck.Ace)))
	assert.False(t, IsBust(hand(deck.Ace, deck.King)))
}

func TestIsSoft(t *testing.T) {
	assert.True(t, IsSoft(hand(deck.Ace, deck.Six)))
	assert.True(t, IsSoft(hand(deck.Ace, deck.King)))
	// Ace forced down to 1.
	assert.False(t, IsSoft(hand(deck.Ace, deck.Nine, deck.Six)))
	assert.False(t, IsSoft(hand(deck.Ten, deck.Seven)))
}

func TestCompare(t *testing.T) {
	blackjack := hand(deck.Ace, deck.King)
	twenty := hand(deck.King, deck.Queen)
	nineteen := hand(deck.Ten, deck.Nine)
	bust := hand(deck.King, deck.Queen, deck.Five)

	tests := []struct {
		name    string
		player  []deck.Card
		dealer  []deck.Card
		outcome Outcome
	}{
		{"both bust pushes", bust, hand(deck.Ten, deck.Nine, deck.Five), Push},
		{"player bust loses", bust, twenty, Lose},
		{"dealer bust wins", nineteen, bust, Win},
		{"blackjack vs blackjack pushes", blackjack, hand(deck.Ace, deck.Queen), Push},
		{"blackjack beats twenty", blackjack, twenty, Win},
		{"dealer blackjack beats twenty-one", hand(deck.Seven, deck.Seven, deck.Seven), blackjack, Lose},
		{"nineteen loses to twenty", nineteen, twenty, Lose},
		{"twenty beats nineteen", twenty, nineteen, Win},
		{"equal values push", twenty, hand(deck.Ten, deck.Jack), Push},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outcome, Compare(tt.player, tt.dealer))
		})
	}
}
