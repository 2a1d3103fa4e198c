// internal/blackjack/hand.go
package blackjack

import "github.com/filiprollner/royale-platform/internal/deck"

// Outcome is the result of comparing a player hand against the dealer hand.
type Outcome int

const (
	Lose Outcome = -1
	Push Outcome = 0
	Win  Outcome = 1
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return "push"
	}
}

// rankValue returns the base value of a rank, counting aces as 1.
func rankValue(r deck.Rank) int {
	switch r {
	case deck.Ace:
		return 1
	case deck.King, deck.Queen, deck.Jack, deck.Ten:
		return 10
	case deck.Nine:
		return 9
	case deck.Eight:
		return 8
	case deck.Seven:
		return 7
	case deck.Six:
		return 6
	case deck.Five:
		return 5
	case deck.Four:
		return 4
	case deck.Three:
		return 3
	default:
		return 2
	}
}

// HandValue sums the hand counting aces as 1, then promotes aces to 11 one at
// a time while doing so keeps the total at or under 21. Standard soft/hard
// ace accounting.
func HandValue(hand []deck.Card) int {
	sum, aces := 0, 0
	for _, c := range hand {
		if c.Rank == deck.Ace {
			aces++
		}
		sum += rankValue(c.Rank)
	}
	for aces > 0 && sum+10 <= 21 {
		sum += 10
		aces--
	}
	return sum
}

// IsBlackjack reports a natural: exactly two cards totalling 21.
func IsBlackjack(hand []deck.Card) bool {
	return len(hand) == 2 && HandValue(hand) == 21
}

// IsBust reports a hand value over 21.
func IsBust(hand []deck.Card) bool {
	return HandValue(hand) > 21
}

// IsSoft reports whether an ace is currently counted as 11.
func IsSoft(hand []deck.Card) bool {
	hasAce := false
	sum := 0
	for _, c := range hand {
		if c.Rank == deck.Ace {
			hasAce = true
		}
		sum += rankValue(c.Rank)
	}
	return hasAce && sum+10 <= 21
}

// Compare evaluates player versus dealer. The check order is authoritative:
// bust cases first, then blackjack-vs-blackjack, then single blackjacks, then
// raw values. Equal non-blackjack values push.
func Compare(player, dealer []deck.Card) Outcome {
	playerBust, dealerBust := IsBust(player), IsBust(dealer)
	switch {
	case playerBust && dealerBust:
		return Push
	case playerBust:
		return Lose
	case dealerBust:
		return Win
	}

	playerBJ, dealerBJ := IsBlackjack(player), IsBlackjack(dealer)
	switch {
	case playerBJ && dealerBJ:
		return Push
	case playerBJ:
		return Win
	case dealerBJ:
		return Lose
	}

	pv, dv := HandValue(player), HandValue(dealer)
	switch {
	case pv > dv:
		return Win
	case pv < dv:
		return Lose
	default:
		return Push
	}
}
