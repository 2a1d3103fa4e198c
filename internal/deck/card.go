// internal/deck/card.go
package deck

// Suit is one of the four standard card suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists all suits in canonical order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

var suitSymbols = map[Suit]string{
	Hearts:   "♥",
	Diamonds: "♦",
	Clubs:    "♣",
	Spades:   "♠",
}

// Symbol returns the single-character glyph for the suit.
func (s Suit) Symbol() string {
	return suitSymbols[s]
}

// Rank is a single-character card rank. Ten is "T".
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "T"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Ranks lists all ranks in canonical order, ace low.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

// Card is an immutable rank/suit pair. Cards carry no identity and are copied freely.
type Card struct {
	Rank Rank `json:"r"`
	Suit Suit `json:"s"`
}

func (c Card) String() string {
	return string(c.Rank) + c.Suit.Symbol()
}
