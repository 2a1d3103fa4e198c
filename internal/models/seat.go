// internal/models/seat.go
package models

import (
	"github.com/google/uuid"

	"github.com/filiprollner/royale-platform/internal/deck"
)

// Seat is one occupied slot at the table. Seats are created on join, removed
// on leave, and owned exclusively by their room's state.
type Seat struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SeatIndex int       `json:"seatIndex"`

	Balance  int  `json:"balance"`
	Online   bool `json:"online"`
	IsDealer bool `json:"isDealer"`

	// Per-play state, reset at the start of every new play.
	Hand       []deck.Card `json:"hand"`
	CurrentBet int         `json:"currentBet"`
	HasActed   bool        `json:"hasActed"`
	AllIn      bool        `json:"allIn"`
}

// ResetForPlay clears all per-play state.
func (s *Seat) ResetForPlay() {
	s.Hand = nil
	s.CurrentBet = 0
	s.HasActed = false
	s.AllIn = false
}
