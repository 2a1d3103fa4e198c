// internal/models/room.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/filiprollner/royale-platform/internal/deck"
)

// Phase is the room's current stage in the play life-cycle.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseBetting   Phase = "betting"
	PhaseActing    Phase = "acting"
	PhaseDealer    Phase = "dealer"
	PhaseResolving Phase = "resolving"
	PhaseFinished  Phase = "finished"
)

// TimerKind identifies which phase a timer belongs to. The resolving grace
// delay is engine-internal and never surfaces as a Timer.
type TimerKind string

const (
	TimerBetting TimerKind = "betting"
	TimerActing  TimerKind = "acting"
	TimerDealer  TimerKind = "dealer"
)

// Timer is the room's single active deadline. TargetPlayerID is set only for
// acting timers.
type Timer struct {
	Kind           TimerKind
	StartedAt      time.Time
	Duration       time.Duration
	Deadline       time.Time
	TargetPlayerID uuid.UUID
}

// RoomConfig is the caller-supplied room configuration surface.
type RoomConfig struct {
	Name            string `json:"name"`
	MinBet          int    `json:"minBet"`
	MaxSeats        int    `json:"maxSeats"`
	StartingBalance int    `json:"startingBalance"`
}

const (
	DefaultMaxSeats        = 9
	DefaultStartingBalance = 1000
)

// Normalize applies defaults and validates the configured bounds.
func (c *RoomConfig) Normalize() error {
	if c.MaxSeats == 0 {
		c.MaxSeats = DefaultMaxSeats
	}
	if c.StartingBalance == 0 {
		c.StartingBalance = DefaultStartingBalance
	}
	if c.MinBet <= 0 {
		return fmt.Errorf("minBet must be positive, got %d", c.MinBet)
	}
	if c.MaxSeats < 2 || c.MaxSeats > 9 {
		return fmt.Errorf("maxSeats must be in [2,9], got %d", c.MaxSeats)
	}
	return nil
}

// RoomState is the aggregate root for one room. It is owned exclusively by
// the Room engine and mutated only under its lock.
type RoomState struct {
	ID   uuid.UUID
	Name string

	Phase      Phase
	HandNo     int // total plays dealt since the room opened
	PlayNo     int // play counter within the current dealer round
	RoundNo    int // increments once the button has gone around the table
	MinBet     int
	MaxSeats   int
	DealerSeat int // seat index currently holding the button

	Seats      []*Seat
	DealerHand []deck.Card
	Pot        int
	Timer      *Timer

	StartingBalance int

	// Per-play shuffle. Seed and SeedHash are present iff a play has been
	// dealt and not yet fully reset; Deck is consumed by running index.
	Seed      string
	SeedHash  string
	Deck      []deck.Card
	DeckIndex int
}

// SeatByID returns the seat occupied by the given player, or nil.
func (s *RoomState) SeatByID(playerID uuid.UUID) *Seat {
	for _, seat := range s.Seats {
		if seat.ID == playerID {
			return seat
		}
	}
	return nil
}

// SeatAtIndex returns the seat at a table position, or nil when vacant.
func (s *RoomState) SeatAtIndex(idx int) *Seat {
	for _, seat := range s.Seats {
		if seat.SeatIndex == idx {
			return seat
		}
	}
	return nil
}

// DealerFlagSeat returns the seat currently flagged as dealer, or nil when
// the button position is vacant.
func (s *RoomState) DealerFlagSeat() *Seat {
	for _, seat := range s.Seats {
		if seat.IsDealer {
			return seat
		}
	}
	return nil
}

// EligibleSeats returns all online non-dealer seats in seat-index order.
func (s *RoomState) EligibleSeats() []*Seat {
	var out []*Seat
	for idx := 0; idx < s.MaxSeats; idx++ {
		seat := s.SeatAtIndex(idx)
		if seat != nil && seat.Online && !seat.IsDealer {
			out = append(out, seat)
		}
	}
	return out
}

// BetsTotal sums every seat's current bet. The pot must equal this while the
// room is in betting or acting.
func (s *RoomState) BetsTotal() int {
	total := 0
	for _, seat := range s.Seats {
		total += seat.CurrentBet
	}
	return total
}
