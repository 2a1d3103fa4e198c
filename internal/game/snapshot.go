// internal/game/snapshot.go
package game

import (
	"github.com/google/uuid"

	"github.com/filiprollner/royale-platform/internal/deck"
	"github.com/filiprollner/royale-platform/internal/models"
)

// CardView obfuscates face-down cards: rank and suit are only present when
// Known is true.
type CardView struct {
	Known bool   `json:"known"`
	Rank  string `json:"rank,omitempty"`
	Suit  string `json:"suit,omitempty"`
}

// SeatView is one seat as seen by every participant. Player hands are face-up
// in this game, so they are always revealed.
type SeatView struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	SeatIndex  int        `json:"seatIndex"`
	Balance    int        `json:"balance"`
	Online     bool       `json:"online"`
	IsDealer   bool       `json:"isDealer"`
	Hand       []CardView `json:"hand"`
	CurrentBet int        `json:"currentBet"`
	HasActed   bool       `json:"hasActed"`
	AllIn      bool       `json:"allIn"`
}

// TimerView mirrors the active timer as ms-epoch fields for clients.
type TimerView struct {
	Kind           string     `json:"kind"`
	StartedAt      int64      `json:"startedAt"`
	EndsAt         int64      `json:"endsAt"`
	DurationMs     int64      `json:"durationMs"`
	TargetPlayerID *uuid.UUID `json:"targetPlayerId,omitempty"`
}

// RoomSnapshot is the full room state broadcast on every committed change.
// The dealer's second card is withheld until the dealer phase, and the
// shuffle seed is withheld until the play resolves; the seed hash is public
// from the deal onward.
type RoomSnapshot struct {
	RoomID     uuid.UUID  `json:"roomId"`
	Name       string     `json:"name"`
	Phase      string     `json:"phase"`
	HandNo     int        `json:"handNo"`
	PlayNo     int        `json:"playNo"`
	RoundNo    int        `json:"roundNo"`
	MinBet     int        `json:"minBet"`
	MaxSeats   int        `json:"maxSeats"`
	DealerSeat int        `json:"dealerSeat"`
	Pot        int        `json:"pot"`
	Seats      []SeatView `json:"seats"`
	DealerHand []CardView `json:"dealerHand"`
	Timer      *TimerView `json:"timer,omitempty"`
	SeedHash   string     `json:"seedHash,omitempty"`
	Seed       string     `json:"seed,omitempty"`
}

func revealedCards(cards []deck.Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = CardView{Known: true, Rank: string(c.Rank), Suit: string(c.Suit)}
	}
	return views
}

// dealerHandView redacts the hole card while the hand is still live.
func dealerHandView(s *models.RoomState) []CardView {
	views := revealedCards(s.DealerHand)
	holeConcealed := s.Phase == models.PhaseBetting || s.Phase == models.PhaseActing
	if holeConcealed && len(views) >= 2 {
		views[1] = CardView{Known: false}
	}
	return views
}

// snapshot builds the broadcast view. Assumes the room lock is held.
func snapshot(s *models.RoomState) *RoomSnapshot {
	snap := &RoomSnapshot{
		RoomID:     s.ID,
		Name:       s.Name,
		Phase:      string(s.Phase),
		HandNo:     s.HandNo,
		PlayNo:     s.PlayNo,
		RoundNo:    s.RoundNo,
		MinBet:     s.MinBet,
		MaxSeats:   s.MaxSeats,
		DealerSeat: s.DealerSeat,
		Pot:        s.Pot,
		DealerHand: dealerHandView(s),
		SeedHash:   s.SeedHash,
	}

	for idx := 0; idx < s.MaxSeats; idx++ {
		seat := s.SeatAtIndex(idx)
		if seat == nil {
			continue
		}
		view := SeatView{
			ID:         seat.ID,
			Name:       seat.Name,
			SeatIndex:  seat.SeatIndex,
			Balance:    seat.Balance,
			Online:     seat.Online,
			IsDealer:   seat.IsDealer,
			CurrentBet: seat.CurrentBet,
			HasActed:   seat.HasActed,
			AllIn:      seat.AllIn,
			Hand:       revealedCards(seat.Hand),
		}
		if seat.IsDealer {
			view.Hand = dealerHandView(s)
		}
		snap.Seats = append(snap.Seats, view)
	}

	// The seed is only revealed once the play can no longer be influenced.
	if s.Phase == models.PhaseResolving || s.Phase == models.PhaseFinished {
		snap.Seed = s.Seed
	}

	if s.Timer != nil {
		tv := &TimerView{
			Kind:       string(s.Timer.Kind),
			StartedAt:  s.Timer.StartedAt.UnixMilli(),
			EndsAt:     s.Timer.Deadline.UnixMilli(),
			DurationMs: s.Timer.Duration.Milliseconds(),
		}
		if s.Timer.TargetPlayerID != uuid.Nil {
			target := s.Timer.TargetPlayerID
			tv.TargetPlayerID = &target
		}
		snap.Timer = tv
	}
	return snap
}
