// internal/blackjack/rules.go
package blackjack

import (
	"errors"

	"github.com/google/uuid"

	"github.com/filiprollner/royale-platform/internal/deck"
	"github.com/filiprollner/royale-platform/internal/models"
)

// ErrDeckExhausted means the draw index ran past the shuffled deck. With at
// most 9 seats this cannot happen in ordinary play; it signals a defect, not
// a recoverable condition.
var ErrDeckExhausted = errors.New("blackjack: deck exhausted mid-deal")

// Rules is the authoritative dealer-blackjack rule set. All methods mutate
// the passed state in place; the owning Room engine serialises every call
// under its lock, so each invocation is one atomic state transition. Illegal
// actions are no-ops, never errors — the only error any method returns is
// ErrDeckExhausted.
type Rules struct{}

// Initialize builds a fresh waiting-phase state from a normalized config.
func (Rules) Initialize(cfg models.RoomConfig) *models.RoomState {
	id, _ := uuid.NewRandom()
	return &models.RoomState{
		ID:              id,
		Name:            cfg.Name,
		Phase:           models.PhaseWaiting,
		HandNo:          1,
		PlayNo:          1,
		RoundNo:         1,
		MinBet:          cfg.MinBet,
		MaxSeats:        cfg.MaxSeats,
		StartingBalance: cfg.StartingBalance,
	}
}

// StartPlay shuffles a fresh seeded deck and deals the hand: two cards to
// each online non-dealer seat in seat-index order, then two to the dealer.
// Bets collected during the preceding betting phase are kept; the pot is
// recomputed from them. With no eligible seats the room goes to finished
// instead.
func (r Rules) StartPlay(s *models.RoomState) error {
	eligible := s.EligibleSeats()
	if len(eligible) == 0 {
		s.Phase = models.PhaseFinished
		return nil
	}

	seed := deck.GenerateSeed()
	s.Seed = seed
	s.SeedHash = deck.HashSeed(seed)
	s.Deck = deck.Shuffle(deck.New(), seed)
	s.DeckIndex = 0

	// Hands and acted flags reset here; bets were placed during betting and
	// are deliberately not touched.
	for _, seat := range s.Seats {
		seat.Hand = nil
		seat.HasActed = false
		seat.AllIn = false
	}
	s.DealerHand = nil

	for _, seat := range eligible {
		for i := 0; i < 2; i++ {
			c, err := r.drawCard(s)
			if err != nil {
				return err
			}
			seat.Hand = append(seat.Hand, c)
		}
	}
	for i := 0; i < 2; i++ {
		c, err := r.drawCard(s)
		if err != nil {
			return err
		}
		s.DealerHand = append(s.DealerHand, c)
	}
	if dealer := s.DealerFlagSeat(); dealer != nil {
		dealer.Hand = append([]deck.Card(nil), s.DealerHand...)
	}

	s.Pot = s.BetsTotal()
	s.Phase = models.PhaseActing
	return nil
}

// ApplyAction applies a bet, hit, or stand. It reports whether the action was
// legal and applied; anything out of phase, out of turn, or from the wrong
// seat leaves the state untouched.
func (r Rules) ApplyAction(s *models.RoomState, a models.Action) (bool, error) {
	seat := s.SeatByID(a.PlayerID)
	if seat == nil || !seat.Online || seat.IsDealer {
		return false, nil
	}

	switch a.Type {
	case models.ActionBet:
		if s.Phase != models.PhaseBetting {
			return false, nil
		}
		amount := a.Amount
		if amount < s.MinBet {
			amount = s.MinBet
		}
		// A re-bet replaces the previous one: refund then debit, atomically
		// within this transition.
		if amount > seat.Balance+seat.CurrentBet {
			return false, nil
		}
		seat.Balance += seat.CurrentBet
		seat.Balance -= amount
		seat.CurrentBet = amount
		seat.AllIn = seat.Balance == 0
		s.Pot = s.BetsTotal()
		return true, nil

	case models.ActionHit:
		if !r.isActingSeat(s, seat) {
			return false, nil
		}
		c, err := r.drawCard(s)
		if err != nil {
			return false, err
		}
		seat.Hand = append(seat.Hand, c)
		// A bust ends the seat's turn; otherwise it may hit again.
		if IsBust(seat.Hand) {
			seat.HasActed = true
		}
		return true, nil

	case models.ActionStand:
		if !r.isActingSeat(s, seat) {
			return false, nil
		}
		seat.HasActed = true
		return true, nil
	}
	return false, nil
}

// isActingSeat reports whether the seat is the acting-timer target during the
// acting phase and still has its turn open.
func (Rules) isActingSeat(s *models.RoomState, seat *models.Seat) bool {
	if s.Phase != models.PhaseActing || seat.HasActed {
		return false
	}
	return s.Timer != nil && s.Timer.Kind == models.TimerActing && s.Timer.TargetPlayerID == seat.ID
}

// IsPlayOver reports whether the play is finished or every eligible seat has
// acted during the acting phase. Callers poll this after each transition.
func (Rules) IsPlayOver(s *models.RoomState) bool {
	if s.Phase == models.PhaseFinished {
		return true
	}
	if s.Phase != models.PhaseActing {
		return false
	}
	for _, seat := range s.EligibleSeats() {
		if !seat.HasActed {
			return false
		}
	}
	return true
}

// NextActingSeat returns the first online non-dealer seat with an open turn,
// searching seat indexes from fromIdx and wrapping. Nil when everyone acted.
func (Rules) NextActingSeat(s *models.RoomState, fromIdx int) *models.Seat {
	if s.MaxSeats == 0 {
		return nil
	}
	for i := 0; i < s.MaxSeats; i++ {
		idx := (fromIdx + i) % s.MaxSeats
		seat := s.SeatAtIndex(idx)
		if seat != nil && seat.Online && !seat.IsDealer && !seat.HasActed {
			return seat
		}
	}
	return nil
}

// DealerShouldHit implements the house rule: the dealer hits while the hand
// value is below 17 and stands on all 17s, soft included.
func (Rules) DealerShouldHit(hand []deck.Card) bool {
	return HandValue(hand) < 17
}

// PlayDealerHand draws for the dealer from the remaining deck until the house
// threshold is reached, mirroring the final hand onto the dealer seat.
func (r Rules) PlayDealerHand(s *models.RoomState) error {
	for r.DealerShouldHit(s.DealerHand) {
		c, err := r.drawCard(s)
		if err != nil {
			return err
		}
		s.DealerHand = append(s.DealerHand, c)
	}
	if dealer := s.DealerFlagSeat(); dealer != nil {
		dealer.Hand = append([]deck.Card(nil), s.DealerHand...)
	}
	return nil
}

// Settle compares every eligible seat against the dealer hand and returns the
// per-seat balance deltas. A winning blackjack pays 3:2 (floored); the dealer
// seat absorbs the negative sum, so the settlement is exactly zero-sum across
// all seats including the dealer.
func (Rules) Settle(s *models.RoomState) models.GameResult {
	result := models.GameResult{
		HandNo: s.HandNo,
		Deltas: make(map[uuid.UUID]int),
	}

	dealerDelta := 0
	for _, seat := range s.EligibleSeats() {
		// A seat with a bet but no cards was absent at the deal; its stake
		// is simply returned, never settled against the dealer.
		if len(seat.Hand) == 0 {
			continue
		}
		bet := seat.CurrentBet
		delta := 0
		switch Compare(seat.Hand, s.DealerHand) {
		case Win:
			if IsBlackjack(seat.Hand) {
				delta = bet * 3 / 2
			} else {
				delta = bet
			}
			dealerDelta -= delta
		case Lose:
			delta = -bet
			dealerDelta += bet
		}
		result.Deltas[seat.ID] = delta
	}

	if dealer := s.DealerFlagSeat(); dealer != nil {
		result.Deltas[dealer.ID] = dealerDelta
	}
	return result
}

// LegalActions lists the action kinds open to a seat in the current phase.
func (r Rules) LegalActions(s *models.RoomState, playerID uuid.UUID) []models.ActionType {
	seat := s.SeatByID(playerID)
	if seat == nil || seat.IsDealer || !seat.Online {
		return nil
	}

	switch s.Phase {
	case models.PhaseBetting:
		return []models.ActionType{models.ActionBet}
	case models.PhaseActing:
		if !r.isActingSeat(s, seat) {
			return nil
		}
		if HandValue(seat.Hand) < 21 {
			return []models.ActionType{models.ActionHit, models.ActionStand}
		}
		return []models.ActionType{models.ActionStand}
	}
	return nil
}

// drawCard hands out the next undealt card by running index. Nine seats can
// never consume 52 cards in ordinary play, so overrun is surfaced as a
// defect, never wrapped.
func (Rules) drawCard(s *models.RoomState) (deck.Card, error) {
	if s.DeckIndex >= len(s.Deck) {
		return deck.Card{}, ErrDeckExhausted
	}
	c := s.Deck[s.DeckIndex]
	s.DeckIndex++
	return c, nil
}
