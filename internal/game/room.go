// internal/game/room.go
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/filiprollner/royale-platform/internal/blackjack"
	"github.com/filiprollner/royale-platform/internal/models"
)

// Phase deadlines. The resolving grace is engine-internal and never surfaces
// as a room timer.
const (
	bettingTimeout = 60 * time.Second
	actingTimeout  = 60 * time.Second
	dealerTimeout  = 30 * time.Second
	resolveGrace   = 3 * time.Second
)

var (
	// ErrRoomFull is returned when every seat is occupied.
	ErrRoomFull = errors.New("game: room is full")
	// ErrUnknownPlayer is returned for operations against a seat that does
	// not exist in this room.
	ErrUnknownPlayer = errors.New("game: unknown player")
)

// SettleFunc is invoked after each settled play with the room state and the
// zero-sum result. Implementations must not call back into the room.
type SettleFunc func(state *models.RoomState, result models.GameResult)

// Room owns one table's live state and drives its phase machine. Every
// inbound action, join/leave, and timer expiry is processed to completion
// under Mu before the next is accepted, so state mutation is fully
// serialised. Rooms share nothing, so distinct rooms run concurrently.
type Room struct {
	ID uuid.UUID

	Mu    sync.Mutex
	State *models.RoomState

	rules  blackjack.Rules
	clock  quartz.Clock
	logger *logrus.Entry

	// timerGen guards against stale timer callbacks: arming a new deadline
	// invalidates every callback scheduled before it.
	timerGen   int
	phaseTimer *quartz.Timer

	// BroadcastFn sends an event to all connected participants. It is called
	// with Mu held and must therefore never re-acquire it; the handler layer
	// keeps its own connection registry and writes asynchronously.
	BroadcastFn func(ev Event)

	// OnSettle is an optional audit hook fired once per settled play.
	OnSettle SettleFunc
}

// NewRoom builds a waiting room from a config. The clock is injected so tests
// drive timers with a mock.
func NewRoom(cfg models.RoomConfig, clock quartz.Clock, logger *logrus.Logger) (*Room, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	state := blackjack.Rules{}.Initialize(cfg)
	r := &Room{
		ID:     state.ID,
		State:  state,
		clock:  clock,
		logger: logger.WithField("room", state.ID),
	}
	return r, nil
}

// Join seats a new player at the lowest free index. The first occupant of an
// otherwise button-less room takes the dealer button. Players joining after
// the deal sit out until the next play.
func (r *Room) Join(name string) (*models.Seat, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if len(r.State.Seats) >= r.State.MaxSeats {
		return nil, ErrRoomFull
	}
	idx := -1
	for i := 0; i < r.State.MaxSeats; i++ {
		if r.State.SeatAtIndex(i) == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrRoomFull
	}

	seat := &models.Seat{
		ID:        uuid.New(),
		Name:      name,
		SeatIndex: idx,
		Balance:   r.State.StartingBalance,
		Online:    true,
	}
	if r.State.DealerFlagSeat() == nil {
		seat.IsDealer = true
		r.State.DealerSeat = idx
	}
	r.sitOutIfUndealt(seat)
	r.State.Seats = append(r.State.Seats, seat)

	r.logger.WithFields(logrus.Fields{"player": seat.ID, "seat": idx, "name": name}).Info("player joined")
	r.broadcastState()
	return seat, nil
}

// Rejoin marks an existing seat online again, for reconnects.
func (r *Room) Rejoin(playerID uuid.UUID) (*models.Seat, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	seat := r.State.SeatByID(playerID)
	if seat == nil {
		return nil, ErrUnknownPlayer
	}
	seat.Online = true
	r.sitOutIfUndealt(seat)
	r.logger.WithField("player", playerID).Info("player reconnected")
	r.broadcastState()
	return seat, nil
}

// Leave removes a player's seat entirely. The dealer flag leaves with the
// seat; the next joiner picks the button back up if nobody holds it.
func (r *Room) Leave(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	seat := r.State.SeatByID(playerID)
	if seat == nil {
		return ErrUnknownPlayer
	}
	wasTarget := r.State.Timer != nil &&
		r.State.Timer.Kind == models.TimerActing &&
		r.State.Timer.TargetPlayerID == playerID

	kept := r.State.Seats[:0]
	for _, s := range r.State.Seats {
		if s.ID != playerID {
			kept = append(kept, s)
		}
	}
	r.State.Seats = kept
	if r.State.Phase == models.PhaseBetting || r.State.Phase == models.PhaseActing {
		r.State.Pot = r.State.BetsTotal()
	}
	r.logger.WithField("player", playerID).Info("player left")

	if r.starved() {
		r.finishRoom()
		return nil
	}
	if wasTarget {
		r.advanceActing(seat.SeatIndex)
		return nil
	}
	r.broadcastState()
	return nil
}

// SetOnline flips a seat's presence flag. Going offline mid-turn forfeits the
// turn to the timer path immediately instead of waiting for expiry.
func (r *Room) SetOnline(playerID uuid.UUID, online bool) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	seat := r.State.SeatByID(playerID)
	if seat == nil {
		return ErrUnknownPlayer
	}
	if seat.Online == online {
		return nil
	}
	seat.Online = online
	r.logger.WithFields(logrus.Fields{"player": playerID, "online": online}).Info("presence changed")

	if online {
		r.sitOutIfUndealt(seat)
	}
	if !online {
		if r.starved() {
			r.finishRoom()
			return nil
		}
		if r.State.Timer != nil && r.State.Timer.Kind == models.TimerActing && r.State.Timer.TargetPlayerID == playerID {
			r.advanceActing(seat.SeatIndex)
			return nil
		}
	}
	r.broadcastState()
	return nil
}

// HandleStartPlay moves the room into betting. Only the dealer seat may start
// a play, only from waiting or finished, and only with at least one online
// non-dealer seat at the table.
func (r *Room) HandleStartPlay(playerID uuid.UUID) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State.Phase != models.PhaseWaiting && r.State.Phase != models.PhaseFinished {
		return false
	}
	seat := r.State.SeatByID(playerID)
	if seat == nil || !seat.IsDealer {
		return false
	}
	if len(r.State.EligibleSeats()) == 0 {
		return false
	}

	r.State.Phase = models.PhaseBetting
	r.armTimer(models.TimerBetting, bettingTimeout, uuid.Nil)
	r.logger.WithField("hand", r.State.HandNo).Info("betting opened")
	r.broadcastState()
	return true
}

// HandleAction applies a player intent. Illegal actions are no-ops and report
// false so the boundary can surface a rejection; the room state is unchanged.
func (r *Room) HandleAction(a models.Action) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	applied, err := r.rules.ApplyAction(r.State, a)
	if err != nil {
		r.fatalPlay(err)
		return false
	}
	if !applied {
		return false
	}

	switch a.Type {
	case models.ActionBet:
		// Once every eligible seat has the minimum in, there is nothing left
		// to wait for; deal immediately rather than running out the clock.
		if r.allBetsIn() {
			r.dealAfterBetting()
		} else {
			r.broadcastState()
		}
	case models.ActionHit, models.ActionStand:
		seat := r.State.SeatByID(a.PlayerID)
		from := 0
		if seat != nil {
			from = seat.SeatIndex
		}
		r.advanceActing(from)
	}
	return true
}

// LegalActions lists the action kinds currently open to a player.
func (r *Room) LegalActions(playerID uuid.UUID) []models.ActionType {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.rules.LegalActions(r.State, playerID)
}

// Snapshot returns the redacted broadcast view of the room.
func (r *Room) Snapshot() *RoomSnapshot {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return snapshot(r.State)
}

// PostChat relays a chat message to the room. Chat never touches game state.
func (r *Room) PostChat(msg models.ChatMessage) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(Event{Type: EventChatMessage, Chat: &msg})
	}
}

// MoveToNextDealer rotates the button to the next online seat (wrapping,
// skipping offline seats, staying put on a full wrap), bumps the play and
// round counters, and resets every seat for the next play.
func (r *Room) MoveToNextDealer() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.moveToNextDealerLocked()
}

// RunTicker broadcasts a timer:tock countdown once per second while a timer
// is armed. Expiry itself is deadline-scheduled; this loop only exists so
// clients can render remaining time without doing their own clock math.
func (r *Room) RunTicker(ctx context.Context) error {
	return r.clock.TickerFunc(ctx, time.Second, func() error {
		r.tock()
		return nil
	}, "tock").Wait()
}

// Close invalidates all pending timers. The room must not be used afterwards.
func (r *Room) Close() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.stopTimerLocked()
}

// --- internals; all assume Mu is held ---

func (r *Room) broadcastState() {
	if r.BroadcastFn != nil {
		r.BroadcastFn(Event{Type: EventRoomState, State: snapshot(r.State)})
	}
}

func (r *Room) tock() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.State.Timer == nil || r.BroadcastFn == nil {
		return
	}
	ms := r.clock.Until(r.State.Timer.Deadline).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	r.BroadcastFn(Event{Type: EventTimerTock, MsLeft: &ms})
}

// armTimer replaces any prior deadline for this room.
func (r *Room) armTimer(kind models.TimerKind, d time.Duration, target uuid.UUID) {
	r.stopTimerLocked()
	r.timerGen++
	gen := r.timerGen

	now := r.clock.Now()
	r.State.Timer = &models.Timer{
		Kind:           kind,
		StartedAt:      now,
		Duration:       d,
		Deadline:       now.Add(d),
		TargetPlayerID: target,
	}
	r.phaseTimer = r.clock.AfterFunc(d, func() {
		r.onTimerExpired(gen)
	})
}

func (r *Room) stopTimerLocked() {
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
	r.timerGen++
	r.State.Timer = nil
}

func (r *Room) onTimerExpired(gen int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if gen != r.timerGen || r.State.Timer == nil {
		// A newer deadline superseded this callback.
		return
	}
	kind := r.State.Timer.Kind
	target := r.State.Timer.TargetPlayerID
	r.logger.WithField("kind", kind).Debug("timer expired")

	switch kind {
	case models.TimerBetting:
		r.dealAfterBetting()
	case models.TimerActing:
		from := 0
		if seat := r.State.SeatByID(target); seat != nil {
			from = seat.SeatIndex
			if !seat.HasActed {
				seat.HasActed = true
				r.logger.WithField("player", target).Info("acting timeout, auto-stand")
			}
		}
		r.advanceActing(from)
	case models.TimerDealer:
		r.playDealerAndSettle()
	}
}

// allBetsIn reports whether every eligible seat has at least the minimum in.
func (r *Room) allBetsIn() bool {
	eligible := r.State.EligibleSeats()
	if len(eligible) == 0 {
		return false
	}
	for _, seat := range eligible {
		if seat.CurrentBet < r.State.MinBet {
			return false
		}
	}
	return true
}

// dealAfterBetting tops every short stack up to the minimum bet, then deals.
// Auto-bets debit regardless of balance, which is the only path a balance can
// go transiently negative.
func (r *Room) dealAfterBetting() {
	for _, seat := range r.State.EligibleSeats() {
		if seat.CurrentBet < r.State.MinBet {
			diff := r.State.MinBet - seat.CurrentBet
			seat.Balance -= diff
			seat.CurrentBet = r.State.MinBet
			seat.AllIn = seat.Balance <= 0
			r.logger.WithFields(logrus.Fields{"player": seat.ID, "amount": r.State.MinBet}).Info("auto-bet at minimum")
		}
	}
	r.State.Pot = r.State.BetsTotal()

	if err := r.rules.StartPlay(r.State); err != nil {
		r.fatalPlay(err)
		return
	}
	if r.State.Phase == models.PhaseFinished {
		r.finishRoom()
		return
	}

	first := r.rules.NextActingSeat(r.State, 0)
	if first == nil {
		r.enterDealerPhase()
		return
	}
	r.armTimer(models.TimerActing, actingTimeout, first.ID)
	r.logger.WithFields(logrus.Fields{"hand": r.State.HandNo, "seedHash": r.State.SeedHash}).Info("hand dealt")
	r.broadcastState()
}

// advanceActing retargets the acting timer at the next open turn, starting
// the wrap search at fromIdx, or moves to the dealer phase when every
// eligible seat has acted.
func (r *Room) advanceActing(fromIdx int) {
	if r.State.Phase != models.PhaseActing {
		r.broadcastState()
		return
	}
	if r.rules.IsPlayOver(r.State) {
		r.enterDealerPhase()
		return
	}
	next := r.rules.NextActingSeat(r.State, fromIdx)
	if next == nil {
		r.enterDealerPhase()
		return
	}
	r.armTimer(models.TimerActing, actingTimeout, next.ID)
	r.broadcastState()
}

func (r *Room) enterDealerPhase() {
	r.State.Phase = models.PhaseDealer
	r.armTimer(models.TimerDealer, dealerTimeout, uuid.Nil)
	r.broadcastState()
}

// playDealerAndSettle runs the house hand, applies the zero-sum deltas to the
// seat balances in the same locked transition, and parks the room in
// resolving for the grace delay before the button rotates.
func (r *Room) playDealerAndSettle() {
	if err := r.rules.PlayDealerHand(r.State); err != nil {
		r.fatalPlay(err)
		return
	}

	// Stakes were debited when the bets went in. Return them first, then
	// apply the net deltas, so a push is a wash and a loss costs exactly the
	// stake.
	result := r.rules.Settle(r.State)
	for _, seat := range r.State.Seats {
		seat.Balance += seat.CurrentBet
		seat.CurrentBet = 0
	}
	for id, delta := range result.Deltas {
		if seat := r.State.SeatByID(id); seat != nil {
			seat.Balance += delta
		}
	}
	r.State.Pot = 0
	r.State.Phase = models.PhaseResolving
	r.stopTimerLocked()

	r.logger.WithFields(logrus.Fields{"hand": result.HandNo, "seed": r.State.Seed}).Info("play settled")
	if r.OnSettle != nil {
		r.OnSettle(r.State, result)
	}
	if r.BroadcastFn != nil {
		deltas := make(map[string]int, len(result.Deltas))
		for id, d := range result.Deltas {
			deltas[id.String()] = d
		}
		r.BroadcastFn(Event{Type: EventSettlement, Result: &SettlementView{
			HandNo:   result.HandNo,
			Deltas:   deltas,
			Seed:     r.State.Seed,
			SeedHash: r.State.SeedHash,
		}})
	}
	r.broadcastState()

	r.timerGen++
	gen := r.timerGen
	r.phaseTimer = r.clock.AfterFunc(resolveGrace, func() {
		r.finishResolving(gen)
	})
}

func (r *Room) finishResolving(gen int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if gen != r.timerGen || r.State.Phase != models.PhaseResolving {
		return
	}
	r.moveToNextDealerLocked()
	r.broadcastState()
}

func (r *Room) moveToNextDealerLocked() {
	s := r.State
	cur := s.DealerSeat
	next := cur
	for i := 1; i <= s.MaxSeats; i++ {
		idx := (cur + i) % s.MaxSeats
		if seat := s.SeatAtIndex(idx); seat != nil && seat.Online {
			next = idx
			break
		}
	}
	for _, seat := range s.Seats {
		seat.IsDealer = seat.SeatIndex == next
	}
	s.DealerSeat = next

	s.HandNo++
	s.PlayNo++
	if s.PlayNo > len(s.Seats) {
		s.RoundNo++
		s.PlayNo = 1
	}

	for _, seat := range s.Seats {
		seat.ResetForPlay()
	}
	s.DealerHand = nil
	s.Pot = 0
	s.Seed = ""
	s.SeedHash = ""
	s.Deck = nil
	s.DeckIndex = 0
	s.Phase = models.PhaseWaiting
	r.logger.WithFields(logrus.Fields{"dealerSeat": next, "play": s.PlayNo, "round": s.RoundNo}).Info("button rotated")
}

// sitOutIfUndealt marks a seat as acted when a hand is already in flight and
// the seat holds no cards, so the turn search skips it until the next deal. A
// seat that was absent at the deal must never build a hand after seeing the
// table.
func (r *Room) sitOutIfUndealt(seat *models.Seat) {
	switch r.State.Phase {
	case models.PhaseActing, models.PhaseDealer, models.PhaseResolving:
		if len(seat.Hand) == 0 {
			seat.HasActed = true
		}
	}
}

// starved reports whether a live play lost its last eligible seat.
func (r *Room) starved() bool {
	if r.State.Phase != models.PhaseBetting && r.State.Phase != models.PhaseActing {
		return false
	}
	return len(r.State.EligibleSeats()) == 0
}

func (r *Room) finishRoom() {
	r.State.Phase = models.PhaseFinished
	r.stopTimerLocked()
	r.logger.Info("no eligible players remain, room finished")
	r.broadcastState()
}

// fatalPlay handles an internal invariant violation such as deck exhaustion.
// This is a defect, not a normal error path: log it loudly and stop the room.
func (r *Room) fatalPlay(err error) {
	r.logger.WithError(err).Error("internal invariant violated, aborting play")
	r.State.Phase = models.PhaseFinished
	r.stopTimerLocked()
	r.broadcastState()
}
