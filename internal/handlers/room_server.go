// internal/handlers/room_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/filiprollner/royale-platform/internal/cache"
	"github.com/filiprollner/royale-platform/internal/game"
	"github.com/filiprollner/royale-platform/internal/models"
)

// RoomServer owns the room registry and the per-room connection registries.
// It is the glue between HTTP/WebSocket boundaries and the room engines.
type RoomServer struct {
	Rooms  *game.RoomStore
	Logger *logrus.Logger
	Clock  quartz.Clock

	// PublishAudit, when set, receives the fairness record of every settled
	// play. Left nil when Redis is not configured.
	PublishAudit func(ctx context.Context, rec cache.HandAuditRecord) error

	baseCtx context.Context

	mu      sync.Mutex
	clients map[uuid.UUID]*roomClients
}

// NewRoomServer wires a room server. baseCtx bounds the lifetime of per-room
// background work such as the countdown tickers.
func NewRoomServer(baseCtx context.Context, logger *logrus.Logger, clock quartz.Clock) *RoomServer {
	return &RoomServer{
		Rooms:   game.NewRoomStore(),
		Logger:  logger,
		Clock:   clock,
		baseCtx: baseCtx,
		clients: make(map[uuid.UUID]*roomClients),
	}
}

// roomClients tracks the live WebSocket connections of one room. It has its
// own lock so broadcasts never touch the room lock.
type roomClients struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]uuid.UUID // conn -> seated player
}

func (rc *roomClients) add(c *websocket.Conn, playerID uuid.UUID) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.conns[c] = playerID
}

// remove drops the connection and reports how many connections the player
// still holds, so the caller can flip presence only on the last one.
func (rc *roomClients) remove(c *websocket.Conn, playerID uuid.UUID) int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.conns, c)
	remaining := 0
	for _, id := range rc.conns {
		if id == playerID {
			remaining++
		}
	}
	return remaining
}

func (rc *roomClients) snapshot() []*websocket.Conn {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]*websocket.Conn, 0, len(rc.conns))
	for c := range rc.conns {
		out = append(out, c)
	}
	return out
}

func (s *RoomServer) clientsFor(roomID uuid.UUID) *roomClients {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.clients[roomID]
	if !ok {
		rc = &roomClients{conns: make(map[*websocket.Conn]uuid.UUID)}
		s.clients[roomID] = rc
	}
	return rc
}

// attach installs the broadcast and audit hooks on a freshly created room and
// starts its countdown ticker.
func (s *RoomServer) attach(room *game.Room) {
	rc := s.clientsFor(room.ID)
	logger := s.Logger

	// Called with the room lock held: collect targets from the connection
	// registry, then marshal and write without it.
	room.BroadcastFn = func(ev game.Event) {
		conns := rc.snapshot()
		if len(conns) == 0 {
			return
		}
		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for room %s: %v", ev.Type, room.ID, err)
			return
		}
		go func(conns []*websocket.Conn, data []byte) {
			for _, c := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				err := c.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					logger.Warnf("Failed to write broadcast message in room %s: %v", room.ID, err)
				}
			}
		}(conns, msgBytes)
	}

	if s.PublishAudit != nil {
		publish := s.PublishAudit
		room.OnSettle = func(state *models.RoomState, result models.GameResult) {
			rec := buildAuditRecord(state, result)
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := publish(ctx, rec); err != nil {
					logger.Warnf("Failed to publish hand audit for room %s: %v", rec.RoomID, err)
				}
			}()
		}
	}

	go func() {
		if err := room.RunTicker(s.baseCtx); err != nil && s.baseCtx.Err() == nil {
			logger.Warnf("Room %s ticker exited: %v", room.ID, err)
		}
	}()
}

// buildAuditRecord is called with the room lock held, so it must copy
// everything it needs before the async publish.
func buildAuditRecord(state *models.RoomState, result models.GameResult) cache.HandAuditRecord {
	rec := cache.HandAuditRecord{
		RoomID:      state.ID,
		HandNo:      result.HandNo,
		RoundNo:     state.RoundNo,
		Seed:        state.Seed,
		SeedHash:    state.SeedHash,
		PlayerHands: make(map[string][]string),
		Deltas:      make(map[string]int, len(result.Deltas)),
		Timestamp:   time.Now().UnixMilli(),
	}
	for _, c := range state.DealerHand {
		rec.DealerHand = append(rec.DealerHand, c.String())
	}
	for _, seat := range state.Seats {
		if seat.IsDealer || len(seat.Hand) == 0 {
			continue
		}
		hand := make([]string, 0, len(seat.Hand))
		for _, c := range seat.Hand {
			hand = append(hand, c.String())
		}
		rec.PlayerHands[seat.ID.String()] = hand
	}
	for id, delta := range result.Deltas {
		rec.Deltas[id.String()] = delta
	}
	return rec
}

// CreateRoomHandler handles POST /room/create. The body is the room config;
// the response carries the new room's ID.
func (s *RoomServer) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var cfg models.RoomConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	room, err := game.NewRoom(cfg, s.Clock, s.Logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.attach(room)
	s.Rooms.Add(room)
	s.Logger.WithFields(logrus.Fields{"room": room.ID, "name": cfg.Name}).Info("room created")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"room_id": room.ID,
	})
}

// roomSummary is one row of the room list.
type roomSummary struct {
	RoomID   uuid.UUID `json:"roomId"`
	Name     string    `json:"name"`
	Phase    string    `json:"phase"`
	Seated   int       `json:"seated"`
	MaxSeats int       `json:"maxSeats"`
	MinBet   int       `json:"minBet"`
}

// ListRoomsHandler handles GET /room/list.
func (s *RoomServer) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET required", http.StatusMethodNotAllowed)
		return
	}

	rooms := s.Rooms.List()
	out := make([]roomSummary, 0, len(rooms))
	for _, room := range rooms {
		snap := room.Snapshot()
		out = append(out, roomSummary{
			RoomID:   snap.RoomID,
			Name:     snap.Name,
			Phase:    snap.Phase,
			Seated:   len(snap.Seats),
			MaxSeats: snap.MaxSeats,
			MinBet:   snap.MinBet,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
