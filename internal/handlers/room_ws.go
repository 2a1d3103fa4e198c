// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/filiprollner/royale-platform/internal/auth"
	"github.com/filiprollner/royale-platform/internal/game"
	"github.com/filiprollner/royale-platform/internal/models"
)

// maxChatLen caps relayed chat messages.
const maxChatLen = 500

// RoomMessage represents the structure for incoming WebSocket messages.
type RoomMessage struct {
	Type string `json:"type"`

	// Amount is the chip amount for bet messages.
	Amount int `json:"amount,omitempty"`

	// Text is the body for chat messages.
	Text string `json:"text,omitempty"`
}

// RoomWSHandler upgrades the HTTP connection to WebSocket for a specific room.
// New players join with ?name=...; returning players present their seat token
// with ?token=... to reclaim their seat. The handler registers the connection
// and then blocks in the read loop until the client disconnects.
func RoomWSHandler(logger *logrus.Logger, rs *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract room ID from URL path: /room/ws/{room_id}
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing room_id in path (/room/ws/{room_id})", http.StatusBadRequest)
			return
		}
		roomID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid room_id format", http.StatusBadRequest)
			return
		}

		room, ok := rs.Rooms.Get(roomID)
		if !ok {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %s: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for room %s connected with invalid subprotocol: %s", roomID, c.Subprotocol())
			c.Close(websocket.StatusCode(BadSubprotocolError), "Client must use the 'game' subprotocol.")
			return
		}
		logger.Infof("WebSocket connection established for room %s from %s", roomID, r.RemoteAddr)

		seat, err := seatPlayer(room, r)
		if err != nil {
			logger.Warnf("Seating failed for room %s: %v", roomID, err)
			switch {
			case errors.Is(err, game.ErrRoomFull):
				c.Close(websocket.StatusCode(RoomFullError), "Room is full.")
			default:
				c.Close(websocket.StatusCode(InvalidSeatTokenError), "Could not seat player.")
			}
			return
		}

		// Issue (or refresh) the seat token so the client can reconnect.
		token, err := auth.NewSeatToken(room.ID, seat.ID)
		if err != nil {
			logger.Errorf("Failed to sign seat token for room %s: %v", roomID, err)
			c.Close(websocket.StatusInternalError, "Token signing failed.")
			return
		}
		sendWsMessage(c, map[string]interface{}{
			"type":      "welcome",
			"playerId":  seat.ID,
			"seatIndex": seat.SeatIndex,
			"token":     token,
		})

		rc := rs.clientsFor(room.ID)
		rc.add(c, seat.ID)

		// Initial state so the client renders without waiting for the next
		// committed change.
		sendWsMessage(c, game.Event{Type: game.EventRoomState, State: room.Snapshot()})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readRoomMessages(ctx, c, room, seat, logger)

		logger.Infof("Player %s WebSocket read loop exited for room %s.", seat.ID, roomID)
		if remaining := rc.remove(c, seat.ID); remaining == 0 {
			// Last connection gone: the seat goes offline but stays at the
			// table for a token-based reconnect. A seat removed by a leave
			// message is already gone.
			if err := room.SetOnline(seat.ID, false); err != nil && !errors.Is(err, game.ErrUnknownPlayer) {
				logger.Warnf("Failed to mark player %s offline in room %s: %v", seat.ID, roomID, err)
			}
		}
	}
}

// seatPlayer resolves the request to a seat: a valid token reclaims an
// existing seat, otherwise a fresh join is attempted under the given name.
func seatPlayer(room *game.Room, r *http.Request) (*models.Seat, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = extractTokenFromCookie(r.Header.Get("Cookie"))
	}
	if token != "" {
		roomID, playerID, err := auth.VerifySeatToken(token)
		if err != nil {
			return nil, err
		}
		if roomID != room.ID {
			return nil, fmt.Errorf("seat token is for another room")
		}
		return room.Rejoin(playerID)
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "guest"
	}
	return room.Join(name)
}

// readRoomMessages continuously reads client messages, validates them, and
// routes them to the room engine. It exits on error or context cancellation.
func readRoomMessages(ctx context.Context, c *websocket.Conn, room *game.Room, seat *models.Seat, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s in room %s.", seat.ID, room.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s in room %s.", seat.ID, room.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for player %s in room %s: %v (Status: %d)", seat.ID, room.ID, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from player %s in room %s. Ignoring.", msgType, seat.ID, room.ID)
			continue
		}

		var msg RoomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received from player %s in room %s: %v. Data: %s", seat.ID, room.ID, err, string(data))
			sendWsError(c, "Invalid JSON format.")
			continue
		}

		logger.Debugf("Received '%s' from player %s in room %s.", msg.Type, seat.ID, room.ID)

		if left := routeRoomMessage(logger, c, room, seat, msg); left {
			logger.Infof("Player %s left room %s.", seat.ID, room.ID)
			c.Close(websocket.StatusNormalClosure, "Left room.")
			return
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for player %s in room %s.", seat.ID, room.ID)
			return
		default:
		}
	}
}

// routeRoomMessage dispatches one parsed client message to the room engine.
// It reports true when the client asked to leave and the connection should
// close.
func routeRoomMessage(logger *logrus.Logger, c *websocket.Conn, room *game.Room, seat *models.Seat, msg RoomMessage) bool {
	switch msg.Type {
	case "bet", "hit", "stand":
		action := models.Action{
			Type:     models.ActionType(msg.Type),
			PlayerID: seat.ID,
			Amount:   msg.Amount,
		}
		if applied := room.HandleAction(action); !applied {
			sendWsError(c, fmt.Sprintf("Illegal action: %s. Legal now: %v", msg.Type, room.LegalActions(seat.ID)))
		}

	case "start":
		if ok := room.HandleStartPlay(seat.ID); !ok {
			sendWsError(c, "Cannot start a play right now.")
		}

	case "leave":
		if err := room.Leave(seat.ID); err != nil {
			logger.Warnf("Failed to remove player %s from room %s: %v", seat.ID, room.ID, err)
		}
		return true

	case "chat":
		text := truncateChat(strings.TrimSpace(msg.Text))
		if text == "" {
			return false
		}
		room.PostChat(models.ChatMessage{
			ID:         uuid.New(),
			PlayerID:   seat.ID,
			PlayerName: seat.Name,
			Text:       text,
			At:         time.Now().UnixMilli(),
		})

	case "ping":
		sendWsMessage(c, map[string]string{"type": "pong"})

	default:
		logger.Warnf("Unknown message type '%s' from player %s in room %s.", msg.Type, seat.ID, room.ID)
		sendWsError(c, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
	return false
}

// truncateChat caps a chat message at maxChatLen bytes without splitting a
// multi-byte rune.
func truncateChat(text string) string {
	if len(text) <= maxChatLen {
		return text
	}
	cut := maxChatLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// sendWsMessage marshals a message and sends it to the WebSocket client with
// a write timeout.
func sendWsMessage(c *websocket.Conn, message interface{}) {
	if c == nil {
		log.Println("Error: Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			log.Printf("Error writing WebSocket message: %v (Status: %d)", err, status)
		}
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(c *websocket.Conn, errorMsg string) {
	sendWsMessage(c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}

// extractTokenFromCookie pulls the seat token out of a Cookie header, if set.
func extractTokenFromCookie(cookieHeader string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == "seat_token" {
			return kv[1]
		}
	}
	return ""
}
