// internal/models/chat.go
package models

import "github.com/google/uuid"

// ChatMessage is relayed verbatim to the room; chat never touches game state.
type ChatMessage struct {
	ID         uuid.UUID `json:"id"`
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Text       string    `json:"text"`
	At         int64     `json:"at"` // ms epoch
}
