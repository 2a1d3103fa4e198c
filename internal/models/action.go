// internal/models/action.go
package models

import "github.com/google/uuid"

// ActionType enumerates the player intents the rule set understands.
type ActionType string

const (
	ActionBet   ActionType = "bet"
	ActionHit   ActionType = "hit"
	ActionStand ActionType = "stand"
)

// Action captures a player's in-game move. Amount is only meaningful for bets.
type Action struct {
	Type     ActionType `json:"type"`
	PlayerID uuid.UUID  `json:"playerId"`
	Amount   int        `json:"amount,omitempty"`
}

// GameResult holds the zero-sum settlement of one finished play.
type GameResult struct {
	HandNo int               `json:"handNo"`
	Deltas map[uuid.UUID]int `json:"deltas"`
}
