// internal/game/events.go
package game

import "github.com/filiprollner/royale-platform/internal/models"

// EventType is an enum-like type for events broadcast to room participants.
type EventType string

const (
	EventRoomState   EventType = "room:state"   // full snapshot on every committed change
	EventTimerTock   EventType = "timer:tock"   // once-per-second countdown while a timer is armed
	EventChatMessage EventType = "chat:message" // pass-through chat relay
	EventNotice      EventType = "notice"       // human-readable room notice
	EventSettlement  EventType = "settlement"   // per-seat deltas and revealed seed after a play
)

// Event is the single wire shape for everything the engine emits. Exactly one
// payload field is set per event type.
type Event struct {
	Type   EventType           `json:"type"`
	State  *RoomSnapshot       `json:"state,omitempty"`
	Chat   *models.ChatMessage `json:"chat,omitempty"`
	MsLeft *int64              `json:"msLeft,omitempty"`
	Notice string              `json:"notice,omitempty"`
	Result *SettlementView     `json:"result,omitempty"`
}

// SettlementView is broadcast once per finished play, revealing the shuffle
// seed so clients can audit the deal against the committed hash.
type SettlementView struct {
	HandNo   int            `json:"handNo"`
	Deltas   map[string]int `json:"deltas"`
	Seed     string         `json:"seed"`
	SeedHash string         `json:"seedHash"`
}
