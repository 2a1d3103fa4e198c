// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handlers. These provide more
// specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidSeatTokenError = 3001 // Provided seat token was invalid, expired, or for another room.
	RoomFullError         = 3002 // Every seat in the requested room is occupied.
)
