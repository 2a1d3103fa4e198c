// internal/game/room_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// RoomStore is an explicit registry of live rooms. It is created once in the
// server entry point and handed to whichever boundary layer needs lookups;
// there is no package-level singleton.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[uuid.UUID]*Room)}
}

func (s *RoomStore) Add(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

func (s *RoomStore) Get(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete removes the room from the registry and releases its timers.
func (s *RoomStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if ok {
		r.Close()
	}
}

// List returns the live rooms in unspecified order.
func (s *RoomStore) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}
