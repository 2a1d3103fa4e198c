// internal/handlers/room_server_test.go
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filiprollner/royale-platform/internal/auth"
	"github.com/filiprollner/royale-platform/internal/game"
	"github.com/filiprollner/royale-platform/internal/models"
)

func newTestServer(t *testing.T) *RoomServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRoomServer(ctx, logger, quartz.NewMock(t))
}

func createRoom(t *testing.T, rs *RoomServer, body string) uuid.UUID {
	t.Helper()
	req := httptest.NewRequest("POST", "/room/create", strings.NewReader(body))
	rec := httptest.NewRecorder()
	rs.CreateRoomHandler(rec, req)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var resp struct {
		RoomID uuid.UUID `json:"room_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.RoomID
}

func TestCreateRoomHandler(t *testing.T) {
	rs := newTestServer(t)

	roomID := createRoom(t, rs, `{"name":"high rollers","minBet":25}`)
	room, ok := rs.Rooms.Get(roomID)
	require.True(t, ok)
	assert.Equal(t, "high rollers", room.State.Name)
	assert.Equal(t, 25, room.State.MinBet)
	assert.Equal(t, models.DefaultMaxSeats, room.State.MaxSeats)
}

func TestCreateRoomHandlerRejectsBadConfig(t *testing.T) {
	rs := newTestServer(t)

	req := httptest.NewRequest("POST", "/room/create", strings.NewReader(`{"name":"x"}`))
	rec := httptest.NewRecorder()
	rs.CreateRoomHandler(rec, req)
	assert.Equal(t, 400, rec.Code, "minBet is required")

	req = httptest.NewRequest("POST", "/room/create", strings.NewReader(`not json`))
	rec = httptest.NewRecorder()
	rs.CreateRoomHandler(rec, req)
	assert.Equal(t, 400, rec.Code)

	req = httptest.NewRequest("GET", "/room/create", nil)
	rec = httptest.NewRecorder()
	rs.CreateRoomHandler(rec, req)
	assert.Equal(t, 405, rec.Code)
}

func TestListRoomsHandler(t *testing.T) {
	rs := newTestServer(t)
	createRoom(t, rs, `{"name":"a","minBet":10}`)
	createRoom(t, rs, `{"name":"b","minBet":10,"maxSeats":4}`)

	req := httptest.NewRequest("GET", "/room/list", nil)
	rec := httptest.NewRecorder()
	rs.ListRoomsHandler(rec, req)
	require.Equal(t, 200, rec.Code)

	var rooms []roomSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rooms))
	require.Len(t, rooms, 2)

	names := []string{rooms[0].Name, rooms[1].Name}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
	for _, room := range rooms {
		assert.Equal(t, "waiting", room.Phase)
		assert.Zero(t, room.Seated)
	}
}

func TestSeatPlayerWithToken(t *testing.T) {
	auth.Init()
	rs := newTestServer(t)
	roomID := createRoom(t, rs, `{"name":"t","minBet":10}`)
	room, ok := rs.Rooms.Get(roomID)
	require.True(t, ok)

	joinReq := httptest.NewRequest("GET", "/room/ws/"+roomID.String()+"?name=alice", nil)
	seat, err := seatPlayer(room, joinReq)
	require.NoError(t, err)
	assert.Equal(t, "alice", seat.Name)

	token, err := auth.NewSeatToken(room.ID, seat.ID)
	require.NoError(t, err)

	require.NoError(t, room.SetOnline(seat.ID, false))
	rejoinReq := httptest.NewRequest("GET", "/room/ws/"+roomID.String()+"?token="+token, nil)
	same, err := seatPlayer(room, rejoinReq)
	require.NoError(t, err)
	assert.Equal(t, seat.ID, same.ID)
	assert.True(t, same.Online)
}

func TestSeatPlayerRejectsForeignRoomToken(t *testing.T) {
	auth.Init()
	rs := newTestServer(t)
	roomA, _ := rs.Rooms.Get(createRoom(t, rs, `{"name":"a","minBet":10}`))
	roomB, _ := rs.Rooms.Get(createRoom(t, rs, `{"name":"b","minBet":10}`))

	joinReq := httptest.NewRequest("GET", "/x?name=alice", nil)
	seat, err := seatPlayer(roomA, joinReq)
	require.NoError(t, err)

	token, err := auth.NewSeatToken(roomA.ID, seat.ID)
	require.NoError(t, err)

	crossReq := httptest.NewRequest("GET", "/x?token="+token, nil)
	_, err = seatPlayer(roomB, crossReq)
	assert.Error(t, err, "token bound to room A cannot seat in room B")
}

func TestSeatPlayerFullRoom(t *testing.T) {
	rs := newTestServer(t)
	roomID := createRoom(t, rs, `{"name":"t","minBet":10,"maxSeats":2}`)
	room, _ := rs.Rooms.Get(roomID)

	for i := 0; i < 2; i++ {
		_, err := seatPlayer(room, httptest.NewRequest("GET", "/x?name=p", nil))
		require.NoError(t, err)
	}
	_, err := seatPlayer(room, httptest.NewRequest("GET", "/x?name=late", nil))
	assert.ErrorIs(t, err, game.ErrRoomFull)
}

func TestLeaveMessageRemovesSeat(t *testing.T) {
	rs := newTestServer(t)
	roomID := createRoom(t, rs, `{"name":"t","minBet":10}`)
	room, _ := rs.Rooms.Get(roomID)

	seat, err := seatPlayer(room, httptest.NewRequest("GET", "/x?name=alice", nil))
	require.NoError(t, err)
	other, err := seatPlayer(room, httptest.NewRequest("GET", "/x?name=bob", nil))
	require.NoError(t, err)

	left := routeRoomMessage(rs.Logger, nil, room, other, RoomMessage{Type: "leave"})
	assert.True(t, left, "leave closes the connection")
	assert.Nil(t, room.State.SeatByID(other.ID), "seat is removed, not just offline")
	assert.NotNil(t, room.State.SeatByID(seat.ID))

	left = routeRoomMessage(rs.Logger, nil, room, seat, RoomMessage{Type: "ping"})
	assert.False(t, left)
}

func TestChatTruncatesOnRuneBoundary(t *testing.T) {
	rs := newTestServer(t)
	roomID := createRoom(t, rs, `{"name":"t","minBet":10}`)
	room, _ := rs.Rooms.Get(roomID)
	seat, err := seatPlayer(room, httptest.NewRequest("GET", "/x?name=alice", nil))
	require.NoError(t, err)

	var got *models.ChatMessage
	room.BroadcastFn = func(ev game.Event) {
		if ev.Type == game.EventChatMessage {
			got = ev.Chat
		}
	}

	// The two-byte rune straddles the byte cap; a byte-wise cut would leave
	// invalid UTF-8 behind.
	text := strings.Repeat("a", maxChatLen-1) + "é"
	routeRoomMessage(rs.Logger, nil, room, seat, RoomMessage{Type: "chat", Text: text})

	require.NotNil(t, got)
	assert.True(t, utf8.ValidString(got.Text))
	assert.Equal(t, strings.Repeat("a", maxChatLen-1), got.Text)
}
