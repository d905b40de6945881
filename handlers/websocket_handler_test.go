package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tennis-tournament/brackets"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWsServer(t *testing.T) (*brackets.Hub, context.CancelFunc, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := brackets.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	h := NewWebSocketHandler(hub, logger)
	r := chi.NewRouter()
	r.Get("/ws/tournaments/{tournamentID}", h.ServeTournamentWs)
	r.Get("/ws/categories/{categoryID}", h.ServeCategoryWs)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, cancel, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketRegisterBroadcastUnregister(t *testing.T) {
	hub, _, base := newWsServer(t)
	room := brackets.TournamentRoom(3)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/tournaments/3", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(room, brackets.WebSocketMessage{Type: brackets.MessageMatchCompleted, RoomID: room})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg brackets.WebSocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, brackets.MessageMatchCompleted, msg.Type)
	assert.Equal(t, room, msg.RoomID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.RoomSize(room) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketAfterHubStopped(t *testing.T) {
	hub, cancel, base := newWsServer(t)
	cancel()
	// Run завершился, если новая регистрация сразу отклоняется.
	require.Eventually(t, func() bool {
		return !hub.RegisterClient(&brackets.Client{Hub: hub, Send: make(chan []byte, 1)})
	}, time.Second, 5*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/categories/2", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, hub.RoomSize(brackets.CategoryRoom(2)))
}
