package event

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubStreamsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bus := NewBus(slog.Default())
	hub := NewHub(bus, slog.Default())

	r := gin.New()
	r.GET("/api/events", hub.ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	bus.Publish(Event{Type: StackComposeImported, Payload: map[string]any{"stack_id": 3}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, StackComposeImported, got.Type)
	assert.EqualValues(t, 3, got.Payload["stack_id"])

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsSlowViewer(t *testing.T) {
	bus := NewBus(slog.Default())
	hub := NewHub(bus, slog.Default())
	id, ch := hub.register()
	_ = id

	for i := 0; i < clientBuffer+1; i++ {
		bus.Publish(Event{Type: ServerUpdated})
	}

	assert.Equal(t, 0, hub.Clients())
	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, clientBuffer, n)
}
