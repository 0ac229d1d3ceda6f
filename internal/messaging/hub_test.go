package messaging

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorer/blackmarket/internal/model"
)

func dialTestHub(t *testing.T, h *Hub) *ws.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.handleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)
	return conn
}

func TestHub_PublishReachesClient(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	conn := dialTestHub(t, h)

	h.Publish(model.NotifyOrderAccepted, model.Order{
		ID:          "o1",
		AgentID:     4,
		Weapon:      "ak_pattern",
		AgreedPrice: 900,
		Location:    model.Waypoint{Name: "old mill"},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, model.NotifyOrderAccepted, env.Type)

	var notice model.OrderNotice
	require.NoError(t, json.Unmarshal(env.Payload, &notice))
	assert.Equal(t, "o1", notice.OrderID)
	assert.Equal(t, model.AgentID(4), notice.AgentID)
	assert.Equal(t, 900.0, notice.AgreedPrice)
	assert.Equal(t, "old mill", notice.Location)
}

func TestHub_FailureNoticeCarriesReason(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	conn := dialTestHub(t, h)

	h.Publish(model.NotifyOrderFailed, model.Order{
		ID:         "o2",
		FailReason: "sight: have (empty), want holo_sight",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	var notice model.OrderNotice
	require.NoError(t, json.Unmarshal(env.Payload, &notice))
	assert.Contains(t, notice.Reason, "holo_sight")
}

func TestHub_DisconnectedClientRemoved(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	conn := dialTestHub(t, h)
	conn.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 5*time.Millisecond)

	// Broadcasting to nobody is fine.
	h.Broadcast(model.Envelope{Type: model.NotifyOrderRequested})
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	h := NewHub(nil)
	dialTestHub(t, h)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.Equal(t, 0, h.ClientCount())
}
