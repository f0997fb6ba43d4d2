package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictbattle/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_BroadcastReachesOnlyThatSession(t *testing.T) {
	hub := NewHub(discardLogger())
	defer hub.Close()

	watcher := hub.NewConnection("ABC234")
	other := hub.NewConnection("XYZ789")
	hub.Register(watcher)
	hub.Register(other)

	hub.BroadcastToSession("ABC234", "prediction_added", map[string]string{"playerName": "ann"})

	select {
	case data := <-watcher.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageType("prediction_added"), msg.Type)
		assert.JSONEq(t, `{"playerName":"ann"}`, string(msg.Payload))
	case <-time.After(time.Second):
		t.Fatal("watcher got no message")
	}

	select {
	case <-other.Send:
		t.Fatal("message leaked to another session")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub(discardLogger())
	defer hub.Close()

	conn := hub.NewConnection("ABC234")
	hub.Register(conn)
	require.Equal(t, 1, hub.Watchers("ABC234"))

	hub.Unregister(conn)
	_, ok := <-conn.Send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Watchers("ABC234"))
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	hub := NewHub(discardLogger())
	conn := hub.NewConnection("ABC234")
	hub.Register(conn)

	hub.Close()
	hub.Close()

	_, ok := <-conn.Send
	assert.False(t, ok)
}

type stubFinder map[string]*model.Session

func (f stubFinder) GetSessionByCode(_ context.Context, code string) (*model.SessionView, error) {
	s, ok := f[strings.ToUpper(code)]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return &model.SessionView{Session: s}, nil
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	finder := stubFinder{"ABC234": {Code: "ABC234", Question: "who wins?", MaxPlayers: 5}}
	h := NewHandler(hub, finder, "http://localhost:3000", discardLogger())

	r := mux.NewRouter()
	r.HandleFunc("/ws/sessions/{code}", h.SessionWS).Methods("GET")
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionWS_StreamsEvents(t *testing.T) {
	hub := NewHub(discardLogger())
	defer hub.Close()
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/abc234"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Watchers("ABC234") == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToSession("ABC234", "session_completed", map[string]string{"status": "completed"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageType("session_completed"), msg.Type)
	assert.JSONEq(t, `{"status":"completed"}`, string(msg.Payload))
}

func TestSessionWS_UnknownSession(t *testing.T) {
	hub := NewHub(discardLogger())
	defer hub.Close()
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/NOPE99"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionWS_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(discardLogger())
	defer hub.Close()
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/ABC234"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
