package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Broadcasts and keepalive pings write to the same connection from
// different goroutines; interleaved writes corrupt frames, so every
// message must arrive intact even under concurrent senders.
func TestRealtimeHubSerializesConcurrentWrites(t *testing.T) {
	hub := NewRealtimeHub()
	registered := make(chan *WSClient, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cl := &WSClient{UserID: 7, Conn: conn}
		hub.Register(cl)
		registered <- cl
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	cl := <-registered

	const broadcasts = 20
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.BroadcastIntake(7, map[string]any{"food": "tostada", "grams": 30})
		}()
		go func() {
			defer wg.Done()
			_ = cl.Send(websocket.PingMessage, nil)
		}()
	}
	wg.Wait()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := 0; i < broadcasts; i++ {
		mt, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, mt)
		assert.JSONEq(t, `{"food":"tostada","grams":30}`, string(msg))
	}

	hub.Unregister(cl)
}

func TestRealtimeHubBroadcastReachesOnlyOwner(t *testing.T) {
	hub := NewRealtimeHub()
	registered := make(chan *WSClient, 2)

	upgrader := websocket.Upgrader{}
	var nextUser uint = 1
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		uid := nextUser
		nextUser++
		mu.Unlock()
		cl := &WSClient{UserID: uid, Conn: conn}
		hub.Register(cl)
		registered <- cl
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	owner, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer owner.Close()
	<-registered

	other, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer other.Close()
	<-registered

	hub.BroadcastIntake(1, map[string]any{"food": "yogur"})

	require.NoError(t, owner.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := owner.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "yogur")

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "user 2 must not receive user 1's entries")
}
