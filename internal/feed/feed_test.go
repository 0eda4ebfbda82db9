package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/store"
)

func startBroadcaster(t *testing.T) (*store.Store, string) {
	t.Helper()

	st := store.New()
	b := NewBroadcaster(st, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(b.HandleWS))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return st, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSummary(t *testing.T, conn *websocket.Conn) Summary {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var s Summary
	require.NoError(t, conn.ReadJSON(&s))
	return s
}

func TestBroadcaster_SnapshotOnConnect(t *testing.T) {
	st, url := startBroadcaster(t)
	st.Add(domain.LineItem{ID: "a", Name: "item a", Price: 10}, 2)

	conn := dial(t, url)

	s := readSummary(t, conn)
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 20.0, s.Total, 1e-9)
	assert.False(t, s.At.IsZero())
}

func TestBroadcaster_PushesOnChange(t *testing.T) {
	st, url := startBroadcaster(t)
	conn := dial(t, url)

	s := readSummary(t, conn)
	assert.Equal(t, 0, s.Count)

	st.Add(domain.LineItem{ID: "a", Name: "item a", Price: 5}, 3)

	s = readSummary(t, conn)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 15.0, s.Total, 1e-9)

	st.Remove("a")

	s = readSummary(t, conn)
	assert.Equal(t, 0, s.Count)
	assert.InDelta(t, 0.0, s.Total, 1e-9)
}

func TestBroadcaster_MultipleClients(t *testing.T) {
	st, url := startBroadcaster(t)

	conn1 := dial(t, url)
	conn2 := dial(t, url)
	readSummary(t, conn1)
	readSummary(t, conn2)

	st.Add(domain.LineItem{ID: "a", Name: "item a", Price: 1}, 1)

	assert.Equal(t, 1, readSummary(t, conn1).Count)
	assert.Equal(t, 1, readSummary(t, conn2).Count)
}

func TestBroadcaster_ClientDisconnect(t *testing.T) {
	st, url := startBroadcaster(t)

	conn := dial(t, url)
	readSummary(t, conn)
	conn.Close()

	time.Sleep(100 * time.Millisecond)

	// Mutations after a disconnect must not panic or block.
	st.Add(domain.LineItem{ID: "a", Name: "item a"}, 1)
	st.Clear()
}
