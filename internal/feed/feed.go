package feed

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Summary is the aggregate pushed to every connected surface whenever
// the selection changes.
type Summary struct {
	Count int       `json:"count"`
	Total float64   `json:"total"`
	At    time.Time `json:"at"`
}

// Source is what the broadcaster needs from the item store.
type Source interface {
	Count() int
	Total() float64
	Watch() (<-chan store.Change, func())
}

type client struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	wmu    sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *client) writeControl(messageType int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// Broadcaster fans selection summaries out over WebSocket. Connected
// surfaces get a snapshot on connect and an update for every mutation.
type Broadcaster struct {
	source   Source
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewBroadcaster(source Source, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		source: source,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

func (b *Broadcaster) summary() Summary {
	return Summary{
		Count: b.source.Count(),
		Total: b.source.Total(),
		At:    time.Now(),
	}
}

// Run watches the store and broadcasts a summary for every change record.
// It returns when ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	changes, cancel := b.source.Watch()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			b.CloseAll()
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			b.broadcast(b.summary())
		}
	}
}

func (b *Broadcaster) broadcast(s Summary) {
	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(s); err != nil {
			b.logger.Debug("feed write failed", zap.Error(err))
			c.cancel()
		}
	}
}

// HandleWS upgrades the request and registers the connection. The
// connection outlives the HTTP request, so it runs on its own context.
func (b *Broadcaster) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{conn: conn, cancel: cancel}

	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()

	b.logger.Info("feed client connected", zap.String("remote_addr", conn.RemoteAddr().String()))

	if err := c.writeJSON(b.summary()); err != nil {
		b.logger.Debug("initial summary write failed", zap.Error(err))
	}

	go b.pingLoop(ctx, c)
	go b.readLoop(c)
}

// readLoop drains inbound frames so pong handling works; the feed is
// one-directional and client payloads are discarded.
func (b *Broadcaster) readLoop(c *client) {
	defer func() {
		c.cancel()
		b.remove(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				b.logger.Warn("feed read error", zap.Error(err))
			}
			return
		}
	}
}

func (b *Broadcaster) pingLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down")
			if err := c.writeControl(websocket.CloseMessage, closeMsg); err != nil {
				b.logger.Debug("close message failed", zap.Error(err))
			}
			return
		case <-ticker.C:
			if err := c.writeControl(websocket.PingMessage, nil); err != nil {
				b.logger.Debug("ping failed", zap.Error(err))
				c.cancel()
				return
			}
		}
	}
}

func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	_, exists := b.clients[c]
	delete(b.clients, c)
	b.mu.Unlock()

	if exists {
		if err := c.conn.Close(); err != nil {
			b.logger.Debug("connection close failed", zap.Error(err))
		}
		b.logger.Info("feed client disconnected", zap.String("remote_addr", c.conn.RemoteAddr().String()))
	}
}

// CloseAll cancels every connection and closes the sockets.
func (b *Broadcaster) CloseAll() {
	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		c.cancel()
	}

	// Let the ping loops flush their close frames.
	time.Sleep(100 * time.Millisecond)

	for _, c := range clients {
		b.remove(c)
	}
}
