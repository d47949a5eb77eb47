package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"edu-arcade/internal/game"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// SnapshotInterval is how often subscribers get a fresh frame
	SnapshotInterval = 50 * time.Millisecond

	writeWait      = 2 * time.Second
	maxMessageSize = 4 << 10
)

// Event names pushed to subscribers
const (
	EventSnapshot   = "game:snapshot"
	EventSceneReady = "game:ready"
	EventGameOver   = "game:over"
	EventError      = "error"
)

// wsFormat selects the frame encoding of one connection
type wsFormat uint8

const (
	formatJSON wsFormat = iota
	formatMsgpack
)

// wsClient tracks a WebSocket connection with its source IP and subscription
type wsClient struct {
	conn        *websocket.Conn
	ip          string
	containerID string
	format      wsFormat
	writeMu     sync.Mutex
}

func (c *wsClient) write(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(msgType, data)
}

// envelope is the frame sent to clients in either encoding
type envelope struct {
	Event       string      `json:"event" msgpack:"event"`
	ContainerID string      `json:"containerId" msgpack:"containerId"`
	Data        interface{} `json:"data" msgpack:"data"`
}

// inbound is a client command frame
type inbound struct {
	Type  string       `json:"type" msgpack:"type"` // "input"
	Token string       `json:"token,omitempty" msgpack:"token,omitempty"`
	Input InputRequest `json:"input" msgpack:"input"`
}

// WebSocketHub pushes snapshots and host notifications to the clients
// subscribed to each container, with DoS protection.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan envelope
	register   chan *wsClient
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	engine   EngineInterface
	tokens   *GameTokens
	upgrader websocket.Upgrader

	// per-client socket quota, shared with the REST limiter
	limiter *ClientLimiter
}

// NewWebSocketHub creates a new hub. A nil limiter gets the default limits.
func NewWebSocketHub(engine EngineInterface, tokens *GameTokens, origins *OriginPolicy, limiter *ClientLimiter) *WebSocketHub {
	if limiter == nil {
		limiter = NewClientLimiter(DefaultClientLimits)
	}
	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		engine:     engine,
		tokens:     tokens,
		limiter:    limiter,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins == nil || origins.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run starts the hub. It returns after Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.limiter.ReleaseSocket(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client from %s watching %s (%d total)", client.ip, client.containerID, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				h.limiter.ReleaseSocket(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// deliver encodes msg at most once per format and writes it to subscribers
func (h *WebSocketHub) deliver(msg envelope) {
	var jsonBytes, mpBytes []byte
	var failed []*websocket.Conn

	h.mu.RLock()
	for conn, client := range h.clients {
		if client.containerID != msg.ContainerID {
			continue
		}

		var err error
		switch client.format {
		case formatMsgpack:
			if mpBytes == nil {
				if mpBytes, err = msgpack.Marshal(&msg); err != nil {
					log.Printf("⚠️ msgpack encode %s: %v", msg.Event, err)
					h.mu.RUnlock()
					return
				}
			}
			err = client.write(websocket.BinaryMessage, mpBytes)
		default:
			if jsonBytes == nil {
				if jsonBytes, err = json.Marshal(&msg); err != nil {
					log.Printf("⚠️ JSON encode %s: %v", msg.Event, err)
					h.mu.RUnlock()
					return
				}
			}
			err = client.write(websocket.TextMessage, jsonBytes)
		}
		if err != nil {
			failed = append(failed, conn)
			continue
		}
		IncrementWSMessages()
	}
	h.mu.RUnlock()

	if len(failed) > 0 {
		h.mu.Lock()
		for _, conn := range failed {
			if client, ok := h.clients[conn]; ok {
				h.limiter.ReleaseSocket(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
		}
		h.mu.Unlock()
	}
}

// Publish queues an event for the subscribers of a container
func (h *WebSocketHub) Publish(containerID, event string, data interface{}) {
	select {
	case h.broadcast <- envelope{Event: event, ContainerID: containerID, Data: data}:
	default:
		// Channel full, skip (backpressure)
	}
}

// SceneReady forwards the engine notification to subscribers
func (h *WebSocketHub) SceneReady(ev game.SceneReady) {
	h.Publish(ev.ContainerID, EventSceneReady, ev)
}

// GameOver forwards the engine notification to subscribers
func (h *WebSocketHub) GameOver(ev game.GameOver) {
	h.Publish(ev.ContainerID, EventGameOver, ev)
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// watched returns the containers that have at least one subscriber
func (h *WebSocketHub) watched() map[string]struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]struct{}, len(h.clients))
	for _, c := range h.clients {
		out[c.containerID] = struct{}{}
	}
	return out
}

// StartBroadcastLoop pushes the latest snapshot of every watched game and
// refreshes the event log gauges
func (h *WebSocketHub) StartBroadcastLoop() {
	ticker := time.NewTicker(SnapshotInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			if el := h.engine.Events(); el != nil {
				UpdateEventLogStats(el.GetTotalCount(), el.GetDroppedCount())
			}
			if h.ClientCount() == 0 {
				continue
			}

			for id := range h.watched() {
				sess, err := h.engine.Session(id)
				if err != nil {
					continue
				}
				snap := sess.Snapshot()
				h.Publish(id, EventSnapshot, &snap)
			}
		}
	}()
}

// Stop closes every connection and ends Run and the broadcast loop
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// HandleWebSocket subscribes a connection to ?container=<id>. format=msgpack
// switches frames to binary msgpack. A client holding the game token may send
// input frames on the same connection.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := ClientIP(r)

	containerID := r.URL.Query().Get("container")
	if containerID == "" {
		writeError(w, "container query parameter is required", http.StatusBadRequest)
		return
	}
	if _, err := h.engine.Session(containerID); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", MaxWSConnectionsTotal)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.limiter.AcquireSocket(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.limiter.ReleaseSocket(ip)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	client := &wsClient{conn: conn, ip: ip, containerID: containerID}
	if r.URL.Query().Get("format") == "msgpack" {
		client.format = formatMsgpack
	}
	authorized := h.tokens != nil && h.tokens.Verify(containerID, r.URL.Query().Get("token"))

	select {
	case h.register <- client:
	case <-h.stopChan:
		conn.Close()
		h.limiter.ReleaseSocket(ip)
		return
	}

	go h.readLoop(client, authorized)
}

// readLoop applies input frames until the connection drops
func (h *WebSocketHub) readLoop(client *wsClient, authorized bool) {
	defer func() {
		select {
		case h.unregister <- client.conn:
		case <-h.stopChan:
		}
	}()

	for {
		msgType, message, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var in inbound
		if msgType == websocket.BinaryMessage {
			err = msgpack.Unmarshal(message, &in)
		} else {
			err = json.Unmarshal(message, &in)
		}
		if err != nil || in.Type != "input" {
			continue
		}

		if !authorized && (h.tokens == nil || !h.tokens.Verify(client.containerID, in.Token)) {
			h.reply(client, "missing or invalid game token")
			continue
		}
		authorized = true

		cmd, err := in.Input.ToCommand()
		if err != nil {
			h.reply(client, err.Error())
			continue
		}
		sess, err := h.engine.Session(client.containerID)
		if err != nil {
			h.reply(client, err.Error())
			return
		}
		if err := sess.Input(cmd); err != nil {
			h.reply(client, err.Error())
		}
	}
}

// reply sends an error frame to one client
func (h *WebSocketHub) reply(client *wsClient, message string) {
	msg := envelope{Event: EventError, ContainerID: client.containerID, Data: message}
	if client.format == formatMsgpack {
		if b, err := msgpack.Marshal(&msg); err == nil {
			client.write(websocket.BinaryMessage, b)
		}
		return
	}
	if b, err := json.Marshal(&msg); err == nil {
		client.write(websocket.TextMessage, b)
	}
}
