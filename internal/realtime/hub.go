package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

// Publisher fans messages out to every hub instance, this one included.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscriber feeds messages published by any instance back into a hub.
type Subscriber interface {
	StartForwarder(ctx context.Context, onMsg func(m Message)) error
}

type HubConfig struct {
	AllowedOrigins []string
}

// Hub tracks websocket connections, relays presence events between them and
// delivers targeted events such as chat notifications.
type Hub struct {
	log        *logger.Logger
	presence   *Presence
	metrics    *observability.Metrics
	instanceID string
	upgrader   websocket.Upgrader

	pub Publisher
	sub Subscriber

	mu      sync.RWMutex
	conns   map[string]*Connection
	players map[string]string
	closed  bool
}

func NewHub(log *logger.Logger, presence *Presence, metrics *observability.Metrics, cfg HubConfig) *Hub {
	if presence == nil {
		presence = NewPresence()
	}
	h := &Hub{
		log:        log.With("service", "RealtimeHub"),
		presence:   presence,
		metrics:    metrics,
		instanceID: uuid.NewString(),
		conns:      make(map[string]*Connection),
		players:    make(map[string]string),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return h
}

// UseBus routes emitted messages through a cross-instance bus. Call before Start.
func (h *Hub) UseBus(pub Publisher, sub Subscriber) {
	h.pub = pub
	h.sub = sub
}

func (h *Hub) Presence() *Presence { return h.presence }

// Start begins consuming the bus, if one is configured.
func (h *Hub) Start(ctx context.Context) error {
	if h.sub == nil {
		return nil
	}
	return h.sub.StartForwarder(ctx, h.Deliver)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[string]*Connection)
	h.players = make(map[string]string)
	h.mu.Unlock()

	for _, c := range conns {
		c.Close(websocket.CloseGoingAway, "server shutdown")
	}
}

// Emit sends msg through the bus when configured, else delivers it locally.
func (h *Hub) Emit(ctx context.Context, msg Message) {
	msg.Origin = h.instanceID
	if h.pub != nil {
		err := h.pub.Publish(ctx, msg)
		if err == nil {
			return
		}
		h.log.Warn("bus publish failed, delivering locally", "event", msg.Event, "error", err)
	}
	h.Deliver(msg)
}

// SendTo emits event to the player's current connection.
func (h *Hub) SendTo(ctx context.Context, playerID, event string, data any) error {
	msg, err := NewMessage(playerID, event, data)
	if err != nil {
		return err
	}
	h.Emit(ctx, msg)
	return nil
}

// Deliver writes msg to local connections. Presence events from other
// instances are applied to the local roster first.
func (h *Hub) Deliver(msg Message) {
	if msg.Origin != "" && msg.Origin != h.instanceID {
		h.applyRemotePresence(msg)
	}
	payload, err := encodeFrame(msg.Event, msg.Data)
	if err != nil {
		h.log.Warn("encode frame failed", "event", msg.Event, "error", err)
		return
	}

	if msg.Channel != "" {
		h.mu.RLock()
		conn := h.conns[h.players[msg.Channel]]
		h.mu.RUnlock()
		if conn != nil {
			_ = conn.Send(payload)
		}
		return
	}

	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.conns))
	for id, c := range h.conns {
		if id != msg.Exclude {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		_ = c.Send(payload)
	}
}

func (h *Hub) applyRemotePresence(msg Message) {
	switch msg.Event {
	case EventPlayerJoined, EventPlayerUpdated:
		var s PlayerState
		if err := json.Unmarshal(msg.Data, &s); err == nil {
			h.presence.Set(s)
		}
	case EventPlayerLeft:
		var body struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(msg.Data, &body); err == nil && body.ID != "" {
			h.presence.Remove(body.ID)
		}
	}
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn := NewConnection(ws)
	if !h.attach(conn) {
		conn.Close(websocket.CloseGoingAway, "server shutdown")
		return
	}
	defer h.detach(conn)
	conn.Start()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := r.Context()
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.log.Debug("websocket read ended", "conn_id", conn.ID, "error", err)
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil || f.Event == "" {
			h.sendError(conn, "malformed frame")
			continue
		}
		if err := h.Handle(ctx, conn, f); err != nil {
			h.sendError(conn, err.Error())
		}
	}
}

func (h *Hub) attach(conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn.ID] = conn
	h.metrics.PresenceConnInc()
	return true
}

// detach forgets the connection. The player's presence entry is kept.
func (h *Hub) detach(conn *Connection) {
	h.mu.Lock()
	if _, ok := h.conns[conn.ID]; ok {
		delete(h.conns, conn.ID)
		h.metrics.PresenceConnDec()
	}
	if pid := conn.PlayerID(); pid != "" && h.players[pid] == conn.ID {
		delete(h.players, pid)
	}
	h.mu.Unlock()
	conn.Close(websocket.CloseNormalClosure, "")
}

func (h *Hub) bindPlayer(conn *Connection, playerID string) {
	conn.setPlayerID(playerID)
	h.mu.Lock()
	h.players[playerID] = conn.ID
	h.mu.Unlock()
}

var errMissingPlayerID = errors.New("player id is required")

// Handle applies one inbound frame from conn.
func (h *Hub) Handle(ctx context.Context, conn *Connection, f Frame) error {
	switch f.Event {
	case EventPlayerJoin:
		var s PlayerState
		if err := json.Unmarshal(f.Data, &s); err != nil {
			return err
		}
		if s.ID = strings.TrimSpace(s.ID); s.ID == "" {
			return errMissingPlayerID
		}
		h.bindPlayer(conn, s.ID)
		existing := h.presence.Snapshot(s.ID)
		h.presence.Set(s)
		if err := h.sendDirect(conn, EventPlayersSync, existing); err != nil {
			return err
		}
		return h.broadcast(ctx, conn, EventPlayerJoined, s)

	case EventPlayerUpdate:
		var s PlayerState
		if err := json.Unmarshal(f.Data, &s); err != nil {
			return err
		}
		if s.ID == "" {
			s.ID = conn.PlayerID()
		}
		if s.ID == "" {
			return errMissingPlayerID
		}
		h.presence.Set(s)
		return h.broadcast(ctx, conn, EventPlayerUpdated, s)

	case EventPlayerLeave:
		var body struct {
			ID string `json:"id"`
		}
		if len(f.Data) > 0 {
			_ = json.Unmarshal(f.Data, &body)
		}
		if body.ID == "" {
			body.ID = conn.PlayerID()
		}
		if body.ID == "" {
			return errMissingPlayerID
		}
		h.presence.Remove(body.ID)
		return h.broadcast(ctx, conn, EventPlayerLeft, map[string]string{"id": body.ID})

	case EventPlayersRequest:
		return h.sendDirect(conn, EventPlayersSync, h.presence.Snapshot())

	case EventChatMessage:
		var body struct {
			RecipientID string `json:"recipientId"`
		}
		if err := json.Unmarshal(f.Data, &body); err != nil {
			return err
		}
		if body.RecipientID == "" {
			return errors.New("recipientId is required")
		}
		h.Emit(ctx, Message{Channel: body.RecipientID, Event: EventChatMessage, Data: f.Data})
		return nil
	}
	return errors.New("unknown event " + f.Event)
}

func (h *Hub) broadcast(ctx context.Context, from *Connection, event string, data any) error {
	msg, err := NewMessage("", event, data)
	if err != nil {
		return err
	}
	msg.Exclude = from.ID
	h.Emit(ctx, msg)
	return nil
}

func (h *Hub) sendDirect(conn *Connection, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	payload, err := encodeFrame(event, raw)
	if err != nil {
		return err
	}
	return conn.Send(payload)
}

func (h *Hub) sendError(conn *Connection, message string) {
	_ = h.sendDirect(conn, EventError, map[string]string{"message": message})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
