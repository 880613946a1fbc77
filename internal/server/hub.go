// Package server relays the game's event bus to browser clients over
// websockets and feeds their requests back to the orchestrator.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tomaszsb/code2026-sub000/internal/game/rules"
	"github.com/tomaszsb/code2026-sub000/internal/game/state"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// Message types the hub sends besides bus events.
const (
	MessageStateSnapshot = "stateSnapshot"
	MessageError         = "error"
)

// Submitter queues request events for processing.
type Submitter interface {
	Submit(ctx context.Context, request rules.Payload) error
}

// StateSource provides the state sent to newly connected clients.
type StateSource interface {
	GetState() *state.GameState
}

// Message is the envelope for everything sent over the socket.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// Client is one websocket connection. Only the hub closes send.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub owns the connected clients. Only Run touches the client set.
type Hub struct {
	logger    *zap.Logger
	bus       *rules.EventBus
	submitter Submitter
	states    StateSource
	upgrader  websocket.Upgrader

	clients     map[*Client]bool
	broadcast   chan []byte
	direct      chan directMessage
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	unsubscribe func()
}

// NewHub subscribes to every non-request event on bus. allowedOrigins
// restricts which pages may connect; empty allows all.
func NewHub(bus *rules.EventBus, submitter Submitter, states StateSource, logger *zap.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		logger:     logger,
		bus:        bus,
		submitter:  submitter,
		states:     states,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}

	handle := bus.Subscribe(h.relay)
	h.unsubscribe = func() { bus.Unsubscribe(handle) }
	return h
}

// relay runs on the publishing goroutine and must not block it.
func (h *Hub) relay(e rules.Event) {
	if e.Type.IsRequest() {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("event", string(e.Type)), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast queue full, dropping event", zap.String("event", string(e.Type)))
	}
}

// Run serves the client set until ctx is cancelled, then closes every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.unsubscribe()
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("client registered",
				zap.String("remote", client.conn.RemoteAddr().String()),
				zap.Int("clients", len(h.clients)),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("client unregistered", zap.String("remote", client.conn.RemoteAddr().String()))
			}

		case d := <-h.direct:
			// The client may already be gone.
			if h.clients[d.client] {
				select {
				case d.client.send <- d.data:
				default:
					h.logger.Warn("client queue full, dropping reply")
				}
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("client too slow, disconnecting", zap.String("remote", client.conn.RemoteAddr().String()))
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// ServeHTTP upgrades the connection, sends the current state and starts
// the client's pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, sendBuffer)}
	if h.states != nil {
		if data, err := encode(MessageStateSnapshot, h.states.GetState()); err == nil {
			client.send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (h *Hub) handleMessage(ctx context.Context, client *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.reply(client, fmt.Errorf("malformed message: %w", err))
		return
	}
	request, err := DecodeRequest(rules.EventType(msg.Type), msg.Payload)
	if err != nil {
		h.reply(client, err)
		return
	}
	h.logger.Debug("client request", zap.String("type", msg.Type))
	if err := h.submitter.Submit(ctx, request); err != nil {
		h.reply(client, err)
	}
}

func (h *Hub) reply(client *Client, err error) {
	h.logger.Info("rejected client message", zap.Error(err))
	data, encErr := encode(MessageError, map[string]string{"message": err.Error()})
	if encErr != nil {
		return
	}
	select {
	case h.direct <- directMessage{client: client, data: data}:
	case <-h.done:
	}
}

func encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: raw, Timestamp: time.Now()})
}

// DecodeRequest turns a client message into a request payload. Only request
// event types are accepted.
func DecodeRequest(eventType rules.EventType, raw json.RawMessage) (rules.Payload, error) {
	var (
		p   rules.Payload
		err error
	)
	switch eventType {
	case rules.EventGameStartRequested:
		p, err = decodeAs[rules.GameStartRequested](raw)
	case rules.EventDiceRollRequested:
		p, err = decodeAs[rules.DiceRollRequested](raw)
	case rules.EventCardActionRequested:
		p, err = decodeAs[rules.CardActionRequested](raw)
	case rules.EventCardUseRequested:
		p, err = decodeAs[rules.CardUseRequested](raw)
	case rules.EventMoveRequested:
		p, err = decodeAs[rules.MoveRequested](raw)
	case rules.EventNegotiateRequested:
		p, err = decodeAs[rules.NegotiateRequested](raw)
	case rules.EventEndTurnRequested:
		p, err = decodeAs[rules.EndTurnRequested](raw)
	default:
		return nil, fmt.Errorf("unsupported message type %q", eventType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return p, nil
}

func decodeAs[P rules.Payload](raw json.RawMessage) (rules.Payload, error) {
	var p P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := context.Background()
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("websocket read failed", zap.Error(err))
			}
			return
		}
		h.handleMessage(ctx, c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
