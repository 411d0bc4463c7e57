// Package server manages individual WebSocket clients, handling read/write
// pumps and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/miniapp-chat/internal/initdata"
)

// ConnState is the lifecycle stage of a client connection.
type ConnState int32

const (
	// StateConnecting covers the time between upgrade and admission.
	StateConnecting ConnState = iota
	// StateOpen means the client is registered and its pumps are running.
	StateOpen
	// StateClosed is terminal; a new connection always starts over.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is what the client proved during the handshake.
type Session struct {
	// Token is the accepted init data hash.
	Token string
	// Fields holds the decoded init data fields.
	Fields initdata.Fields
}

// Client represents a WebSocket client connection in the chat system.
// It manages the connection state, message sending channel, hub reference,
// and client address information.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	addr    string
	session Session
	state   atomic.Int32

	maxMessageSize int64
	pingInterval   time.Duration
	pongWait       time.Duration
	writeWait      time.Duration
}

// NewClient creates a new Client instance with the provided WebSocket
// connection, hub reference, client address and verified session. The
// client's send channel is buffered to cfg.SendBufferSize messages.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, session Session, cfg Config) *Client {
	cfg = sanitizeConfig(cfg)
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		id:             uuid.NewString(),
		conn:           conn,
		send:           make(chan []byte, cfg.SendBufferSize),
		hub:            hub,
		addr:           addr,
		session:        session,
		maxMessageSize: cfg.MaxMessageSize,
		pingInterval:   cfg.PingInterval,
		pongWait:       cfg.PongWait,
		writeWait:      cfg.WriteWait,
	}
}

// ID returns the per-connection identity.
func (c *Client) ID() string {
	return c.id
}

// Session returns the verified init data the client connected with.
func (c *Client) Session() Session {
	return c.session
}

// State returns the current lifecycle stage.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) {
	c.state.Store(int32(s))
}

// GetSendChan returns the client's send channel for reading outgoing messages.
// This channel is read-only from the caller's perspective.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
		log.Error().Err(err).Str("conn_id", c.id).Msg("Error setting initial read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})
}

// logReadError logs the reason the read loop stopped.
func (c *Client) logReadError(err error) {
	logger := log.With().Str("conn_id", c.id).Str("addr", c.addr).Logger()

	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		logger.Warn().Int64("limit", c.maxMessageSize).Msg("Message exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		logger.Info().Err(err).Msg("Client disconnected")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		logger.Info().Err(err).Msg("Client connection closed")
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		logger.Warn().Err(err).Msg("Unexpected WebSocket close")
	default:
		logger.Info().Err(err).Msg("WebSocket read error")
	}
}

// handleText answers one inbound message: an echo to the sender, then a
// broadcast notice to everyone. It returns false once the sender can no
// longer be reached.
func (c *Client) handleText(text []byte) bool {
	if err := c.hub.SendTo(c, echoMessage(text)); err != nil {
		log.Info().Err(err).Str("conn_id", c.id).Msg("Cannot reply to client")
		return false
	}
	c.hub.Broadcast([]byte(broadcastNotice))
	return true
}

// readPump owns the inbound side. When it stops, the client leaves the hub,
// which closes the send queue and lets writePump send the close frame.
func (c *Client) readPump() {
	defer c.hub.Disconnect(c)

	c.setupReadConnection()

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if messageType != websocket.TextMessage {
			log.Debug().Str("conn_id", c.id).Int("type", messageType).Msg("Ignoring non-text frame")
			continue
		}

		if !c.handleText(message) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.closeConnection()
		c.hub.Disconnect(c)
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Error().Err(err).Str("conn_id", c.id).Msg("Error closing connection")
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		log.Error().Err(err).Str("conn_id", c.id).Msg("Error setting write deadline")
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil && !isExpectedCloseError(err) {
		log.Error().Err(err).Str("conn_id", c.id).Msg("Error writing close message")
	}
	return false
}

// writeTextMessage writes one message as one text frame.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			log.Error().Err(err).Str("conn_id", c.id).Msg("Error writing message")
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		log.Error().Err(err).Str("conn_id", c.id).Msg("Error setting write deadline for ping")
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		log.Info().Err(err).Str("conn_id", c.id).Msg("Error writing ping message")
		return false
	}
	return true
}
