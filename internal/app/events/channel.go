/*
Package events contains the push channel.

This file defines the Channel, which owns the WebSocket connection of the current session.
Each connection runs a read pump that decodes inbound frames and hands them to the Handler,
and a write pump that drains the send queue and keeps the connection alive with pings.
*/
package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatterm/internal/pkg/auth/jwt"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong (or any frame) from the server.
	pongWait = 60 * time.Second

	// frequency at which the client sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the server.
	maxMessageSize = 64 << 10

	// capacity of the outbound queue.
	sendQueueSize = 256

	// handshakeTimeout bounds the dial.
	handshakeTimeout = 10 * time.Second

	// CloseSessionReplaced is the close code the server sends when another login of the
	// same user took over the push channel.
	CloseSessionReplaced = 4001
)

// State is the connection state published to the UI.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Handler receives decoded inbound events on the read pump goroutine.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event)

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(ev Event) { f(ev) }

// StateFunc is called on every state change. err explains a disconnect that was not requested.
type StateFunc func(state State, err error)

// Channel is the push connection of the current session. At most one connection is open.
type Channel struct {
	url     string
	dialer  *websocket.Dialer
	handler Handler
	onState StateFunc

	// mu protects conn, state and the pending dial.
	mu    sync.Mutex
	conn  *connection
	state State

	// gen is bumped by Close. A dial started under an older gen is abandoned when it returns.
	gen        uint64
	cancelDial context.CancelFunc

	logger zerolog.Logger
}

// NewChannel creates a Channel for the push endpoint at url. onState may be nil.
func NewChannel(url string, handler Handler, onState StateFunc) *Channel {
	if onState == nil {
		onState = func(State, error) {}
	}

	return &Channel{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
		handler: handler,
		onState: onState,
		logger:  logx.Component("push"),
	}
}

// State returns the current connection state.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Connect dials the push endpoint authenticated with token. It is a no-op while a
// connection is open or being dialled. A rejected token yields ErrUnauthorized; other failures ErrDialFailed.
func (ch *Channel) Connect(ctx context.Context, token string) error {
	ch.mu.Lock()
	if ch.conn != nil || ch.state == Connecting {
		ch.mu.Unlock()
		return nil
	}
	ch.state = Connecting
	gen := ch.gen
	dialCtx, cancel := context.WithCancel(ctx)
	ch.cancelDial = cancel
	ch.mu.Unlock()
	defer cancel()

	ch.onState(Connecting, nil)

	header := http.Header{}
	header.Set("Authorization", jwt.BearerHeader(token))

	ws, res, err := ch.dialer.DialContext(dialCtx, ch.url, header)
	if res != nil && res.Body != nil {
		res.Body.Close()
	}

	ch.mu.Lock()
	if ch.gen != gen {
		// Close ran while dialling; the session this dial belonged to is gone.
		ch.mu.Unlock()
		if err == nil {
			ws.Close()
			err = context.Canceled
		}
		ch.logger.Debug().Err(err).Msg("Abandoned push dial after close.")
		return errs.NewError(errs.ErrDialFailed).WithCause(err)
	}
	ch.cancelDial = nil

	if err != nil {
		ch.state = Disconnected
		ch.mu.Unlock()

		var dialErr error = errs.NewError(errs.ErrDialFailed).WithCause(err)
		if res != nil && res.StatusCode == http.StatusUnauthorized {
			dialErr = errs.NewError(errs.ErrUnauthorized).WithCause(err)
		}

		ch.logger.Warn().Err(err).Msg("Push channel dial failed.")
		ch.onState(Disconnected, dialErr)
		return dialErr
	}

	conn := newConnection(ws, ch.logger)
	ch.conn = conn
	ch.state = Connected
	ch.mu.Unlock()

	ch.logger.Info().Str("url", ch.url).Msg("Push channel connected.")
	ch.onState(Connected, nil)

	go conn.writePump()
	go func() {
		defer conn.pumps.Done()
		err := conn.readPump(ch.dispatch)
		ch.disconnected(conn, err)
	}()

	return nil
}

// disconnected records the end of conn and publishes it.
func (ch *Channel) disconnected(conn *connection, err error) {
	ch.mu.Lock()
	if ch.conn != conn {
		// A newer connection replaced conn; its state is not ours to report.
		ch.mu.Unlock()
		return
	}
	ch.conn = nil
	ch.state = Disconnected
	ch.mu.Unlock()

	ch.logger.Info().AnErr("reason", err).Msg("Push channel disconnected.")
	ch.onState(Disconnected, err)
}

// dispatch decodes a frame and hands it to the handler. Rejected frames are logged and dropped.
func (ch *Channel) dispatch(frame []byte) {
	ev, err := Decode(frame)
	if err != nil {
		ch.logger.Warn().Err(err).Int("frame_bytes", len(frame)).Msg("Rejected push event.")
		return
	}

	ch.handler.HandleEvent(ev)
}

// Close closes the open connection, if any, and waits until its pumps have exited
// and the disconnect has been published. A dial in flight is abandoned: whatever it
// yields is closed and never becomes the channel's connection.
func (ch *Channel) Close() {
	ch.mu.Lock()
	ch.gen++
	conn := ch.conn

	if conn == nil && ch.state == Connecting {
		ch.cancelDial()
		ch.cancelDial = nil
		ch.state = Disconnected
		ch.mu.Unlock()

		ch.logger.Info().Msg("Push dial cancelled.")
		ch.onState(Disconnected, nil)
		return
	}
	ch.mu.Unlock()

	if conn == nil {
		return
	}

	conn.stop()
	<-conn.done
}

// Emit queues an outbound event. It fails with ErrNotConnected when no connection is open
// and ErrSendQueueFull when the queue is full.
func (ch *Channel) Emit(kind Kind, payload any) error {
	frame, err := Encode(kind, payload)
	if err != nil {
		return err
	}

	ch.mu.Lock()
	conn := ch.conn
	ch.mu.Unlock()

	if conn == nil {
		return errs.NewError(errs.ErrNotConnected)
	}

	return conn.enqueue(frame)
}

// SendMessage emits message:send.
func (ch *Channel) SendMessage(conversationID int64, body, clientToken string) error {
	return ch.Emit(KindMessageSend, SendMessagePayload{ConvID: conversationID, Body: body, ClientToken: clientToken})
}

// StartTyping emits typing:start.
func (ch *Channel) StartTyping(conversationID int64) error {
	return ch.Emit(KindTypingStart, TypingPayload{ConvID: conversationID})
}

// StopTyping emits typing:stop.
func (ch *Channel) StopTyping(conversationID int64) error {
	return ch.Emit(KindTypingStop, TypingPayload{ConvID: conversationID})
}

// connection is one WebSocket connection and its pumps.
type connection struct {
	ws   *websocket.Conn
	send chan []byte

	// quit is closed to stop the write pump, which then closes ws and ends the read pump.
	quit     chan struct{}
	stopOnce sync.Once

	// done is closed once both pumps have exited and the disconnect was published.
	done  chan struct{}
	pumps sync.WaitGroup

	logger zerolog.Logger
}

func newConnection(ws *websocket.Conn, logger zerolog.Logger) *connection {
	c := &connection{
		ws:     ws,
		send:   make(chan []byte, sendQueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}

	c.pumps.Add(2)
	go func() {
		c.pumps.Wait()
		close(c.done)
	}()

	return c
}

func (c *connection) stop() {
	c.stopOnce.Do(func() { close(c.quit) })
}

func (c *connection) enqueue(frame []byte) error {
	select {
	case <-c.quit:
		return errs.NewError(errs.ErrNotConnected)
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Push send queue full, dropping event")
		return errs.NewError(errs.ErrSendQueueFull)
	}
}

// readPump reads frames until the connection fails or is closed, handing each to handle.
// It returns nil when the connection was closed locally or normally by the server.
func (c *connection) readPump(handle func([]byte)) error {
	defer c.stop()

	c.ws.SetReadLimit(maxMessageSize)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return err
	}

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.quit:
				return nil
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}

			if websocket.IsCloseError(err, CloseSessionReplaced) {
				c.logger.Info().Msg("Push channel taken over by another login")
				return errs.NewError(errs.ErrSessionKicked).WithCause(err)
			}

			c.logger.Info().Err(err).Msg("Error reading from push channel")
			return errs.NewError(errs.ErrNetwork).WithCause(err)
		}

		// Any frame proves the connection is alive.
		if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return errs.NewError(errs.ErrNetwork).WithCause(err)
		}

		handle(frame)
	}
}

// writePump writes queued frames and pings until quit is closed or a write fails.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.stop()

		// ensure the connection is closed on exit
		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Push connection close error in writePump")
		}
		c.pumps.Done()
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.quit:
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			c.write(websocket.CloseMessage, closeMsg)
			return
		}
	}
}

// write sends one frame. Returns false if the write pump should terminate.
func (c *connection) write(messageType int, data []byte) bool {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.ws.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing to push channel")
		return false
	}

	return true
}
