package fakebackend

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatterm/internal/app/user"
	"chatterm/internal/pkg/logx"
)

const writeWait = 5 * time.Second

// CloseSessionReplaced is sent to a push connection that a newer login of the same user replaced.
const CloseSessionReplaced = 4001

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// peer is the server side of one push connection.
type peer struct {
	conn *websocket.Conn
	send chan []byte

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}

	// closeCode is the code of the close frame; written before quit is closed.
	closeCode int
}

func (p *peer) close() {
	p.closeWith(websocket.CloseNormalClosure)
}

func (p *peer) closeWith(code int) {
	p.quitOnce.Do(func() {
		p.closeCode = code
		close(p.quit)
	})
	<-p.done
}

// handleWebSocket authenticates the bearer header, upgrades the connection and serves it
// until either side closes. A second connection of the same user replaces the first.
func (b *Backend) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Error(err, "Failed to upgrade connection to WebSocket")
		return
	}

	p := &peer{
		conn: conn,
		send: make(chan []byte, 64),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	old := b.peers[u.ID]
	b.peers[u.ID] = p
	b.mu.Unlock()

	if old != nil {
		old.closeWith(CloseSessionReplaced)
	}

	go b.writePump(p)
	b.readPump(u, p)
}

func (b *Backend) readPump(u user.User, p *peer) {
	defer func() {
		b.mu.Lock()
		if b.peers[u.ID] == p {
			delete(b.peers, u.ID)
		}
		b.mu.Unlock()
		p.quitOnce.Do(func() {
			p.closeCode = websocket.CloseNormalClosure
			close(p.quit)
		})
	}()

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		select {
		case b.Inbound <- frame:
		default:
		}

		if frame.Type == "message:send" && b.ackEnabled() {
			b.ack(u, frame)
		}
	}
}

func (b *Backend) writePump(p *peer) {
	defer func() {
		_ = p.conn.Close()
		close(p.done)
	}()

	for {
		select {
		case data := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-p.quit:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(p.closeCode, ""))
			return
		}
	}
}

func (b *Backend) ackEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ackMessages
}

func (b *Backend) ack(u user.User, frame Frame) {
	var in struct {
		ConvID      int64  `json:"convId"`
		ClientToken string `json:"clientToken"`
	}
	if err := json.Unmarshal(frame.Payload, &in); err != nil {
		return
	}

	b.mu.Lock()
	id := b.id()
	b.mu.Unlock()

	b.Push(u, "message:ack", map[string]any{
		"conversationId": in.ConvID,
		"clientToken":    in.ClientToken,
		"id":             id,
		"createdAt":      time.Now().UTC(),
	})
}

// Push sends an event to u's push connection. It reports false if u is not connected.
func (b *Backend) Push(u user.User, kind string, payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return b.PushRaw(u, Frame{Type: kind, Payload: raw})
}

// PushRaw sends a frame as is, which lets tests send malformed or unknown events.
func (b *Backend) PushRaw(u user.User, frame Frame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		panic(err)
	}

	b.mu.Lock()
	p := b.peers[u.ID]
	b.mu.Unlock()

	if p == nil {
		return false
	}

	select {
	case p.send <- data:
		return true
	case <-p.quit:
		return false
	}
}

// Disconnect closes u's push connection from the server side.
func (b *Backend) Disconnect(u user.User) {
	b.mu.Lock()
	p := b.peers[u.ID]
	delete(b.peers, u.ID)
	b.mu.Unlock()

	if p != nil {
		p.close()
	}
}
