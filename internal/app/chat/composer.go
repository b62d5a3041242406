package chat

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chatterm/internal/pkg/debounce"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/limiter"
	"chatterm/internal/pkg/logx"
	"chatterm/internal/pkg/randx"
)

const (
	// DefaultTypingIdle is how long after the last keystroke typing:stop is emitted.
	DefaultTypingIdle = time.Second

	// typingStartInterval is the minimum spacing of typing:start emissions per conversation.
	typingStartInterval = 500 * time.Millisecond
)

// Emitter sends the outbound push events the composer produces.
// The push channel implements it.
type Emitter interface {
	SendMessage(conversationID int64, body, clientToken string) error
	StartTyping(conversationID int64) error
	StopTyping(conversationID int64) error
}

// Composer turns the message input into optimistic messages and typing events.
type Composer struct {
	store   *Store
	emitter Emitter

	// senderID returns the id of the signed-in user.
	senderID func() int64
	now      func() time.Time
	idle     time.Duration

	throttle *limiter.KeyedLimiter[int64]

	// mu protects typing.
	mu     sync.Mutex
	typing map[int64]*debounce.Debouncer
}

// NewComposer creates a Composer. A zero idle uses DefaultTypingIdle.
func NewComposer(store *Store, emitter Emitter, senderID func() int64, idle time.Duration) *Composer {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}

	return &Composer{
		store:    store,
		emitter:  emitter,
		senderID: senderID,
		now:      time.Now,
		idle:     idle,
		throttle: limiter.NewKeyedLimiter[int64](rate.Every(typingStartInterval), 1, limiter.DefaultCleanupInterval),
		typing:   make(map[int64]*debounce.Debouncer),
	}
}

// Send validates body and appends an optimistic message to the conversation right away,
// whether or not the push channel is connected. The returned error reports a failed
// emission; the optimistic message stays in the log until a fetch replaces it.
func (c *Composer) Send(conversationID int64, body string) (Message, error) {
	if conversationID == 0 {
		return Message{}, errs.NewError(errs.ErrConversationNotSelected)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, errs.NewError(errs.ErrMessageEmpty)
	}
	if len(body) > MaxContentBytes {
		return Message{}, errs.NewError(errs.ErrMessageContentTooLong, MaxContentBytes)
	}

	msg := Message{
		ID:             randx.SyntheticMessageID(),
		Body:           body,
		SenderID:       c.senderID(),
		ConversationID: conversationID,
		CreatedAt:      c.now(),
		ClientToken:    randx.ClientToken(),
	}
	c.store.AppendMessage(conversationID, msg)

	err := c.emitter.SendMessage(conversationID, body, msg.ClientToken)
	if err != nil {
		logx.Warn("Message kept locally, push channel refused it",
			"conversation_id", conversationID, "client_token", msg.ClientToken, "error", err.Error())
	}

	c.stopTyping(conversationID)

	return msg, err
}

// Keystroke reports that the input of conversationID changed to value. The first keystroke
// of a burst emits typing:start; typing:stop follows once the input has been idle.
// Clearing the input ends the burst immediately.
func (c *Composer) Keystroke(conversationID int64, value string) {
	if conversationID == 0 {
		return
	}

	if value == "" {
		if c.isTyping(conversationID) {
			c.stopTyping(conversationID)
		}
		return
	}

	c.mu.Lock()
	d, active := c.typing[conversationID]
	if !active {
		if !c.throttle.Allow(conversationID) {
			c.mu.Unlock()
			return
		}
		d = debounce.New(c.idle)
		c.typing[conversationID] = d
	}
	c.mu.Unlock()

	if !active {
		if err := c.emitter.StartTyping(conversationID); err != nil {
			logx.Debug("typing:start not sent", "conversation_id", conversationID, "error", err.Error())
		}
	}

	d.Debounce(func() {
		d.Fired()
		c.idleTimeout(conversationID, d)
	})
}

// isTyping reports whether a typing burst is in progress for conversationID.
func (c *Composer) isTyping(conversationID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.typing[conversationID]
	return ok
}

// idleTimeout ends the burst owned by d, unless a newer burst has replaced it.
func (c *Composer) idleTimeout(conversationID int64, d *debounce.Debouncer) {
	c.mu.Lock()
	if c.typing[conversationID] != d {
		c.mu.Unlock()
		return
	}
	delete(c.typing, conversationID)
	c.mu.Unlock()

	c.emitStop(conversationID)
}

// stopTyping cancels the idle timer and emits typing:stop.
func (c *Composer) stopTyping(conversationID int64) {
	c.mu.Lock()
	if d, ok := c.typing[conversationID]; ok {
		d.Cancel()
		delete(c.typing, conversationID)
	}
	c.mu.Unlock()

	c.emitStop(conversationID)
}

func (c *Composer) emitStop(conversationID int64) {
	if err := c.emitter.StopTyping(conversationID); err != nil {
		logx.Debug("typing:stop not sent", "conversation_id", conversationID, "error", err.Error())
	}
}

// Close cancels pending idle timers without emitting and stops the throttle's cleanup goroutine.
func (c *Composer) Close() {
	c.mu.Lock()
	for id, d := range c.typing {
		d.Cancel()
		delete(c.typing, id)
	}
	c.mu.Unlock()

	c.throttle.Stop()
}
