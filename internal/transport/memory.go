// internal/transport/memory.go
//
// In-process Transport implementation. Used by tests and same-process
// matches; delivery order and self-echo rules match the Redis transport.

package transport

import (
	"encoding/json"
	"errors"
	"sync"
)

// MemoryHub routes envelopes between channels opened in this process.
type MemoryHub struct {
	mu       sync.Mutex
	channels map[string][]*memChannel
}

// NewMemoryHub constructs an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{channels: make(map[string][]*memChannel)}
}

// Open attaches a new subscriber to the named channel.
func (h *MemoryHub) Open(name, sender string) (Channel, error) {
	ch := &memChannel{
		hub:      h,
		name:     name,
		sender:   sender,
		handlers: make(map[string]Handler),
		inbox:    make(chan envelope, 64),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.channels[name] = append(h.channels[name], ch)
	h.mu.Unlock()

	// One dispatch goroutine per subscriber keeps per-sender ordering.
	go ch.dispatch()
	return ch, nil
}

type memChannel struct {
	hub    *MemoryHub
	name   string
	sender string

	mu       sync.Mutex
	handlers map[string]Handler
	onError  func(error)
	closed   bool

	inbox chan envelope
	done  chan struct{}
}

func (c *memChannel) Send(event string, payload any) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errors.New("transport: channel closed")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := envelope{Sender: c.sender, Event: event, Payload: body}

	c.hub.mu.Lock()
	subs := append([]*memChannel(nil), c.hub.channels[c.name]...)
	c.hub.mu.Unlock()

	for _, sub := range subs {
		if sub.sender == c.sender {
			continue // no self-echo
		}
		select {
		case sub.inbox <- env:
		default:
			// At-most-once: a full inbox drops the message.
		}
	}
	return nil
}

func (c *memChannel) On(event string, h Handler) {
	c.mu.Lock()
	c.handlers[event] = h
	c.mu.Unlock()
}

func (c *memChannel) OnError(h func(error)) {
	c.mu.Lock()
	c.onError = h
	c.mu.Unlock()
}

func (c *memChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	h := c.hub
	h.mu.Lock()
	subs := h.channels[c.name]
	for i, sub := range subs {
		if sub == c {
			h.channels[c.name] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.channels[c.name]) == 0 {
		delete(h.channels, c.name)
	}
	h.mu.Unlock()

	close(c.done)
	return nil
}

func (c *memChannel) dispatch() {
	for {
		select {
		case env := <-c.inbox:
			c.mu.Lock()
			h := c.handlers[env.Event]
			c.mu.Unlock()
			if h != nil {
				h(env.Payload)
			}
		case <-c.done:
			return
		}
	}
}
