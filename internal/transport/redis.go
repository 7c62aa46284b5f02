// internal/transport/redis.go
//
// Redis pub/sub backed Transport. Each Open subscribes to one Redis
// channel; Send publishes an envelope that every other subscriber on
// the channel decodes and dispatches.

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisTransport opens channels backed by Redis pub/sub.
type RedisTransport struct {
	rdb *redis.Client
}

// NewRedisTransport wraps an already-connected client.
func NewRedisTransport(rdb *redis.Client) *RedisTransport {
	return &RedisTransport{rdb: rdb}
}

// Open subscribes to the named Redis channel and starts the receive
// loop. The returned Channel is live once Open returns; Redis confirms
// the subscription before the first message can arrive.
func (t *RedisTransport) Open(name, sender string) (Channel, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := t.rdb.Subscribe(ctx, name)

	// Wait for the subscribe confirmation so a Send from the other peer
	// immediately after room join is not lost.
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return nil, err
	}

	ch := &redisChannel{
		rdb:      t.rdb,
		sub:      sub,
		name:     name,
		sender:   sender,
		handlers: make(map[string]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
	go ch.receive()
	return ch, nil
}

type redisChannel struct {
	rdb    *redis.Client
	sub    *redis.PubSub
	name   string
	sender string

	mu       sync.Mutex
	handlers map[string]Handler
	onError  func(error)
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
}

func (c *redisChannel) Send(event string, payload any) error {
	data, err := encodeEnvelope(c.sender, event, payload)
	if err != nil {
		return err
	}
	return c.rdb.Publish(c.ctx, c.name, data).Err()
}

func (c *redisChannel) On(event string, h Handler) {
	c.mu.Lock()
	c.handlers[event] = h
	c.mu.Unlock()
}

func (c *redisChannel) OnError(h func(error)) {
	c.mu.Lock()
	c.onError = h
	c.mu.Unlock()
}

func (c *redisChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	return c.sub.Close()
}

func (c *redisChannel) receive() {
	msgs := c.sub.Channel()
	for msg := range msgs {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue // malformed publishes are dropped
		}
		if env.Sender == c.sender {
			continue
		}
		c.mu.Lock()
		h := c.handlers[env.Event]
		c.mu.Unlock()
		if h != nil {
			h(env.Payload)
		}
	}

	// Channel drained: either Close was called or the connection died.
	c.mu.Lock()
	closed := c.closed
	onError := c.onError
	c.mu.Unlock()
	if !closed && onError != nil {
		onError(errors.New("transport: subscription lost"))
	}
}
