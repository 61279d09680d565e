// Package bus carries room events between application instances.
// The redis implementation is the production transport; the in-memory
// implementation serves single-process deployments and tests.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	radix "github.com/mediocregopher/radix/v3"

	"studyhub/contract"
	"studyhub/runtime/workers"
)

const subscribePattern = "chatroom:*"

// RedisBus publishes frames through a connection pool and feeds
// pattern-subscribed frames into the listener channel. One RedisBus
// per process.
type RedisBus struct {
	log    *slog.Logger
	pool   radix.Client
	pubsub radix.PubSubConn
	frames chan contract.BusFrame
}

func NewRedisBus(log *slog.Logger, addr string, bufferSize int) (*RedisBus, error) {
	pool, err := radix.NewPool("tcp", addr, 10)
	if err != nil {
		return nil, fmt.Errorf("redis pool: %w", err)
	}
	pubsub, err := radix.PersistentPubSubWithOpts("tcp", addr)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("redis pubsub: %w", err)
	}
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &RedisBus{
		log:    log,
		pool:   pool,
		pubsub: pubsub,
		frames: make(chan contract.BusFrame, bufferSize),
	}, nil
}

// Publish satisfies contract.IPublisher for the broadcaster worker.
func (b *RedisBus) Publish(topic string, payload []byte) error {
	if err := b.pool.Do(radix.FlatCmd(nil, "PUBLISH", topic, payload)); err != nil {
		return fmt.Errorf("publish on %q: %w", topic, err)
	}
	return nil
}

// Frames is the inbound side consumed by the bus listener worker.
func (b *RedisBus) Frames() <-chan contract.BusFrame {
	return b.frames
}

// Run pumps subscribed messages into the frame channel until the
// context ends. The persistent connection reconnects on its own, so a
// pump error only surfaces when the subscription itself is broken.
func (b *RedisBus) Run(ctx context.Context) error {
	inbound := make(chan radix.PubSubMessage, cap(b.frames))
	if err := b.pubsub.PSubscribe(inbound, subscribePattern); err != nil {
		return fmt.Errorf("psubscribe %q: %w", subscribePattern, err)
	}
	defer func() {
		if err := b.pubsub.PUnsubscribe(inbound, subscribePattern); err != nil {
			b.log.Warn("pattern unsubscribe failed", "pattern", subscribePattern, "error", err)
		}
	}()

	b.log.Info("bus subscription active", "pattern", subscribePattern)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, open := <-inbound:
			if !open {
				return fmt.Errorf("bus subscription closed")
			}
			if _, err := workers.ParseTopic(msg.Channel); err != nil {
				continue
			}
			frame := contract.BusFrame{Topic: msg.Channel, Payload: msg.Message}
			select {
			case b.frames <- frame:
			default:
				b.log.Warn("inbound frame discarded, listener behind", "topic", msg.Channel)
			}
		}
	}
}

func (b *RedisBus) Close() error {
	if err := b.pubsub.Close(); err != nil {
		b.log.Warn("pubsub close failed", "error", err)
	}
	return b.pool.Close()
}

// Ping verifies connectivity at startup so a misconfigured address
// fails fast instead of at first publish.
func (b *RedisBus) Ping(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- b.pool.Do(radix.Cmd(nil, "PING")) }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("redis ping timed out after %s", timeout)
	}
}
