// Package runtime owns the in-memory delivery state of one server
// process: the per-user push channels and the workers that bridge the
// shared bus into them. Nothing here survives a restart.
package runtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"studyhub/contract"
	"studyhub/domain"
)

// PushChannel is one user's live outbound channel in this process.
// It is owned exclusively by the Registry that created it.
type PushChannel struct {
	id     uuid.UUID
	userID int

	mu     sync.Mutex
	closed bool
	events chan contract.PushEvent
}

func (c *PushChannel) Events() <-chan contract.PushEvent {
	return c.events
}

func (c *PushChannel) UserID() int {
	return c.userID
}

// push writes one frame without blocking. It reports false when the
// channel is closed or its buffer is full; both count as write failures.
func (c *PushChannel) push(evt contract.PushEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- evt:
		return true
	default:
		return false
	}
}

func (c *PushChannel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Registry maps each user to at most one live push channel.
// Completion, idle timeout, write failure, and supersession all converge
// on the same removal path. Delivery is at-most-once and best-effort.
type Registry struct {
	mu         sync.RWMutex
	channels   map[int]*PushChannel
	bufferSize int
	log        *slog.Logger
}

func NewRegistry(log *slog.Logger, bufferSize int) *Registry {
	// The synthetic connect event must always fit
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Registry{
		channels:   make(map[int]*PushChannel),
		bufferSize: bufferSize,
		log:        log,
	}
}

// Subscribe creates a new push channel for the user, superseding and
// explicitly closing any previous channel of the same user in this
// process. The synthetic connect event is emitted immediately so that
// passive clients detect the live connection instead of waiting for
// the first real event.
func (r *Registry) Subscribe(userID int) contract.PushStream {
	ch := &PushChannel{
		id:     uuid.New(),
		userID: userID,
		events: make(chan contract.PushEvent, r.bufferSize),
	}

	// Enqueued before the channel is published so no concurrent Send
	// can slip a frame ahead of it.
	name, _ := domain.NotificationConnect.EventName()
	data, _ := json.Marshal("connected!")
	ch.push(contract.PushEvent{Event: name, Data: data})

	r.mu.Lock()
	prev := r.channels[userID]
	r.channels[userID] = ch
	r.mu.Unlock()

	if prev != nil {
		prev.close()
		r.log.Debug("push channel superseded", "user_id", userID, "channel_id", prev.id)
	}
	return ch
}

// Unsubscribe forgets the stream if it is still the user's current
// channel and closes it either way. Unsubscribing a superseded stream
// leaves the successor untouched.
func (r *Registry) Unsubscribe(stream contract.PushStream) {
	ch, ok := stream.(*PushChannel)
	if !ok {
		return
	}
	r.remove(ch)
}

// Send serializes {type, payload} and writes it to the user's channel.
// A missing channel is a silent no-op; a failed write deregisters the
// channel with no retry. Failures are never surfaced to the caller of
// the operation that produced the event.
func (r *Registry) Send(userID int, t domain.NotificationType, payload any) {
	name, ok := t.EventName()
	if !ok {
		r.log.Error("dropping push event of unknown type", "type", string(t), "user_id", userID)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Error("push payload not serializable", "type", name, "user_id", userID, "error", err)
		return
	}

	r.mu.RLock()
	ch := r.channels[userID]
	r.mu.RUnlock()
	if ch == nil {
		return
	}

	if !ch.push(contract.PushEvent{Event: name, Data: data}) {
		r.log.Warn("push write failed, discarding channel", "user_id", userID, "channel_id", ch.id)
		r.remove(ch)
	}
}

// ActiveStreams reports how many users currently hold a live channel.
func (r *Registry) ActiveStreams() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

func (r *Registry) remove(ch *PushChannel) {
	r.mu.Lock()
	if current, ok := r.channels[ch.userID]; ok && current == ch {
		delete(r.channels, ch.userID)
	}
	r.mu.Unlock()
	ch.close()
}
