package runtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyhub/contract"
	"studyhub/domain"
)

func TestRegistry_Subscribe_Emits_Connect_First(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 8)

	// When a user subscribes
	stream := registry.Subscribe(7)

	// Then the first frame is the synthetic connect event
	evt := <-stream.Events()
	req.Equal("connect", evt.Event)

	var payload string
	req.NoError(json.Unmarshal(evt.Data, &payload))
	req.Equal("connected!", payload)
}

func TestRegistry_Send_Delivers_Lowercase_Event(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 8)
	stream := registry.Subscribe(7)
	<-stream.Events() // drain connect

	registry.Send(7, domain.NotificationFriend, map[string]string{"from": "mina"})

	evt := <-stream.Events()
	req.Equal("friend", evt.Event)
	req.JSONEq(`{"from":"mina"}`, string(evt.Data))
}

func TestRegistry_Send_Without_Channel_Is_Noop(t *testing.T) {
	registry := NewRegistry(slog.Default(), 8)

	// Nothing is registered for user 42; the event is dropped, not queued
	registry.Send(42, domain.NotificationChat, "hello")
}

func TestRegistry_Send_Unknown_Type_Is_Dropped(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 8)
	stream := registry.Subscribe(7)
	<-stream.Events()

	registry.Send(7, domain.NotificationType("BOGUS"), "hello")

	select {
	case evt := <-stream.Events():
		req.Failf("unexpected delivery", "got %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistry_Second_Subscribe_Supersedes_First(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 8)

	// Given a user already subscribed
	first := registry.Subscribe(7)
	<-first.Events()

	// When the same user subscribes again
	second := registry.Subscribe(7)
	<-second.Events()

	// Then the first channel is explicitly closed
	_, open := <-first.Events()
	req.False(open)

	// And a send is observable only on the second channel
	registry.Send(7, domain.NotificationChat, "hello")
	evt := <-second.Events()
	req.Equal("chat", evt.Event)
}

func TestRegistry_Full_Buffer_Discards_Channel(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 1)

	// Given a subscriber that never drains; the connect event fills the buffer
	stream := registry.Subscribe(7)

	// When a write fails for lack of capacity
	registry.Send(7, domain.NotificationChat, "first")

	// Then the channel has been forgotten and closed
	<-stream.Events() // the buffered connect event
	_, open := <-stream.Events()
	req.False(open)

	// And later sends are silent no-ops
	registry.Send(7, domain.NotificationChat, "second")
}

func TestRegistry_Unsubscribe_Superseded_Stream_Keeps_Successor(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 8)

	first := registry.Subscribe(7)
	second := registry.Subscribe(7)
	<-second.Events()

	// When the stale handle is unsubscribed after supersession
	registry.Unsubscribe(first)

	// Then the successor still receives events
	registry.Send(7, domain.NotificationStudy, "invite")
	evt := <-second.Events()
	req.Equal("study", evt.Event)
}

func TestRegistry_Connect_Precedes_Concurrent_Sends(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 8)

	// A sender hammers the user for the whole test
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				registry.Send(7, domain.NotificationChat, "racing")
			}
		}
	}()

	// Then every fresh subscription still sees connect as its first frame
	for i := 0; i < 100; i++ {
		stream := registry.Subscribe(7)
		select {
		case evt := <-stream.Events():
			req.Equal("connect", evt.Event)
		case <-time.After(time.Second):
			t.Fatal("no frame on fresh subscription")
		}
	}
	close(done)
	wg.Wait()
}

func TestRegistry_Concurrent_Subscribe_And_Send(t *testing.T) {
	registry := NewRegistry(slog.Default(), 4)

	var wg sync.WaitGroup
	streams := make(chan contract.PushStream, 64)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				streams <- registry.Subscribe(7)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				registry.Send(7, domain.NotificationChat, j)
			}
		}()
	}
	wg.Wait()
	close(streams)

	// Drain everything so no goroutine leaks past the test
	for s := range streams {
		registry.Unsubscribe(s)
		for range s.Events() {
		}
	}
}
