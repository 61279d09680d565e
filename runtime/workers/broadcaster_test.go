package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"studyhub/domain/chat"
	"studyhub/mocks"
)

func TestBroadcaster_Publishes_On_Room_Topic(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisherMock := mocks.NewMockIPublisher(ctrl)

	broadcaster := NewBroadcaster(slog.Default(), publisherMock, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = broadcaster.Run(ctx) }()

	done := make(chan struct{})
	// Then the frame lands on the topic derived from the room id
	publisherMock.EXPECT().
		Publish("chatroom:42", gomock.Any()).
		DoAndReturn(func(topic string, payload []byte) error {
			req.JSONEq(`{"messageType":"SYSTEM"}`, string(payload))
			close(done)
			return nil
		}).
		Times(1)

	// When an event is published for room 42
	err := broadcaster.Publish(42, map[string]string{"messageType": "SYSTEM"})
	req.NoError(err)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		req.Fail("Frame never reached the bus")
	}
}

func TestBroadcaster_Serialization_Failure_Is_Surfaced(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisherMock := mocks.NewMockIPublisher(ctrl)

	broadcaster := NewBroadcaster(slog.Default(), publisherMock, 8)

	// A channel cannot be encoded to JSON
	err := broadcaster.Publish(1, make(chan int))
	req.Error(err)
}

func TestBroadcaster_Bus_Fault_Is_Not_Surfaced(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisherMock := mocks.NewMockIPublisher(ctrl)

	broadcaster := NewBroadcaster(slog.Default(), publisherMock, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = broadcaster.Run(ctx) }()

	done := make(chan struct{})
	// Given a bus that rejects the frame
	publisherMock.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(topic string, payload []byte) error {
			close(done)
			return fmt.Errorf("bus unavailable")
		}).
		Times(1)

	// When publishing; the caller still observes success
	req.NoError(broadcaster.Publish(1, "hello"))

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		req.Fail("Frame never reached the bus")
	}
}

func TestTopic_RoundTrip(t *testing.T) {
	req := require.New(t)

	topic := Topic(chat.RoomID(7))
	req.Equal("chatroom:7", topic)

	roomID, err := ParseTopic(topic)
	req.NoError(err)
	req.Equal(chat.RoomID(7), roomID)

	_, err = ParseTopic("orders:7")
	req.Error(err)
}
