package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"studyhub/contract"
	"studyhub/domain/chat"
)

const topicPrefix = "chatroom:"

// Topic derives the bus topic for a room.
func Topic(roomID chat.RoomID) string {
	return topicPrefix + strconv.Itoa(int(roomID))
}

// ParseTopic recovers the room id from a bus topic.
func ParseTopic(topic string) (chat.RoomID, error) {
	raw, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return 0, fmt.Errorf("not a chatroom topic: %q", topic)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("bad room id in topic %q: %w", topic, err)
	}
	return chat.RoomID(id), nil
}

type outboundFrame struct {
	topic   string
	payload []byte
}

// Broadcaster serializes room events and fans them onto the shared bus.
//
// Publish encodes synchronously so that a contract defect surfaces to the
// caller, then hands the frame to the worker goroutine: the durable write
// path behind a publish is never slowed or failed by bus problems.
// Bus faults are logged and dropped, never retried.
type Broadcaster struct {
	log       *slog.Logger
	publisher contract.IPublisher
	outbound  chan outboundFrame
}

func NewBroadcaster(log *slog.Logger, publisher contract.IPublisher, bufferSize int) *Broadcaster {
	return &Broadcaster{
		log:       log,
		publisher: publisher,
		outbound:  make(chan outboundFrame, bufferSize),
	}
}

// Publish encodes the event and queues it for delivery on the topic
// derived from roomID. The only error it returns is a serialization
// failure; a full outbound queue drops the frame, consistent with the
// bus being at-most-once.
func (b *Broadcaster) Publish(roomID chat.RoomID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode chatroom event: %w", err)
	}
	frame := outboundFrame{topic: Topic(roomID), payload: data}
	select {
	case b.outbound <- frame:
	default:
		b.log.Warn("outbound queue full, dropping bus frame", "topic", frame.topic)
	}
	return nil
}

func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			b.log.Debug("Context done, stopping broadcaster")
			return nil
		case frame := <-b.outbound:
			if err := b.publisher.Publish(frame.topic, frame.payload); err != nil {
				b.log.Warn("bus publish failed", "topic", frame.topic, "error", err)
			}
		}
	}
}
