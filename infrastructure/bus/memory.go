package bus

import (
	"log/slog"

	"studyhub/contract"
)

// MemoryBus loops published frames straight back to the listener
// channel. It gives a single process the same publish/deliver path the
// redis bus gives a fleet.
type MemoryBus struct {
	log    *slog.Logger
	frames chan contract.BusFrame
}

func NewMemoryBus(log *slog.Logger, bufferSize int) *MemoryBus {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &MemoryBus{log: log, frames: make(chan contract.BusFrame, bufferSize)}
}

func (b *MemoryBus) Publish(topic string, payload []byte) error {
	frame := contract.BusFrame{Topic: topic, Payload: append([]byte(nil), payload...)}
	select {
	case b.frames <- frame:
	default:
		b.log.Warn("frame discarded, listener behind", "topic", topic)
	}
	return nil
}

func (b *MemoryBus) Frames() <-chan contract.BusFrame {
	return b.frames
}

func (b *MemoryBus) Close() error {
	close(b.frames)
	return nil
}
