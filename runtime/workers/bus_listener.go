package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	"studyhub/contract"
	"studyhub/domain"
	"studyhub/repositories"
)

// BusListener re-delivers frames observed on the shared bus into this
// process's registry. Every locally-connected member of the frame's room
// receives it as a chat push event; users connected to other processes
// are served by their own listener.
type BusListener struct {
	log      *slog.Logger
	registry contract.IRegistry
	members  repositories.IMemberRepository
	frames   <-chan contract.BusFrame
}

func NewBusListener(log *slog.Logger, registry contract.IRegistry,
	members repositories.IMemberRepository, frames <-chan contract.BusFrame) *BusListener {
	return &BusListener{log: log, registry: registry, members: members, frames: frames}
}

func (w *BusListener) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping bus listener")
			return nil
		case frame, ok := <-w.frames:
			if !ok {
				return nil
			}
			w.deliver(frame)
		}
	}
}

func (w *BusListener) deliver(frame contract.BusFrame) {
	roomID, err := ParseTopic(frame.Topic)
	if err != nil {
		w.log.Warn("ignoring frame on foreign topic", "topic", frame.Topic, "error", err)
		return
	}
	members, err := w.members.ListMembers(roomID)
	if err != nil {
		w.log.Error("cannot resolve room members for delivery", "room_id", roomID, "error", err)
		return
	}
	payload := json.RawMessage(frame.Payload)
	for _, member := range members {
		w.registry.Send(member.UserID, domain.NotificationChat, payload)
	}
}
