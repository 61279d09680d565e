package event

import (
	"time"

	"studyhub/domain/chat"
)

type DomainEvent interface {
	RoomID() chat.RoomID
}

// MessagePersisted is raised after a chat or system message has been
// durably stored, never before.
type MessagePersisted struct {
	Message chat.Message
}

func (e MessagePersisted) RoomID() chat.RoomID {
	return e.Message.Room
}

// ReadProgressed is raised after a receipt upsert, carrying the unread
// count of the room's most recent message.
type ReadProgressed struct {
	Room        chat.RoomID
	UserID      int
	MessageID   chat.MessageID
	UnreadCount int
	LastReadAt  time.Time
}

func (e ReadProgressed) RoomID() chat.RoomID {
	return e.Room
}
