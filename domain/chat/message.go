package chat

import "time"

type MessageID int

type MessageKind string

const (
	MessageKindText   MessageKind = "TEXT"
	MessageKindSystem MessageKind = "SYSTEM"
	MessageKindRead   MessageKind = "READ"
)

// SystemSenderID is the reserved sender identity for system-generated messages.
const SystemSenderID = 0

// Message represents an immutable chat event.
// The ID is assigned at persistence time and is monotonically increasing.
type Message struct {
	ID       MessageID
	Room     RoomID
	SenderID int
	Kind     MessageKind
	Body     string
	SentAt   time.Time
}

// Before defines ordering within a room: SentAt first, ID as tie-break.
func (m Message) Before(other Message) bool {
	if m.SentAt.Equal(other.SentAt) {
		return m.ID < other.ID
	}
	return m.SentAt.Before(other.SentAt)
}
