package chat

import (
	"time"
)

type Command interface {
	RoomID() RoomID
}

type PostMessageCommand struct {
	Room     RoomID
	SenderID int    `validate:"gt=0"`
	Body     string `validate:"required"`
	SentAt   time.Time
}

func (c PostMessageCommand) RoomID() RoomID {
	return c.Room
}

type MarkReadCommand struct {
	Room   RoomID
	UserID int `validate:"gt=0"`
	At     time.Time
}

func (c MarkReadCommand) RoomID() RoomID {
	return c.Room
}
