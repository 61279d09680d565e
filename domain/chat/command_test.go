package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Commands_Carry_Typed_Room_Identity(t *testing.T) {
	req := require.New(t)
	room := RoomID(7)

	post := PostMessageCommand{Room: room, SenderID: 1, Body: "hi", SentAt: time.Now().UTC()}
	req.Equal(room, post.RoomID())

	read := MarkReadCommand{Room: room, UserID: 2, At: time.Now().UTC()}
	req.Equal(room, read.RoomID())
}
