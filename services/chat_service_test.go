package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"studyhub/domain/chat"
	apperrors "studyhub/errors"
	"studyhub/projection"
	"studyhub/repositories"
)

// captureBroadcaster records every published record so tests can assert
// on the live side effects of durable operations.
type captureBroadcaster struct {
	mu      sync.Mutex
	rooms   []chat.RoomID
	records []any
	fail    error
}

func (b *captureBroadcaster) Publish(roomID chat.RoomID, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.rooms = append(b.rooms, roomID)
	b.records = append(b.records, payload)
	return nil
}

func (b *captureBroadcaster) published() []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]any(nil), b.records...)
}

type fixture struct {
	service     *ChatService
	messages    repositories.MessageRepository
	broadcaster *captureBroadcaster
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	messages, err := repositories.NewMessageRepository(db, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = messages.Close() })
	rooms, err := repositories.NewRoomRepository(db, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rooms.Close() })

	broadcaster := &captureBroadcaster{}
	service := NewChatService(log,
		messages,
		repositories.NewReceiptRepository(db, log),
		repositories.NewMemberRepository(db, log),
		rooms,
		repositories.NewUserRepository(db, log),
		broadcaster)
	return fixture{service: service, messages: messages, broadcaster: broadcaster}
}

func Test_PostMessage_Persists_And_Broadcasts_On_Room_Topic(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 2})
	req.NoError(err)

	// When a member posts a message
	saved, err := fx.service.PostMessage(ctx, chat.PostMessageCommand{
		Room:     room.ID,
		SenderID: 1,
		Body:     "anyone up for chapter 4?",
	})
	req.NoError(err)
	req.NotZero(saved.ID)
	req.Equal(chat.MessageKindText, saved.Kind)

	// Then exactly one record is broadcast on the room's topic
	records := fx.broadcaster.published()
	req.Len(records, 1)
	req.Equal(room.ID, fx.broadcaster.rooms[0])

	record, ok := records[0].(projection.GroupMessageRecord)
	req.True(ok)
	req.Equal(int(saved.ID), record.MessageID)
	req.Equal("anyone up for chapter 4?", record.Message)
	// The other member has no receipt, so the message counts as unread once
	req.Equal(1, record.UnreadCount)
}

func Test_PostMessage_Rejects_Non_Member(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 2})
	req.NoError(err)

	_, err = fx.service.PostMessage(ctx, chat.PostMessageCommand{
		Room:     room.ID,
		SenderID: 9,
		Body:     "let me in",
	})
	req.ErrorIs(err, apperrors.ErrNotRoomMember)
	req.Empty(fx.broadcaster.published())
}

func Test_PostMessage_Rejects_Empty_Body(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1})
	req.NoError(err)

	_, err = fx.service.PostMessage(ctx, chat.PostMessageCommand{Room: room.ID, SenderID: 1})
	req.Error(err)
	req.Empty(fx.broadcaster.published())
}

func Test_PostMessage_Succeeds_When_Broadcast_Fails(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 2})
	req.NoError(err)
	fx.broadcaster.fail = errors.New("bus down")

	// The durable write decides the outcome, not the live fan-out
	saved, err := fx.service.PostMessage(ctx, chat.PostMessageCommand{
		Room:     room.ID,
		SenderID: 1,
		Body:     "still stored",
	})
	req.NoError(err)

	history, err := fx.messages.ListByRoom(room.ID)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(saved.ID, history[0].ID)
}

func Test_PostSystemMessage_Uses_Sentinel_Sender(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 2})
	req.NoError(err)

	saved, err := fx.service.PostSystemMessage(ctx, room.ID, "study session starts in 10 minutes")
	req.NoError(err)
	req.Equal(chat.SystemSenderID, saved.SenderID)
	req.Equal(chat.MessageKindSystem, saved.Kind)

	// Exactly one persisted row and one broadcast
	history, err := fx.messages.ListByRoom(room.ID)
	req.NoError(err)
	req.Len(history, 1)

	records := fx.broadcaster.published()
	req.Len(records, 1)
	record := records[0].(projection.GroupMessageRecord)
	req.Equal("SYSTEM", record.SenderNickname)
	req.Equal(chat.SystemSenderID, record.SenderID)
	req.Equal(string(chat.MessageKindSystem), record.MessageType)
}

func Test_PostSystemMessage_Unknown_Room(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)

	_, err := fx.service.PostSystemMessage(context.Background(), chat.RoomID(404), "hello?")
	req.ErrorIs(err, apperrors.ErrRoomNotFound)
	req.Empty(fx.broadcaster.published())
}

func Test_MarkRead_Broadcasts_Read_Progress(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 2, 3})
	req.NoError(err)

	at := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	saved, err := fx.service.PostMessage(ctx, chat.PostMessageCommand{
		Room: room.ID, SenderID: 1, Body: "read me", SentAt: at,
	})
	req.NoError(err)
	fx.broadcaster.records = nil

	// When member 2 catches up past the message
	err = fx.service.MarkRead(ctx, chat.MarkReadCommand{
		Room: room.ID, UserID: 2, At: at.Add(time.Minute),
	})
	req.NoError(err)

	records := fx.broadcaster.published()
	req.Len(records, 1)
	record, ok := records[0].(projection.ReadProgressRecord)
	req.True(ok)
	req.Equal(string(chat.MessageKindRead), record.MessageType)
	req.Equal(int(saved.ID), record.MessageID)
	req.Equal(2, record.UserID)
	req.Equal(int(room.ID), record.ChatRoomID)
	// Member 3 still has not read, so one unread remains
	req.Equal(1, record.UnreadCount)
}

func Test_MarkRead_Empty_Room_Emits_Nothing(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 2})
	req.NoError(err)

	err = fx.service.MarkRead(ctx, chat.MarkReadCommand{Room: room.ID, UserID: 1, At: time.Now().UTC()})
	req.NoError(err)
	req.Empty(fx.broadcaster.published())
}

func Test_History_Direct_Read_Flags_Follow_Opponent(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindDirect, []int{1, 2})
	req.NoError(err)

	base := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	_, err = fx.service.PostMessage(ctx, chat.PostMessageCommand{Room: room.ID, SenderID: 1, Body: "first", SentAt: base})
	req.NoError(err)
	_, err = fx.service.PostMessage(ctx, chat.PostMessageCommand{Room: room.ID, SenderID: 1, Body: "second", SentAt: base.Add(2 * time.Minute)})
	req.NoError(err)

	// The opponent has read up to one minute past the first message
	err = fx.service.MarkRead(ctx, chat.MarkReadCommand{Room: room.ID, UserID: 2, At: base.Add(time.Minute)})
	req.NoError(err)

	history, err := fx.service.History(room.ID, 1)
	req.NoError(err)
	req.Len(history, 2)
	req.True(history[0].IsRead)
	req.False(history[1].IsRead)
}

func Test_GroupHistory_Requires_Membership(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 2})
	req.NoError(err)

	_, err = fx.service.GroupHistory(room.ID, 9)
	req.ErrorIs(err, apperrors.ErrNotRoomMember)

	_, err = fx.service.GroupHistory(chat.RoomID(404), 1)
	req.ErrorIs(err, apperrors.ErrRoomNotFound)
}

func Test_JoinRoom_Announces_In_Group_Rooms(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1})
	req.NoError(err)

	err = fx.service.JoinRoom(ctx, room.ID, 5)
	req.NoError(err)

	history, err := fx.messages.ListByRoom(room.ID)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(chat.SystemSenderID, history[0].SenderID)
	req.Equal(chat.MessageKindSystem, history[0].Kind)
	req.Contains(history[0].Body, "joined the room")

	// The new member can post right away
	_, err = fx.service.PostMessage(ctx, chat.PostMessageCommand{Room: room.ID, SenderID: 5, Body: "hi all"})
	req.NoError(err)
}

func Test_CreateRoom_Is_Silent_For_Founding_Members(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)

	room, err := fx.service.CreateRoom(context.Background(), chat.RoomKindGroup, []int{1, 2, 3})
	req.NoError(err)

	history, err := fx.messages.ListByRoom(room.ID)
	req.NoError(err)
	req.Empty(history)
	req.Empty(fx.broadcaster.published())
}

func Test_RoomsOf_Lists_Only_Memberships(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.service.CreateRoom(ctx, chat.RoomKindDirect, []int{1, 2})
	req.NoError(err)
	second, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 3})
	req.NoError(err)

	rooms, err := fx.service.RoomsOf(1)
	req.NoError(err)
	req.Len(rooms, 2)

	rooms, err = fx.service.RoomsOf(2)
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal(first.ID, rooms[0].ID)

	// A deleted room vanishes from the listing without an error
	req.NoError(fx.service.DeleteRoom(ctx, second.ID))
	rooms, err = fx.service.RoomsOf(1)
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal(first.ID, rooms[0].ID)
}

func Test_DeleteRoom_Cascades_Membership(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t)
	ctx := context.Background()

	room, err := fx.service.CreateRoom(ctx, chat.RoomKindGroup, []int{1, 2})
	req.NoError(err)

	err = fx.service.DeleteRoom(ctx, room.ID)
	req.NoError(err)

	_, err = fx.service.GroupHistory(room.ID, 1)
	req.ErrorIs(err, apperrors.ErrRoomNotFound)

	err = fx.service.DeleteRoom(ctx, room.ID)
	req.ErrorIs(err, apperrors.ErrRoomNotFound)
}
