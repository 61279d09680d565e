package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"studyhub/contract"
	"studyhub/domain"
	"studyhub/domain/chat"
	"studyhub/domain/event"
	apperrors "studyhub/errors"
	"studyhub/projection"
	"studyhub/repositories"
)

type IChatService interface {
	History(roomID chat.RoomID, viewerID int) ([]projection.MessageRecord, error)
	GroupHistory(roomID chat.RoomID, viewerID int) ([]projection.GroupMessageRecord, error)
	UnreadCountFor(roomID chat.RoomID, messageID chat.MessageID) (int, error)
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error)
	MarkRead(ctx context.Context, cmd chat.MarkReadCommand) error
	PostSystemMessage(ctx context.Context, roomID chat.RoomID, text string) (chat.Message, error)
	CreateRoom(ctx context.Context, kind chat.RoomKind, memberIDs []int) (chat.Room, error)
	RoomsOf(userID int) ([]chat.Room, error)
	JoinRoom(ctx context.Context, roomID chat.RoomID, userID int) error
	LeaveRoom(ctx context.Context, roomID chat.RoomID, userID int) error
	DeleteRoom(ctx context.Context, roomID chat.RoomID) error
}

// ChatService is the projector/broadcaster seam of the chat core.
// Durable operations succeed or fail strictly on the store's outcome;
// live delivery is a best-effort side effect behind the broadcaster.
type ChatService struct {
	log         *slog.Logger
	messages    repositories.IMessageRepository
	receipts    repositories.IReceiptRepository
	members     repositories.IMemberRepository
	rooms       repositories.IRoomRepository
	users       repositories.IUserRepository
	broadcaster contract.IBroadcaster
	validate    *validator.Validate
}

func NewChatService(log *slog.Logger,
	messages repositories.IMessageRepository,
	receipts repositories.IReceiptRepository,
	members repositories.IMemberRepository,
	rooms repositories.IRoomRepository,
	users repositories.IUserRepository,
	broadcaster contract.IBroadcaster) *ChatService {
	return &ChatService{
		log:         log,
		messages:    messages,
		receipts:    receipts,
		members:     members,
		rooms:       rooms,
		users:       users,
		broadcaster: broadcaster,
		validate:    validator.New(),
	}
}

// History is the direct (two-party) retrieval mode. The read flag of
// each message follows the opponent's last-read position.
func (s *ChatService) History(roomID chat.RoomID, viewerID int) ([]projection.MessageRecord, error) {
	messages, err := s.messages.ListByRoom(roomID)
	if err != nil {
		return nil, err
	}
	members, err := s.members.ListMembers(roomID)
	if err != nil {
		return nil, err
	}

	var opponentLastReadAt time.Time
	opponent, found := lo.Find(members, func(m chat.Member) bool { return m.UserID != viewerID })
	if found {
		receipt, ok, err := s.receipts.Find(roomID, opponent.UserID)
		if err != nil {
			return nil, err
		}
		if ok {
			opponentLastReadAt = receipt.LastReadAt
		}
	}
	return projection.DirectHistory(messages, viewerID, opponentLastReadAt), nil
}

// GroupHistory is the group retrieval mode: membership is enforced,
// sender identities are batch-resolved, and every message carries its
// live unread count.
func (s *ChatService) GroupHistory(roomID chat.RoomID, viewerID int) ([]projection.GroupMessageRecord, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	isMember, err := s.members.IsMember(room.ID, viewerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: user %d in room %d", apperrors.ErrNotRoomMember, viewerID, roomID)
	}

	messages, err := s.messages.ListByRoom(room.ID)
	if err != nil {
		return nil, err
	}
	senderIDs := lo.Uniq(lo.Map(messages, func(m chat.Message, _ int) int { return m.SenderID }))
	senders, err := s.users.Resolve(senderIDs)
	if err != nil {
		return nil, err
	}
	memberIDs, receipts, err := s.roomReadState(room.ID)
	if err != nil {
		return nil, err
	}
	return projection.GroupHistory(messages, senders, memberIDs, receipts), nil
}

// UnreadCountFor recomputes the unread count of one message on demand.
func (s *ChatService) UnreadCountFor(roomID chat.RoomID, messageID chat.MessageID) (int, error) {
	messages, err := s.messages.ListByRoom(roomID)
	if err != nil {
		return 0, err
	}
	msg, found := lo.Find(messages, func(m chat.Message) bool { return m.ID == messageID })
	if !found {
		return 0, fmt.Errorf("%w: message %d in room %d", apperrors.ErrMessageNotFound, messageID, roomID)
	}
	memberIDs, receipts, err := s.roomReadState(roomID)
	if err != nil {
		return 0, err
	}
	return chat.UnreadCount(msg, memberIDs, receipts), nil
}

// PostMessage persists a text message and broadcasts its transport
// record on the room topic. The caller sees only the store's outcome.
func (s *ChatService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	if err := s.validate.StructCtx(ctx, cmd); err != nil {
		return chat.Message{}, err
	}
	roomID := cmd.RoomID()
	isMember, err := s.members.IsMember(roomID, cmd.SenderID)
	if err != nil {
		return chat.Message{}, err
	}
	if !isMember {
		return chat.Message{}, fmt.Errorf("%w: user %d in room %d", apperrors.ErrNotRoomMember, cmd.SenderID, roomID)
	}

	sentAt := cmd.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	message, err := s.messages.Save(chat.Message{
		Room:     roomID,
		SenderID: cmd.SenderID,
		Kind:     chat.MessageKindText,
		Body:     cmd.Body,
		SentAt:   sentAt,
	})
	if err != nil {
		return chat.Message{}, err
	}

	s.broadcastMessage(event.MessagePersisted{Message: message})
	return message, nil
}

// MarkRead upserts the receipt, then broadcasts the read-progress record
// for the room's most recent message. A room without messages produces
// no event.
func (s *ChatService) MarkRead(ctx context.Context, cmd chat.MarkReadCommand) error {
	if err := s.validate.StructCtx(ctx, cmd); err != nil {
		return err
	}
	at := cmd.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	roomID := cmd.RoomID()
	receipt, err := s.receipts.Upsert(roomID, cmd.UserID, at)
	if err != nil {
		return err
	}

	latest, err := s.messages.LatestIn(roomID)
	if errors.Is(err, apperrors.ErrMessageNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	unread, err := s.UnreadCountFor(roomID, latest.ID)
	if err != nil {
		return err
	}

	record := projection.ReadProgress(event.ReadProgressed{
		Room:        roomID,
		UserID:      cmd.UserID,
		MessageID:   latest.ID,
		UnreadCount: unread,
		LastReadAt:  receipt.LastReadAt,
	})
	if err := s.broadcaster.Publish(roomID, record); err != nil {
		s.log.Error("read event not broadcastable", "room_id", roomID, "error", err)
	}
	return nil
}

// PostSystemMessage persists one row with the sentinel sender identity
// and broadcasts it, independent of any particular user's request.
func (s *ChatService) PostSystemMessage(ctx context.Context, roomID chat.RoomID, text string) (chat.Message, error) {
	if _, err := s.rooms.Get(roomID); err != nil {
		return chat.Message{}, err
	}
	message, err := s.messages.Save(chat.Message{
		Room:     roomID,
		SenderID: chat.SystemSenderID,
		Kind:     chat.MessageKindSystem,
		Body:     text,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return chat.Message{}, err
	}

	s.broadcastMessage(event.MessagePersisted{Message: message})
	return message, nil
}

// CreateRoom creates a room with its initial membership; no lifecycle
// announcements are produced for founding members.
func (s *ChatService) CreateRoom(ctx context.Context, kind chat.RoomKind, memberIDs []int) (chat.Room, error) {
	now := time.Now().UTC()
	room, err := s.rooms.Create(kind, now)
	if err != nil {
		return chat.Room{}, err
	}
	for _, userID := range memberIDs {
		if err := s.members.Join(room.ID, userID, now); err != nil {
			return chat.Room{}, err
		}
	}
	return room, nil
}

// RoomsOf lists the rooms the user belongs to, via the reverse
// membership index. A room whose record has been deleted mid-scan is
// skipped rather than failing the listing.
func (s *ChatService) RoomsOf(userID int) ([]chat.Room, error) {
	roomIDs, err := s.members.ListRoomsOf(userID)
	if err != nil {
		return nil, err
	}
	rooms := make([]chat.Room, 0, len(roomIDs))
	for _, id := range roomIDs {
		room, err := s.rooms.Get(id)
		if errors.Is(err, apperrors.ErrRoomNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// JoinRoom adds the user and, for group rooms, announces the change
// with a system message.
func (s *ChatService) JoinRoom(ctx context.Context, roomID chat.RoomID, userID int) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	if err := s.members.Join(room.ID, userID, time.Now().UTC()); err != nil {
		return err
	}
	if room.Kind == chat.RoomKindGroup {
		if _, err := s.PostSystemMessage(ctx, room.ID, fmt.Sprintf("%s joined the room", s.displayName(userID))); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChatService) LeaveRoom(ctx context.Context, roomID chat.RoomID, userID int) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	if err := s.members.Leave(room.ID, userID); err != nil {
		return err
	}
	if room.Kind == chat.RoomKindGroup {
		if _, err := s.PostSystemMessage(ctx, room.ID, fmt.Sprintf("%s left the room", s.displayName(userID))); err != nil {
			return err
		}
	}
	return nil
}

// DeleteRoom removes the room and cascades its membership.
func (s *ChatService) DeleteRoom(ctx context.Context, roomID chat.RoomID) error {
	if _, err := s.rooms.Get(roomID); err != nil {
		return err
	}
	if err := s.members.RemoveAll(roomID); err != nil {
		return err
	}
	return s.rooms.Delete(roomID)
}

// broadcastMessage fans the persisted message out on the room topic.
// A serialization failure indicates a contract defect and is logged at
// error level; it never fails the durable write that preceded it.
func (s *ChatService) broadcastMessage(evt event.MessagePersisted) {
	message := evt.Message
	sender := domain.User{}
	if message.SenderID != chat.SystemSenderID {
		resolved, err := s.users.Resolve([]int{message.SenderID})
		if err != nil {
			s.log.Warn("sender identity unresolved for broadcast", "sender_id", message.SenderID, "error", err)
		} else {
			sender = resolved[message.SenderID]
		}
	}

	unread := 0
	memberIDs, receipts, err := s.roomReadState(message.Room)
	if err != nil {
		s.log.Warn("read state unresolved for broadcast", "room_id", message.Room, "error", err)
	} else {
		unread = chat.UnreadCount(message, memberIDs, receipts)
	}

	record := projection.GroupRecord(message, sender, unread)
	if err := s.broadcaster.Publish(message.Room, record); err != nil {
		s.log.Error("message event not broadcastable", "room_id", message.Room, "message_id", message.ID, "error", err)
	}
}

func (s *ChatService) roomReadState(roomID chat.RoomID) ([]int, map[int]time.Time, error) {
	members, err := s.members.ListMembers(roomID)
	if err != nil {
		return nil, nil, err
	}
	receipts, err := s.receipts.FindForRoom(roomID)
	if err != nil {
		return nil, nil, err
	}
	memberIDs := lo.Map(members, func(m chat.Member, _ int) int { return m.UserID })
	return memberIDs, receipts, nil
}

func (s *ChatService) displayName(userID int) string {
	users, err := s.users.Resolve([]int{userID})
	if err == nil {
		if user, ok := users[userID]; ok && user.Nickname != "" {
			return user.Nickname
		}
	}
	return fmt.Sprintf("user %d", userID)
}
