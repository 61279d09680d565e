// Package projection composes persisted messages, sender identity, and
// read state into the transport-ready records sent to clients.
// It holds no state and performs no I/O.
package projection

import (
	"time"

	"github.com/samber/lo"

	"studyhub/domain"
	"studyhub/domain/chat"
	"studyhub/domain/event"
)

// directTimeLayout is the default textual form used by direct-mode
// records and read-progress timestamps.
const directTimeLayout = "2006-01-02T15:04:05"

// MessageRecord is the direct-mode wire record. The isRead flag follows
// the opponent-progress rule, not "has the viewer seen it".
type MessageRecord struct {
	ID          int    `json:"id"`
	ChatRoomID  int    `json:"chatRoomId"`
	SenderID    int    `json:"senderId"`
	Message     string `json:"message"`
	MessageType string `json:"messageType"`
	SentAt      string `json:"sentAt"`
	IsRead      bool   `json:"isRead"`
}

// GroupMessageRecord is the group-mode wire record, carrying the sender's
// display identity and the live unread count.
type GroupMessageRecord struct {
	ID                 int    `json:"id"`
	ChatRoomID         int    `json:"chatRoomId"`
	SenderID           int    `json:"senderId"`
	SenderNickname     string `json:"senderNickname"`
	SenderProfileImage string `json:"senderProfileImage"`
	Message            string `json:"message"`
	MessageType        string `json:"messageType"`
	SentAt             string `json:"sentAt"`
	UnreadCount        int    `json:"unreadCount"`
	MessageID          int    `json:"messageId"`
}

// ReadProgressRecord is broadcast after a successful mark-read so unread
// badges update without polling.
type ReadProgressRecord struct {
	MessageType string `json:"messageType"`
	MessageID   int    `json:"messageId"`
	UnreadCount int    `json:"unreadCount"`
	UserID      int    `json:"userId"`
	LastReadAt  string `json:"lastReadAt"`
	ChatRoomID  int    `json:"chatRoomId"`
}

// DirectHistory attaches the per-message read flag for a two-party room,
// given the opponent's last-read time (zero when the opponent has never
// read the room).
func DirectHistory(messages []chat.Message, viewerID int, opponentLastReadAt time.Time) []MessageRecord {
	return lo.Map(messages, func(msg chat.Message, _ int) MessageRecord {
		return MessageRecord{
			ID:          int(msg.ID),
			ChatRoomID:  int(msg.Room),
			SenderID:    msg.SenderID,
			Message:     msg.Body,
			MessageType: string(msg.Kind),
			SentAt:      msg.SentAt.UTC().Format(directTimeLayout),
			IsRead:      chat.IsReadByOpponent(msg, viewerID, opponentLastReadAt),
		}
	})
}

// GroupHistory attaches sender identity and the live unread count to
// every message of a group room. Unread counts are derived, never cached.
func GroupHistory(messages []chat.Message, senders map[int]domain.User,
	memberIDs []int, receipts map[int]time.Time) []GroupMessageRecord {
	return lo.Map(messages, func(msg chat.Message, _ int) GroupMessageRecord {
		return GroupRecord(msg, senders[msg.SenderID], chat.UnreadCount(msg, memberIDs, receipts))
	})
}

// GroupRecord builds the transport record for one message; it is also
// the shape broadcast on the bus when a message is persisted.
func GroupRecord(msg chat.Message, sender domain.User, unreadCount int) GroupMessageRecord {
	nickname := sender.Nickname
	if msg.SenderID == chat.SystemSenderID {
		nickname = "SYSTEM"
	}
	return GroupMessageRecord{
		ID:                 int(msg.ID),
		ChatRoomID:         int(msg.Room),
		SenderID:           msg.SenderID,
		SenderNickname:     nickname,
		SenderProfileImage: sender.ProfileImage,
		Message:            msg.Body,
		MessageType:        string(msg.Kind),
		SentAt:             msg.SentAt.UTC().Format(time.RFC3339),
		UnreadCount:        unreadCount,
		MessageID:          int(msg.ID),
	}
}

// ReadProgress converts a read event into its wire record.
func ReadProgress(evt event.ReadProgressed) ReadProgressRecord {
	return ReadProgressRecord{
		MessageType: string(chat.MessageKindRead),
		MessageID:   int(evt.MessageID),
		UnreadCount: evt.UnreadCount,
		UserID:      evt.UserID,
		LastReadAt:  evt.LastReadAt.UTC().Format(directTimeLayout),
		ChatRoomID:  int(evt.Room),
	}
}
