package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"studyhub/domain/chat"
	apperrors "studyhub/errors"
)

type IMessageRepository interface {
	Save(message chat.Message) (chat.Message, error)
	ListByRoom(room chat.RoomID) ([]chat.Message, error)
	LatestIn(room chat.RoomID) (chat.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewMessageRepository reserves the Badger sequence that assigns message ids.
// Callers must Close the repository to release unleased ids.
func NewMessageRepository(db *badger.DB, log *slog.Logger) (MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:message"), 64)
	if err != nil {
		return MessageRepository{}, fmt.Errorf("message id sequence: %w", err)
	}
	return MessageRepository{db: db, seq: seq, log: log}, nil
}

func (r MessageRepository) Close() error {
	return r.seq.Release()
}

type diskMessage struct {
	ID       int       `json:"id"`
	Room     int       `json:"room"`
	SenderID int       `json:"senderId"`
	Kind     string    `json:"kind"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sentAt"`
}

// Save persists a message and assigns its id from the monotonic sequence.
// The key is formatted as "msg:{room_id}:{id_padded}" so that a prefix scan
// returns the messages of one room in assignment order; 19-digit zero
// padding keeps the lexicographical order aligned with the numeric one.
func (r MessageRepository) Save(message chat.Message) (chat.Message, error) {
	n, err := r.seq.Next()
	if err != nil {
		return chat.Message{}, fmt.Errorf("next message id: %w", err)
	}
	message.ID = chat.MessageID(n + 1)

	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return chat.Message{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(messageKey(message.Room, message.ID)), bytes)
	})
	if err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

// ListByRoom retrieves all messages of a room, ordered by SentAt ascending
// with the assigned id as tie-break.
func (r MessageRepository) ListByRoom(room chat.RoomID) ([]chat.Message, error) {
	var messages []chat.Message
	prefix := []byte(fmt.Sprintf("msg:%d:", room))
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var dm diskMessage
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				messages = append(messages, toMessage(dm))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})
	return messages, nil
}

// LatestIn returns the most recent message of a room by SentAt ordering,
// or ErrMessageNotFound for an empty room.
func (r MessageRepository) LatestIn(room chat.RoomID) (chat.Message, error) {
	messages, err := r.ListByRoom(room)
	if err != nil {
		return chat.Message{}, err
	}
	if len(messages) == 0 {
		return chat.Message{}, apperrors.ErrMessageNotFound
	}
	return messages[len(messages)-1], nil
}

func messageKey(room chat.RoomID, id chat.MessageID) string {
	return fmt.Sprintf("msg:%d:%019d", room, id)
}

func fromMessage(m chat.Message) diskMessage {
	return diskMessage{
		ID:       int(m.ID),
		Room:     int(m.Room),
		SenderID: m.SenderID,
		Kind:     string(m.Kind),
		Body:     m.Body,
		SentAt:   m.SentAt.UTC(),
	}
}

func toMessage(dm diskMessage) chat.Message {
	return chat.Message{
		ID:       chat.MessageID(dm.ID),
		Room:     chat.RoomID(dm.Room),
		SenderID: dm.SenderID,
		Kind:     chat.MessageKind(dm.Kind),
		Body:     dm.Body,
		SentAt:   dm.SentAt.UTC(),
	}
}
