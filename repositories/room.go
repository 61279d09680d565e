package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"studyhub/domain/chat"
	apperrors "studyhub/errors"
)

type IRoomRepository interface {
	Create(kind chat.RoomKind, at time.Time) (chat.Room, error)
	Get(id chat.RoomID) (chat.Room, error)
	Delete(id chat.RoomID) error
}

type RoomRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) (RoomRepository, error) {
	seq, err := db.GetSequence([]byte("seq:room"), 16)
	if err != nil {
		return RoomRepository{}, fmt.Errorf("room id sequence: %w", err)
	}
	return RoomRepository{db: db, seq: seq, log: log}, nil
}

func (r RoomRepository) Close() error {
	return r.seq.Release()
}

type diskRoom struct {
	ID        int       `json:"id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r RoomRepository) Create(kind chat.RoomKind, at time.Time) (chat.Room, error) {
	n, err := r.seq.Next()
	if err != nil {
		return chat.Room{}, fmt.Errorf("next room id: %w", err)
	}
	room := chat.Room{ID: chat.RoomID(n + 1), Kind: kind, CreatedAt: at.UTC()}
	bytes, err := json.Marshal(diskRoom{ID: int(room.ID), Kind: string(kind), CreatedAt: room.CreatedAt})
	if err != nil {
		return chat.Room{}, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(roomKey(room.ID)), bytes)
	})
	if err != nil {
		return chat.Room{}, err
	}
	return room, nil
}

func (r RoomRepository) Get(id chat.RoomID) (chat.Room, error) {
	var room chat.Room
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(roomKey(id)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			var dr diskRoom
			if err := json.Unmarshal(value, &dr); err != nil {
				return err
			}
			room = chat.Room{
				ID:        chat.RoomID(dr.ID),
				Kind:      chat.RoomKind(dr.Kind),
				CreatedAt: dr.CreatedAt.UTC(),
			}
			return nil
		})
	})
	if err != nil {
		return chat.Room{}, err
	}
	return room, nil
}

// Delete removes the room row only; membership cascade is the
// caller's responsibility.
func (r RoomRepository) Delete(id chat.RoomID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(roomKey(id)))
	})
}

func roomKey(id chat.RoomID) string {
	return fmt.Sprintf("room:%d", id)
}
