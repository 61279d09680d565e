//go:generate go run go.uber.org/mock/mockgen -source=member.go -destination=../mocks/mock_member_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"studyhub/domain/chat"
)

type IMemberRepository interface {
	Join(room chat.RoomID, userID int, at time.Time) error
	Leave(room chat.RoomID, userID int) error
	ListMembers(room chat.RoomID) ([]chat.Member, error)
	IsMember(room chat.RoomID, userID int) (bool, error)
	ListRoomsOf(userID int) ([]chat.RoomID, error)
	RemoveAll(room chat.RoomID) error
}

// MemberRepository maintains the (room, user) pairs under two key
// families: "member:{room}:{user}" for room-side scans and
// "rooms:{user}:{room}" as the reverse index for user-side scans.
type MemberRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMemberRepository(db *badger.DB, log *slog.Logger) MemberRepository {
	return MemberRepository{db: db, log: log}
}

type diskMember struct {
	Room     int       `json:"room"`
	UserID   int       `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

func (r MemberRepository) Join(room chat.RoomID, userID int, at time.Time) error {
	bytes, err := json.Marshal(diskMember{Room: int(room), UserID: userID, JoinedAt: at.UTC()})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(memberKey(room, userID)), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(reverseKey(userID, room)), bytes)
	})
}

func (r MemberRepository) Leave(room chat.RoomID, userID int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(memberKey(room, userID))); err != nil {
			return err
		}
		return txn.Delete([]byte(reverseKey(userID, room)))
	})
}

func (r MemberRepository) ListMembers(room chat.RoomID) ([]chat.Member, error) {
	var members []chat.Member
	prefix := []byte(fmt.Sprintf("member:%d:", room))
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var dm diskMember
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				members = append(members, chat.Member{
					Room:     chat.RoomID(dm.Room),
					UserID:   dm.UserID,
					JoinedAt: dm.JoinedAt.UTC(),
				})
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
	return members, nil
}

func (r MemberRepository) IsMember(room chat.RoomID, userID int) (bool, error) {
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(memberKey(room, userID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (r MemberRepository) ListRoomsOf(userID int) ([]chat.RoomID, error) {
	var rooms []chat.RoomID
	prefix := []byte(fmt.Sprintf("rooms:%d:", userID))
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var dm diskMember
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				rooms = append(rooms, chat.RoomID(dm.Room))
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
	return rooms, nil
}

// RemoveAll drops every membership of a room, the cascade path used
// by room deletion.
func (r MemberRepository) RemoveAll(room chat.RoomID) error {
	members, err := r.ListMembers(room)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		for _, m := range members {
			if err := txn.Delete([]byte(memberKey(room, m.UserID))); err != nil {
				return err
			}
			if err := txn.Delete([]byte(reverseKey(m.UserID, room))); err != nil {
				return err
			}
		}
		return nil
	})
}

func memberKey(room chat.RoomID, userID int) string {
	return fmt.Sprintf("member:%d:%d", room, userID)
}

func reverseKey(userID int, room chat.RoomID) string {
	return fmt.Sprintf("rooms:%d:%d", userID, room)
}
