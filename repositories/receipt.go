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

type IReceiptRepository interface {
	Upsert(room chat.RoomID, userID int, at time.Time) (chat.Receipt, error)
	Find(room chat.RoomID, userID int) (chat.Receipt, bool, error)
	FindForRoom(room chat.RoomID) (map[int]time.Time, error)
}

type ReceiptRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewReceiptRepository(db *badger.DB, log *slog.Logger) ReceiptRepository {
	return ReceiptRepository{db: db, log: log}
}

type diskReceipt struct {
	Room       int       `json:"room"`
	UserID     int       `json:"userId"`
	LastReadAt time.Time `json:"lastReadAt"`
}

// Upsert stores the receipt under "receipt:{room_id}:{user_id}".
// The read-modify-write happens inside one Badger transaction, and the
// stored timestamp only ever advances: a replayed or out-of-order mark
// leaves the receipt untouched, which also makes the operation idempotent.
func (r ReceiptRepository) Upsert(room chat.RoomID, userID int, at time.Time) (chat.Receipt, error) {
	receipt := chat.Receipt{Room: room, UserID: userID}
	key := []byte(receiptKey(room, userID))
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			err = item.Value(func(value []byte) error {
				var dr diskReceipt
				if err := json.Unmarshal(value, &dr); err != nil {
					return err
				}
				receipt.LastReadAt = dr.LastReadAt
				return nil
			})
			if err != nil {
				return err
			}
		}

		receipt = receipt.Advance(at)
		bytes, err := json.Marshal(diskReceipt{
			Room:       int(room),
			UserID:     userID,
			LastReadAt: receipt.LastReadAt.UTC(),
		})
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
	if err != nil {
		return chat.Receipt{}, err
	}
	return receipt, nil
}

// Find reports whether the user has ever read the room.
func (r ReceiptRepository) Find(room chat.RoomID, userID int) (chat.Receipt, bool, error) {
	var receipt chat.Receipt
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(receiptKey(room, userID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			var dr diskReceipt
			if err := json.Unmarshal(value, &dr); err != nil {
				return err
			}
			receipt = chat.Receipt{
				Room:       chat.RoomID(dr.Room),
				UserID:     dr.UserID,
				LastReadAt: dr.LastReadAt.UTC(),
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return chat.Receipt{}, false, err
	}
	return receipt, found, nil
}

// FindForRoom loads every receipt of a room in one prefix scan,
// keyed by user id. Members without a receipt are simply absent.
func (r ReceiptRepository) FindForRoom(room chat.RoomID) (map[int]time.Time, error) {
	receipts := make(map[int]time.Time)
	prefix := []byte(fmt.Sprintf("receipt:%d:", room))
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var dr diskReceipt
				if err := json.Unmarshal(value, &dr); err != nil {
					return err
				}
				receipts[dr.UserID] = dr.LastReadAt.UTC()
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
	return receipts, nil
}

func receiptKey(room chat.RoomID, userID int) string {
	return fmt.Sprintf("receipt:%d:%d", room, userID)
}
