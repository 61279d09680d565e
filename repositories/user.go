package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"studyhub/domain"
)

// IUserRepository is the display-identity directory consumed by the
// group history projection. Account management lives elsewhere.
type IUserRepository interface {
	Save(user domain.User) error
	Resolve(ids []int) (map[int]domain.User, error)
}

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

type diskUser struct {
	ID           int    `json:"id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profileImage"`
}

func (r UserRepository) Save(user domain.User) error {
	bytes, err := json.Marshal(diskUser{ID: user.ID, Nickname: user.Nickname, ProfileImage: user.ProfileImage})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userKey(user.ID)), bytes)
	})
}

// Resolve batch-loads display identities. Unknown ids are absent from
// the result rather than failing the whole lookup.
func (r UserRepository) Resolve(ids []int) (map[int]domain.User, error) {
	users := make(map[int]domain.User, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get([]byte(userKey(id)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(value []byte) error {
				var du diskUser
				if err := json.Unmarshal(value, &du); err != nil {
					return err
				}
				users[du.ID] = domain.User{ID: du.ID, Nickname: du.Nickname, ProfileImage: du.ProfileImage}
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
	return users, nil
}

func userKey(id int) string {
	return fmt.Sprintf("user:%d", id)
}
