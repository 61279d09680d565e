package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studyhub/domain"
	"studyhub/domain/chat"
	apperrors "studyhub/errors"
)

func Test_Create_And_Get_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository, err := NewRoomRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	created, err := repository.Create(chat.RoomKindGroup, time.Now().UTC())
	req.NoError(err)
	req.NotZero(created.ID)

	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal(chat.RoomKindGroup, fetched.Kind)
}

func Test_Get_Unknown_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository, err := NewRoomRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	_, err = repository.Get(404)
	req.ErrorIs(err, apperrors.ErrRoomNotFound)
}

func Test_Delete_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository, err := NewRoomRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	created, err := repository.Create(chat.RoomKindDirect, time.Now().UTC())
	req.NoError(err)

	req.NoError(repository.Delete(created.ID))

	_, err = repository.Get(created.ID)
	req.ErrorIs(err, apperrors.ErrRoomNotFound)
}

func Test_Resolve_Users_Skips_Unknown(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db, slog.Default())

	req.NoError(repository.Save(domain.User{ID: 1, Nickname: "mina", ProfileImage: "mina.png"}))
	req.NoError(repository.Save(domain.User{ID: 2, Nickname: "jun"}))

	users, err := repository.Resolve([]int{1, 2, 3})
	req.NoError(err)
	req.Len(users, 2)
	req.Equal("mina", users[1].Nickname)
	req.NotContains(users, 3)
}
