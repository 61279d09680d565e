package main

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"studyhub/domain"
	"studyhub/domain/chat"
	"studyhub/internal"
	"studyhub/repositories"
)

// Seeds the store with a direct room and a group room so the server and
// the viewer have something to show on a fresh checkout.
func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		panic(fmt.Sprintf("Config error: %v", err))
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	messages, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		panic(err)
	}
	defer messages.Close()
	rooms, err := repositories.NewRoomRepository(db, log)
	if err != nil {
		panic(err)
	}
	defer rooms.Close()
	members := repositories.NewMemberRepository(db, log)
	receipts := repositories.NewReceiptRepository(db, log)
	users := repositories.NewUserRepository(db, log)

	for _, u := range []domain.User{
		{ID: 1, Nickname: "mina", ProfileImage: "/img/mina.png"},
		{ID: 2, Nickname: "jun", ProfileImage: "/img/jun.png"},
		{ID: 3, Nickname: "sora", ProfileImage: "/img/sora.png"},
	} {
		if err := users.Save(u); err != nil {
			panic(err)
		}
	}

	now := time.Now().UTC()

	direct, err := rooms.Create(chat.RoomKindDirect, now)
	if err != nil {
		panic(err)
	}
	seedMembers(members, direct.ID, now, 1, 2)
	seedMessages(messages, direct.ID, now, []seedMessage{
		{sender: 1, body: "did you finish the problem set?"},
		{sender: 2, body: "almost, stuck on question 3"},
		{sender: 1, body: "same, let's compare tomorrow"},
	})
	if _, err := receipts.Upsert(direct.ID, 2, now.Add(90*time.Second)); err != nil {
		panic(err)
	}

	group, err := rooms.Create(chat.RoomKindGroup, now)
	if err != nil {
		panic(err)
	}
	seedMembers(members, group.ID, now, 1, 2, 3)
	seedMessages(messages, group.ID, now, []seedMessage{
		{sender: chat.SystemSenderID, body: "study room created", kind: chat.MessageKindSystem},
		{sender: 1, body: "welcome! session every tuesday at 7"},
		{sender: 3, body: "works for me"},
	})

	fmt.Printf("Seeded rooms %d (direct) and %d (group) in %s\n",
		direct.ID, group.ID, config.BadgerFilepath)
}

type seedMessage struct {
	sender int
	body   string
	kind   chat.MessageKind
}

func seedMembers(members repositories.MemberRepository, room chat.RoomID, at time.Time, userIDs ...int) {
	for _, id := range userIDs {
		if err := members.Join(room, id, at); err != nil {
			panic(err)
		}
	}
}

func seedMessages(messages repositories.MessageRepository, room chat.RoomID, at time.Time, rows []seedMessage) {
	for i, row := range rows {
		kind := row.kind
		if kind == "" {
			kind = chat.MessageKindText
		}
		if _, err := messages.Save(chat.Message{
			Room:     room,
			SenderID: row.sender,
			Kind:     kind,
			Body:     row.body,
			SentAt:   at.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			panic(err)
		}
	}
}
