package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"studyhub/contract"
	"studyhub/domain"
	"studyhub/domain/chat"
	"studyhub/mocks"
)

func TestBusListener_Delivers_To_Every_Local_Member(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registryMock := mocks.NewMockIRegistry(ctrl)
	membersMock := mocks.NewMockIMemberRepository(ctrl)
	frames := make(chan contract.BusFrame, 1)

	listener := NewBusListener(slog.Default(), registryMock, membersMock, frames)

	// Given room 3 has two members
	membersMock.EXPECT().
		ListMembers(chat.RoomID(3)).
		Return([]chat.Member{{Room: 3, UserID: 10}, {Room: 3, UserID: 20}}, nil).
		Times(1)

	done := make(chan struct{})
	delivered := 0
	registryMock.EXPECT().
		Send(gomock.Any(), domain.NotificationChat, gomock.Any()).
		Do(func(userID int, t domain.NotificationType, payload any) {
			delivered++
			if delivered == 2 {
				close(done)
			}
		}).
		Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()

	// When a frame arrives on the room's topic
	frames <- contract.BusFrame{Topic: "chatroom:3", Payload: []byte(`{"id":1}`)}

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		req.Fail("Frame was not re-delivered to local members")
	}
}

func TestBusListener_Ignores_Foreign_Topics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registryMock := mocks.NewMockIRegistry(ctrl)
	membersMock := mocks.NewMockIMemberRepository(ctrl)
	frames := make(chan contract.BusFrame, 1)

	listener := NewBusListener(slog.Default(), registryMock, membersMock, frames)

	// No member lookup and no delivery may happen
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()

	frames <- contract.BusFrame{Topic: "orders:3", Payload: []byte(`{}`)}
	time.Sleep(50 * time.Millisecond)
}
