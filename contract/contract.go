//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"encoding/json"
	"reflect"

	"studyhub/domain"
	"studyhub/domain/chat"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// PushEvent is one frame delivered to a connected client.
// Event is the canonical lowercase name, Data the encoded payload.
type PushEvent struct {
	Event string
	Data  json.RawMessage
}

// PushStream is the receiving side of a user's push channel.
// The event channel is closed on supersession or deregistration.
type PushStream interface {
	Events() <-chan PushEvent
	UserID() int
}

// IRegistry owns the per-user push channels of this process.
// At most one channel per user; a new subscription supersedes the
// previous one.
type IRegistry interface {
	Subscribe(userID int) PushStream
	Unsubscribe(stream PushStream)
	Send(userID int, t domain.NotificationType, payload any)
}

// IPublisher publishes an opaque payload on a named bus topic.
// Fire-and-forget: no acknowledgement, no retry.
type IPublisher interface {
	Publish(topic string, payload []byte) error
}

// BusFrame is one event observed on the shared bus.
type BusFrame struct {
	Topic   string
	Payload []byte
}

// IBroadcaster serializes room events and hands them to the bus.
// Serialization failures are surfaced to the caller; bus faults are not.
type IBroadcaster interface {
	Publish(roomID chat.RoomID, payload any) error
}
