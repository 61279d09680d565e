// Package chat contains the core concepts of the chat system:
// rooms, membership, messages, and read receipts.
// No runtime, network, or storage logic should be added here.
package chat

import "time"

type RoomID int

// RoomKind distinguishes two-party rooms from study/group rooms.
type RoomKind string

const (
	RoomKindDirect RoomKind = "DIRECT"
	RoomKindGroup  RoomKind = "GROUP"
)

// Room is immutable once created, except for its membership.
type Room struct {
	ID        RoomID
	Kind      RoomKind
	CreatedAt time.Time
}

// Member is a (room, user) pair, unique per pair.
// Created on join, deleted on leave or room deletion.
type Member struct {
	Room     RoomID
	UserID   int
	JoinedAt time.Time
}
