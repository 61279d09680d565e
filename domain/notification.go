// Package domain holds cross-cutting concepts shared by the chat core:
// user identities and the closed set of push notification types.
package domain

// NotificationType is the closed enumeration of push event categories.
// Unknown values are rejected at the boundary instead of being converted
// to event names at runtime.
type NotificationType string

const (
	NotificationConnect NotificationType = "CONNECT"
	NotificationFriend  NotificationType = "FRIEND"
	NotificationStudy   NotificationType = "STUDY"
	NotificationSystem  NotificationType = "SYSTEM"
	NotificationChat    NotificationType = "CHAT"
	NotificationRead    NotificationType = "READ"
)

var eventNames = map[NotificationType]string{
	NotificationConnect: "connect",
	NotificationFriend:  "friend",
	NotificationStudy:   "study",
	NotificationSystem:  "system",
	NotificationChat:    "chat",
	NotificationRead:    "read",
}

// EventName maps the type to its canonical lowercase wire name.
// The boolean reports whether the type belongs to the enumeration.
func (t NotificationType) EventName() (string, bool) {
	name, ok := eventNames[t]
	return name, ok
}
