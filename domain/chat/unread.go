package chat

import "time"

// UnreadCount counts room members, excluding the message's sender, whose
// last-read timestamp is strictly earlier than the message. A member with
// no receipt counts as never having read the room.
// Recomputed on demand, never cached.
func UnreadCount(msg Message, memberIDs []int, lastReadAt map[int]time.Time) int {
	count := 0
	for _, id := range memberIDs {
		if id == msg.SenderID {
			continue
		}
		last, ok := lastReadAt[id]
		if !ok || last.Before(msg.SentAt) {
			count++
		}
	}
	return count
}

// IsReadByOpponent computes the direct-chat read flag for two-party rooms.
// For a message authored by the viewer, it reports whether the opponent has
// progressed past the message. A message authored by the other party is
// always reported as read: the viewer can already see it in their own view.
func IsReadByOpponent(msg Message, viewerID int, opponentLastReadAt time.Time) bool {
	if msg.SenderID != viewerID {
		return true
	}
	return !msg.SentAt.After(opponentLastReadAt)
}
