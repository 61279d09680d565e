package chat

import "time"

// Receipt records the last time a user is known to have read a room.
// Upserted by the reading user only, never deleted while membership exists.
type Receipt struct {
	Room       RoomID
	UserID     int
	LastReadAt time.Time
}

// Advance moves LastReadAt forward only. Out-of-order marks (client clock
// skew, replays) never rewind the receipt.
func (r Receipt) Advance(at time.Time) Receipt {
	if at.After(r.LastReadAt) {
		r.LastReadAt = at
	}
	return r
}
