package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnreadCount_Full_When_Nobody_Read(t *testing.T) {
	req := require.New(t)
	at := time.Unix(10, 0)

	msg := Message{ID: 1, Room: 1, SenderID: 1, SentAt: at}
	members := []int{1, 2, 3}

	// No receipts at all: every member but the sender is behind
	req.Equal(2, UnreadCount(msg, members, map[int]time.Time{}))
}

func TestUnreadCount_Catching_Up(t *testing.T) {
	req := require.New(t)

	// Room R has members A=1, B=2, C=3; A posts M at t=10
	msg := Message{ID: 1, Room: 1, SenderID: 1, SentAt: time.Unix(10, 0)}
	members := []int{1, 2, 3}
	receipts := map[int]time.Time{}

	req.Equal(2, UnreadCount(msg, members, receipts))

	// B marks read at t=15
	receipts[2] = time.Unix(15, 0)
	req.Equal(1, UnreadCount(msg, members, receipts))

	// C marks read at t=5, earlier than M: C still hasn't caught up
	receipts[3] = time.Unix(5, 0)
	req.Equal(1, UnreadCount(msg, members, receipts))
}

func TestUnreadCount_Sender_Excluded_Even_Without_Receipt(t *testing.T) {
	req := require.New(t)

	msg := Message{ID: 1, Room: 1, SenderID: 9, SentAt: time.Unix(10, 0)}

	// The sender never counts against their own message
	req.Equal(0, UnreadCount(msg, []int{9}, map[int]time.Time{}))
}

func TestUnreadCount_Exact_Watermark_Counts_As_Read(t *testing.T) {
	req := require.New(t)
	at := time.Unix(10, 0)

	msg := Message{ID: 1, Room: 1, SenderID: 1, SentAt: at}

	// Strictly-earlier rule: a receipt equal to SentAt is not behind
	req.Equal(0, UnreadCount(msg, []int{1, 2}, map[int]time.Time{2: at}))
}

func TestIsReadByOpponent(t *testing.T) {
	req := require.New(t)

	// Direct room between U1 and U2; U1 sends M1 at t=1
	m1 := Message{ID: 1, Room: 1, SenderID: 1, SentAt: time.Unix(1, 0)}

	// U2 has never read (t=0)
	req.False(IsReadByOpponent(m1, 1, time.Unix(0, 0)))

	// U2 marks read at t=2
	req.True(IsReadByOpponent(m1, 1, time.Unix(2, 0)))

	// A message authored by the other party is always read for the viewer
	theirs := Message{ID: 2, Room: 1, SenderID: 2, SentAt: time.Unix(3, 0)}
	req.True(IsReadByOpponent(theirs, 1, time.Unix(0, 0)))
}

func TestReceipt_Advance_Is_Monotonic(t *testing.T) {
	req := require.New(t)
	now := time.Unix(100, 0)

	receipt := Receipt{Room: 1, UserID: 2, LastReadAt: now}

	req.Equal(now, receipt.Advance(now.Add(-time.Minute)).LastReadAt)
	req.Equal(now.Add(time.Minute), receipt.Advance(now.Add(time.Minute)).LastReadAt)
}

func TestMessage_Ordering_Tiebreak(t *testing.T) {
	req := require.New(t)
	at := time.Unix(10, 0)

	a := Message{ID: 1, SentAt: at}
	b := Message{ID: 2, SentAt: at}
	c := Message{ID: 3, SentAt: at.Add(-time.Second)}

	req.True(a.Before(b))
	req.False(b.Before(a))
	req.True(c.Before(a))
}
