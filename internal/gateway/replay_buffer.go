package gateway

import (
	"sync"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/ringbuf"
)

const defaultReplaySize = 64

type replayEntry struct {
	Seq  int64
	Data []byte // encoded envelope
}

// ReplayBuffer keeps the most recent state envelopes so a reconnecting
// dashboard can catch up from the last sequence number it saw.
type ReplayBuffer struct {
	mu  sync.RWMutex
	win *ringbuf.Window[replayEntry]
}

func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = defaultReplaySize
	}
	return &ReplayBuffer{win: ringbuf.New[replayEntry](capacity)}
}

// Push records an envelope. Sequence numbers must increase.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	rb.mu.Lock()
	rb.win.Push(replayEntry{Seq: seq, Data: cp})
	rb.mu.Unlock()
}

// Since returns the envelopes after seq, oldest first. ok is false when the
// buffer is empty or envelopes following seq were already evicted; the
// caller should fall back to the latest state.
func (rb *ReplayBuffer) Since(seq int64) (entries []replayEntry, ok bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	all := rb.win.Values()
	if len(all) == 0 || all[0].Seq > seq+1 {
		return nil, false
	}
	for _, e := range all {
		if e.Seq > seq {
			entries = append(entries, e)
		}
	}
	return entries, true
}

func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.win.Len()
}
