package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed はUIが取りに来るまで通知をためておく。
// capacityを超えたら古いものから捨てる。
type Feed struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	now      func() time.Time
}

func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{capacity: capacity, now: time.Now}
}

func (f *Feed) NotifyError(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, Notification{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: f.now(),
	})
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append([]Notification(nil), f.items[over:]...)
	}
}

// Drain はたまっている通知を古い順に返して空にする
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.items
	f.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
