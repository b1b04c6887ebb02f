// Package progress fans activation progress updates out to subscribers,
// optionally over a WebSocket feed.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Update is one progress event emitted during an activation run.
type Update struct {
	Type         string    `json:"type"` // start | resume | batch_start | batch_complete | agent | complete | error
	Account      string    `json:"account,omitempty"`
	Batch        int       `json:"batch,omitempty"`
	TotalBatches int       `json:"totalBatches,omitempty"`
	Successful   int       `json:"successful,omitempty"`
	Failed       int       `json:"failed,omitempty"`
	Completed    int       `json:"completed,omitempty"`
	Total        int       `json:"total,omitempty"`
	Percent      float64   `json:"percent,omitempty"`
	Message      string    `json:"message,omitempty"`
	At           time.Time `json:"at"`
}

const subscriberBuffer = 16

// Broadcaster delivers updates to any number of subscribers without ever
// blocking the publisher. Slow subscribers lose updates rather than stall
// an activation run.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]chan Update
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]chan Update)}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (b *Broadcaster) Subscribe() (string, <-chan Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.NewString()
	ch := make(chan Update, subscriberBuffer)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends an update to all subscribers, dropping it for any whose
// buffer is full.
func (b *Broadcaster) Publish(u Update) {
	if u.At.IsZero() {
		u.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
