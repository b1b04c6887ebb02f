package progress

import (
	"testing"
	"time"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	id1, ch1 := b.Subscribe()
	id2, ch2 := b.Subscribe()
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	b.Publish(Update{Type: "start", Account: "default", Total: 5})

	for _, ch := range []<-chan Update{ch1, ch2} {
		select {
		case u := <-ch:
			if u.Type != "start" || u.Account != "default" {
				t.Errorf("update = %+v", u)
			}
			if u.At.IsZero() {
				t.Error("Publish did not stamp At")
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive update")
		}
	}
}

func TestBroadcasterDropsForSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	// Overfill the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(Update{Type: "batch_complete", Batch: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	if n := len(ch); n != subscriberBuffer {
		t.Errorf("buffered = %d, want %d", n, subscriberBuffer)
	}
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	id, ch := b.Subscribe()

	b.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	b.Publish(Update{Type: "complete"})

	// Double unsubscribe is a no-op.
	b.Unsubscribe(id)
}
