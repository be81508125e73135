package notify

import (
	"sync"
	"testing"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a, unsubA := h.Subscribe()
	defer unsubA()
	b, unsubB := h.Subscribe()
	defer unsubB()

	h.Publish(Change{Batch: "b1", Names: []string{"x"}})

	for i, ch := range []<-chan Change{a, b} {
		got := <-ch
		if got.Batch != "b1" || len(got.Names) != 1 || got.Names[0] != "x" {
			t.Errorf("subscriber %d: unexpected change %+v", i, got)
		}
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe()
	defer unsub()

	// The buffer holds one change; the rest are dropped.
	for i := 0; i < 10; i++ {
		h.Publish(Change{Batch: "b"})
	}
	if len(ch) != 1 {
		t.Errorf("Expected 1 buffered change, got %d", len(ch))
	}
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", h.Subscribers())
	}

	unsub()
	unsub() // second call is a no-op

	if h.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", h.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed")
	}
	h.Publish(Change{Batch: "after"}) // must not panic
}

func TestConcurrentSubscribePublish(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, unsub := h.Subscribe()
			unsub()
		}()
		go func() {
			defer wg.Done()
			h.Publish(Change{})
		}()
	}
	wg.Wait()
	if h.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", h.Subscribers())
	}
}
