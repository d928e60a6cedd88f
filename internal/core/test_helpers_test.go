package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hivemind/hivemind-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drainFor collects every event arriving within the window. Used to assert
// that something did NOT happen (no self-echo).
func drainFor(ch <-chan *Event, window time.Duration) []*Event {
	var events []*Event
	deadline := time.After(window)
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-deadline:
			return events
		}
	}
}

// fakeStore is an in-memory DocumentStore that records writes.
type fakeStore struct {
	mu   sync.Mutex
	docs map[string]string
	puts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]string)}
}

func (f *fakeStore) GetDocument(_ context.Context, roomID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[roomID]
	if !ok {
		return "", store.ErrNotFound
	}
	return doc, nil
}

func (f *fakeStore) PutDocument(_ context.Context, roomID, document string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[roomID] = document
	f.puts++
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) lastDocument(roomID string) (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[roomID], f.puts
}

func startHub(t *testing.T, st *fakeStore) *Hub {
	t.Helper()

	var hub *Hub
	if st != nil {
		hub = NewHub(st, nil)
	} else {
		hub = NewHub(nil, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}
