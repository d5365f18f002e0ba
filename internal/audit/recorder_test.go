package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeInserter records batches and optionally fails every insert.
type fakeInserter struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
}

func (f *fakeInserter) BatchInsert(_ context.Context, events []Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	batch := make([]Event, len(events))
	copy(batch, events)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeInserter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestRecorderFlushesOnBatchSize(t *testing.T) {
	store := &fakeInserter{}
	rec := NewRecorder(store, 3, time.Hour)

	rec.Record(Event{UserID: "u1", EntityType: EntityTask, EntityID: "t1", ActionType: ActionCreate})
	rec.Record(Event{UserID: "u1", EntityType: EntityTask, EntityID: "t2", ActionType: ActionCreate})
	if store.total() != 0 {
		t.Fatalf("expected no flush below batch size, got %d events", store.total())
	}

	rec.Record(Event{UserID: "u1", EntityType: EntityTask, EntityID: "t3", ActionType: ActionCreate})
	if store.total() != 3 {
		t.Fatalf("expected 3 events flushed at batch size, got %d", store.total())
	}
}

func TestRecorderFlushesOnStop(t *testing.T) {
	store := &fakeInserter{}
	rec := NewRecorder(store, 100, time.Hour)

	rec.Record(Event{UserID: "u1", EntityType: EntityInvitation, EntityID: "i1", ActionType: ActionInvite})

	done := make(chan struct{})
	go func() {
		rec.Start(context.Background())
		close(done)
	}()
	rec.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	if store.total() != 1 {
		t.Fatalf("expected final flush of 1 event, got %d", store.total())
	}
}

func TestRecorderStampsCreatedAt(t *testing.T) {
	store := &fakeInserter{}
	rec := NewRecorder(store, 1, time.Hour)

	before := time.Now()
	rec.Record(Event{UserID: "u1", EntityType: EntityUser, EntityID: "u2", ActionType: ActionAccept})

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.batches) != 1 || len(store.batches[0]) != 1 {
		t.Fatal("expected a single flushed event")
	}
	got := store.batches[0][0].CreatedAt
	if got.Before(before) || got.After(time.Now()) {
		t.Errorf("CreatedAt not stamped at record time: %v", got)
	}
}

func TestRecorderNilReceiverDropsEvents(t *testing.T) {
	var rec *Recorder
	// Services call Record unguarded; a nil recorder must be a no-op.
	rec.Record(Event{UserID: "u1", EntityType: EntityTask, EntityID: "t1", ActionType: ActionCreate})
}

func TestRecorderSwallowsInsertErrors(t *testing.T) {
	store := &fakeInserter{err: errors.New("db down")}
	rec := NewRecorder(store, 1, time.Hour)

	// Must not panic or propagate; the event is dropped.
	rec.Record(Event{UserID: "u1", EntityType: EntityTask, EntityID: "t1", ActionType: ActionUpdate})

	// The recorder stays usable after a failed flush.
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	rec.Record(Event{UserID: "u1", EntityType: EntityTask, EntityID: "t2", ActionType: ActionUpdate})
	if store.total() != 1 {
		t.Fatalf("expected 1 event after recovery, got %d", store.total())
	}
}
