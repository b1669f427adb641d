package buffer

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func size(t *testing.T, s *Store) int {
	t.Helper()
	n, err := s.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	return n
}

func TestQueueOrder(t *testing.T) {
	store := openTestStore(t)
	base := time.Now()

	items := []Item{
		{UserID: "u1", Entity: EntityProfile, Priority: 3, Timestamp: base},
		{UserID: "u2", Entity: EntityBaseline, Priority: 2, Timestamp: base.Add(time.Second)},
		{UserID: "u3", Entity: EntityBaseline, Priority: 2, Timestamp: base},
	}
	for _, item := range items {
		if err := store.Enqueue(item); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	batch, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	var order []string
	for _, item := range batch {
		order = append(order, item.UserID)
	}
	if len(order) != 3 || order[0] != "u3" || order[1] != "u2" || order[2] != "u1" {
		t.Errorf("expected priority then time order [u3 u2 u1], got %v", order)
	}

	if batch, _ := store.GetBatch(1); len(batch) != 1 {
		t.Errorf("expected batch limit to apply, got %d", len(batch))
	}
}

func TestEnqueueCoalescesPerUser(t *testing.T) {
	store := openTestStore(t)
	base := time.Now()

	for i := 0; i < 3; i++ {
		if err := store.Enqueue(Item{UserID: "u1", Entity: EntityBaseline, Timestamp: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	if err := store.Enqueue(Item{UserID: "u1", Entity: EntityProfile, Data: []byte(`{"id":"u1"}`)}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got := size(t, store); got != 2 {
		t.Fatalf("expected one item per entity, got %d", got)
	}

	stale := Item{UserID: "u1", Entity: EntityBaseline, QueuedAt: base.Add(-time.Hour)}
	if err := store.Enqueue(stale); !errors.Is(err, ErrSuperseded) {
		t.Errorf("expected older item to be rejected, got %v", err)
	}
}

func TestRemoveAndRequeue(t *testing.T) {
	store := openTestStore(t)
	if err := store.Enqueue(Item{UserID: "u1", Entity: EntityBaseline}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	batch, _ := store.GetBatch(10)
	item := batch[0]
	if err := store.Remove(item); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := size(t, store); got != 0 {
		t.Fatalf("expected empty store, got %d", got)
	}

	item.Retries++
	if err := store.Requeue(item); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	batch, _ = store.GetBatch(10)
	if len(batch) != 1 || batch[0].Retries != 1 || batch[0].ID != item.ID {
		t.Fatalf("unexpected requeued item %+v", batch)
	}
	if !batch[0].QueuedAt.Equal(item.QueuedAt) {
		t.Error("requeue must keep the original queue time")
	}

	// removal by id works without the bucket key
	if err := store.Remove(Item{ID: item.ID, UserID: "u1", Entity: EntityBaseline}); err != nil {
		t.Fatalf("Remove by id: %v", err)
	}
	if got := size(t, store); got != 0 {
		t.Errorf("expected empty store, got %d", got)
	}
}

func TestRequeueDropsStaleItem(t *testing.T) {
	store := openTestStore(t)
	old := Item{UserID: "u1", Entity: EntityProfile, Data: []byte(`{"v":1}`)}
	if err := store.Enqueue(old); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	batch, _ := store.GetBatch(1)
	if err := store.Remove(batch[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// a newer snapshot arrives while the old one is being retried
	if err := store.Enqueue(Item{UserID: "u1", Entity: EntityProfile, Data: []byte(`{"v":2}`), QueuedAt: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := store.Requeue(batch[0]); err != nil {
		t.Fatalf("Requeue: %v", err)
	}

	batch, _ = store.GetBatch(10)
	if len(batch) != 1 || string(batch[0].Data) != `{"v":2}` {
		t.Errorf("expected only the newer snapshot, got %+v", batch)
	}
}

func TestCleanup(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()
	for i, user := range []string{"u1", "u2", "u3"} {
		item := Item{UserID: user, Entity: EntityBaseline, Timestamp: now.Add(-time.Duration(i) * time.Hour)}
		if err := store.Enqueue(item); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	removed, err := store.Cleanup(now.Add(-30 * time.Minute))
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 2 || size(t, store) != 1 {
		t.Fatalf("expected 2 removed and 1 left, got %d removed", removed)
	}

	// the coalesce key of a cleaned item is free again
	if err := store.Enqueue(Item{UserID: "u3", Entity: EntityBaseline}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got := size(t, store); got != 2 {
		t.Errorf("expected 2 items, got %d", got)
	}
}
