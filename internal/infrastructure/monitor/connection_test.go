package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fastygo/taskpulse/internal/infrastructure/buffer"
)

func TestRefreshWithoutRedis(t *testing.T) {
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	if err != nil {
		t.Fatalf("open buffer: %v", err)
	}
	defer store.Close()

	m := New(func(context.Context) error { return nil }, "sqlite", nil, store, 0, nil)
	m.Refresh()

	status := m.GetStatus()
	if !status.Storage || !status.Buffer {
		t.Fatalf("expected storage and buffer up, got %+v", status)
	}
	if status.RedisRequired {
		t.Fatal("redis should not be required without a client")
	}
	if !m.IsOnline() {
		t.Fatal("expected monitor to report online")
	}
}

func TestRefreshStorageDown(t *testing.T) {
	m := New(func(context.Context) error { return errors.New("down") }, "postgres", nil, nil, 0, nil)
	m.Refresh()

	if m.IsOnline() {
		t.Fatal("expected offline when storage probe fails")
	}
	if m.GetStatus().Buffer {
		t.Fatal("expected buffer down without a store")
	}
}
