package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func runKeepAlive(l *UserLock, stop chan struct{}, renew renewFunc) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.keepAlive("taskpulse:baseline-lock:u1", stop, 5*time.Millisecond, renew)
	}()
	return done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestKeepAliveRenewsUntilStopped(t *testing.T) {
	l := NewUserLock(nil, time.Second, nil)
	var calls atomic.Int32
	stop := make(chan struct{})
	done := runKeepAlive(l, stop, func(context.Context) (bool, error) {
		calls.Add(1)
		return true, nil
	})

	waitFor(t, func() bool { return calls.Load() >= 3 })
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keepAlive did not stop")
	}

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Errorf("renewed after stop: %d -> %d", after, calls.Load())
	}
}

func TestKeepAliveRetriesTransientErrors(t *testing.T) {
	l := NewUserLock(nil, time.Second, nil)
	var calls atomic.Int32
	stop := make(chan struct{})
	done := runKeepAlive(l, stop, func(context.Context) (bool, error) {
		if calls.Add(1) == 1 {
			return false, errors.New("i/o timeout")
		}
		return true, nil
	})

	waitFor(t, func() bool { return calls.Load() >= 3 })
	close(stop)
	<-done
}

func TestKeepAliveStopsWhenLockLost(t *testing.T) {
	l := NewUserLock(nil, time.Second, nil)
	var calls atomic.Int32
	stop := make(chan struct{})
	defer close(stop)
	done := runKeepAlive(l, stop, func(context.Context) (bool, error) {
		calls.Add(1)
		return false, nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keepAlive should exit once the token is gone")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single renewal attempt, got %d", calls.Load())
	}
}
