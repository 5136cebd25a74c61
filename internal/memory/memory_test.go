package memory

import (
	"context"
	"errors"
	"math"
	"runtime/debug"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMonitor(limit int64, alloc *atomic.Uint64) *Monitor {
	m := NewMonitor(Config{
		LimitBytes:        limit,
		HighWaterMark:     0.5,
		CriticalWaterMark: 0.8,
		CheckInterval:     time.Millisecond,
	})
	m.read = alloc.Load
	return m
}

func TestMonitorPauseAndResume(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(1000, &alloc)
	defer m.Stop()

	alloc.Store(100)
	m.check()
	if m.Paused() {
		t.Fatal("Expected monitor not paused at 10% usage")
	}
	if got := m.Usage(); got != 0.1 {
		t.Errorf("Usage() = %v, want 0.1", got)
	}

	alloc.Store(900)
	m.check()
	if !m.Paused() {
		t.Fatal("Expected monitor paused at 90% usage")
	}

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	// Between the water marks the pause holds.
	alloc.Store(600)
	m.check()
	if !m.Paused() {
		t.Fatal("Expected pause to hold between water marks")
	}

	alloc.Store(200)
	m.check()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after memory recovered")
	}
}

func TestMonitorWaitHonorsContext(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(1000, &alloc)
	defer m.Stop()

	alloc.Store(950)
	m.check()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestMonitorStopReleasesWaiters(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(1000, &alloc)

	alloc.Store(950)
	m.check()

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	m.Stop()
	m.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not release the waiter")
	}
}

func TestMonitorBackgroundSampling(t *testing.T) {
	var alloc atomic.Uint64
	alloc.Store(990)
	m := newTestMonitor(1000, &alloc)
	m.Start()
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for !m.Paused() {
		if time.Now().After(deadline) {
			t.Fatal("Background sampling never paused the monitor")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	if prev > 0 && prev < math.MaxInt64 {
		t.Skip("GOMEMLIMIT is set for this process")
	}

	m := NewMonitor(DefaultConfig())
	m.Start()
	defer m.Stop()

	if m.Usage() != 0 {
		t.Errorf("Usage() = %v, want 0", m.Usage())
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}
