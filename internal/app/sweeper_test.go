package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type countingExpirer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingExpirer) ExpireDelivered(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return []string{"a"}, c.err
}

func (c *countingExpirer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRunSweeper_SweepsUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	exp := &countingExpirer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunSweeper(ctx, exp, 10*time.Millisecond, zap.NewNop()) }()

	deadline := time.Now().Add(2 * time.Second)
	for exp.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper ran %d times, want at least 3", exp.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunSweeper returned %v, want nil", err)
	}
}

func TestRunSweeper_ErrorsDoNotStopTheLoop(t *testing.T) {
	exp := &countingExpirer{err: errors.New("push failed")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = RunSweeper(ctx, exp, 10*time.Millisecond, zap.NewNop()) }()

	deadline := time.Now().Add(2 * time.Second)
	for exp.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper stopped after an error")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunSweeper_ZeroIntervalUsesDefault(t *testing.T) {
	exp := &countingExpirer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := RunSweeper(ctx, exp, 0, zap.NewNop()); err != nil {
		t.Fatalf("RunSweeper: %v", err)
	}
	if exp.count() != 1 {
		t.Fatalf("calls = %d, want the initial sweep only", exp.count())
	}
}
