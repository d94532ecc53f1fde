package outbox

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func TestDispatcher_RunsTask(t *testing.T) {
	d := New(testLogger())
	d.Start()

	var ran int32
	if ok := d.Enqueue("notify", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}); !ok {
		t.Fatal("enqueue rejected")
	}
	d.Close()

	if atomic.LoadInt32(&ran) != 1 {
		t.Errorf("expected task to run once, ran %d times", ran)
	}
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	d := New(testLogger(), WithMaxRetries(5), WithRetryDelays(time.Millisecond))
	d.Start()

	var attempts int32
	d.Enqueue("sync-paciente", func(ctx context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	d.Close()

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestDispatcher_GivesUpAfterMaxRetries(t *testing.T) {
	d := New(testLogger(), WithMaxRetries(2), WithRetryDelays(time.Millisecond))
	d.Start()

	var attempts int32
	d.Enqueue("notify-cita", func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("always failing")
	})
	d.Close()

	// first attempt + 2 retries
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := New(testLogger(), WithQueueSize(1))
	// not started: queue fills immediately

	if ok := d.Enqueue("a", func(ctx context.Context) error { return nil }); !ok {
		t.Fatal("first task should be accepted")
	}
	if ok := d.Enqueue("b", func(ctx context.Context) error { return nil }); ok {
		t.Error("second task should be dropped on a full queue")
	}
	d.Start()
	d.Close()
}

func TestDispatcher_AttemptTimeout(t *testing.T) {
	d := New(testLogger(), WithMaxRetries(0), WithAttemptTimeout(10*time.Millisecond))
	d.Start()

	var sawDeadline int32
	d.Enqueue("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			atomic.StoreInt32(&sawDeadline, 1)
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	d.Close()

	if atomic.LoadInt32(&sawDeadline) != 1 {
		t.Error("expected the attempt context to expire")
	}
}
