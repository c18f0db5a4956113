package progress

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunSuccessTicks(t *testing.T) {
	var ticks []time.Duration

	start := time.Now()
	ok, err := Run(context.Background(), func(context.Context) error {
		time.Sleep(105 * time.Millisecond)
		return nil
	}, 10*time.Millisecond, func(elapsed time.Duration) {
		ticks = append(ticks, elapsed)
	})
	total := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !ok {
		t.Fatal("Run() = false, want true")
	}
	if len(ticks) == 0 {
		t.Fatal("expected at least one tick")
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i] <= ticks[i-1] {
			t.Errorf("tick %d (%v) not after tick %d (%v)", i, ticks[i], i-1, ticks[i-1])
		}
	}
	if last := ticks[len(ticks)-1]; last >= total {
		t.Errorf("last tick %v not before total duration %v", last, total)
	}
}

func TestRunNoTickAfterCompletion(t *testing.T) {
	var after atomic.Bool
	var settled atomic.Bool

	_, err := Run(context.Background(), func(context.Context) error {
		time.Sleep(35 * time.Millisecond)
		settled.Store(true)
		return nil
	}, 5*time.Millisecond, func(time.Duration) {
		if settled.Load() {
			after.Store(true)
		}
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Give a stray ticker goroutine a chance to misbehave.
	time.Sleep(20 * time.Millisecond)
	if after.Load() {
		t.Error("tick delivered after action settled")
	}
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("purge failed")

	ok, err := Run(context.Background(), func(context.Context) error {
		time.Sleep(15 * time.Millisecond)
		return boom
	}, 5*time.Millisecond, func(time.Duration) {})

	if ok {
		t.Error("Run() = true, want false")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
}

func TestRunWithoutTicker(t *testing.T) {
	ok, err := Run(context.Background(), func(context.Context) error { return nil }, 0, nil)
	if err != nil || !ok {
		t.Errorf("Run() = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	ok, err := Run(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}, time.Millisecond, func(time.Duration) {})

	if ok {
		t.Error("Run() = true, want false")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestEveryWhole(t *testing.T) {
	gate := EveryWhole(10 * time.Second)

	tests := []struct {
		elapsed time.Duration
		want    bool
	}{
		{0, false},
		{time.Second, false},
		{9 * time.Second, false},
		{9600 * time.Millisecond, true},
		{10 * time.Second, true},
		{10400 * time.Millisecond, true},
		{11 * time.Second, false},
		{20 * time.Second, true},
		{35 * time.Second, false},
	}

	for _, tt := range tests {
		if got := gate(tt.elapsed); got != tt.want {
			t.Errorf("gate(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}

	minute := EveryWhole(time.Minute)
	if !minute(60 * time.Second) {
		t.Error("minute gate closed at 60s")
	}
	if minute(30 * time.Second) {
		t.Error("minute gate open at 30s")
	}
}
