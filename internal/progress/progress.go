// Package progress runs long-running operations while reporting elapsed time.
package progress

import (
	"context"
	"time"
)

// Run executes action in its own goroutine and calls onTick with the elapsed
// time every interval until action returns. onTick is always called from the
// caller's goroutine and never after action has returned.
//
// Run returns (true, nil) when action succeeds and (false, err) when it
// fails. When ctx is cancelled ticking stops immediately, but Run still
// waits for action to return and then reports ctx.Err() unless action
// itself failed.
func Run(ctx context.Context, action func(context.Context) error, interval time.Duration, onTick func(elapsed time.Duration)) (bool, error) {
	start := time.Now()
	done := make(chan error, 1)

	go func() {
		done <- action(ctx)
	}()

	var tickC <-chan time.Time
	if interval > 0 && onTick != nil {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case err := <-done:
			return settle(err)
		case <-ctx.Done():
			err := <-done
			if err == nil {
				err = ctx.Err()
			}
			return false, err
		case <-tickC:
			// A tick and completion can be ready together; completion wins.
			select {
			case err := <-done:
				return settle(err)
			default:
			}
			onTick(time.Since(start))
		}
	}
}

func settle(err error) (bool, error) {
	if err != nil {
		return false, err
	}
	return true, nil
}

// EveryWhole returns a gate reporting whether elapsed falls on a whole
// period boundary once rounded to seconds. With a one second tick and a
// ten second period the gate opens at 10s, 20s, 30s and so on.
func EveryWhole(period time.Duration) func(elapsed time.Duration) bool {
	return func(elapsed time.Duration) bool {
		secs := elapsed.Round(time.Second)
		if period <= 0 || secs <= 0 {
			return false
		}
		return secs%period == 0
	}
}
