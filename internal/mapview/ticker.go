package mapview

import (
	"context"
	"sync"
	"time"
)

// Ticker is the start/stop handle for recurring frame work. Stop is safe to
// call on a nil Ticker, more than once, or with no tick pending; after Stop
// returns no further callbacks run.
type Ticker struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartTicker calls fn every interval until ctx ends or Stop is called.
func StartTicker(ctx context.Context, interval time.Duration, fn func(time.Time)) *Ticker {
	ctx, cancel := context.WithCancel(ctx)
	t := &Ticker{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				// Stop may have raced with the tick.
				if ctx.Err() != nil {
					return
				}
				fn(now)
			}
		}
	}()
	return t
}

// Stop cancels the ticker and waits for its goroutine to exit.
func (t *Ticker) Stop() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
	<-t.done
}

// FrameInterval converts frames per second to a tick interval, clamping fps
// to [1, 120].
func FrameInterval(fps int) time.Duration {
	if fps < 1 {
		fps = 1
	}
	if fps > 120 {
		fps = 120
	}
	return time.Second / time.Duration(fps)
}
