package main

import (
	"context"
	"sync"
	"time"

	"github.com/litescript/ls-tradeflow/internal/mapview"
)

// frameLoop owns the map's frame ticker and lets the UI switch it on and
// off at runtime.
type frameLoop struct {
	ctx      context.Context
	interval time.Duration
	send     func(time.Time)

	mu       sync.Mutex
	ticker   *mapview.Ticker
	stopping sync.WaitGroup
}

func newFrameLoop(ctx context.Context, interval time.Duration, send func(time.Time)) *frameLoop {
	return &frameLoop{ctx: ctx, interval: interval, send: send}
}

// SetRunning starts or stops frame ticks. It is called from the UI event
// loop, where send may be blocked waiting on that same loop, so stopping
// does not wait for the ticker goroutine.
func (f *frameLoop) SetRunning(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if on {
		if f.ticker == nil {
			f.ticker = mapview.StartTicker(f.ctx, f.interval, f.send)
		}
		return
	}
	if t := f.ticker; t != nil {
		f.ticker = nil
		f.stopping.Add(1)
		go func() {
			defer f.stopping.Done()
			t.Stop()
		}()
	}
}

// Running reports whether ticks are being delivered.
func (f *frameLoop) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticker != nil
}

// Stop halts the ticker and waits for every ticker goroutine to exit. Call it
// after the program has stopped reading messages.
func (f *frameLoop) Stop() {
	f.mu.Lock()
	t := f.ticker
	f.ticker = nil
	f.mu.Unlock()

	t.Stop()
	f.stopping.Wait()
}
