package clock

import (
	"context"
	"sync"
	"time"
)

// Driver calls a function on every tick until stopped. It holds no state of
// its own beyond the ticker.
type Driver struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Start launches a driver that calls fn once per period.
func Start(ctx context.Context, c Clock, period time.Duration, fn func()) *Driver {
	ctx, cancel := context.WithCancel(ctx)
	d := &Driver{cancel: cancel, done: make(chan struct{})}
	ticker := c.NewTicker(period)

	go func() {
		defer close(d.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				fn()
				// fn may have stopped the driver; never take another tick.
				if ctx.Err() != nil {
					return
				}
			}
		}
	}()
	return d
}

// Stop cancels the driver. It is safe to call more than once, on a nil
// driver, and from inside the tick function.
func (d *Driver) Stop() {
	if d == nil {
		return
	}
	d.once.Do(d.cancel)
}

// Done is closed once the driver goroutine has exited.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}
