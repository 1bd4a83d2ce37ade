package wallet

import (
	"context"
	"sync"
)

// oneShot is a first-settles-wins gate. Multiple goroutines may race to
// settle it; exactly one wins and every later attempt is discarded. This is
// what keeps the push subscription and its timeout from double-resolving
// the same wait.
type oneShot struct {
	once       sync.Once
	done       chan struct{}
	resolution *Resolution
	err        error
}

func newOneShot() *oneShot {
	return &oneShot{done: make(chan struct{})}
}

// settle records the outcome if the gate is still open. Returns true when
// this call won the race.
func (o *oneShot) settle(resolution *Resolution, err error) bool {
	won := false
	o.once.Do(func() {
		o.resolution = resolution
		o.err = err
		won = true
		close(o.done)
	})
	return won
}

// await blocks until the gate settles or the context is cancelled.
func (o *oneShot) await(ctx context.Context) (*Resolution, error) {
	select {
	case <-o.done:
		return o.resolution, o.err
	case <-ctx.Done():
		// settle so a late event cannot fire callbacks after abandonment
		o.settle(nil, ctx.Err())
		<-o.done
		return o.resolution, o.err
	}
}
