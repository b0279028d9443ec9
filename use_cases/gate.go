package use_cases

import "context"

// Gate bounds the number of simultaneous external calls to one capability.
// Voice and video generation get independent gates with separately
// configured limits; a fresh gate is constructed per stage invocation, so
// no admission state leaks across stages. Admission is FIFO via the
// channel, which is all the fairness the pipeline needs.
type Gate struct {
	slots chan struct{}
}

// NewGate returns a gate admitting at most limit concurrent holders.
// limit <= 0 means unbounded.
func NewGate(limit int) *Gate {
	if limit <= 0 {
		return &Gate{}
	}
	return &Gate{slots: make(chan struct{}, limit)}
}

// Acquire blocks the calling goroutine until a slot frees or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.slots == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the slot taken by a successful Acquire.
func (g *Gate) Release() {
	if g.slots != nil {
		<-g.slots
	}
}
