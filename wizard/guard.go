package wizard

import "context"

// guard ties a step's requests to the step's lifetime.
//
// The generation counter is bumped whenever earlier responses must be
// ignored: a source switch, a new fetch of the same resource, or Close.
// busy blocks a second submission while one is running.
//
// guard is not synchronized; callers hold their step's mutex.
type guard struct {
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
	busy   bool
}

func newGuard(parent context.Context) guard {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return guard{ctx: ctx, cancel: cancel}
}

func (g *guard) closed() bool {
	return g.ctx.Err() != nil
}

func (g *guard) bump() uint64 {
	g.gen++
	return g.gen
}

// current reports whether a response for gen may still be applied.
func (g *guard) current(gen uint64) bool {
	return !g.closed() && gen == g.gen
}

// bind returns a request context that is cancelled with ctx or with the
// step, whichever ends first.
func (g *guard) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(g.ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}

func (g *guard) acquire() error {
	if g.closed() {
		return ErrClosed
	}
	if g.busy {
		return ErrInFlight
	}
	g.busy = true
	return nil
}

func (g *guard) release() {
	g.busy = false
}

func (g *guard) close() {
	g.gen++
	g.cancel()
}
