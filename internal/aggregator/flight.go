package aggregator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// flight is the context an in-flight aggregation runs on. It outlives any
// single caller and is only cancelled once every caller waiting on it left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

type flights struct {
	group *singleflight.Group

	mu    sync.Mutex
	calls map[string]*flight
}

func newFlights() *flights {
	return &flights{
		group: &singleflight.Group{},
		calls: map[string]*flight{},
	}
}

func flightKey(identifier string, opts Options) string {
	return fmt.Sprintf("%s\x00%d\x00%t", identifier, opts.Limit, opts.UseCache)
}

func (f *flights) join(ctx context.Context, key string) *flight {
	f.mu.Lock()
	defer f.mu.Unlock()

	call, ok := f.calls[key]
	if !ok {
		shared, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call = &flight{ctx: shared, cancel: cancel}
		f.calls[key] = call
	}
	call.waiters++
	return call
}

func (f *flights) leave(key string, call *flight) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call.waiters--
	if call.waiters > 0 {
		return
	}
	call.cancel()
	if f.calls[key] == call {
		delete(f.calls, key)
		// a caller arriving after this must start over instead of joining
		// the cancelled aggregation
		f.group.Forget(key)
	}
}

// context returns the shared context of the flight registered under key,
// a flight nobody waits on anymore gives a cancelled context.
func (f *flights) context(key string) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()

	call, ok := f.calls[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return call.ctx
}

func (f *flights) waiting(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.calls[key]
	if !ok {
		return 0
	}
	return call.waiters
}
