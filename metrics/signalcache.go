package metrics

import (
	"sync"

	"github.com/sarchlab/flowmeter/network"
	"github.com/sarchlab/flowmeter/sim"
)

// SignalCache holds the most recently observed congestion window and RTT of
// one flow's socket. It is a lossy snapshot: notifications between two
// sampling ticks overwrite each other, and the sampler reports whatever the
// latest value is.
//
// The monitor reads the cache from its HTTP goroutine while the hooks write
// it from the engine goroutine, hence the lock.
type SignalCache struct {
	lock      sync.Mutex
	cwndBytes uint64
	rtt       sim.VTimeInSec
}

// CwndBytes returns the last observed congestion window in bytes.
func (c *SignalCache) CwndBytes() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.cwndBytes
}

// RTT returns the last observed smoothed round-trip time.
func (c *SignalCache) RTT() sim.VTimeInSec {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.rtt
}

// CwndHook returns a hook that records congestion-window updates. The hook
// item must be the new window in bytes.
func (c *SignalCache) CwndHook() sim.Hook {
	return cwndHook{cache: c}
}

// RTTHook returns a hook that records RTT updates. The hook item must be
// the new RTT as a sim.VTimeInSec.
func (c *SignalCache) RTTHook() sim.Hook {
	return rttHook{cache: c}
}

type cwndHook struct {
	cache *SignalCache
}

func (h cwndHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != network.HookPosCwndChange {
		return
	}

	h.cache.lock.Lock()
	h.cache.cwndBytes = ctx.Item.(uint64)
	h.cache.lock.Unlock()
}

type rttHook struct {
	cache *SignalCache
}

func (h rttHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != network.HookPosRTTChange {
		return
	}

	h.cache.lock.Lock()
	h.cache.rtt = ctx.Item.(sim.VTimeInSec)
	h.cache.lock.Unlock()
}
