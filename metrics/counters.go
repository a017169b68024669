package metrics

import (
	"sync"

	"github.com/sarchlab/flowmeter/network"
	"github.com/sarchlab/flowmeter/sim"
)

// Counters holds the monotonically increasing sent/received packet counts
// for one flow. The counts accumulate for the whole run and are never
// reset.
//
// The monitor reads the counts from its HTTP goroutine while the hooks
// write them from the engine goroutine, hence the lock.
type Counters struct {
	lock     sync.Mutex
	sent     uint64
	received uint64
}

// OnSent records one transmitted packet.
func (c *Counters) OnSent() {
	c.lock.Lock()
	c.sent++
	c.lock.Unlock()
}

// OnReceived records one delivered packet.
func (c *Counters) OnReceived() {
	c.lock.Lock()
	c.received++
	c.lock.Unlock()
}

// Sent returns the cumulative transmitted packet count.
func (c *Counters) Sent() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.sent
}

// Received returns the cumulative delivered packet count.
func (c *Counters) Received() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.received
}

// LossRatio returns the fraction of sent packets not yet received, in
// [0, 1]. With nothing sent the ratio is defined as zero, so a cold start
// never reads as total loss.
func (c *Counters) LossRatio() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.sent == 0 {
		return 0
	}

	if c.received >= c.sent {
		return 0
	}

	return float64(c.sent-c.received) / float64(c.sent)
}

// TxHook returns a hook that counts transmitted packets. It is meant to be
// registered on a sending application.
func (c *Counters) TxHook() sim.Hook {
	return countHook{pos: network.HookPosAppTx, onFire: c.OnSent}
}

// RxHook returns a hook that counts delivered packets. It is meant to be
// registered on a sink application.
func (c *Counters) RxHook() sim.Hook {
	return countHook{pos: network.HookPosAppRx, onFire: c.OnReceived}
}

type countHook struct {
	pos    *sim.HookPos
	onFire func()
}

func (h countHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != h.pos {
		return
	}

	h.onFire()
}
