package metrics

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/flowmeter/network"
	"github.com/sarchlab/flowmeter/sim"
)

// ErrNotBulkSender reports that the application to instrument is not a
// bulk-data sender. This is a configuration error and is never retried.
var ErrNotBulkSender = errors.New("application is not a bulk sender")

// ErrAttachTimeout reports that the transport socket never became available
// within the retry budget.
var ErrAttachTimeout = errors.New("trace attachment timed out")

type attachEvent struct {
	*sim.EventBase
}

// A TraceAttacher subscribes a flow's SignalCache to the congestion-window
// and RTT notifications of the flow's transport socket.
//
// The socket does not exist until the sending application has started, so
// the attacher polls: every failed attempt reschedules itself after a fixed
// delay, up to a maximum attempt count. A successful attachment subscribes
// exactly once and stops the retry chain.
type TraceAttacher struct {
	engine      sim.Engine
	cache       *SignalCache
	app         network.Application
	retryDelay  sim.VTimeInSec
	maxAttempts int

	attempts int
	attached bool
	err      error
}

// ScheduleAttach schedules the first attachment attempt at the given time.
func (a *TraceAttacher) ScheduleAttach(t sim.VTimeInSec) {
	a.engine.Schedule(attachEvent{sim.NewEventBase(t, a)})
}

// Handle runs one attachment attempt.
func (a *TraceAttacher) Handle(e sim.Event) error {
	return a.AttachTraces()
}

// AttachTraces performs one attachment attempt against the application's
// transport socket. A missing socket schedules a retry and returns nil; a
// configuration error or an exhausted retry budget is recorded, logged, and
// returned, and the attacher gives up. After a successful attachment,
// further calls are no-ops.
func (a *TraceAttacher) AttachTraces() error {
	if a.attached || a.err != nil {
		return a.err
	}

	provider, ok := a.app.(network.TransportProvider)
	if !ok {
		a.err = fmt.Errorf("%w: %s", ErrNotBulkSender, a.app.Name())
		log.Printf("abandoning trace attachment: %v", a.err)
		return a.err
	}

	socket, ok := provider.TransportSocket()
	if !ok {
		return a.retry()
	}

	socket.AcceptHook(a.cache.CwndHook())
	socket.AcceptHook(a.cache.RTTHook())
	a.attached = true

	return nil
}

func (a *TraceAttacher) retry() error {
	a.attempts++
	if a.attempts >= a.maxAttempts {
		a.err = fmt.Errorf("%w: %s after %d attempts",
			ErrAttachTimeout, a.app.Name(), a.attempts)
		log.Printf("abandoning trace attachment: %v", a.err)
		return a.err
	}

	log.Printf("socket of %s not available yet, retrying", a.app.Name())
	a.ScheduleAttach(a.engine.CurrentTime() + a.retryDelay)

	return nil
}

// Attached returns true once the subscription is in place.
func (a *TraceAttacher) Attached() bool {
	return a.attached
}

// Attempts returns the number of attempts that found no socket.
func (a *TraceAttacher) Attempts() int {
	return a.attempts
}

// Err returns the permanent error that made the attacher give up, if any.
func (a *TraceAttacher) Err() error {
	return a.err
}

// TraceAttacherBuilder can build a TraceAttacher.
type TraceAttacherBuilder struct {
	engine      sim.Engine
	cache       *SignalCache
	app         network.Application
	retryDelay  sim.VTimeInSec
	maxAttempts int
}

// MakeTraceAttacherBuilder creates a TraceAttacherBuilder with the default
// retry policy: one attempt every 0.1 s of virtual time, at most 600
// attempts.
func MakeTraceAttacherBuilder() TraceAttacherBuilder {
	return TraceAttacherBuilder{
		retryDelay:  0.1,
		maxAttempts: 600,
	}
}

// WithEngine sets the engine to schedule retries on.
func (b TraceAttacherBuilder) WithEngine(e sim.Engine) TraceAttacherBuilder {
	b.engine = e
	return b
}

// WithSignalCache sets the cache that receives the subscribed signals.
func (b TraceAttacherBuilder) WithSignalCache(
	c *SignalCache,
) TraceAttacherBuilder {
	b.cache = c
	return b
}

// WithApp sets the application whose socket is to be instrumented.
func (b TraceAttacherBuilder) WithApp(
	app network.Application,
) TraceAttacherBuilder {
	b.app = app
	return b
}

// WithRetryDelay sets the delay between attachment attempts.
func (b TraceAttacherBuilder) WithRetryDelay(
	d sim.VTimeInSec,
) TraceAttacherBuilder {
	b.retryDelay = d
	return b
}

// WithMaxAttempts sets the retry budget.
func (b TraceAttacherBuilder) WithMaxAttempts(n int) TraceAttacherBuilder {
	b.maxAttempts = n
	return b
}

// Build creates a TraceAttacher.
func (b TraceAttacherBuilder) Build() *TraceAttacher {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.cache == nil {
		panic("signal cache is not set")
	}

	if b.app == nil {
		panic("app is not set")
	}

	return &TraceAttacher{
		engine:      b.engine,
		cache:       b.cache,
		app:         b.app,
		retryDelay:  b.retryDelay,
		maxAttempts: b.maxAttempts,
	}
}
