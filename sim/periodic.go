package sim

import (
	"log"
	"sync"
)

// TickEvent is a generic event that periodic components use to update their
// status.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a new TickEvent
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// PeriodicScheduler schedules tick events on a fixed period. Scheduling is
// idempotent: requesting a tick that is already scheduled is a no-op, so a
// handler can never double-schedule itself.
type PeriodicScheduler struct {
	lock    sync.Mutex
	handler Handler
	Engine  Engine
	Period  VTimeInSec

	nextTickTime VTimeInSec
	stopped      bool
}

// NewPeriodicScheduler creates a scheduler for tick events that fire every
// period.
func NewPeriodicScheduler(
	handler Handler,
	engine Engine,
	period VTimeInSec,
) *PeriodicScheduler {
	if period <= 0 {
		log.Panic("period must be positive")
	}

	s := new(PeriodicScheduler)

	s.handler = handler
	s.Engine = engine
	s.Period = period
	s.nextTickTime = -1

	return s
}

// TickAt schedules a tick event at the given absolute time.
func (s *PeriodicScheduler) TickAt(t VTimeInSec) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopped {
		return
	}

	if s.nextTickTime >= t {
		return
	}

	s.nextTickTime = t
	tick := MakeTickEvent(s.handler, t)
	s.Engine.Schedule(tick)
}

// TickLater schedules a tick event one period after the current time.
func (s *PeriodicScheduler) TickLater() {
	s.TickAt(s.Engine.CurrentTime() + s.Period)
}

// Stop prevents any further ticks from being scheduled. Ticks already in the
// event queue still fire; their handler is expected to check Stopped.
func (s *PeriodicScheduler) Stop() {
	s.lock.Lock()
	s.stopped = true
	s.lock.Unlock()
}

// Stopped returns true if the scheduler has been stopped.
func (s *PeriodicScheduler) Stopped() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.stopped
}
