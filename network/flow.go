package network

import (
	"github.com/sarchlab/flowmeter/sim"
)

// A Flow is one sender/receiver application pairing carrying a single
// logical data transfer. Flows are created at install time and immutable
// afterwards.
type Flow struct {
	ID string

	Source *BulkSendApp
	Sink   *SinkApp
	Path   *Path

	MaxBytes  uint64 // 0 means unbounded
	StartTime sim.VTimeInSec
	StopTime  sim.VTimeInSec
}

// Install schedules the flow's application start and stop windows on the
// engine.
func (f *Flow) Install() {
	f.Source.ScheduleStart(f.StartTime)
	f.Source.ScheduleStop(f.StopTime)
}
