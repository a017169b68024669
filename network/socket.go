package network

import (
	"github.com/sarchlab/flowmeter/sim"
)

// HookPosCwndChange triggers on every congestion-window update. The hook
// item is the new window in bytes.
var HookPosCwndChange = &sim.HookPos{Name: "CongestionWindow"}

// HookPosRTTChange triggers on every smoothed-RTT update. The hook item is
// the new RTT as a sim.VTimeInSec.
var HookPosRTTChange = &sim.HookPos{Name: "RTT"}

const initialWindowSegments = 2
const defaultSlowStartThreshold = 64 * 1024

// A Socket is the transport endpoint owned by a sending application. It
// keeps the congestion window and the smoothed RTT, and publishes every
// change through hooks so that instrumentation can observe them.
//
// The window evolution is plain slow start plus AIMD. It only needs to
// produce plausible signals for the instrumentation to observe; it is not a
// faithful congestion-control implementation.
type Socket struct {
	sim.HookableBase

	segmentSize uint64
	cwnd        uint64
	ssthresh    uint64
	inFlight    uint64
	sRTT        sim.VTimeInSec

	pacingEnabled bool
	pacingRate    DataRate
	nextSendTime  sim.VTimeInSec
}

// NewSocket creates a connected socket.
func NewSocket(
	segmentSize uint64,
	pacingEnabled bool,
	pacingRate DataRate,
) *Socket {
	s := &Socket{
		segmentSize:   segmentSize,
		ssthresh:      defaultSlowStartThreshold,
		pacingEnabled: pacingEnabled,
		pacingRate:    pacingRate,
	}
	s.cwnd = initialWindowSegments * segmentSize

	return s
}

// Cwnd returns the congestion window in bytes.
func (s *Socket) Cwnd() uint64 {
	return s.cwnd
}

// SRTT returns the smoothed round-trip time.
func (s *Socket) SRTT() sim.VTimeInSec {
	return s.sRTT
}

// SegmentSize returns the maximum segment size in bytes.
func (s *Socket) SegmentSize() uint64 {
	return s.segmentSize
}

// CanSend returns true if the window has room for another segment of the
// given size.
func (s *Socket) CanSend(size uint64) bool {
	return s.inFlight+size <= s.cwnd
}

// Reserve accounts a segment as in flight.
func (s *Socket) Reserve(size uint64) {
	s.inFlight += size
}

func (s *Socket) release(size uint64) {
	if size > s.inFlight {
		size = s.inFlight
	}
	s.inFlight -= size
}

// EarliestSendTime returns the time at which the next segment may leave
// under the pacing policy. It does not advance the pacing clock, so callers
// that only schedule a wake-up do not burn a pacing slot.
func (s *Socket) EarliestSendTime(now sim.VTimeInSec) sim.VTimeInSec {
	if !s.pacingEnabled || s.nextSendTime <= now {
		return now
	}
	return s.nextSendTime
}

// RecordSend advances the pacing clock past a segment of the given size sent
// at the given time.
func (s *Socket) RecordSend(sentAt sim.VTimeInSec, size uint64) {
	if !s.pacingEnabled {
		return
	}

	s.nextSendTime = sentAt +
		sim.VTimeInSec(float64(size*8)/float64(s.pacingRate))
}

// OnAck processes the acknowledgment of one segment. It releases window
// space, grows the window, and folds the RTT sample into the smoothed RTT.
func (s *Socket) OnAck(size uint64, rttSample sim.VTimeInSec) {
	s.release(size)

	if s.cwnd < s.ssthresh {
		s.setCwnd(s.cwnd + s.segmentSize)
	} else {
		s.setCwnd(s.cwnd + s.segmentSize*s.segmentSize/s.cwnd)
	}

	s.observeRTT(rttSample)
}

// OnLoss processes the loss of one segment: the window halves and the
// slow-start threshold follows it down.
func (s *Socket) OnLoss(size uint64) {
	s.release(size)

	half := s.cwnd / 2
	min := initialWindowSegments * s.segmentSize
	if half < min {
		half = min
	}

	s.ssthresh = half
	s.setCwnd(half)
}

func (s *Socket) setCwnd(v uint64) {
	s.cwnd = v
	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosCwndChange,
		Item:   v,
	})
}

func (s *Socket) observeRTT(sample sim.VTimeInSec) {
	if s.sRTT == 0 {
		s.sRTT = sample
	} else {
		s.sRTT = s.sRTT*7/8 + sample/8
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosRTTChange,
		Item:   s.sRTT,
	})
}
