// Package metrics implements the instrumentation and sampling pipeline of
// the measurement harness: it attaches to transport sockets, caches their
// window and RTT signals, counts packets, and periodically emits time-series
// samples.
package metrics

import (
	"github.com/sarchlab/flowmeter/sim"
)

// Kind identifies one metric stream.
type Kind string

// The four metric streams of a run.
const (
	KindCwndPackets    Kind = "cwnd_packets"
	KindRTTMs          Kind = "rtt_ms"
	KindThroughputMbps Kind = "throughput_mbps"
	KindLossPercent    Kind = "loss_percent"
)

// A Sample is a single record in a metric stream. Samples are immutable
// once emitted, and each stream receives them in non-decreasing time order.
type Sample struct {
	Time  sim.VTimeInSec
	Kind  Kind
	Value float64
}

// SampleLogger is the interface that provides the service that can record
// metric samples.
type SampleLogger interface {
	AddSample(s Sample)
}
