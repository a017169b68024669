// Package harness wires a measurement experiment together: it builds the
// topology, installs the flows, attaches the instrumentation, and drives the
// event engine to the configured horizon.
package harness

import (
	"fmt"

	"github.com/sarchlab/flowmeter/sim"
)

// BytesPerPacket is the conversion factor applied when a packet budget is
// given instead of a byte budget.
const BytesPerPacket = 500

// SegmentSize is the transport segment size, which doubles as the reference
// packet size when reporting the congestion window in packets.
const SegmentSize = 1500

// Config collects the recognized experiment options.
type Config struct {
	// Topology selects one of the preset layouts.
	Topology string

	// CongestionLabel names the experiment and prefixes the output files,
	// e.g. "tcpcubic" or "quicbbr".
	CongestionLabel string

	// Tracing enables packet-level trace recording, independent of the
	// metrics pipeline.
	Tracing bool

	// MaxBytes bounds the data volume per flow. 0 means unbounded.
	MaxBytes uint64

	// MaxPackets, when non-zero, overrides MaxBytes at BytesPerPacket bytes
	// per packet.
	MaxPackets uint64

	// FlowCount is the number of concurrent flows.
	FlowCount int

	// PacingEnabled and PacingRate are passed through to the transport
	// pacing policy.
	PacingEnabled bool
	PacingRate    string

	// Duration is the simulation horizon.
	Duration sim.VTimeInSec

	// SamplingInterval is the metric sampling period.
	SamplingInterval sim.VTimeInSec

	// OutputDir receives the metric streams and the run database. It is
	// created on demand.
	OutputDir string

	// MonitorOn serves the run state over HTTP on MonitorPort while the
	// simulation runs.
	MonitorOn   bool
	MonitorPort int

	// LogEvents prints every event the engine triggers. Debug aid only; the
	// output is large.
	LogEvents bool
}

// DefaultConfig returns the configuration of the standard 100 s
// point-to-point experiment.
func DefaultConfig() Config {
	return Config{
		Topology:         "pointtopoint",
		CongestionLabel:  "tcpcubic",
		FlowCount:        1,
		PacingEnabled:    true,
		PacingRate:       "10Mbps",
		Duration:         100.0,
		SamplingInterval: 1.0,
		OutputDir:        "out",
	}
}

// EffectiveMaxBytes resolves the per-flow byte budget, applying the packet
// budget override.
func (c Config) EffectiveMaxBytes() uint64 {
	if c.MaxPackets != 0 {
		return BytesPerPacket * c.MaxPackets
	}
	return c.MaxBytes
}

// Validate reports configuration errors that no component can recover from.
func (c Config) Validate() error {
	if c.FlowCount < 1 {
		return fmt.Errorf("flow count must be at least 1, got %d",
			c.FlowCount)
	}

	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g",
			float64(c.Duration))
	}

	if c.SamplingInterval <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %g",
			float64(c.SamplingInterval))
	}

	if c.CongestionLabel == "" {
		return fmt.Errorf("congestion label must not be empty")
	}

	return nil
}
