package metrics

import (
	"github.com/sarchlab/flowmeter/sim"
)

// RxSource reports a cumulative received byte count. A sink application is
// the usual implementation.
type RxSource interface {
	TotalRx() uint64
}

// A Sampler periodically reads the cached congestion window and RTT and the
// sink's cumulative byte count, and emits one sample per metric stream. The
// first tick fires one period into the run, never at time zero.
//
// The cwnd/RTT values are whatever the notification callbacks last cached,
// while throughput is computed at tick time. The streams therefore share a
// timestamp without being a consistent snapshot, which is inherited from the
// observation model.
type Sampler struct {
	engine    sim.Engine
	scheduler *sim.PeriodicScheduler
	logger    SampleLogger
	cache     *SignalCache
	rx        RxSource

	refPacketSize uint64
	lastTotalRx   uint64
}

// Start schedules the first sampling tick one period into the run.
func (s *Sampler) Start() {
	s.scheduler.TickAt(s.scheduler.Period)
}

// Stop prevents further ticks from being scheduled.
func (s *Sampler) Stop() {
	s.scheduler.Stop()
}

// Handle runs one sampling tick and schedules the next.
func (s *Sampler) Handle(e sim.Event) error {
	if s.scheduler.Stopped() {
		return nil
	}

	s.sampleOnce()
	s.scheduler.TickLater()

	return nil
}

func (s *Sampler) sampleOnce() {
	now := s.engine.CurrentTime()

	totalRx := s.rx.TotalRx()
	throughput := float64((totalRx-s.lastTotalRx)*8) / 1e6
	s.lastTotalRx = totalRx

	cwndPackets := float64(s.cache.CwndBytes()) / float64(s.refPacketSize)
	rttMs := float64(s.cache.RTT()) * 1e3

	s.logger.AddSample(Sample{Time: now, Kind: KindThroughputMbps, Value: throughput})
	s.logger.AddSample(Sample{Time: now, Kind: KindRTTMs, Value: rttMs})
	s.logger.AddSample(Sample{Time: now, Kind: KindCwndPackets, Value: cwndPackets})
}

// SamplerBuilder can build a Sampler.
type SamplerBuilder struct {
	engine        sim.Engine
	logger        SampleLogger
	cache         *SignalCache
	rx            RxSource
	period        sim.VTimeInSec
	refPacketSize uint64
}

// MakeSamplerBuilder creates a SamplerBuilder with a 1 s period and a
// 1500-byte reference packet size.
func MakeSamplerBuilder() SamplerBuilder {
	return SamplerBuilder{
		period:        1.0,
		refPacketSize: 1500,
	}
}

// WithEngine sets the engine to schedule ticks on.
func (b SamplerBuilder) WithEngine(e sim.Engine) SamplerBuilder {
	b.engine = e
	return b
}

// WithSampleLogger sets the logger that receives the samples.
func (b SamplerBuilder) WithSampleLogger(l SampleLogger) SamplerBuilder {
	b.logger = l
	return b
}

// WithSignalCache sets the cache to read cwnd and RTT from.
func (b SamplerBuilder) WithSignalCache(c *SignalCache) SamplerBuilder {
	b.cache = c
	return b
}

// WithRxSource sets the source of the cumulative received byte count.
func (b SamplerBuilder) WithRxSource(rx RxSource) SamplerBuilder {
	b.rx = rx
	return b
}

// WithPeriod sets the sampling period.
func (b SamplerBuilder) WithPeriod(p sim.VTimeInSec) SamplerBuilder {
	b.period = p
	return b
}

// WithReferencePacketSize sets the packet size used to convert the window
// from bytes to packets. The conversion is a display convention, not a
// protocol property.
func (b SamplerBuilder) WithReferencePacketSize(size uint64) SamplerBuilder {
	b.refPacketSize = size
	return b
}

// Build creates a Sampler.
func (b SamplerBuilder) Build() *Sampler {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.logger == nil {
		panic("sample logger is not set")
	}

	if b.cache == nil {
		panic("signal cache is not set")
	}

	if b.rx == nil {
		panic("rx source is not set")
	}

	s := &Sampler{
		engine:        b.engine,
		logger:        b.logger,
		cache:         b.cache,
		rx:            b.rx,
		refPacketSize: b.refPacketSize,
	}
	s.scheduler = sim.NewPeriodicScheduler(s, b.engine, b.period)

	return s
}
