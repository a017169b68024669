package metrics

import (
	"github.com/sarchlab/flowmeter/sim"
)

// A LossProbe periodically reads the flow's counters and emits a loss
// percentage sample. It runs as its own periodic task, on the same period
// as the sampler.
type LossProbe struct {
	engine    sim.Engine
	scheduler *sim.PeriodicScheduler
	logger    SampleLogger
	counters  *Counters
}

// Start schedules the first loss calculation one period into the run.
func (p *LossProbe) Start() {
	p.scheduler.TickAt(p.scheduler.Period)
}

// Stop prevents further ticks from being scheduled.
func (p *LossProbe) Stop() {
	p.scheduler.Stop()
}

// Handle runs one loss calculation and schedules the next.
func (p *LossProbe) Handle(e sim.Event) error {
	if p.scheduler.Stopped() {
		return nil
	}

	now := p.engine.CurrentTime()
	p.logger.AddSample(Sample{
		Time:  now,
		Kind:  KindLossPercent,
		Value: p.counters.LossRatio() * 100,
	})

	p.scheduler.TickLater()

	return nil
}

// LossProbeBuilder can build a LossProbe.
type LossProbeBuilder struct {
	engine   sim.Engine
	logger   SampleLogger
	counters *Counters
	period   sim.VTimeInSec
}

// MakeLossProbeBuilder creates a LossProbeBuilder with a 1 s period.
func MakeLossProbeBuilder() LossProbeBuilder {
	return LossProbeBuilder{
		period: 1.0,
	}
}

// WithEngine sets the engine to schedule ticks on.
func (b LossProbeBuilder) WithEngine(e sim.Engine) LossProbeBuilder {
	b.engine = e
	return b
}

// WithSampleLogger sets the logger that receives the samples.
func (b LossProbeBuilder) WithSampleLogger(l SampleLogger) LossProbeBuilder {
	b.logger = l
	return b
}

// WithCounters sets the counters to compute the loss ratio from.
func (b LossProbeBuilder) WithCounters(c *Counters) LossProbeBuilder {
	b.counters = c
	return b
}

// WithPeriod sets the probing period.
func (b LossProbeBuilder) WithPeriod(p sim.VTimeInSec) LossProbeBuilder {
	b.period = p
	return b
}

// Build creates a LossProbe.
func (b LossProbeBuilder) Build() *LossProbe {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.logger == nil {
		panic("sample logger is not set")
	}

	if b.counters == nil {
		panic("counters are not set")
	}

	p := &LossProbe{
		engine:   b.engine,
		logger:   b.logger,
		counters: b.counters,
	}
	p.scheduler = sim.NewPeriodicScheduler(p, b.engine, b.period)

	return p
}
