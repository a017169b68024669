package harness

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/rs/xid"

	"github.com/sarchlab/flowmeter/datarecording"
	"github.com/sarchlab/flowmeter/metrics"
	"github.com/sarchlab/flowmeter/monitoring"
	"github.com/sarchlab/flowmeter/network"
	"github.com/sarchlab/flowmeter/sim"
)

// Builder can be used to build an Experiment.
type Builder struct {
	cfg Config
}

// MakeBuilder creates a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithTopology sets the topology preset.
func (b Builder) WithTopology(name string) Builder {
	b.cfg.Topology = name
	return b
}

// WithCongestionLabel sets the experiment label and output file prefix.
func (b Builder) WithCongestionLabel(label string) Builder {
	b.cfg.CongestionLabel = label
	return b
}

// WithDuration sets the simulation horizon.
func (b Builder) WithDuration(d sim.VTimeInSec) Builder {
	b.cfg.Duration = d
	return b
}

// WithSamplingInterval sets the metric sampling period.
func (b Builder) WithSamplingInterval(i sim.VTimeInSec) Builder {
	b.cfg.SamplingInterval = i
	return b
}

// WithOutputDir sets the directory that receives the output streams.
func (b Builder) WithOutputDir(dir string) Builder {
	b.cfg.OutputDir = dir
	return b
}

// WithFlowCount sets the number of concurrent flows.
func (b Builder) WithFlowCount(n int) Builder {
	b.cfg.FlowCount = n
	return b
}

// WithTracing enables packet-level trace recording.
func (b Builder) WithTracing() Builder {
	b.cfg.Tracing = true
	return b
}

// Build creates an Experiment. It fails fast on configuration errors and on
// any output resource that cannot be opened; nothing has been scheduled yet
// at that point.
func (b Builder) Build() (*Experiment, error) {
	cfg := b.cfg

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	preset, err := network.PresetByName(cfg.Topology)
	if err != nil {
		return nil, err
	}

	pacingRate, err := network.ParseDataRate(cfg.PacingRate)
	if err != nil {
		return nil, fmt.Errorf("invalid pacing rate: %w", err)
	}

	if cfg.PacingEnabled && pacingRate == 0 {
		return nil, fmt.Errorf(
			"pacing rate must be positive when pacing is enabled, got %q",
			cfg.PacingRate)
	}

	fileSink, err := metrics.NewFileSink(cfg.OutputDir, cfg.CongestionLabel)
	if err != nil {
		return nil, err
	}

	runID := xid.New().String()
	recorder, err := datarecording.New(
		filepath.Join(cfg.OutputDir, cfg.CongestionLabel+"_"+runID))
	if err != nil {
		fileSink.Close()
		return nil, err
	}

	e := &Experiment{
		cfg:      cfg,
		engine:   sim.NewSerialEngine(),
		fileSink: fileSink,
		recorder: recorder,
	}

	e.buildFlows(preset, pacingRate)
	e.buildInstrumentation()

	if cfg.Tracing {
		e.buildPacketTrace()
	}

	if cfg.LogEvents {
		e.engine.AcceptHook(sim.NewEventLogger(log.Default()))
	}

	if cfg.MonitorOn {
		e.monitor = monitoring.NewMonitor().
			WithPortNumber(cfg.MonitorPort)
		e.monitor.RegisterEngine(e.engine)
		e.monitor.RegisterSignals(e.cache, e.counters)
	}

	return e, nil
}

func (e *Experiment) buildFlows(
	preset network.Preset,
	pacingRate network.DataRate,
) {
	cfg := e.cfg
	paths := preset.BuildPaths(cfg.FlowCount)

	sourceStart := preset.SourceStartOffset
	sourceStop := cfg.Duration - preset.SourceStopEarly

	for i := 0; i < cfg.FlowCount; i++ {
		name := fmt.Sprintf("flow%d", i)

		sink := network.NewSinkApp(name+".sink", e.engine)
		source := network.NewBulkSendApp(
			name+".source",
			e.engine,
			paths[i],
			sink,
			SegmentSize,
			cfg.EffectiveMaxBytes(),
			cfg.PacingEnabled,
			pacingRate,
		)

		e.flows = append(e.flows, &network.Flow{
			ID:        name,
			Source:    source,
			Sink:      sink,
			Path:      paths[i],
			MaxBytes:  cfg.EffectiveMaxBytes(),
			StartTime: sourceStart,
			StopTime:  sourceStop,
		})
	}
}

// buildInstrumentation attaches the metrics pipeline to the measured flow.
// As in the original experiments, only the first flow is measured; any
// further flows are background traffic on the same links.
func (e *Experiment) buildInstrumentation() {
	measured := e.flows[0]

	e.counters = &metrics.Counters{}
	e.cache = &metrics.SignalCache{}

	measured.Source.AcceptHook(e.counters.TxHook())
	measured.Sink.AcceptHook(e.counters.RxHook())

	e.attacher = metrics.MakeTraceAttacherBuilder().
		WithEngine(e.engine).
		WithSignalCache(e.cache).
		WithApp(measured.Source).
		Build()

	logger := metrics.MultiLogger{
		e.fileSink,
		metrics.NewDBSink(e.recorder),
	}

	e.sampler = metrics.MakeSamplerBuilder().
		WithEngine(e.engine).
		WithSampleLogger(logger).
		WithSignalCache(e.cache).
		WithRxSource(measured.Sink).
		WithPeriod(e.cfg.SamplingInterval).
		WithReferencePacketSize(SegmentSize).
		Build()

	e.probe = metrics.MakeLossProbeBuilder().
		WithEngine(e.engine).
		WithSampleLogger(logger).
		WithCounters(e.counters).
		WithPeriod(e.cfg.SamplingInterval).
		Build()
}
