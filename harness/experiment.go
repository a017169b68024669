package harness

import (
	"fmt"

	"github.com/sarchlab/flowmeter/metrics"
	"github.com/sarchlab/flowmeter/monitoring"
	"github.com/sarchlab/flowmeter/network"
	"github.com/sarchlab/flowmeter/sim"
)

// attachDelay is when the first trace-attachment attempt runs. The sockets
// do not exist at time zero, so the attempt is deferred slightly and retried
// from there.
const attachDelay = sim.VTimeInSec(0.1)

// An Experiment is one measurement run. It owns every piece of mutable run
// state, so concurrent experiments never share counters, caches, or file
// handles.
type Experiment struct {
	cfg Config

	engine sim.Engine
	flows  []*network.Flow

	counters *metrics.Counters
	cache    *metrics.SignalCache
	attacher *metrics.TraceAttacher
	sampler  *metrics.Sampler
	probe    *metrics.LossProbe

	fileSink *metrics.FileSink
	recorder recorderCloser
	monitor  *monitoring.Monitor
}

type recorderCloser interface {
	CreateTable(tableName string, sampleEntry any)
	InsertData(tableName string, entry any)
	Flush()
	Close() error
}

// Run drives the experiment to its horizon and releases all resources.
func (e *Experiment) Run() error {
	for _, f := range e.flows {
		f.Install()
	}

	e.attacher.ScheduleAttach(attachDelay)
	e.sampler.Start()
	e.probe.Start()

	if e.monitor != nil {
		e.monitor.StartServer()
	}

	err := e.engine.RunUntil(e.cfg.Duration)
	if err != nil {
		return err
	}

	e.engine.Finished()

	fmt.Printf("Total Bytes Received: %d\n", e.flows[0].Sink.TotalRx())

	return e.close()
}

func (e *Experiment) close() error {
	e.sampler.Stop()
	e.probe.Stop()

	e.fileSink.Flush()
	if err := e.fileSink.Close(); err != nil {
		return err
	}

	return e.recorder.Close()
}

// Engine exposes the experiment's engine, mostly for tests.
func (e *Experiment) Engine() sim.Engine {
	return e.engine
}

// Flows returns the installed flows.
func (e *Experiment) Flows() []*network.Flow {
	return e.flows
}

// Attacher returns the trace attacher of the measured flow.
func (e *Experiment) Attacher() *metrics.TraceAttacher {
	return e.attacher
}

// Counters returns the packet counters of the measured flow.
func (e *Experiment) Counters() *metrics.Counters {
	return e.counters
}
