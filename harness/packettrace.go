package harness

import (
	"github.com/sarchlab/flowmeter/network"
	"github.com/sarchlab/flowmeter/sim"
)

const packetTraceTable = "packet_trace"

type packetTraceRow struct {
	Time  float64
	Flow  string
	Event string
	Seq   uint64
	Size  uint64
}

// buildPacketTrace records every packet handed to and delivered by the
// network into the run database. This replaces the pcap capture of the
// original experiments, which has no equivalent for simulated packets.
func (e *Experiment) buildPacketTrace() {
	e.recorder.CreateTable(packetTraceTable, packetTraceRow{})

	for _, f := range e.flows {
		f.Source.AcceptHook(&packetTraceHook{
			experiment: e, flow: f.ID, event: "tx"})
		f.Sink.AcceptHook(&packetTraceHook{
			experiment: e, flow: f.ID, event: "rx"})
	}
}

type packetTraceHook struct {
	experiment *Experiment
	flow       string
	event      string
}

func (h *packetTraceHook) Func(ctx sim.HookCtx) {
	pkt := ctx.Item.(*network.Packet)

	h.experiment.recorder.InsertData(packetTraceTable, packetTraceRow{
		Time:  float64(h.experiment.engine.CurrentTime()),
		Flow:  h.flow,
		Event: h.event,
		Seq:   pkt.Seq,
		Size:  pkt.Size,
	})
}
