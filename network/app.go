package network

import (
	"log"

	"github.com/sarchlab/flowmeter/sim"
)

// HookPosAppTx triggers once per packet handed to the network by a sending
// application. The hook item is the *Packet.
var HookPosAppTx = &sim.HookPos{Name: "AppTx"}

// HookPosAppRx triggers once per packet delivered to a sink application.
// The hook item is the *Packet.
var HookPosAppRx = &sim.HookPos{Name: "AppRx"}

// An Application is a traffic endpoint driven by the event engine.
type Application interface {
	sim.Named
	sim.Handler
}

// TransportProvider is the capability implemented by applications that own a
// transport socket. The socket is absent until the application has started
// and connected, which is why instrumentation has to poll for it.
type TransportProvider interface {
	TransportSocket() (*Socket, bool)
}

type appStartEvent struct {
	*sim.EventBase
}

type appStopEvent struct {
	*sim.EventBase
}

type sendEvent struct {
	*sim.EventBase
}

type arrivalEvent struct {
	*sim.EventBase
	packet *Packet
	sender *BulkSendApp
}

type ackEvent struct {
	*sim.EventBase
	packet *Packet
}

type lossEvent struct {
	*sim.EventBase
	packet *Packet
}

// retransmission timeout floor used when no RTT estimate exists yet
const minRTO = sim.VTimeInSec(0.2)

// A BulkSendApp sends as much data as the congestion window allows, up to an
// optional byte budget, mirroring the bulk-transfer sender of the original
// experiments.
type BulkSendApp struct {
	sim.HookableBase

	name   string
	engine sim.Engine
	path   *Path
	sink   *SinkApp

	segmentSize   uint64
	maxBytes      uint64 // 0 means unbounded
	pacingEnabled bool
	pacingRate    DataRate

	socket    *Socket
	nextSeq   uint64
	bytesSent uint64
	started   bool
	stopped   bool
}

// NewBulkSendApp creates a bulk sender that transmits towards the given sink
// over the given path.
func NewBulkSendApp(
	name string,
	engine sim.Engine,
	path *Path,
	sink *SinkApp,
	segmentSize uint64,
	maxBytes uint64,
	pacingEnabled bool,
	pacingRate DataRate,
) *BulkSendApp {
	return &BulkSendApp{
		name:          name,
		engine:        engine,
		path:          path,
		sink:          sink,
		segmentSize:   segmentSize,
		maxBytes:      maxBytes,
		pacingEnabled: pacingEnabled,
		pacingRate:    pacingRate,
	}
}

// Name returns the name of the application.
func (a *BulkSendApp) Name() string {
	return a.name
}

// TransportSocket returns the transport socket. The second return value is
// false until the application has started.
func (a *BulkSendApp) TransportSocket() (*Socket, bool) {
	if a.socket == nil {
		return nil, false
	}
	return a.socket, true
}

// BytesSent returns the cumulative number of payload bytes handed to the
// network.
func (a *BulkSendApp) BytesSent() uint64 {
	return a.bytesSent
}

// ScheduleStart schedules the application to start at the given time.
func (a *BulkSendApp) ScheduleStart(t sim.VTimeInSec) {
	a.engine.Schedule(appStartEvent{sim.NewEventBase(t, a)})
}

// ScheduleStop schedules the application to stop sending at the given time.
func (a *BulkSendApp) ScheduleStop(t sim.VTimeInSec) {
	a.engine.Schedule(appStopEvent{sim.NewEventBase(t, a)})
}

// Handle processes the application's events.
func (a *BulkSendApp) Handle(e sim.Event) error {
	switch evt := e.(type) {
	case appStartEvent:
		a.start()
	case appStopEvent:
		a.stopped = true
	case sendEvent:
		a.trySend()
	case ackEvent:
		a.onAck(evt.packet)
	case lossEvent:
		a.onLoss(evt.packet)
	default:
		log.Panicf("app %s cannot handle event %T", a.name, e)
	}

	return nil
}

func (a *BulkSendApp) start() {
	if a.started {
		return
	}
	a.started = true

	a.socket = NewSocket(a.segmentSize, a.pacingEnabled, a.pacingRate)
	a.trySend()
}

func (a *BulkSendApp) budgetExhausted() bool {
	return a.maxBytes != 0 && a.bytesSent >= a.maxBytes
}

func (a *BulkSendApp) trySend() {
	if a.stopped || a.socket == nil {
		return
	}

	now := a.engine.CurrentTime()

	for !a.budgetExhausted() && a.socket.CanSend(a.segmentSize) {
		sendAt := a.socket.EarliestSendTime(now)
		if sendAt > now {
			a.engine.Schedule(sendEvent{sim.NewEventBase(sendAt, a)})
			return
		}

		a.sendOne(now)
	}
}

func (a *BulkSendApp) sendOne(now sim.VTimeInSec) {
	pkt := &Packet{
		FlowID:   a.name,
		Seq:      a.nextSeq,
		Size:     a.segmentSize,
		SendTime: now,
	}
	a.nextSeq++
	a.bytesSent += pkt.Size
	a.socket.Reserve(pkt.Size)
	a.socket.RecordSend(now, pkt.Size)

	a.InvokeHook(sim.HookCtx{Domain: a, Pos: HookPosAppTx, Item: pkt})

	arrival, ok := a.path.Transmit(now, pkt)
	if !ok {
		a.scheduleLoss(now, pkt)
		return
	}

	a.engine.Schedule(arrivalEvent{
		EventBase: sim.NewEventBase(arrival, a.sink),
		packet:    pkt,
		sender:    a,
	})
}

func (a *BulkSendApp) scheduleLoss(now sim.VTimeInSec, pkt *Packet) {
	rto := 2 * a.socket.SRTT()
	if rto < minRTO {
		rto = minRTO
	}

	a.engine.Schedule(lossEvent{
		EventBase: sim.NewEventBase(now+rto, a),
		packet:    pkt,
	})
}

func (a *BulkSendApp) onAck(pkt *Packet) {
	now := a.engine.CurrentTime()
	a.socket.OnAck(pkt.Size, now-pkt.SendTime)
	a.trySend()
}

func (a *BulkSendApp) onLoss(pkt *Packet) {
	a.socket.OnLoss(pkt.Size)
	a.trySend()
}

// A SinkApp consumes packets and tracks the cumulative received byte count,
// mirroring the packet sink of the original experiments.
type SinkApp struct {
	sim.HookableBase

	name    string
	engine  sim.Engine
	totalRx uint64
}

// NewSinkApp creates a packet sink.
func NewSinkApp(name string, engine sim.Engine) *SinkApp {
	return &SinkApp{
		name:   name,
		engine: engine,
	}
}

// Name returns the name of the application.
func (a *SinkApp) Name() string {
	return a.name
}

// TotalRx returns the cumulative number of payload bytes received.
func (a *SinkApp) TotalRx() uint64 {
	return a.totalRx
}

// Handle processes packet arrivals and acknowledges them to the sender.
func (a *SinkApp) Handle(e sim.Event) error {
	evt, ok := e.(arrivalEvent)
	if !ok {
		log.Panicf("sink %s cannot handle event %T", a.name, e)
	}

	a.totalRx += evt.packet.Size

	a.InvokeHook(sim.HookCtx{Domain: a, Pos: HookPosAppRx, Item: evt.packet})

	now := a.engine.CurrentTime()
	ackDelay := evt.sender.path.PropagationDelay()
	a.engine.Schedule(ackEvent{
		EventBase: sim.NewEventBase(now+ackDelay, evt.sender),
		packet:    evt.packet,
	})

	return nil
}
