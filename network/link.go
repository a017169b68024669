package network

import (
	"github.com/sarchlab/flowmeter/sim"
)

// A Packet is one transport segment moving through the network.
type Packet struct {
	FlowID   string
	Seq      uint64
	Size     uint64 // bytes
	SendTime sim.VTimeInSec
}

// HookPosLinkDrop triggers when a link discards a packet because its queue
// is full.
var HookPosLinkDrop = &sim.HookPos{Name: "LinkDrop"}

// A Link is a point-to-point channel with a fixed rate, a propagation delay,
// and a bounded transmit queue.
type Link struct {
	sim.HookableBase

	name     string
	rate     DataRate
	delay    sim.VTimeInSec
	queueCap int

	busyUntil sim.VTimeInSec
}

// NewLink creates a link with the given rate and propagation delay. queueCap
// bounds the number of packets that can wait for transmission.
func NewLink(
	name string,
	rate DataRate,
	delay sim.VTimeInSec,
	queueCap int,
) *Link {
	return &Link{
		name:     name,
		rate:     rate,
		delay:    delay,
		queueCap: queueCap,
	}
}

// Name returns the name of the link.
func (l *Link) Name() string {
	return l.name
}

// Delay returns the propagation delay of the link.
func (l *Link) Delay() sim.VTimeInSec {
	return l.delay
}

func (l *Link) txTime(p *Packet) sim.VTimeInSec {
	return sim.VTimeInSec(float64(p.Size*8) / float64(l.rate))
}

// queueLen approximates the number of packets waiting at time now from the
// backlog of serialization work.
func (l *Link) queueLen(now sim.VTimeInSec, txTime sim.VTimeInSec) int {
	if l.busyUntil <= now {
		return 0
	}
	return int(float64(l.busyUntil-now) / float64(txTime))
}

// Transmit accepts a packet at time now and returns the time the packet
// arrives at the far end. ok is false if the queue is full and the packet
// is dropped.
func (l *Link) Transmit(
	now sim.VTimeInSec,
	p *Packet,
) (arrival sim.VTimeInSec, ok bool) {
	txTime := l.txTime(p)

	if l.queueLen(now, txTime) >= l.queueCap {
		l.InvokeHook(sim.HookCtx{
			Domain: l,
			Pos:    HookPosLinkDrop,
			Item:   p,
		})
		return 0, false
	}

	txStart := now
	if l.busyUntil > txStart {
		txStart = l.busyUntil
	}
	l.busyUntil = txStart + txTime

	return l.busyUntil + l.delay, true
}

// A Path is an ordered sequence of links from a sender to a receiver.
type Path struct {
	Links []*Link
}

// Transmit pushes a packet through every link of the path in order. ok is
// false if any link drops the packet.
func (p *Path) Transmit(
	now sim.VTimeInSec,
	pkt *Packet,
) (arrival sim.VTimeInSec, ok bool) {
	t := now
	for _, link := range p.Links {
		t, ok = link.Transmit(t, pkt)
		if !ok {
			return 0, false
		}
	}
	return t, true
}

// PropagationDelay returns the sum of the propagation delays along the path.
// The reverse direction uses it as the ack delay, with no queueing model.
func (p *Path) PropagationDelay() sim.VTimeInSec {
	var d sim.VTimeInSec
	for _, link := range p.Links {
		d += link.Delay()
	}
	return d
}
