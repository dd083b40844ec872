// Package link implements the one-directional channel between two
// endpoints described by spec.md §4.3, grounded on Interface in
// components_flood.py.
package link

import (
	"math"

	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/iface"
	"github.com/antswarm/antndn/sim/packet"
	"github.com/antswarm/antndn/std/types/priority_queue"
)

// Discipline selects how a Link's transmit queue orders pending packets.
type Discipline int

const (
	// FIFO preserves insertion order (spec.md §9, Open Question: the
	// variant without a priority comparator).
	FIFO Discipline = iota
	// Priority lets Data preempt Interest, ported from Packet.__lt__'s use
	// in components_flood.py's simpy.PriorityStore-backed interfaces.
	Priority
)

// priorityKey folds (mode, id) into one int64 for the min-priority queue.
// Packet ids are non-negative, so Data keys are shifted into the negative
// half of the int64 range and Interest keys stay in the non-negative half:
// every Data key sorts before every Interest key, and within a mode the
// lower id sorts first.
func priorityKey(pkt *packet.Packet) int64 {
	if pkt.Mode == packet.Data {
		return pkt.ID + math.MinInt64
	}
	return pkt.ID
}

// Link is one half of a bidirectional channel: packets Enqueue'd here are
// transmitted, after a size/rate transmission delay, to the peer Link's
// owner (spec.md §4.3).
type Link struct {
	name       string
	eng        *engine.Engine
	owner      iface.Endpoint
	peer       *Link
	rateBps    float64
	discipline Discipline

	fifo    []*packet.Packet
	prio    priority_queue.Queue[*packet.Packet, int64]
	sending bool

	// AntWaste and ContentWaste record packets dropped at ttl<=1,
	// classified the way spec.md §4.3/§7 splits TtlExhausted accounting.
	AntWaste     []*packet.Packet
	ContentWaste []*packet.Packet
}

// New constructs a Link owned by owner, transmitting at rateBps bits per
// second under the given queue discipline. Pair it with its other half
// with Pair before any packet is enqueued; a Link that is never paired has
// no receiver, and packets sent on it are dropped once their transmission
// delay has elapsed.
func New(eng *engine.Engine, name string, owner iface.Endpoint, rateBps float64, discipline Discipline) *Link {
	l := &Link{name: name, eng: eng, owner: owner, rateBps: rateBps, discipline: discipline}
	if discipline == Priority {
		l.prio = priority_queue.New[*packet.Packet, int64]()
	}
	return l
}

// Pair wires a and b as each other's delivery peer: a packet transmitted on
// a is delivered to b's owner, and vice versa (spec.md §6: arcs (a,b)/(b,a)
// pair into the two halves of one bidirectional link).
func Pair(a, b *Link) {
	a.peer = b
	b.peer = a
}

// Name identifies the Link for logging and waste/trace accounting.
func (l *Link) Name() string { return l.name }

// Pending reports how many packets are queued for transmission.
func (l *Link) Pending() int {
	if l.discipline == Priority {
		return l.prio.Len()
	}
	return len(l.fifo)
}

// Enqueue admits pkt to the transmit queue and, if the Link was idle, kicks
// off the send loop (spec.md §4.3's five-step send() contract).
func (l *Link) Enqueue(pkt *packet.Packet) {
	if l.discipline == Priority {
		l.prio.Push(pkt, priorityKey(pkt))
	} else {
		l.fifo = append(l.fifo, pkt)
	}
	if !l.sending {
		l.sending = true
		l.eng.Schedule(l.eng.Now(), 0, "link-send:"+l.name, l.sendNext)
	}
}

func (l *Link) dequeue() *packet.Packet {
	if l.discipline == Priority {
		return l.prio.Pop()
	}
	pkt := l.fifo[0]
	l.fifo = l.fifo[1:]
	return pkt
}

// sendNext implements one pass of components_flood.py's Interface.send()
// loop: dequeue, waste-drop at ttl<=1, or suspend for the transmission
// delay, decrement ttl, and deliver to the peer.
func (l *Link) sendNext(e *engine.Engine) {
	pending := l.Pending()
	if pending == 0 {
		l.sending = false
		return
	}
	pkt := l.dequeue()
	if pkt.TTL <= 1 {
		if pkt.Ant {
			l.AntWaste = append(l.AntWaste, pkt)
		} else {
			l.ContentWaste = append(l.ContentWaste, pkt)
		}
		e.Schedule(e.Now(), 0, "link-send:"+l.name, l.sendNext)
		return
	}
	delay := float64(pkt.Size) * 8.0 / l.rateBps
	e.After(delay, 0, func(e *engine.Engine) {
		pkt.TTL--
		if l.peer != nil {
			l.peer.owner.Receive(pkt, l.peer)
		}
		l.sendNext(e)
	})
}
