// Package iface defines the minimal seams Node, Consumer, Producer, and
// Link depend on without depending on each other's concrete packages,
// breaking what would otherwise be an import cycle (a Link needs to call
// back into whichever Node/Consumer/Producer owns its peer, and every
// entity needs to enqueue onto an outgoing Link).
package iface

import "github.com/antswarm/antndn/sim/packet"

// Iface is a forwarding interface's identity and send side. FIB/PIT/PAT
// entries in sim/table key their maps on Iface values, so any concrete
// implementation must be comparable (a pointer type, in practice only
// *link.Link).
type Iface interface {
	// Name identifies the interface for tracing and topology wiring.
	Name() string
	// Enqueue hands pkt to this interface for eventual transmission.
	Enqueue(pkt *packet.Packet)
}

// Endpoint is anything a Link can deliver an arrived packet to: Node,
// Consumer, or Producer.
type Endpoint interface {
	// Receive processes pkt that arrived on the given incoming interface.
	Receive(pkt *packet.Packet, in Iface)
}
