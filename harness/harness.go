// Package harness wires a Topology, a Config, and a set of Consumer/Producer
// endpoint placements into a single runnable experiment, the collaborator
// contract spec.md §2/§6 describes as "not part of the core": it builds the
// graph, attaches endpoints, launches the run, and reads back per-run
// counters. Grounded on scenario_uninett.py's driver script, which performs
// the same sequence of steps imperatively for one hard-coded topology.
package harness

import (
	"fmt"

	"github.com/antswarm/antndn/sim/config"
	"github.com/antswarm/antndn/sim/consumer"
	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/iface"
	"github.com/antswarm/antndn/sim/link"
	"github.com/antswarm/antndn/sim/monitor"
	"github.com/antswarm/antndn/sim/node"
	"github.com/antswarm/antndn/sim/producer"
	"github.com/antswarm/antndn/sim/stretch"
	"github.com/antswarm/antndn/sim/topology"
)

// accessLinkRateBps is the rate every Consumer/Producer access link uses,
// matching components_flood.py's Interface default (`rate=100000000.0`);
// topology arcs instead carry their own rate read from the Pajek file.
const accessLinkRateBps = 1e8

// Request is one scheduled Consumer.Request call: name to request, after
// Delay virtual seconds beyond the Consumer's StartDelay.
type Request struct {
	Name  string
	Delay float64
}

// ConsumerSpec places one Consumer on a topology Node and gives it a
// schedule of Requests to issue.
type ConsumerSpec struct {
	Name     string
	NodeName string
	Requests []Request
}

// ProducerSpec places one Producer on a topology Node, serving Objects
// (SPEC_FULL item 5: a topology MAY name several ProducerSpecs at the same
// area, left to forwardEngine's stochastic resolution).
type ProducerSpec struct {
	Name     string
	NodeName string
	Area     string
	Objects  []string
}

// Scenario is everything Launch needs to build one run.
type Scenario struct {
	Topology  *topology.Topology
	Config    *config.Config
	Consumers []ConsumerSpec
	Producers []ProducerSpec
	// Until is the virtual-time horizon Advance/Run stops at.
	Until float64
}

// Counters is the per-run collaborator-contract summary spec.md §6 lists:
// {retrieved, wasted, timeout, interest-drop, producer-unique-names-served,
// consumer-sent-count}.
type Counters struct {
	Retrieved                 int
	Wasted                    int
	Timeout                   int
	InterestDrop              int
	ProducerUniqueNamesServed int
	ConsumerSentCount         int
}

// Run is a fully wired, launched experiment: the live graph plus every
// endpoint attached to it, ready to Advance to a horizon and read back.
type Run struct {
	Engine *engine.Engine

	Nodes     map[string]*node.Node
	NodeOrder []string
	Areas     []string
	Consumers map[string]*consumer.Consumer
	Producers map[string]*producer.Producer
	Monitor   *monitor.NodeMonitor

	topo      *topology.Topology
	consumers []ConsumerSpec
	producers []ProducerSpec
}

// Launch builds the graph, attaches every Consumer/Producer, starts every
// Node's forwarding/evaporation/prepare tasks and the NodeMonitor, and
// schedules every Consumer's initial Request. It does not advance the
// clock; call Advance (or Run.Engine.Run) to actually execute the
// experiment.
func Launch(scn Scenario) (*Run, error) {
	eng := engine.New(scn.Config.RandomSeed)

	nodes, areas, err := topology.Build(eng, scn.Topology, scn.Config.NodeConfig(), scn.Config.Discipline())
	if err != nil {
		return nil, fmt.Errorf("harness: build topology: %w", err)
	}

	nodeOrder := make([]string, 0, len(scn.Topology.Vertices))
	nodeList := make([]*node.Node, 0, len(scn.Topology.Vertices))
	for _, v := range scn.Topology.Vertices {
		n, ok := nodes[v.Name]
		if !ok {
			continue
		}
		nodeOrder = append(nodeOrder, v.Name)
		nodeList = append(nodeList, n)
	}

	consumers := make(map[string]*consumer.Consumer, len(scn.Consumers))
	for _, cs := range scn.Consumers {
		n, ok := nodes[cs.NodeName]
		if !ok {
			return nil, fmt.Errorf("harness: consumer %s: unknown node %s", cs.Name, cs.NodeName)
		}
		c := consumer.New(eng, cs.Name, scn.Config.ConsumerConfig())
		attach(eng, cs.Name, n, c, scn.Config.Discipline())
		consumers[cs.Name] = c
	}

	producers := make(map[string]*producer.Producer, len(scn.Producers))
	for _, ps := range scn.Producers {
		n, ok := nodes[ps.NodeName]
		if !ok {
			return nil, fmt.Errorf("harness: producer %s: unknown node %s", ps.Name, ps.NodeName)
		}
		p := producer.New(eng, ps.Name, ps.Area, ps.Objects)
		attach(eng, ps.Name, n, p, scn.Config.Discipline())
		producers[ps.Name] = p
	}

	for _, n := range nodeList {
		n.Start()
	}

	mon := monitor.New(eng, nodeList)
	mon.Start()

	for _, cs := range scn.Consumers {
		c := consumers[cs.Name]
		for _, req := range cs.Requests {
			c.Request(req.Name, req.Delay)
		}
	}

	return &Run{
		Engine:    eng,
		Nodes:     nodes,
		NodeOrder: nodeOrder,
		Areas:     areas,
		Consumers: consumers,
		Producers: producers,
		Monitor:   mon,
		topo:      scn.Topology,
		consumers: scn.Consumers,
		producers: scn.Producers,
	}, nil
}

// Advance runs the scheduler forward to the virtual-time horizon until.
func (r *Run) Advance(until float64) {
	r.Engine.Run(until)
}

// linkSetter is implemented by Consumer, whose single access interface is
// wired after construction; Producer has no equivalent because it never
// initiates traffic of its own.
type linkSetter interface {
	SetLink(iface.Iface)
}

// attach wires a Consumer or Producer to a Node with a fresh bidirectional
// access link, the same pattern scenario_uninett.py's driver repeats for
// every consumer/producer it creates: a pair of Interfaces, one per
// direction, added to each side as the other's out_iface.
func attach(eng *engine.Engine, name string, n *node.Node, owner iface.Endpoint, discipline link.Discipline) {
	toNode := link.New(eng, name+"-"+n.Name, owner, accessLinkRateBps, discipline)
	toOwner := link.New(eng, n.Name+"-"+name, n, accessLinkRateBps, discipline)
	link.Pair(toNode, toOwner)
	n.AddLink(toOwner)
	if setter, ok := owner.(linkSetter); ok {
		setter.SetLink(toNode)
	}
}

// Counters reads back the collaborator-contract summary across every
// Consumer, Node, and Producer in the run.
func (r *Run) Counters() Counters {
	var c Counters
	for _, cons := range r.Consumers {
		c.Retrieved += len(cons.ReceivedPackets)
		c.Wasted += len(cons.Wasted)
		c.ConsumerSentCount += len(cons.Sent)
	}
	for _, n := range r.Nodes {
		c.Wasted += len(n.Counters.Wasted)
		c.Timeout += len(n.Counters.TimeoutData)
		c.InterestDrop += len(n.Counters.InterestDrop)
	}
	for _, p := range r.Producers {
		c.ProducerUniqueNamesServed += len(p.Received)
	}
	return c
}

// StretchGraph builds the shortest-path Oracle spec.md §6's stretch-ratio
// metric needs, over the topology's Nodes plus every attached Consumer and
// Producer as extra leaf vertices, so a consumer/producer pair's shortest
// path includes their access-link hop.
func (r *Run) StretchGraph() *stretch.Graph {
	idToName := make(map[string]string, len(r.topo.Vertices))
	for _, v := range r.topo.Vertices {
		idToName[v.ID] = v.Name
	}

	edges := make([][2]string, 0, len(r.topo.Arcs)+len(r.consumers)+len(r.producers))
	for _, a := range r.topo.Arcs {
		edges = append(edges, [2]string{idToName[a.From], idToName[a.To]})
	}
	for _, cs := range r.consumers {
		edges = append(edges, [2]string{cs.Name, cs.NodeName})
	}
	for _, ps := range r.producers {
		edges = append(edges, [2]string{ps.Name, ps.NodeName})
	}
	return stretch.NewGraph(edges)
}

// StretchRatios computes spec.md §6's per-received-content stretch ratio
// for every Consumer, keyed by consumer name then content name.
func (r *Run) StretchRatios(oracle stretch.Oracle) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(r.Consumers))
	for cname, c := range r.Consumers {
		perName := make(map[string]float64, len(c.ReceivedPackets))
		for name, rec := range c.ReceivedPackets {
			ratio, ok := stretch.Ratio(rec.Packet, cname, rec.Packet.Creator, oracle)
			if !ok {
				continue
			}
			perName[name] = ratio
		}
		out[cname] = perName
	}
	return out
}
