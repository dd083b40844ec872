// Package node implements the forwarding engine: classification of inbound
// packets against the four (mode, ant) classes, the PAT/PIT/FIB/CS table
// operations each class triggers, the stochastic forwardEngine, and the
// evaporation and prepare background tasks (spec.md §4.4). Grounded on
// Node.run()/forward_engine()/domain_matching()/evaporate()/prepare() in
// components_flood.py.
package node

import (
	"math"

	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/iface"
	"github.com/antswarm/antndn/sim/packet"
	"github.com/antswarm/antndn/sim/table"
	"github.com/antswarm/antndn/std/log"
)

// Strategy selects a Node's forwarding behavior.
type Strategy int

const (
	// AntRouting forwards stochastically using reinforced FIB weights.
	AntRouting Strategy = iota
	// Flood duplicates every new content Interest onto every other link.
	Flood
)

// String renders the Strategy for logging.
func (s Strategy) String() string {
	if s == Flood {
		return "flood"
	}
	return "ant"
}

const (
	prepareContentSize = 10
	prepareTTL         = 50
	prepareInterval    = 0.01
)

// Config bundles the per-Node knobs sim/config loads from the experiment's
// YAML file (spec.md §6).
type Config struct {
	Strategy Strategy

	EvaporationRate    float64
	PheromoneIncrement float64

	PatTimeout int
	PitTimeout int
	CsTimeout  int

	// RetryOnUnusedInterface governs a duplicate content Interest arriving
	// at a Node whose PIT already holds it: true attempts to forward it on
	// a link this name hasn't already used, false drops it outright
	// (spec.md §9, Open Question — "some variants allow ... others drop").
	// Flood-mode always suppresses duplicates regardless of this flag.
	RetryOnUnusedInterface bool

	// PrepareEnabled turns on ant-mode area-seeding at startup (spec.md
	// §4.4.3); meaningless when Strategy is Flood.
	PrepareEnabled bool

	// CsMaxEntries bounds the Content Store's size; 0 (the grounded
	// default) leaves it unbounded, matching components_flood.py, which has
	// no eviction policy at all (spec.md §9, Open Question).
	CsMaxEntries int
}

// Counters tallies the non-fatal error classes spec.md §7 defines as a
// Node's user-visible failure surface: TtlExhausted is tracked by Link, not
// here; Node tracks OrphanData (split into Wasted/TimeoutData) and
// InterestLoop (InterestDrop). UnknownPacketClass cannot occur here: Mode
// and Ant together are an exhaustive, typed four-way split, so Receive's
// switch has no default branch to fall into.
type Counters struct {
	Wasted       []*packet.Packet
	TimeoutData  []*packet.Packet
	InterestDrop []*packet.Packet
	Served       int
}

// Node is the forwarding engine described by spec.md §4.4.
type Node struct {
	Name string
	Area string

	cfg      Config
	eng      *engine.Engine
	links    []iface.Iface
	allAreas []string

	FIB *table.FIB
	PIT *table.PIT
	PAT *table.PAT
	CS  *table.CS

	nextID   int64
	timeouts map[string]struct{}

	Counters Counters
}

// New constructs a Node preloaded with a self-advertisement CS entry for its
// own area (spec.md §3: "A Node preloads one self-entry keyed by its own
// area tag to advertise locality"). allAreas is the full set of area tags
// known to the topology, used by Start's prepare task (SPEC_FULL item 1
// generalizes the original's hard-coded Norwegian region list to this).
func New(eng *engine.Engine, name, area string, cfg Config, allAreas []string) *Node {
	n := &Node{
		Name:     name,
		Area:     area,
		cfg:      cfg,
		eng:      eng,
		allAreas: allAreas,
		FIB:      table.NewFIB(),
		PIT:      table.NewPIT(),
		PAT:      table.NewPAT(),
		CS:       table.NewCS(),
		nextID:   eng.Rand().Int63(),
		timeouts: make(map[string]struct{}),
	}
	n.CS.MaxEntries = cfg.CsMaxEntries
	n.CS.PutSelf(area, name)
	return n
}

// String renders the Node for log entity fields.
func (n *Node) String() string { return n.Name }

// AddLink wires l as one of this Node's interfaces. A duplicate add is
// logged and ignored rather than failing construction, matching
// components_flood.py's add_interface print-and-continue behavior
// (spec.md §7: DuplicateInterface is a classified, non-fatal wiring error).
func (n *Node) AddLink(l iface.Iface) {
	for _, existing := range n.links {
		if existing == l {
			log.Warn(n, "interface already exists", "iface", l.Name())
			return
		}
	}
	n.links = append(n.links, l)
}

// Links returns the Node's wired interfaces in the stable order they were
// added, the same order forwardEngine's roulette draw walks.
func (n *Node) Links() []iface.Iface { return n.links }

// Start schedules the Node's background tasks: the evaporation loop always,
// and ant-mode area-seeding when configured.
func (n *Node) Start() {
	n.scheduleEvaporate()
	if n.cfg.PrepareEnabled && n.cfg.Strategy == AntRouting {
		n.schedulePrepare()
	}
}

func (n *Node) allocID() int64 {
	id := n.nextID
	n.nextID++
	return id
}

// Receive implements iface.Endpoint. pkt arrives tagged with the interface
// it came in on; classification is on (mode, ant) per spec.md §4.4.
func (n *Node) Receive(pkt *packet.Packet, in iface.Iface) {
	if pkt.Creator == n.Name {
		return // self-origin suppression: a co-located Producer's own packet
	}
	switch {
	case pkt.Mode == packet.Interest && pkt.Ant:
		n.handleAntInterest(pkt, in)
	case pkt.Mode == packet.Interest && !pkt.Ant:
		n.handleContentInterest(pkt, in)
	case pkt.Mode == packet.Data && pkt.Ant:
		n.handleAntData(pkt, in)
	case pkt.Mode == packet.Data && !pkt.Ant:
		n.handleContentData(pkt, in)
	}
}

// handleAntInterest is class (a): Interest & ant.
func (n *Node) handleAntInterest(pkt *packet.Packet, in iface.Iface) {
	if cs := n.CS.Get(pkt.Name); cs != nil {
		pkt.ConvertToData(pkt.Creator)
		cs.Lifetime = n.cfg.CsTimeout
		in.Enqueue(pkt)
		return
	}
	if !n.PAT.Has(pkt.ID) {
		n.PAT.Insert(pkt.ID, pkt.Name, in, n.cfg.PatTimeout)
	}
	n.forwardEngine(pkt).Enqueue(pkt)
}

// handleContentInterest is class (b): Interest & content.
func (n *Node) handleContentInterest(pkt *packet.Packet, in iface.Iface) {
	if cs := n.CS.Get(pkt.Name); cs != nil {
		pkt.Payload = cs.Payload
		pkt.AppendHop(n.Name, n.eng.Now())
		pkt.ConvertToData(cs.Producer)
		cs.Lifetime = n.cfg.CsTimeout
		in.Enqueue(pkt)
		return
	}
	if n.cfg.Strategy == Flood {
		n.handleContentInterestFlood(pkt, in)
		return
	}
	n.handleContentInterestAnt(pkt, in)
}

func (n *Node) handleContentInterestAnt(pkt *packet.Packet, in iface.Iface) {
	entry := n.PIT.Get(pkt.Name)
	if entry == nil {
		n.PIT.Insert(pkt.Name, pkt.ID, in, n.cfg.PitTimeout)
		out, ok := n.forwardExcluding(pkt, []iface.Iface{in})
		if !ok {
			n.Counters.InterestDrop = append(n.Counters.InterestDrop, pkt)
			return
		}
		out.Enqueue(pkt)
		return
	}
	if !entry.HasID(pkt.ID) {
		entry.AddID(pkt.ID)
		entry.AddIncoming(in, n.cfg.PitTimeout)
		return
	}
	// Retry of an id already pending here: this is InterestLoop territory.
	if !n.cfg.RetryOnUnusedInterface {
		n.Counters.InterestDrop = append(n.Counters.InterestDrop, pkt)
		return
	}
	if _, ok := entry.Incoming[in]; !ok {
		entry.AddIncoming(in, n.cfg.PitTimeout)
	}
	used := entry.IncomingLinks()
	if len(used) >= len(n.links) {
		n.Counters.InterestDrop = append(n.Counters.InterestDrop, pkt)
		return
	}
	out, ok := n.forwardExcluding(pkt, used)
	if !ok {
		n.Counters.InterestDrop = append(n.Counters.InterestDrop, pkt)
		return
	}
	out.Enqueue(pkt)
}

const maxForwardAttempts = 32

// forwardExcluding draws an outgoing link via forwardEngine, retrying until
// it lands on a link outside exclude. forwardEngine draws over every link,
// excluded ones included, so a draw may land on an excluded link and be
// retried; a capped retry count with a deterministic linear-scan fallback keeps
// this from spinning forever in the degenerate case where every link not
// in exclude happens to carry zero weight, which components_flood.py's
// unbounded `while out_iface is iface` loop does not guard against.
func (n *Node) forwardExcluding(pkt *packet.Packet, exclude []iface.Iface) (iface.Iface, bool) {
	for i := 0; i < maxForwardAttempts; i++ {
		out := n.forwardEngine(pkt)
		if !containsLink(exclude, out) {
			return out, true
		}
	}
	for _, l := range n.links {
		if !containsLink(exclude, l) {
			return l, true
		}
	}
	return nil, false
}

func (n *Node) handleContentInterestFlood(pkt *packet.Packet, in iface.Iface) {
	entry := n.PIT.Get(pkt.Name)
	if entry == nil {
		n.PIT.Insert(pkt.Name, pkt.ID, in, n.cfg.PitTimeout)
		for _, out := range n.links {
			if out == in {
				continue
			}
			out.Enqueue(pkt.Clone())
		}
		return
	}
	if !entry.HasID(pkt.ID) {
		entry.AddID(pkt.ID)
	}
	entry.AddIncoming(in, n.cfg.PitTimeout)
}

// handleAntData is class (c): Data & ant.
func (n *Node) handleAntData(pkt *packet.Packet, in iface.Iface) {
	if !n.PAT.Has(pkt.ID) {
		n.Counters.Wasted = append(n.Counters.Wasted, pkt) // orphan ant Data
		return
	}
	n.FIB.Reinforce(pkt.Name, in, n.cfg.PheromoneIncrement, n.links)
	entry := n.PAT.Pop(pkt.ID)
	entry.Incoming.Enqueue(pkt)
}

var _ iface.Endpoint = (*Node)(nil)

// handleContentData is class (d): Data & content.
func (n *Node) handleContentData(pkt *packet.Packet, in iface.Iface) {
	if n.cfg.Strategy == AntRouting {
		n.FIB.Reinforce(pkt.Name, in, n.cfg.PheromoneIncrement, n.links)
	}
	if cs := n.CS.Get(pkt.Name); cs != nil {
		cs.Lifetime = n.cfg.CsTimeout
	} else {
		n.CS.Put(pkt.Name, pkt.Payload, pkt.Creator, n.cfg.CsTimeout)
	}
	entry := n.PIT.Pop(pkt.Name)
	if entry == nil {
		if _, ok := n.timeouts[pkt.Name]; ok {
			n.Counters.TimeoutData = append(n.Counters.TimeoutData, pkt)
		} else {
			n.Counters.Wasted = append(n.Counters.Wasted, pkt)
		}
		return
	}
	pkt.AppendHop(n.Name, n.eng.Now())
	n.Counters.Served++
	for _, out := range entry.IncomingLinks() {
		out.Enqueue(pkt.Clone())
	}
}

// forwardEngine is spec.md §4.4.1's stochastic interface selector: exact
// FIB match uses power 1.5 (ant) / 2 (content); domain-prefix partial match
// sums weights per link across every matching entry with power 1; no match
// at all uniformly picks a link.
func (n *Node) forwardEngine(pkt *packet.Packet) iface.Iface {
	matches := n.FIB.DomainMatching(pkt.Name)
	if len(matches) > 0 {
		if exact := n.FIB.Get(pkt.Name); exact != nil {
			power := 2.0
			if pkt.Ant {
				power = 1.5
			}
			if out, ok := n.rouletteSelect(exact.Weights, power); ok {
				return out
			}
		} else if out, ok := n.rouletteSelect(n.domainWeights(matches), 1); ok {
			return out
		}
	}
	return n.links[n.eng.Rand().Intn(len(n.links))]
}

// domainWeights sums per-link pheromone across every domain-matching FIB
// entry, initializing every Node link to 0 first (spec.md §4.4.1).
func (n *Node) domainWeights(matches []*table.FibEntry) map[iface.Iface]float64 {
	sums := make(map[iface.Iface]float64, len(n.links))
	for _, l := range n.links {
		sums[l] = 0
	}
	for _, entry := range matches {
		for l, w := range entry.Weights {
			sums[l] += w
		}
	}
	return sums
}

// rouletteSelect draws a link with probability proportional to
// weights[l]^power, iterating n.links in their stable add-order rather
// than map order — Go map iteration order is randomized per process, and
// walking it here would silently break the "same seed reproduces the same
// event sequence" replay guarantee spec.md §9 requires.
func (n *Node) rouletteSelect(weights map[iface.Iface]float64, power float64) (iface.Iface, bool) {
	total := 0.0
	for _, l := range n.links {
		total += math.Pow(weights[l], power)
	}
	if total <= 0 {
		return nil, false
	}
	r := n.eng.Rand().Uniform(0, total)
	for _, l := range n.links {
		r -= math.Pow(weights[l], power)
		if r < 0 {
			return l, true
		}
	}
	return n.links[len(n.links)-1], true // floating-point remainder
}

func containsLink(links []iface.Iface, target iface.Iface) bool {
	for _, l := range links {
		if l == target {
			return true
		}
	}
	return false
}

// scheduleEvaporate runs spec.md §4.4.2's aging pass at exponentially
// distributed intervals (mean 1 time unit), matching
// components_flood.py's functools.partial(random.expovariate, 1.0).
func (n *Node) scheduleEvaporate() {
	var step engine.Callback
	step = func(e *engine.Engine) {
		n.Evaporate()
		e.After(e.Rand().Expovariate(1.0), 0, step)
	}
	n.eng.After(n.eng.Rand().Expovariate(1.0), 0, step)
}

// Evaporate runs one aging pass over FIB, PAT, PIT, and CS (spec.md §4.4.2).
// Exposed directly (rather than only reachable through the scheduled
// background task) so callers driving the engine step-by-step, such as
// tests, can trigger a pass deterministically.
func (n *Node) Evaporate() {
	n.FIB.Evaporate(n.cfg.EvaporationRate)
	n.PAT.Evaporate()
	for _, entry := range n.PIT.Evaporate() {
		n.timeouts[entry.Name] = struct{}{}
	}
	n.CS.Evaporate()
}

// schedulePrepare emits one ant Interest per known area (excluding this
// Node's own) on every interface, spaced by prepareInterval, seeding initial
// pheromone gradients before real consumer traffic arrives (spec.md
// §4.4.3). allAreas is generalized from the topology rather than a
// hard-coded region list (SPEC_FULL item 1).
func (n *Node) schedulePrepare() {
	idx := 0
	var step engine.Callback
	step = func(e *engine.Engine) {
		for idx < len(n.allAreas) && n.allAreas[idx] == n.Area {
			idx++
		}
		if idx >= len(n.allAreas) {
			return
		}
		area := n.allAreas[idx]
		idx++
		for _, l := range n.links {
			pkt := packet.New(n.Name, e.Now(), prepareContentSize, area, prepareTTL, n.allocID(), true)
			l.Enqueue(pkt)
		}
		e.After(prepareInterval, 0, step)
	}
	n.eng.After(prepareInterval, 0, step)
}
