// Package topology loads a Pajek-format graph file and wires it into a
// live Node/Link graph, grounded on importTopology in scenario_uninett.py:
// `*Vertices` rows become Nodes, `*Arcs` rows become Links, and a reverse
// arc already seen pairs into the existing Link's other half instead of
// creating a fresh one.
package topology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/link"
	"github.com/antswarm/antndn/sim/node"
)

// Vertex is one `*Vertices` row: Pajek numeric id, display name, area tag.
type Vertex struct {
	ID   string
	Name string
	Area string
}

// Arc is one `*Arcs` row: a directed half of a bidirectional link.
type Arc struct {
	From, To string
	Name     string
	RateBps  float64
}

// Topology is a parsed, not-yet-wired Pajek graph.
type Topology struct {
	Vertices []Vertex
	Arcs     []Arc
}

// Areas returns every distinct Area tag across Vertices, in first-seen
// order, generalizing the original's hard-coded Norwegian region list into
// the actual set a topology file names (SPEC_FULL item 1).
func (t *Topology) Areas() []string {
	seen := make(map[string]struct{}, len(t.Vertices))
	var areas []string
	for _, v := range t.Vertices {
		if _, ok := seen[v.Area]; ok {
			continue
		}
		seen[v.Area] = struct{}{}
		areas = append(areas, v.Area)
	}
	return areas
}

// Source supplies the raw Pajek text a Topology is parsed from, letting a
// harness load from a file path, an embedded fixture, or any other
// io.ReadCloser source without sim/topology depending on how it got there.
type Source interface {
	Open() (io.ReadCloser, error)
}

// FileSource opens a Pajek file at a filesystem path.
type FileSource string

// Open implements Source.
func (f FileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// Load reads and parses a Topology from src.
func Load(src Source) (*Topology, error) {
	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r)
}

// Parse reads a Pajek-format topology: a `*Vertices` section (id, quoted
// name at word 2, quoted area at word 6) followed by an `*Arcs` section
// (src id, dst id, ..., link name at word 5, rate at word 7), matching the
// exact field layout importTopology reads.
func Parse(r io.Reader) (*Topology, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("topology: read: %w", err)
	}

	i := 0
	for i < len(lines) && !strings.Contains(lines[i], "*Vertices") {
		i++
	}
	if i >= len(lines) {
		return nil, fmt.Errorf("topology: no *Vertices section found")
	}

	var vertices []Vertex
	i++
	for i < len(lines) && !strings.Contains(lines[i], "*Arcs") {
		words := strings.Fields(lines[i])
		i++
		if len(words) < 6 {
			continue
		}
		vertices = append(vertices, Vertex{
			ID:   words[0],
			Name: strings.Trim(words[1], `"`),
			Area: strings.Trim(words[5], `"`),
		})
	}
	if i >= len(lines) {
		return nil, fmt.Errorf("topology: no *Arcs section found")
	}
	i++ // skip the *Arcs header line itself

	var arcs []Arc
	for i < len(lines) {
		words := strings.Fields(lines[i])
		i++
		if len(words) < 7 {
			continue
		}
		rate, err := strconv.ParseFloat(words[6], 64)
		if err != nil {
			return nil, fmt.Errorf("topology: bad rate %q: %w", words[6], err)
		}
		arcs = append(arcs, Arc{
			From:    words[0],
			To:      words[1],
			Name:    strings.Trim(words[4], `"`),
			RateBps: rate,
		})
	}
	return &Topology{Vertices: vertices, Arcs: arcs}, nil
}

// Build wires a parsed Topology into a live graph: one *node.Node per
// Vertex (seeded with every Area the topology names, for Node.Start's
// prepare task) and one *link.Link per Arc, paired with its reverse arc's
// Link when one has already been created — importTopology's `if tupl in
// interfaces` branch. An Arc whose reverse arc never appears stays
// unpaired, and packets sent on it reach no Node. Returns the Nodes keyed
// by their display Name.
func Build(eng *engine.Engine, topo *Topology, cfg node.Config, discipline link.Discipline) (map[string]*node.Node, []string, error) {
	areas := topo.Areas()
	byID := make(map[string]*node.Node, len(topo.Vertices))
	byName := make(map[string]*node.Node, len(topo.Vertices))
	for _, v := range topo.Vertices {
		n := node.New(eng, v.Name, v.Area, cfg, areas)
		byID[v.ID] = n
		byName[v.Name] = n
	}

	type pairKey struct{ from, to string }
	links := make(map[pairKey]*link.Link, len(topo.Arcs))
	for _, a := range topo.Arcs {
		owner, ok := byID[a.From]
		if !ok {
			return nil, nil, fmt.Errorf("topology: arc references unknown vertex id %q", a.From)
		}
		if _, ok := byID[a.To]; !ok {
			return nil, nil, fmt.Errorf("topology: arc references unknown vertex id %q", a.To)
		}
		l := link.New(eng, a.Name, owner, a.RateBps, discipline)
		if peer, ok := links[pairKey{a.To, a.From}]; ok {
			link.Pair(l, peer)
		}
		owner.AddLink(l)
		links[pairKey{a.From, a.To}] = l
	}
	return byName, areas, nil
}
