// Package stretch computes the stretch-ratio metric spec.md §6 defines:
// stretch = (defaultTTL - remainingTTL) / shortestPath(consumer, producer).
// The forwarding core never imports this package — computing a graph's
// shortest path is explicitly out of scope for it (spec.md §1: "a graph
// oracle ... is assumed, not implemented, by the core"); this is the
// reference oracle a harness/test wires in.
package stretch

import "github.com/antswarm/antndn/sim/packet"

// Oracle answers shortest-path queries over the topology graph, by node
// name, in hop count.
type Oracle interface {
	// ShortestPath returns the hop count of the shortest path from src to
	// dst, and false if no path exists.
	ShortestPath(src, dst string) (int, bool)
}

// Graph is a reference Oracle: an adjacency list built directly from a set
// of (a, b) edges, answering ShortestPath with an unweighted BFS. This is
// not wired into the forwarding core; it exists for harness/tests that
// need a concrete Oracle.
type Graph struct {
	adj map[string][]string
}

// NewGraph builds a Graph from an edge list. Edges are treated as
// undirected, matching a Link's bidirectional Pair.
func NewGraph(edges [][2]string) *Graph {
	g := &Graph{adj: make(map[string][]string)}
	for _, e := range edges {
		g.addEdge(e[0], e[1])
		g.addEdge(e[1], e[0])
	}
	return g
}

func (g *Graph) addEdge(from, to string) {
	for _, existing := range g.adj[from] {
		if existing == to {
			return
		}
	}
	g.adj[from] = append(g.adj[from], to)
}

// ShortestPath implements Oracle with a breadth-first search.
func (g *Graph) ShortestPath(src, dst string) (int, bool) {
	if src == dst {
		return 0, true
	}
	visited := map[string]bool{src: true}
	frontier := []string{src}
	dist := 0
	for len(frontier) > 0 {
		dist++
		var next []string
		for _, n := range frontier {
			for _, neighbor := range g.adj[n] {
				if visited[neighbor] {
					continue
				}
				if neighbor == dst {
					return dist, true
				}
				visited[neighbor] = true
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return 0, false
}

var _ Oracle = (*Graph)(nil)

// Ratio computes spec.md §6's stretch-ratio for one received Data packet:
// (defaultTTL - remainingTTL) / shortestPath(consumer, producer). Returns
// false if the Oracle reports no path (stretch is undefined in that case).
func Ratio(pkt *packet.Packet, consumer, producer string, oracle Oracle) (float64, bool) {
	hops, ok := oracle.ShortestPath(consumer, producer)
	if !ok || hops == 0 {
		return 0, false
	}
	return float64(pkt.DefaultTTL-pkt.TTL) / float64(hops), true
}
