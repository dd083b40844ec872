package topology_test

import (
	"strings"
	"testing"

	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/link"
	"github.com/antswarm/antndn/sim/node"
	"github.com/antswarm/antndn/sim/packet"
	"github.com/antswarm/antndn/sim/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `*Vertices 3
1 "N1" 0.0 0.0 0.0 "Trondheim"
2 "N2" 0.0 0.0 0.0 "Oslo"
3 "N3" 0.0 0.0 0.0 "Bergen"
*Arcs
1 2 0.0 0.0 "a" 1 1000000.0
2 1 0.0 0.0 "b" 1 1000000.0
2 3 0.0 0.0 "c" 1 500000.0
`

func TestParseReadsVerticesAndArcs(t *testing.T) {
	topo, err := topology.Parse(strings.NewReader(fixture))
	require.NoError(t, err)

	require.Len(t, topo.Vertices, 3)
	assert.Equal(t, topology.Vertex{ID: "1", Name: "N1", Area: "Trondheim"}, topo.Vertices[0])

	require.Len(t, topo.Arcs, 3)
	assert.Equal(t, topology.Arc{From: "1", To: "2", Name: "a", RateBps: 1000000.0}, topo.Arcs[0])

	assert.ElementsMatch(t, []string{"Trondheim", "Oslo", "Bergen"}, topo.Areas())
}

func baseConfig() node.Config {
	return node.Config{Strategy: node.AntRouting, EvaporationRate: 0.05, PheromoneIncrement: 1.5}
}

func TestBuildPairsReverseArcsIntoOneBidirectionalLink(t *testing.T) {
	topo, err := topology.Parse(strings.NewReader(fixture))
	require.NoError(t, err)

	eng := engine.New(1)
	nodes, areas, err := topology.Build(eng, topo, baseConfig(), link.FIFO)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Trondheim", "Oslo", "Bergen"}, areas)

	n1, n2, n3 := nodes["N1"], nodes["N2"], nodes["N3"]
	require.NotNil(t, n1)
	require.NotNil(t, n2)
	require.NotNil(t, n3)

	require.Len(t, n1.Links(), 1)
	require.Len(t, n2.Links(), 2) // one paired with N1, one standalone to N3
	require.Len(t, n3.Links(), 0) // only N2->N3 exists; N3->N2 was never listed

	pkt := packet.New("C1", 0, 1500, "/video", 20, 1, false)
	n1.Links()[0].Enqueue(pkt)
	eng.Run(10)

	// The reverse-arc pairing actually wires delivery: N2 receives the
	// Interest over the shared link and, since its only other interface is
	// the one to N3, forwards and pins a PIT entry there.
	entry := n2.PIT.Get("/video")
	assert.NotNil(t, entry)
}
