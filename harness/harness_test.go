package harness_test

import (
	"strings"
	"testing"

	"github.com/antswarm/antndn/harness"
	"github.com/antswarm/antndn/sim/config"
	"github.com/antswarm/antndn/sim/topology"
	tu "github.com/antswarm/antndn/std/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleNodeFixture = `*Vertices
1 "N1" 0 0 0 "Area1"
*Arcs
`

func mustTopology(t *testing.T) *topology.Topology {
	t.Helper()
	tu.SetT(t)
	return tu.NoErr(topology.Parse(strings.NewReader(singleNodeFixture)))
}

func TestLaunchLinearScenarioDeliversChunkedObject(t *testing.T) {
	topo := mustTopology(t)
	cfg := config.Default()
	cfg.Mode = "flood"
	cfg.RandomSeed = 2

	scn := harness.Scenario{
		Topology: topo,
		Config:   cfg,
		Consumers: []harness.ConsumerSpec{
			{Name: "C1", NodeName: "N1", Requests: []harness.Request{{Name: "Area1/video"}}},
		},
		Producers: []harness.ProducerSpec{
			{Name: "P1", NodeName: "N1", Area: "Area1", Objects: []string{"video"}},
		},
		Until: 60,
	}

	run, err := harness.Launch(scn)
	require.NoError(t, err)
	run.Advance(scn.Until)

	c1 := run.Consumers["C1"]
	require.NotNil(t, c1)
	assert.Len(t, c1.ReceivedPackets, 11, "manifest plus 10 chunks")

	counters := run.Counters()
	assert.Equal(t, 11, counters.Retrieved)
	assert.Equal(t, 11, counters.ProducerUniqueNamesServed)
	assert.Equal(t, 11, counters.ConsumerSentCount, "the manifest request plus one content Interest per chunk")

	graph := run.StretchGraph()
	ratios := run.StretchRatios(graph)
	assert.Contains(t, ratios, "C1")
}

func TestLaunchUnknownConsumerNodeIsAnError(t *testing.T) {
	topo := mustTopology(t)
	cfg := config.Default()

	scn := harness.Scenario{
		Topology: topo,
		Config:   cfg,
		Consumers: []harness.ConsumerSpec{
			{Name: "C1", NodeName: "does-not-exist"},
		},
	}

	_, err := harness.Launch(scn)
	assert.Error(t, err)
}
