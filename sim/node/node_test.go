package node_test

import (
	"testing"

	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/node"
	"github.com/antswarm/antndn/sim/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLink struct {
	name     string
	received []*packet.Packet
}

func newLink(name string) *recordingLink { return &recordingLink{name: name} }

func (l *recordingLink) Name() string              { return l.name }
func (l *recordingLink) Enqueue(pkt *packet.Packet) { l.received = append(l.received, pkt) }

func antConfig() node.Config {
	return node.Config{
		Strategy:               node.AntRouting,
		EvaporationRate:        0.05,
		PheromoneIncrement:     1.5,
		PatTimeout:             10,
		PitTimeout:             10,
		CsTimeout:              10,
		RetryOnUnusedInterface: true,
	}
}

func TestSelfOriginPacketIsIgnored(t *testing.T) {
	eng := engine.New(1)
	n := node.New(eng, "N1", "Trondheim", antConfig(), nil)
	a := newLink("a")
	n.AddLink(a)

	pkt := packet.New("N1", 0, 10, "/video", 20, 1, true)
	n.Receive(pkt, a)

	assert.False(t, n.PAT.Has(1))
	assert.Empty(t, a.received)
}

func TestAntInterestCsHitConvertsToDataWithoutPayload(t *testing.T) {
	eng := engine.New(1)
	n := node.New(eng, "N1", "Trondheim", antConfig(), nil)
	toConsumer := newLink("toConsumer")
	n.AddLink(toConsumer)
	n.CS.Put("/video", "chunk-bytes", "P01", 10)

	pkt := packet.New("C1", 0, 10, "/video", 20, 1, true)
	n.Receive(pkt, toConsumer)

	require.Len(t, toConsumer.received, 1)
	got := toConsumer.received[0]
	assert.Equal(t, packet.Data, got.Mode)
	assert.Nil(t, got.Payload, "ants never carry payload back, even on a CS hit")
	assert.False(t, n.PAT.Has(1))
}

func TestAntInterestMissPinsPatAndForwardsOnce(t *testing.T) {
	eng := engine.New(7)
	n := node.New(eng, "N1", "Trondheim", antConfig(), nil)
	a := newLink("a")
	b := newLink("b")
	n.AddLink(a)
	n.AddLink(b)

	pkt := packet.New("C1", 0, 10, "/video", 20, 1, true)
	n.Receive(pkt, a)

	assert.True(t, n.PAT.Has(1))
	assert.Equal(t, 1, len(a.received)+len(b.received))
}

func TestContentInterestNewEntryForwardsToOtherLink(t *testing.T) {
	eng := engine.New(3)
	n := node.New(eng, "N1", "Trondheim", antConfig(), nil)
	fromConsumer := newLink("fromConsumer")
	toProducer := newLink("toProducer")
	n.AddLink(fromConsumer)
	n.AddLink(toProducer)

	pkt := packet.New("C1", 0, 1500, "/video", 20, 2, false)
	n.Receive(pkt, fromConsumer)

	entry := n.PIT.Get("/video")
	require.NotNil(t, entry)
	assert.True(t, entry.HasID(2))
	assert.Empty(t, fromConsumer.received, "must never forward back on the incoming link")
	require.Len(t, toProducer.received, 1)
}

func TestContentDataReinforcesFibCachesAndFansOutPit(t *testing.T) {
	eng := engine.New(5)
	n := node.New(eng, "N1", "Trondheim", antConfig(), nil)
	fromProducer := newLink("fromProducer")
	toC1 := newLink("toC1")
	toC2 := newLink("toC2")
	n.AddLink(fromProducer)
	n.AddLink(toC1)
	n.AddLink(toC2)

	entry := n.PIT.Insert("/video", 9, toC1, 10)
	entry.AddIncoming(toC2, 10)

	pkt := packet.New("P01", 0, 1500, "/video", 20, 9, false)
	pkt.ConvertToData("P01")
	pkt.Payload = "bytes"
	n.Receive(pkt, fromProducer)

	fib := n.FIB.Get("/video")
	require.NotNil(t, fib)
	assert.Greater(t, fib.Weights[fromProducer], 1.0)

	cs := n.CS.Get("/video")
	require.NotNil(t, cs)
	assert.Equal(t, "bytes", cs.Payload)

	assert.Nil(t, n.PIT.Get("/video"), "PIT entry must be consumed on fan-out")
	require.Len(t, toC1.received, 1)
	require.Len(t, toC2.received, 1)
	assert.NotSame(t, toC1.received[0], toC2.received[0], "fan-out must deep-copy, not share, the packet")
}

func TestAntDataReinforcesFibAndReturnsViaPat(t *testing.T) {
	eng := engine.New(2)
	n := node.New(eng, "N1", "Trondheim", antConfig(), nil)
	pinned := newLink("pinned")
	other := newLink("other")
	n.AddLink(pinned)
	n.AddLink(other)
	n.PAT.Insert(4, "/video", pinned, 10)

	pkt := packet.New("N2", 0, 10, "/video", 20, 4, true)
	pkt.ConvertToData("N2")
	n.Receive(pkt, other)

	assert.False(t, n.PAT.Has(4))
	fib := n.FIB.Get("/video")
	require.NotNil(t, fib)
	assert.Greater(t, fib.Weights[other], 1.0)
	require.Len(t, pinned.received, 1)
}

func TestOrphanAntDataIsCountedAsWaste(t *testing.T) {
	eng := engine.New(9)
	n := node.New(eng, "N1", "Trondheim", antConfig(), nil)
	a := newLink("a")
	n.AddLink(a)

	pkt := packet.New("N2", 0, 10, "/video", 20, 55, true)
	pkt.ConvertToData("N2")
	n.Receive(pkt, a)

	assert.Len(t, n.Counters.Wasted, 1)
}

func TestEvaporateMovesExpiredPitEntryIntoTimeouts(t *testing.T) {
	eng := engine.New(1)
	n := node.New(eng, "N1", "Trondheim", antConfig(), nil)
	a := newLink("a")
	n.AddLink(a)
	n.PIT.Insert("/video", 1, a, 2)

	n.Evaporate() // lifetime 2 -> 1
	assert.NotNil(t, n.PIT.Get("/video"))

	n.Evaporate() // lifetime 1 < 2 -> link dropped, entry emptied into timeouts
	assert.Nil(t, n.PIT.Get("/video"))

	// A late Data arrival for that name is now classified as timeout-waste,
	// not unsolicited waste.
	producer := newLink("producer")
	n.AddLink(producer)
	pkt := packet.New("P01", 0, 1500, "/video", 20, 1, false)
	pkt.ConvertToData("P01")
	n.Receive(pkt, producer)
	assert.Len(t, n.Counters.TimeoutData, 1)
	assert.Empty(t, n.Counters.Wasted)
}

func TestFloodStrategyFansOutToEveryOtherLinkOnNewInterest(t *testing.T) {
	cfg := antConfig()
	cfg.Strategy = node.Flood
	eng := engine.New(4)
	n := node.New(eng, "N1", "Trondheim", cfg, nil)
	in := newLink("in")
	out1 := newLink("out1")
	out2 := newLink("out2")
	n.AddLink(in)
	n.AddLink(out1)
	n.AddLink(out2)

	pkt := packet.New("C1", 0, 1500, "/video", 20, 3, false)
	n.Receive(pkt, in)

	require.Len(t, out1.received, 1)
	require.Len(t, out2.received, 1)
	assert.Empty(t, in.received)
}
