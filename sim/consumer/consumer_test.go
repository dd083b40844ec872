package consumer_test

import (
	"testing"

	"github.com/antswarm/antndn/sim/consumer"
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

func (l *recordingLink) Name() string              { return l.name }
func (l *recordingLink) Enqueue(pkt *packet.Packet) { l.received = append(l.received, pkt) }

func antConfig() consumer.Config {
	return consumer.Config{
		Strategy:              node.AntRouting,
		AntBurstSize:          3,
		AntBurstInterval:      0.1,
		DefaultTTL:            20,
		ChunkBurstSettleDelay: 1,
	}
}

func TestRequestAntModeSendsBurstThenContentInterest(t *testing.T) {
	eng := engine.New(1)
	c := consumer.New(eng, "C1", antConfig())
	link := &recordingLink{name: "toNetwork"}
	c.SetLink(link)

	c.Request("/video", 0)
	eng.Run(10)

	require.Len(t, link.received, 4) // 3 ants + 1 content Interest
	for _, p := range link.received[:3] {
		assert.True(t, p.Ant)
		assert.Equal(t, packet.Interest, p.Mode)
	}
	last := link.received[3]
	assert.False(t, last.Ant)
	assert.Equal(t, "/video", last.Name)
}

func TestRequestFloodModeSkipsAntBurst(t *testing.T) {
	cfg := antConfig()
	cfg.Strategy = node.Flood
	eng := engine.New(2)
	c := consumer.New(eng, "C1", cfg)
	link := &recordingLink{name: "toNetwork"}
	c.SetLink(link)

	c.Request("/video", 0)
	eng.Run(10)

	require.Len(t, link.received, 1)
	assert.False(t, link.received[0].Ant)
}

func TestReceiveInterestBoomerangsBackOnSameLink(t *testing.T) {
	eng := engine.New(1)
	c := consumer.New(eng, "C1", antConfig())
	link := &recordingLink{name: "toNetwork"}
	c.SetLink(link)

	pkt := packet.New("C1", 0, 60, "/video", 20, 1, true)
	c.Receive(pkt, link)

	require.Len(t, link.received, 1)
	assert.Same(t, pkt, link.received[0])
	assert.Empty(t, c.ReceivedPackets)
}

func TestReceiveDataRecordsRttAndAppendsTrail(t *testing.T) {
	eng := engine.New(1)
	c := consumer.New(eng, "C1", antConfig())
	link := &recordingLink{name: "toNetwork"}
	c.SetLink(link)
	eng.Run(3) // advance the virtual clock with no events pending

	pkt := packet.New("P1", 0, 1500, "/video", 20, 5, false)
	pkt.ConvertToData("P1")
	pkt.Payload = "bytes"
	c.Receive(pkt, link)

	rec, ok := c.ReceivedPackets["/video"]
	require.True(t, ok)
	assert.Equal(t, 3.0, rec.RTT)
	require.Len(t, rec.Packet.Trail, 1)
	assert.Equal(t, "C1", rec.Packet.Trail[0].Node)
}

func TestReceiveDuplicateDataIsWasted(t *testing.T) {
	eng := engine.New(1)
	c := consumer.New(eng, "C1", antConfig())
	link := &recordingLink{name: "toNetwork"}
	c.SetLink(link)

	first := packet.New("P1", 0, 1500, "/video", 20, 5, false)
	first.ConvertToData("P1")
	first.Payload = "bytes"
	c.Receive(first, link)

	second := packet.New("P1", 0, 1500, "/video", 20, 6, false)
	second.ConvertToData("P1")
	second.Payload = "bytes"
	c.Receive(second, link)

	assert.Len(t, c.Wasted, 1)
	assert.Len(t, c.ReceivedLog, 2)
}

func TestReceiveChunkManifestTriggersPerChunkRequests(t *testing.T) {
	cfg := antConfig()
	cfg.AntBurstSize = 1
	eng := engine.New(4)
	c := consumer.New(eng, "C1", cfg)
	link := &recordingLink{name: "toNetwork"}
	c.SetLink(link)

	manifest := packet.New("P1", 0, 1500, "/video", 20, 1, false)
	manifest.ConvertToData("P1")
	manifest.Payload = []string{"/video/01", "/video/02"}
	c.Receive(manifest, link)

	require.Contains(t, c.ReceivedPackets, "/video")
	eng.Run(20)

	// Each chunk gets its own ant-burst(1) + content Interest.
	require.Len(t, link.received, 4)
	assert.Equal(t, "/video/01", link.received[0].Name)
	assert.Equal(t, "/video/01", link.received[1].Name)
	assert.Equal(t, "/video/02", link.received[2].Name)
	assert.Equal(t, "/video/02", link.received[3].Name)
}
