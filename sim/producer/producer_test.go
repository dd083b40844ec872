package producer_test

import (
	"testing"

	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/packet"
	"github.com/antswarm/antndn/sim/producer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLink struct {
	name     string
	received []*packet.Packet
}

func (l *recordingLink) Name() string              { return l.name }
func (l *recordingLink) Enqueue(pkt *packet.Packet) { l.received = append(l.received, pkt) }

func TestContentInterestForFullObjectNameReturnsManifest(t *testing.T) {
	eng := engine.New(1)
	p := producer.New(eng, "P1", "Trondheim", []string{"video"})
	in := &recordingLink{name: "fromNetwork"}

	pkt := packet.New("C1", 0, 1500, "Trondheim/video", 20, 1, false)
	p.Receive(pkt, in)

	require.Len(t, in.received, 1)
	got := in.received[0]
	assert.Equal(t, packet.Data, got.Mode)
	assert.Equal(t, "P1", got.Creator)
	names, ok := got.ChunkNames()
	require.True(t, ok)
	require.Len(t, names, 10)
	assert.Equal(t, "Trondheim/video/01", names[0])
	require.Contains(t, p.Received, "Trondheim/video")
}

func TestContentInterestForChunkNameReturnsChunkPayload(t *testing.T) {
	eng := engine.New(1)
	p := producer.New(eng, "P1", "Trondheim", []string{"video"})
	in := &recordingLink{name: "fromNetwork"}

	pkt := packet.New("C1", 0, 1500, "Trondheim/video/03", 20, 2, false)
	p.Receive(pkt, in)

	require.Len(t, in.received, 1)
	got := in.received[0]
	assert.Equal(t, packet.Data, got.Mode)
	payload, ok := got.Payload.(string)
	require.True(t, ok)
	assert.Len(t, payload, 10)
}

func TestAntInterestConvertsToDataWithoutAttachingPayload(t *testing.T) {
	eng := engine.New(1)
	p := producer.New(eng, "P1", "Trondheim", []string{"video"})
	in := &recordingLink{name: "fromNetwork"}

	pkt := packet.New("C1", 0, 60, "Trondheim/video", 20, 3, true)
	pkt.Creator = "C1"
	p.Receive(pkt, in)

	require.Len(t, in.received, 1)
	got := in.received[0]
	assert.Equal(t, packet.Data, got.Mode)
	assert.Nil(t, got.Payload)
	assert.Equal(t, "C1", got.Creator, "ant path must not stamp the producer as creator")
	assert.Empty(t, p.Received, "ant probes never count toward the unique-names-served set")
}

func TestUnknownNamePassesThroughUnmodified(t *testing.T) {
	eng := engine.New(1)
	p := producer.New(eng, "P1", "Trondheim", []string{"video"})
	in := &recordingLink{name: "fromNetwork"}

	pkt := packet.New("C1", 0, 1500, "Trondheim/audio", 20, 4, false)
	p.Receive(pkt, in)

	require.Len(t, in.received, 1)
	got := in.received[0]
	assert.Equal(t, packet.Interest, got.Mode)
	assert.Nil(t, got.Payload)
}

func TestDataArrivalIsCountedAsWasted(t *testing.T) {
	eng := engine.New(1)
	p := producer.New(eng, "P1", "Trondheim", []string{"video"})
	in := &recordingLink{name: "fromNetwork"}

	pkt := packet.New("N2", 0, 1500, "Trondheim/video", 20, 5, false)
	pkt.ConvertToData("N2")
	p.Receive(pkt, in)

	assert.Len(t, p.Wasted, 1)
	assert.Empty(t, in.received)
}
