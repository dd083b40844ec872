package link_test

import (
	"testing"

	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/iface"
	"github.com/antswarm/antndn/sim/link"
	"github.com/antswarm/antndn/sim/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEndpoint struct {
	delivered []*packet.Packet
	ifaces    []iface.Iface
}

func (e *recordingEndpoint) Receive(pkt *packet.Packet, in iface.Iface) {
	e.delivered = append(e.delivered, pkt)
	e.ifaces = append(e.ifaces, in)
}

func TestLinkFifoDeliversInEnqueueOrder(t *testing.T) {
	eng := engine.New(1)
	recvA := &recordingEndpoint{}
	recvB := &recordingEndpoint{}
	a := link.New(eng, "a-to-b", recvA, 1_000_000, link.FIFO)
	b := link.New(eng, "b-to-a", recvB, 1_000_000, link.FIFO)
	link.Pair(a, b)

	first := packet.New("C1", 0, 100, "/video", 20, 1, false)
	second := packet.New("C1", 0, 100, "/video", 20, 2, false)
	a.Enqueue(first)
	a.Enqueue(second)

	eng.Run(10)

	require.Len(t, recvB.delivered, 2)
	assert.Equal(t, int64(1), recvB.delivered[0].ID)
	assert.Equal(t, int64(2), recvB.delivered[1].ID)
	assert.Same(t, b, recvB.ifaces[0], "delivery must be tagged with the peer Link as incoming")
}

func TestLinkPriorityDeliversDataBeforeInterest(t *testing.T) {
	eng := engine.New(1)
	recvB := &recordingEndpoint{}
	a := link.New(eng, "a-to-b", &recordingEndpoint{}, 1_000_000, link.Priority)
	b := link.New(eng, "b-to-a", recvB, 1_000_000, link.Priority)
	link.Pair(a, b)

	interest := packet.New("C1", 0, 100, "/video", 20, 1, false)
	data := packet.New("P1", 0, 100, "/video", 20, 2, false)
	data.ConvertToData("P1")

	// Enqueue the Interest first; Data must still be sent first under the
	// priority discipline.
	a.Enqueue(interest)
	a.Enqueue(data)

	eng.Run(10)

	require.Len(t, recvB.delivered, 2)
	assert.Equal(t, packet.Data, recvB.delivered[0].Mode)
	assert.Equal(t, packet.Interest, recvB.delivered[1].Mode)
}

func TestLinkDropsAtTtlOneIntoWasteBuckets(t *testing.T) {
	eng := engine.New(1)
	recvB := &recordingEndpoint{}
	a := link.New(eng, "a-to-b", &recordingEndpoint{}, 1_000_000, link.FIFO)
	b := link.New(eng, "b-to-a", recvB, 1_000_000, link.FIFO)
	link.Pair(a, b)

	antPkt := packet.New("C1", 0, 100, "/video", 1, 1, true)
	contentPkt := packet.New("C1", 0, 100, "/video", 1, 2, false)
	a.Enqueue(antPkt)
	a.Enqueue(contentPkt)

	eng.Run(10)

	assert.Empty(t, recvB.delivered)
	require.Len(t, a.AntWaste, 1)
	require.Len(t, a.ContentWaste, 1)
	assert.Equal(t, int64(1), a.AntWaste[0].ID)
	assert.Equal(t, int64(2), a.ContentWaste[0].ID)
}

func TestLinkDecrementsTtlAfterTransmission(t *testing.T) {
	eng := engine.New(1)
	recvB := &recordingEndpoint{}
	a := link.New(eng, "a-to-b", &recordingEndpoint{}, 1_000_000, link.FIFO)
	b := link.New(eng, "b-to-a", recvB, 1_000_000, link.FIFO)
	link.Pair(a, b)

	pkt := packet.New("C1", 0, 100, "/video", 20, 1, false)
	a.Enqueue(pkt)
	eng.Run(10)

	require.Len(t, recvB.delivered, 1)
	assert.Equal(t, 19, recvB.delivered[0].TTL)
}
