// Package producer implements the content-serving endpoint of spec.md §4.6,
// grounded on Producer in components_flood.py: full-name and chunk-prefix
// matching against a table of named content, ant-vs-content payload-attach
// rules, and pass-through on an unknown name.
package producer

import (
	"fmt"
	"strings"

	"github.com/antswarm/antndn/sim/engine"
	"github.com/antswarm/antndn/sim/iface"
	"github.com/antswarm/antndn/sim/packet"
	"github.com/antswarm/antndn/std/log"
)

const chunksPerObject = 10

// Producer serves named content, keyed first by the full object name (whose
// Data carries the manifest of chunk names) and then by each chunk's own
// full name (components_flood.py's create_data/listen).
type Producer struct {
	Name string
	Area string

	eng *engine.Engine

	// objects maps an object's full name (area/name) to its ordered chunk
	// names; chunks maps a chunk's full name to its payload bytes.
	objects map[string][]string
	chunks  map[string]string

	Received map[string]struct{}
	Wasted   []*packet.Packet
}

// New constructs a Producer serving the given content names, each split
// into chunksPerObject synthetic chunks the way create_data does.
func New(eng *engine.Engine, name, area string, names []string) *Producer {
	p := &Producer{
		Name:     name,
		Area:     area,
		eng:      eng,
		objects:  make(map[string][]string),
		chunks:   make(map[string]string),
		Received: make(map[string]struct{}),
	}
	for _, n := range names {
		p.createData(n)
	}
	return p
}

// String renders the Producer for log entity fields.
func (p *Producer) String() string { return p.Name }

func (p *Producer) createData(name string) {
	objectName := p.Area + "/" + name
	chunkNames := make([]string, 0, chunksPerObject)
	for i := 1; i <= chunksPerObject; i++ {
		chunkName := fmt.Sprintf("%s/%02d", objectName, i)
		chunkNames = append(chunkNames, chunkName)
		p.chunks[chunkName] = p.eng.Rand().RandomLabel(10)
	}
	p.objects[objectName] = chunkNames
}

// Receive implements iface.Endpoint. An Interest for a known object name or
// chunk name is converted in place to Data and returned on the same
// interface (components_flood.py's listen()); a Data arrival is a
// classified protocol error (spec.md §7); an unknown name passes through
// unmodified.
func (p *Producer) Receive(pkt *packet.Packet, in iface.Iface) {
	if pkt.Mode == packet.Data {
		p.Wasted = append(p.Wasted, pkt)
		log.Warn(p, "producer received a Data packet", "name", pkt.Name)
		return
	}

	generalName := ""
	if strings.Count(pkt.Name, "/") > 1 {
		generalName = pkt.Name[:strings.LastIndex(pkt.Name, "/")]
	}

	switch {
	case p.hasObject(pkt.Name):
		if !pkt.Ant {
			p.Received[pkt.Name] = struct{}{}
			pkt.Payload = append([]string(nil), p.objects[pkt.Name]...)
			pkt.AppendHop(p.Name, p.eng.Now())
			pkt.Creator = p.Name
		}
		pkt.TTL = pkt.DefaultTTL
		pkt.Mode = packet.Data
	case p.hasChunk(generalName, pkt.Name):
		if !pkt.Ant {
			p.Received[pkt.Name] = struct{}{}
			pkt.Payload = p.chunks[pkt.Name]
			pkt.AppendHop(p.Name, p.eng.Now())
			pkt.Creator = p.Name
		}
		pkt.TTL = pkt.DefaultTTL
		pkt.Mode = packet.Data
	}
	in.Enqueue(pkt)
}

func (p *Producer) hasObject(name string) bool {
	_, ok := p.objects[name]
	return ok
}

func (p *Producer) hasChunk(generalName, chunkName string) bool {
	if generalName == "" {
		return false
	}
	chunks, ok := p.objects[generalName]
	if !ok {
		return false
	}
	for _, c := range chunks {
		if c == chunkName {
			return true
		}
	}
	return false
}

var _ iface.Endpoint = (*Producer)(nil)
