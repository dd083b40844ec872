package table

import "github.com/antswarm/antndn/sim/iface"

// PatEntry pins the first incoming link an ant (probe) Interest id was seen
// on, plus the requested name and remaining lifetime (spec.md §3).
type PatEntry struct {
	ID       int64
	Name     string
	Incoming iface.Iface
	Lifetime int
}

// PAT is the per-Node Pending Ant Table: packet id -> first-incoming-link
// pin.
type PAT struct {
	entries map[int64]*PatEntry
}

// NewPAT constructs an empty PAT.
func NewPAT() *PAT {
	return &PAT{entries: make(map[int64]*PatEntry)}
}

// Has reports whether id has an entry (spec.md §4.4(a): "only the first
// arrival of a given id is recorded").
func (p *PAT) Has(id int64) bool {
	_, ok := p.entries[id]
	return ok
}

// Len reports the number of outstanding ant ids.
func (p *PAT) Len() int { return len(p.entries) }

// Insert pins id to in for name with the given lifetime. Callers must check
// Has(id) first; Insert overwrites unconditionally.
func (p *PAT) Insert(id int64, name string, in iface.Iface, lifetime int) *PatEntry {
	entry := &PatEntry{ID: id, Name: name, Incoming: in, Lifetime: lifetime}
	p.entries[id] = entry
	return entry
}

// Pop removes and returns the entry for id, or nil if absent.
func (p *PAT) Pop(id int64) *PatEntry {
	entry, ok := p.entries[id]
	if !ok {
		return nil
	}
	delete(p.entries, id)
	return entry
}

// Evaporate decrements every entry's lifetime, dropping entries whose
// lifetime falls below 2 (spec.md §4.4.2).
func (p *PAT) Evaporate() {
	for id, entry := range p.entries {
		if entry.Lifetime < 2 {
			delete(p.entries, id)
		} else {
			entry.Lifetime--
		}
	}
}
