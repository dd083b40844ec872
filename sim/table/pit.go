package table

import "github.com/antswarm/antndn/sim/iface"

// PitEntry is keyed by content name; Ids holds every Interest id seen for
// this name, Incoming maps each interface that asked for it to its
// remaining lifetime in evaporation ticks (spec.md §3).
type PitEntry struct {
	Name     string
	Ids      map[int64]struct{}
	Incoming map[iface.Iface]int
}

// HasID reports whether id has already been recorded against this entry.
func (e *PitEntry) HasID(id int64) bool {
	_, ok := e.Ids[id]
	return ok
}

// IncomingLinks returns every interface currently recorded as pending for
// this name.
func (e *PitEntry) IncomingLinks() []iface.Iface {
	links := make([]iface.Iface, 0, len(e.Incoming))
	for link := range e.Incoming {
		links = append(links, link)
	}
	return links
}

// PIT is the per-Node Pending Interest Table: name -> (ids, incoming links).
type PIT struct {
	entries map[string]*PitEntry
}

// NewPIT constructs an empty PIT.
func NewPIT() *PIT {
	return &PIT{entries: make(map[string]*PitEntry)}
}

// Get returns the entry for name, or nil if absent.
func (p *PIT) Get(name string) *PitEntry {
	return p.entries[name]
}

// Len reports the number of pending names.
func (p *PIT) Len() int { return len(p.entries) }

// Entries returns every pending entry, for iteration by callers such as
// NodeMonitor's per-tick sampling pass.
func (p *PIT) Entries() []*PitEntry {
	entries := make([]*PitEntry, 0, len(p.entries))
	for _, entry := range p.entries {
		entries = append(entries, entry)
	}
	return entries
}

// Insert creates a fresh entry for name, pinned to the first incoming link
// and Interest id, with the given lifetime.
func (p *PIT) Insert(name string, id int64, in iface.Iface, lifetime int) *PitEntry {
	entry := &PitEntry{
		Name:     name,
		Ids:      map[int64]struct{}{id: {}},
		Incoming: map[iface.Iface]int{in: lifetime},
	}
	p.entries[name] = entry
	return entry
}

// AddID records a new Interest id against an existing entry.
func (e *PitEntry) AddID(id int64) { e.Ids[id] = struct{}{} }

// AddIncoming records (or refreshes) an incoming link's lifetime.
func (e *PitEntry) AddIncoming(in iface.Iface, lifetime int) { e.Incoming[in] = lifetime }

// Pop removes and returns the entry for name, or nil if absent.
func (p *PIT) Pop(name string) *PitEntry {
	entry, ok := p.entries[name]
	if !ok {
		return nil
	}
	delete(p.entries, name)
	return entry
}

// Evaporate decrements every entry's per-link lifetime, drops links whose
// lifetime falls below 2, and drops the whole entry once it has no incoming
// links left, returning the dropped entries so the caller can record them
// as timeouts (components_flood.py's `self.timeouts[name] =
// self.PIT.table[name]`, spec.md §4.4.2).
func (p *PIT) Evaporate() (timedOut []*PitEntry) {
	for name, entry := range p.entries {
		for link, life := range entry.Incoming {
			if life < 2 {
				delete(entry.Incoming, link)
			} else {
				entry.Incoming[link] = life - 1
			}
		}
		if len(entry.Incoming) == 0 {
			delete(p.entries, name)
			timedOut = append(timedOut, entry)
		}
	}
	return timedOut
}
