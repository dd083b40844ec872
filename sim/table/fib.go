// Package table implements the three per-Node forwarding tables (FIB, PIT,
// PAT) and the Content Store, grounded on FIB/FIBobject, PIT/PITobject,
// PAT/PATobject, CS/CSobject in components_flood.py (spec.md §3).
package table

import (
	"strings"

	"github.com/antswarm/antndn/sim/iface"
)

// BaselineWeight is the pheromone weight every link starts at when a FIB
// entry for a name is first created (spec.md §3).
const BaselineWeight = 1.0

// FibEntry is keyed by content name; Weights maps an outgoing interface to
// its positive pheromone weight.
type FibEntry struct {
	Name    string
	Weights map[iface.Iface]float64
}

// FIB is the per-Node Forwarding Information Base: name -> {outgoing link ->
// pheromone weight}.
type FIB struct {
	entries map[string]*FibEntry
}

// NewFIB constructs an empty FIB.
func NewFIB() *FIB {
	return &FIB{entries: make(map[string]*FibEntry)}
}

// domainLevels returns name plus every "/"-stripped prefix of it, walking
// from the full name down to the topmost segment, e.g.
// "/Trondheim/video" -> ["/Trondheim/video", "/Trondheim"]. Ported from
// components_flood.py's domain_matching, which walks
// name.rsplit('/', i)[0] for increasing i.
func domainLevels(name string) []string {
	out := []string{name}
	for {
		idx := strings.LastIndex(name, "/")
		if idx <= 0 {
			break
		}
		name = name[:idx]
		out = append(out, name)
	}
	return out
}

// Get returns the entry for name, or nil if absent.
func (f *FIB) Get(name string) *FibEntry {
	return f.entries[name]
}

// Len reports the number of distinct names with a FIB entry.
func (f *FIB) Len() int { return len(f.entries) }

// Names returns every name with a FIB entry, for iteration by callers such
// as the evaporation loop and NodeMonitor.
func (f *FIB) Names() []string {
	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	return names
}

// DomainMatching returns every FIB entry whose key shares name's longest
// matching domain level, walking from the full name down by stripping
// "/"-separated suffixes until some level yields a non-empty match
// (spec.md §4.4.1). A level "matches" a key when the level string occurs
// anywhere within the key, exactly as components_flood.py's
// "if gen_name in key" substring test does — this lets a bare area tag
// like "Trondheim" match a key such as "Trondheim/video".
func (f *FIB) DomainMatching(name string) []*FibEntry {
	for _, level := range domainLevels(name) {
		var dest []*FibEntry
		for key, entry := range f.entries {
			if strings.Contains(key, level) {
				dest = append(dest, entry)
			}
		}
		if len(dest) > 0 {
			return dest
		}
	}
	return nil
}

// Reinforce adds increment to the weight of inc (the link the Data arrived
// on), creating the entry first if absent with every known link initialized
// to BaselineWeight (spec.md §3: "Creation initializes every link of the
// owning Node to a baseline weight of 1 and adds an increment to the link
// from which the first Data arrival came").
func (f *FIB) Reinforce(name string, inc iface.Iface, increment float64, allLinks []iface.Iface) {
	entry, ok := f.entries[name]
	if !ok {
		entry = &FibEntry{Name: name, Weights: make(map[iface.Iface]float64, len(allLinks))}
		for _, link := range allLinks {
			entry.Weights[link] = BaselineWeight
		}
		f.entries[name] = entry
	}
	if _, ok := entry.Weights[inc]; !ok {
		entry.Weights[inc] = BaselineWeight
	}
	entry.Weights[inc] += increment
}

// Evaporate decrements every weight above 1+rate by rate, deleting entries
// whose every weight then falls at or below 1+rate (spec.md §4.4.2). It
// returns the names deleted in this pass.
func (f *FIB) Evaporate(rate float64) []string {
	var deleted []string
	threshold := 1 + rate
	for name, entry := range f.entries {
		allBelow := true
		for link, w := range entry.Weights {
			if w > threshold {
				w -= rate
				entry.Weights[link] = w
			}
			if w > threshold {
				allBelow = false
			}
		}
		if allBelow {
			delete(f.entries, name)
			deleted = append(deleted, name)
		}
	}
	return deleted
}
