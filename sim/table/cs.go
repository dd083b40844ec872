package table

// CsEntry holds a cached Data payload: the payload itself, the producer
// that minted it, and its remaining lifetime in evaporation ticks
// (spec.md §3).
type CsEntry struct {
	Name     string
	Payload  any
	Producer string
	Lifetime int
}

// CS is the per-Node Content Store: an in-network cache of recently
// observed Data, keyed by name. When MaxEntries is nonzero, Put evicts the
// entry with the lowest Lifetime once the store is full, never the
// permanent self-advertisement entry (see PutSelf) — an opt-in bounded
// policy; the grounded default (MaxEntries == 0) is unbounded growth until
// lifetime expiry, matching components_flood.py, which has no eviction
// policy at all (spec.md §9, Open Question).
type CS struct {
	entries    map[string]*CsEntry
	MaxEntries int
}

// NewCS constructs an empty, unbounded Content Store.
func NewCS() *CS {
	return &CS{entries: make(map[string]*CsEntry)}
}

// Get returns the entry for name, or nil if absent.
func (c *CS) Get(name string) *CsEntry {
	return c.entries[name]
}

// Has reports whether name is cached.
func (c *CS) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Len reports the number of cached names.
func (c *CS) Len() int { return len(c.entries) }

// Names returns every cached name, for NodeMonitor sampling (spec.md §4.7).
func (c *CS) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	return names
}

// Refresh resets name's lifetime without touching its payload, used when a
// CS hit serves an Interest (spec.md §4.4(a)/(b)).
func (c *CS) Refresh(name string, lifetime int) {
	if e, ok := c.entries[name]; ok {
		e.Lifetime = lifetime
	}
}

// Put caches name -> (payload, producer) with the given lifetime, creating
// or overwriting the entry (spec.md §4.4(d): "cache every Data seen").
func (c *CS) Put(name string, payload any, producer string, lifetime int) {
	if e, ok := c.entries[name]; ok {
		e.Payload = payload
		e.Producer = producer
		e.Lifetime = lifetime
		return
	}
	if c.MaxEntries > 0 && len(c.entries) >= c.MaxEntries {
		c.evictOne()
	}
	c.entries[name] = &CsEntry{Name: name, Payload: payload, Producer: producer, Lifetime: lifetime}
}

// PutSelf preloads the Node's own "area" advertisement entry with no
// payload and a negative (permanent) lifetime, so Evaporate never reaps it
// (spec.md §3: "A Node preloads one self-entry keyed by its own area tag to
// advertise locality" — a self-advertisement that could expire would stop
// advertising the Node's locality, defeating its purpose).
func (c *CS) PutSelf(area, nodeName string) {
	c.entries[area] = &CsEntry{Name: area, Payload: nil, Producer: nodeName, Lifetime: -1}
}

func (c *CS) evictOne() {
	var victim string
	lowest := int(^uint(0) >> 1)
	for name, e := range c.entries {
		if e.Lifetime < 0 {
			continue // permanent self-advertisement entry, see PutSelf
		}
		if e.Lifetime < lowest {
			lowest = e.Lifetime
			victim = name
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

// Evaporate decrements every entry's lifetime and drops entries whose
// lifetime falls below 2 (spec.md §4.4.2 generalizes PAT/PIT aging to "PAT/
// PIT/CS entries decrement their lifetime on each evaporation tick", §3
// Lifecycles).
func (c *CS) Evaporate() {
	for name, e := range c.entries {
		if e.Lifetime < 0 {
			continue // permanent self-advertisement entry, see PutSelf
		}
		if e.Lifetime < 2 {
			delete(c.entries, name)
		} else {
			e.Lifetime--
		}
	}
}
