package engine

import "math/rand"

// Rand is the single seeded random stream a run draws from: expovariate
// intervals for evaporation ticks, uniform roulette draws for
// forwardEngine, and the "no match" uniform link choice (spec.md §9: "all
// random draws ... MUST come from a single seeded stream per run for
// replayability").
type Rand struct {
	r *rand.Rand
}

// NewRand seeds a new stream.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform draw in [0,1).
func (r *Rand) Float64() float64 { return r.r.Float64() }

// Uniform returns a uniform draw in [lo, hi).
func (r *Rand) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.r.Float64()*(hi-lo)
}

// Expovariate draws from an exponential distribution with the given rate
// (mean = 1/rate), matching Python's random.expovariate(rate).
func (r *Rand) Expovariate(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return r.r.ExpFloat64() / rate
}

// Intn returns a uniform draw in [0, n).
func (r *Rand) Intn(n int) int { return r.r.Intn(n) }

// Int63 returns a non-negative pseudo-random 63-bit integer, used for
// packet/node id generation (the original's random.randrange(9999999)).
func (r *Rand) Int63() int64 { return r.r.Int63() }

// IntRange returns a uniform draw in [lo, hi], inclusive, matching Python's
// random.randint (used for packet size draws).
func (r *Rand) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.r.Intn(hi-lo+1)
}

const labelAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomLabel draws an n-character string uniformly from uppercase letters
// and digits, matching Python's
// ''.join(random.choices(string.ascii_uppercase + string.digits, k=n))
// (components_flood.py's synthetic chunk payload bytes).
func (r *Rand) RandomLabel(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = labelAlphabet[r.r.Intn(len(labelAlphabet))]
	}
	return string(buf)
}
