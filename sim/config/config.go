// Package config loads the experiment-wide configuration spec.md §6
// defines, the same YAML-file-plus-defaults pattern the teacher's
// core.Config / toolutils.ReadYaml use, built on goccy/go-yaml.
package config

import (
	"fmt"
	"os"

	"github.com/antswarm/antndn/sim/consumer"
	"github.com/antswarm/antndn/sim/link"
	"github.com/antswarm/antndn/sim/node"
	"github.com/goccy/go-yaml"
)

// Config is the full set of per-run knobs spec.md §6 lists, loaded once
// from an experiment's YAML file and fanned out into the per-package
// Config types the rest of sim/ takes.
type Config struct {
	// Mode selects the forwarding strategy: "ant" (AntRouting) or "flood".
	Mode string `yaml:"mode"`

	EvaporationRate    float64 `yaml:"evaporationRate"`
	PheromoneIncrement float64 `yaml:"pheromoneIncrement"`
	DefaultTTL         int     `yaml:"defaultTtl"`

	PatTimeout int `yaml:"patTimeout"`
	PitTimeout int `yaml:"pitTimeout"`
	CsTimeout  int `yaml:"csTimeout"`

	AntBurstSize       int     `yaml:"antBurstSize"`
	AntBurstInterval   float64 `yaml:"antBurstInterval"`
	ConsumerStartDelay float64 `yaml:"consumerStartDelay"`

	// ChunkBurstSettleDelay paces chunked retrieval follow-up requests
	// (SPEC_FULL item 3).
	ChunkBurstSettleDelay float64 `yaml:"chunkBurstSettleDelay"`

	// LinkQueueDiscipline selects a Link's transmit-queue ordering: "fifo"
	// or "priority".
	LinkQueueDiscipline string `yaml:"linkQueueDiscipline"`

	PrepareEnabled bool  `yaml:"prepareEnabled"`
	RandomSeed     int64 `yaml:"randomSeed"`

	// RetryOnUnusedInterface governs spec.md §9's Open Question on a
	// duplicate content Interest already pending in a Node's PIT.
	RetryOnUnusedInterface bool `yaml:"retryOnUnusedInterface"`

	// CsMaxEntries bounds each Node's Content Store; 0 leaves it unbounded
	// (spec.md §9, Open Question).
	CsMaxEntries int `yaml:"csMaxEntries"`

	// Consumers and Producers place endpoints onto the topology's Nodes
	// the way scenario_uninett.py's driver hard-codes its consumer/producer
	// placement inline; here it rides along in the same YAML file `cmd/`
	// loads the rest of the run's knobs from; harness.Launch takes its own
	// Scenario type built from these rather than sim/config depending on
	// harness, to keep the dependency one-directional.
	Consumers []ConsumerPlacement `yaml:"consumers"`
	Producers []ProducerPlacement `yaml:"producers"`
}

// RequestPlacement schedules one Consumer.Request call.
type RequestPlacement struct {
	Name  string  `yaml:"name"`
	Delay float64 `yaml:"delay"`
}

// ConsumerPlacement names a Consumer, the Node it attaches to, and its
// request schedule.
type ConsumerPlacement struct {
	Name     string             `yaml:"name"`
	Node     string             `yaml:"node"`
	Requests []RequestPlacement `yaml:"requests"`
}

// ProducerPlacement names a Producer, the Node it attaches to, its area,
// and the content names it serves.
type ProducerPlacement struct {
	Name    string   `yaml:"name"`
	Node    string   `yaml:"node"`
	Area    string   `yaml:"area"`
	Objects []string `yaml:"objects"`
}

// Default returns the configuration components_flood.py's hard-coded
// constants describe: 0.05 evaporation, 1.5 pheromone increment, ant
// routing, priority-queued links (components_flood.py's Node uses
// simpy.PriorityStore unconditionally), unbounded CS, duplicate-Interest
// retry enabled.
func Default() *Config {
	return &Config{
		Mode:                   "ant",
		EvaporationRate:        0.05,
		PheromoneIncrement:     1.5,
		DefaultTTL:             20,
		PatTimeout:             10,
		PitTimeout:             10,
		CsTimeout:              10,
		AntBurstSize:           20,
		AntBurstInterval:       0.1,
		ConsumerStartDelay:     0,
		ChunkBurstSettleDelay:  3,
		LinkQueueDiscipline:    "priority",
		PrepareEnabled:         true,
		RandomSeed:             1,
		RetryOnUnusedInterface: true,
		CsMaxEntries:           0,
	}
}

// Load reads path as YAML on top of Default(), the same
// defaults-then-override pattern the teacher's core.DefaultConfig() +
// toolutils.ReadYaml(config, configfile) apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Strategy maps Mode to the node/consumer Strategy enum.
func (c *Config) Strategy() node.Strategy {
	if c.Mode == "flood" {
		return node.Flood
	}
	return node.AntRouting
}

// Discipline maps LinkQueueDiscipline to the link.Discipline enum.
func (c *Config) Discipline() link.Discipline {
	if c.LinkQueueDiscipline == "priority" {
		return link.Priority
	}
	return link.FIFO
}

// NodeConfig builds the node.Config this run's Nodes are constructed with.
func (c *Config) NodeConfig() node.Config {
	return node.Config{
		Strategy:               c.Strategy(),
		EvaporationRate:        c.EvaporationRate,
		PheromoneIncrement:     c.PheromoneIncrement,
		PatTimeout:             c.PatTimeout,
		PitTimeout:             c.PitTimeout,
		CsTimeout:              c.CsTimeout,
		RetryOnUnusedInterface: c.RetryOnUnusedInterface,
		PrepareEnabled:         c.PrepareEnabled,
		CsMaxEntries:           c.CsMaxEntries,
	}
}

// ConsumerConfig builds the consumer.Config every Consumer in this run is
// constructed with.
func (c *Config) ConsumerConfig() consumer.Config {
	return consumer.Config{
		Strategy:              c.Strategy(),
		StartDelay:            c.ConsumerStartDelay,
		AntBurstSize:          c.AntBurstSize,
		AntBurstInterval:      c.AntBurstInterval,
		DefaultTTL:            c.DefaultTTL,
		ChunkBurstSettleDelay: c.ChunkBurstSettleDelay,
	}
}
