// Package cmd wires the experiment harness behind a single cobra.Command,
// grounded on fw/cmd/cmd.go's CmdYaNFD: a topology/config argument pair
// loaded up front, a running instance started, and os/signal used for
// graceful shutdown. spec.md's non-goal "no CLI/argument handling" bounds
// the core engine's public API (sim/ never parses flags itself); it does
// not forbid the thin entrypoint every one of the teacher's binaries has.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/antswarm/antndn/harness"
	"github.com/antswarm/antndn/harness/control"
	dashboard "github.com/antswarm/antndn/harness/monitor"
	"github.com/antswarm/antndn/harness/replay"
	"github.com/antswarm/antndn/sim/config"
	simmonitor "github.com/antswarm/antndn/sim/monitor"
	"github.com/antswarm/antndn/sim/topology"
	"github.com/antswarm/antndn/std/log"
	"github.com/antswarm/antndn/std/utils"
	"github.com/antswarm/antndn/std/utils/toolutils"
)

var flags struct {
	ConfigFile    string
	Until         float64
	Trace         bool
	DashboardAddr string
}

// CmdAntSim is the simulator's entrypoint command.
var CmdAntSim = &cobra.Command{
	Use:   "antsim TOPOLOGY-FILE",
	Short: "Ant-colony ICN forwarding simulator",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}

func init() {
	CmdAntSim.Flags().StringVar(&flags.ConfigFile, "config", "", "Path to a YAML experiment config file (consumer/producer placement included)")
	CmdAntSim.Flags().Float64Var(&flags.Until, "until", 100, "Virtual-time horizon to run the experiment to")
	CmdAntSim.Flags().BoolVar(&flags.Trace, "trace", false, "Print every traced scheduler event (pure timeouts excluded) to stdout as it fires")
	CmdAntSim.Flags().StringVar(&flags.DashboardAddr, "dashboard-addr", "", "Serve a live WebSocket dashboard (/ws) and status endpoint (/status) on this address, e.g. localhost:8642")
}

func run(cmd *cobra.Command, args []string) {
	defer func() {
		if r := recover(); r != nil {
			utils.PrintStackTrace()
			log.Fatal(nil, "experiment panicked", "recover", r)
		}
	}()

	topoFile := args[0]

	cfg := config.Default()
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			log.Fatal(nil, "failed to load config", "err", err)
		}
		cfg = loaded
	}

	topo, err := topology.Load(topology.FileSource(topoFile))
	if err != nil {
		log.Fatal(nil, "failed to load topology", "err", err)
	}

	scn := harness.Scenario{
		Topology:  topo,
		Config:    cfg,
		Consumers: consumerSpecs(cfg.Consumers),
		Producers: producerSpecs(cfg.Producers),
		Until:     flags.Until,
	}

	run, err := harness.Launch(scn)
	if err != nil {
		log.Fatal(nil, "failed to launch experiment", "err", err)
	}

	if flags.Trace {
		rec, err := replay.NewRecorder()
		if err != nil {
			log.Fatal(nil, "failed to open trace recorder", "err", err)
		}
		defer rec.Close()
		rec.SetConsole(os.Stdout)
		run.Engine.SetTrace(rec.Hook())
	}

	if flags.DashboardAddr != "" {
		dash := dashboard.NewServer(flags.DashboardAddr)
		run.Monitor.OnSample = func(s simmonitor.Sample) { _ = dash.Push(s) }

		mux := http.NewServeMux()
		mux.Handle("/ws", dash.Handler())
		mux.Handle("/status", control.NewHandler(run))
		httpServer := &http.Server{Addr: flags.DashboardAddr, Handler: mux}

		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(nil, "dashboard server stopped", "err", err)
			}
		}()
		defer func() {
			httpServer.Shutdown(context.Background())
			dash.Close()
		}()
		log.Info(nil, "dashboard listening", "addr", flags.DashboardAddr)
	}

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		run.Advance(scn.Until)
		close(done)
	}()

	select {
	case <-done:
	case sig := <-sigChannel:
		log.Info(nil, "received signal, exiting before horizon reached", "signal", sig)
		return
	}

	counters := run.Counters()
	p := toolutils.StatusPrinter{File: os.Stdout, Padding: 30}
	fmt.Println("Run finished:")
	p.Print("retrieved", counters.Retrieved)
	p.Print("wasted", counters.Wasted)
	p.Print("timeout", counters.Timeout)
	p.Print("interest-drop", counters.InterestDrop)
	p.Print("producer-unique-names-served", counters.ProducerUniqueNamesServed)
	p.Print("consumer-sent-count", counters.ConsumerSentCount)
}

func consumerSpecs(placements []config.ConsumerPlacement) []harness.ConsumerSpec {
	specs := make([]harness.ConsumerSpec, 0, len(placements))
	for _, p := range placements {
		reqs := make([]harness.Request, 0, len(p.Requests))
		for _, r := range p.Requests {
			reqs = append(reqs, harness.Request{Name: r.Name, Delay: r.Delay})
		}
		specs = append(specs, harness.ConsumerSpec{Name: p.Name, NodeName: p.Node, Requests: reqs})
	}
	return specs
}

func producerSpecs(placements []config.ProducerPlacement) []harness.ProducerSpec {
	specs := make([]harness.ProducerSpec, 0, len(placements))
	for _, p := range placements {
		specs = append(specs, harness.ProducerSpec{Name: p.Name, NodeName: p.Node, Area: p.Area, Objects: p.Objects})
	}
	return specs
}
