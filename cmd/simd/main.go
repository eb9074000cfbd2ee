// Command simd runs a simulation as a long-lived service: it steps the
// model on a fixed cadence, persists tick logs and final results, and
// serves read-only observer endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"agentsim.dev/internal/persistence/resultsdb"
	"agentsim.dev/internal/persistence/ticklog"
	"agentsim.dev/internal/scenario"
	"agentsim.dev/internal/sim/kernel"
	"agentsim.dev/internal/transport/observer"
)

type multiTickLogger struct {
	sinks []kernel.TickLogger
}

func (m multiTickLogger) WriteTick(e kernel.TickLogEntry) error {
	var first error
	for _, s := range m.sinks {
		if s == nil {
			continue
		}
		if err := s.WriteTick(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		scenarioPath = flag.String("scenario", "", "scenario yaml path (empty: built-in baseline)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tickRateHz   = flag.Float64("tick_rate_hz", 10, "simulation steps per second (0: run as fast as possible)")
		disableDB    = flag.Bool("disable_db", false, "disable results persistence")
		disableLog   = flag.Bool("disable_ticklog", false, "disable compressed tick log")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[simd] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	sim, err := scenario.Build(cfg)
	if err != nil {
		logger.Fatalf("build scenario: %v", err)
	}
	if err := sim.Init(); err != nil {
		logger.Fatalf("init sim: %v", err)
	}
	logger.Printf("scenario %q: %d agents, %d steps, seed %d", cfg.Label, cfg.NAgents, cfg.NSteps, cfg.Seed)

	runDir := filepath.Join(*dataDir, "runs", cfg.Label)
	_ = os.MkdirAll(runDir, 0o755)

	var sinks []kernel.TickLogger

	if !*disableLog {
		tl := ticklog.NewLogger(runDir)
		defer tl.Close()
		sinks = append(sinks, tl)
	}

	var store *resultsdb.Store
	if !*disableDB {
		store, err = resultsdb.Open(filepath.Join(runDir, "results.db"))
		if err != nil {
			logger.Fatalf("open results db: %v", err)
		}
		defer store.Close()
	}

	obsSrv := observer.NewServer(sim, logger)
	sinks = append(sinks, obsSrv)
	sim.SetTickLogger(multiTickLogger{sinks: sinks})

	ctx, cancel := signalContext()
	defer cancel()

	go runLoop(ctx, sim, store, *tickRateHz, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// runLoop steps the simulation on a fixed cadence until completion or
// shutdown, then finalizes and persists the run.
func runLoop(ctx context.Context, sim *kernel.Sim, store *resultsdb.Store, rateHz float64, logger *log.Logger) {
	var tick <-chan time.Time
	if rateHz > 0 {
		t := time.NewTicker(time.Duration(float64(time.Second) / rateHz))
		defer t.Stop()
		tick = t.C
	}

	for !sim.Complete() {
		if tick != nil {
			select {
			case <-ctx.Done():
				logger.Printf("stopped at tick %d", sim.TI)
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			logger.Printf("stopped at tick %d", sim.TI)
			return
		}
		if err := sim.Step(); err != nil {
			logger.Printf("step: %v", err)
			return
		}
	}

	if err := sim.Finalize(); err != nil {
		logger.Printf("finalize: %v", err)
		return
	}
	logger.Printf("run complete: %d ticks, %d agents alive", sim.Pars.NPts, sim.People.Len())
	for _, line := range summaryLines(sim.Summary) {
		logger.Printf("  %s", line)
	}

	if store != nil {
		runID, err := store.SaveRun(sim)
		if err != nil {
			logger.Printf("save run: %v", err)
			return
		}
		logger.Printf("saved run %d", runID)
	}
}

func summaryLines(summary map[string]float64) []string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %.4g", k, summary[k]))
	}
	return out
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
