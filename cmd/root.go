package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/demand-sim/demand-sim/sim"
	"github.com/demand-sim/demand-sim/sim/metrics"
	"github.com/demand-sim/demand-sim/sim/network"
	"github.com/demand-sim/demand-sim/sim/publish"
	"github.com/demand-sim/demand-sim/sim/recorder"
	"github.com/demand-sim/demand-sim/sim/store"
)

var (
	// Shared by every subcommand
	logLevel  string // Log verbosity level
	storeKind string // Scenario store backend: file or postgres

	// CLI flags for run
	mapPath         string // Network YAML
	scenarioName    string // Scenario to load from the store
	scenarioFile    string // Scenario YAML, instead of the store
	seed            int64  // Seed for vehicle attributes, lane picks and parking
	workers         int    // Trip resolution parallelism
	noRetry         bool   // Cancel blocked spawns instead of retrying
	infiniteParking bool   // Unlimited off-street parking at every building
	publishNATS     bool   // Publish spawn commands to NATS
	metricsAddr     string // Prometheus listen address, empty = off
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "demand-sim",
	Short: "Turns a population's travel plans into spawn commands for a traffic simulation",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd instantiates one scenario against the in-memory simulator
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Instantiate a scenario on a map and report the result",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := LoadConfig()
		ctx := cmd.Context()

		net, err := network.Load(mapPath)
		if err != nil {
			logrus.Fatalf("Failed to load map: %v", err)
		}
		s, err := loadForRun(ctx, cfg, net.Name())
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		if s.MapName != net.Name() {
			logrus.Warnf("Scenario %s was made for map %s, running it on %s", s.ScenarioName, s.MapName, net.Name())
		}
		s = s.RemoveWeirdSchedules()

		collector := metrics.NewCollector()
		addr := firstNonEmpty(metricsAddr, cfg.MetricsAddr)
		if addr != "" {
			srv := collector.Serve(addr)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		rec := recorder.New(net, infiniteParking)
		var simulator sim.Simulator = rec
		var sink *publish.Sink
		if publishNATS {
			nc, err := publish.Connect(cfg.NATSURL, collector)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			defer nc.Close()
			sink = publish.NewSink(rec, nc, cfg.NATSSubjectPrefix, s, collector)
			simulator = sink
		}

		logrus.Infof("Starting instantiation with seed=%d, workers=%d, retry=%v, infinite parking=%v",
			seed, workers, !noRetry, infiniteParking)
		startTime := time.Now()
		report := instantiate(s, net, simulator, seed, sim.InstantiateOptions{
			RetryIfNoRoom: !noRetry,
			Workers:       workers,
			Observer:      collector,
		})
		printReport(os.Stdout, s, seed, report, rec.Trips(), time.Since(startTime))

		if sink != nil && sink.Err() != nil {
			logrus.Fatalf("Publishing to %s: %v", sink.Subject(), sink.Err())
		}
		logrus.Info("Instantiation complete.")
	},
}

func loadForRun(ctx context.Context, cfg *Config, mapName string) (*sim.Scenario, error) {
	if scenarioFile != "" {
		return sim.LoadScenarioYAML(scenarioFile)
	}
	if scenarioName == "" {
		return nil, fmt.Errorf("one of --scenario or --scenario-file is required")
	}
	st, closeStore, err := openStore(ctx, storeKind, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return st.Load(ctx, mapName, scenarioName)
}

// instantiate runs s against simulator with the instantiate stream of seed.
func instantiate(s *sim.Scenario, m sim.Map, simulator sim.Simulator, seed int64, opts sim.InstantiateOptions) sim.InstantiationReport {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed)).ForSubsystem(sim.SubsystemInstantiate)
	return s.InstantiateWithOptions(simulator, m, rng, opts)
}

// runSummary is printed to stdout after a run.
type runSummary struct {
	Map              string         `json:"map"`
	Scenario         string         `json:"scenario"`
	ScenarioID       string         `json:"scenario_id"`
	Seed             int64          `json:"seed"`
	People           int            `json:"people"`
	Trips            int            `json:"trips"`
	SpawningFailures int            `json:"spawning_failures"`
	TripsByKind      map[string]int `json:"trips_by_kind"`
	ParkedCars       int            `json:"parked_cars"`
	ParkedSeeded     int            `json:"parked_seeded"`
	ParkedStranded   int            `json:"parked_stranded"`
	ParkedBlackholed int            `json:"parked_blackholed"`
	ElapsedMs        float64        `json:"elapsed_ms"`
}

func printReport(w io.Writer, s *sim.Scenario, seed int64, report sim.InstantiationReport, trips []sim.ScheduledTrip, elapsed time.Duration) {
	summary := runSummary{
		Map:              s.MapName,
		Scenario:         s.ScenarioName,
		ScenarioID:       s.ID().String(),
		Seed:             seed,
		People:           report.People,
		Trips:            report.Trips,
		SpawningFailures: report.SpawningFailures,
		TripsByKind:      lo.CountValuesBy(trips, func(st sim.ScheduledTrip) string { return st.Spec.Kind() }),
		ParkedCars:       report.Parking.Total,
		ParkedSeeded:     report.Parking.Seeded,
		ParkedStranded:   report.Parking.Stranded,
		ParkedBlackholed: report.Parking.Blackholed,
		ElapsedMs:        float64(elapsed.Microseconds()) / 1000,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logrus.Fatalf("Failed to marshal report: %v", err)
	}
	fmt.Fprintln(w, "=== Instantiation Report ===")
	fmt.Fprintln(w, string(data))
}

// saveScenario writes s with the configured store.
func saveScenario(ctx context.Context, cfg *Config, s *sim.Scenario) error {
	st, closeStore, err := openStore(ctx, storeKind, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return saveTo(ctx, st, s)
}

func saveTo(ctx context.Context, st store.Store, s *sim.Scenario) error {
	if err := st.Save(ctx, s); err != nil {
		return fmt.Errorf("saving %s/%s: %w", s.MapName, s.ScenarioName, err)
	}
	logrus.Infof("Saved scenario %s for %s (%d people)", s.ScenarioName, s.MapName, len(s.People))
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "file", "Scenario store: file (under $SCENARIO_DIR) or postgres ($DATABASE_URL)")

	runCmd.Flags().StringVar(&mapPath, "map", "", "Path to the network YAML")
	runCmd.Flags().StringVar(&scenarioName, "scenario", "", "Name of a stored scenario for this map")
	runCmd.Flags().StringVar(&scenarioFile, "scenario-file", "", "Path to a scenario YAML, instead of --scenario")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for vehicle attributes, spawn lanes and parking")
	runCmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "Trip resolution workers; results do not depend on it")
	runCmd.Flags().BoolVar(&noRetry, "no-retry", false, "Cancel trips whose vehicle can't spawn instead of retrying")
	runCmd.Flags().BoolVar(&infiniteParking, "infinite-parking", false, "Give every building unlimited off-street parking")
	runCmd.Flags().BoolVar(&publishNATS, "nats", false, "Publish spawn commands to $NATS_URL")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default $METRICS_ADDR)")
	_ = runCmd.MarkFlagRequired("map")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
