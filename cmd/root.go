package cmd

import (
	"context"
	"errors"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/nucsim/nucsim/sim"
)

var (
	// CLI flags shared by run and sweep
	configPath string  // YAML run configuration
	seed       int64   // Master seed for the sampling and kmc streams
	steps      int     // Number of engine steps
	timeStep   float64 // Step length in seconds
	logLevel   string  // Log verbosity level
	traceLevel string  // Trace verbosity: none, nucleations, steps
	domainID   int     // Domain this process owns

	// CLI flags for sweep
	replicas int // Number of seeded replicas
	parallel int // Maximum concurrent replicas
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "nucsim",
	Short: "Stochastic surface nucleation of dislocation loops",
}

// setupLogging applies the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveRunConfig layers defaults, the YAML file, NUCSIM_* environment
// variables and explicitly set flags, in that order.
func resolveRunConfig(cmd *cobra.Command) (RunConfig, error) {
	rc, err := LoadRunConfig(configPath)
	if err != nil {
		return rc, err
	}
	if err := rc.ApplyEnv(); err != nil {
		return rc, err
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		rc.Seed = seed
	}
	if flags.Changed("steps") {
		rc.Steps = steps
	}
	if flags.Changed("dt") {
		rc.TimeStep = timeStep
	}
	if flags.Changed("trace-level") {
		rc.TraceLevel = traceLevel
	}
	if flags.Changed("domain") {
		d := domainID
		rc.Engine.Domain.DomainID = &d
	}
	return rc, rc.Validate()
}

// fatalRunError reports a run failure and exits.
func fatalRunError(err error) {
	if errors.Is(err, sim.ErrSiteCapacityExceeded) {
		logrus.Fatalf("Site array too small for this geometry; raise nucleation.site_capacity: %v", err)
	}
	logrus.Fatalf("Simulation failed: %v", err)
}

// runCmd executes one seeded replica and prints its report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the nucleation engine under a constant-rate load ramp",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		rc, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid run configuration: %v", err)
		}
		res, err := RunReplica(context.Background(), rc)
		if err != nil {
			fatalRunError(err)
		}
		WriteRunReport(os.Stdout, res)
		logrus.Info("Simulation complete.")
	},
}

// sweepCmd executes independent replicas over consecutive seeds
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run seeded replicas concurrently and tabulate their outcomes",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		rc, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid run configuration: %v", err)
		}
		if replicas <= 0 {
			logrus.Fatalf("--replicas must be positive, got %d", replicas)
		}
		results, err := RunSweep(cmd.Context(), rc, replicas, parallel)
		if err != nil {
			fatalRunError(err)
		}
		WriteSweepReport(os.Stdout, results)
		logrus.Infof("Sweep of %d replicas complete.", replicas)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration file")
	cmd.Flags().Int64Var(&seed, "seed", 8917346, "Master seed for site sampling and the KMC draw")
	cmd.Flags().IntVar(&steps, "steps", 1000, "Number of engine steps")
	cmd.Flags().Float64Var(&timeStep, "dt", 1e-10, "Step length (s)")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&traceLevel, "trace-level", "nucleations", "Trace level (none, nucleations, steps)")
	cmd.Flags().IntVar(&domainID, "domain", 0, "Domain owned by this process; only the coordinator inserts loops")
}

// init sets up CLI flags and subcommands
func init() {
	addRunFlags(runCmd)
	addRunFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&replicas, "replicas", 8, "Number of replicas with consecutive seeds")
	sweepCmd.Flags().IntVar(&parallel, "parallel", runtime.NumCPU(), "Maximum concurrent replicas")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}
