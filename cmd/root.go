package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tanaxer01/batsim-go/sim/monitor"
	"github.com/tanaxer01/batsim-go/sim/trace"
	"github.com/tanaxer01/batsim-go/sim/workload"
)

var (
	logLevel    string   // Log verbosity level
	presetName  string   // Built-in scenario to replay instead of a file
	traceLevel  string   // Event trace level
	showMetrics bool     // Print the Prometheus exposition of the run
	tableNames  []string // Monitor tables to print; empty prints all
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "batsim",
	Short: "Job and host model of a batch scheduling simulation",
}

// replayCmd applies a scenario to the simulation model and prints what the monitors saw
var replayCmd = &cobra.Command{
	Use:   "replay [FILE]",
	Short: "Replay a scenario and report monitor statistics",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		spec, err := loadScenario(args, presetName)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := replay(ctx, cmd.OutOrStdout(), spec, replayOptions{
			traceLevel: trace.TraceLevel(traceLevel),
			metrics:    showMetrics,
			tables:     tableNames,
		}); err != nil {
			logrus.Fatalf("Replay failed: %v", err)
		}
		logrus.Info("Replay complete.")
	},
}

// presetsCmd lists the built-in scenarios
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range workload.PresetNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

// loadScenario picks the scenario from a file argument or a preset name.
func loadScenario(args []string, preset string) (*workload.ScenarioSpec, error) {
	switch {
	case len(args) == 1 && preset != "":
		return nil, fmt.Errorf("give either a scenario file or --preset, not both")
	case len(args) == 1:
		return workload.LoadScenarioSpec(args[0])
	case preset != "":
		build, ok := workload.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q; valid presets: %v", preset, workload.PresetNames())
		}
		return build(), nil
	}
	return nil, fmt.Errorf("a scenario file or --preset is required")
}

type replayOptions struct {
	traceLevel trace.TraceLevel
	metrics    bool
	tables     []string
}

// replay runs spec and writes the selected monitor tables to w, followed by
// the trace summary and metrics when requested.
func replay(ctx context.Context, w io.Writer, spec *workload.ScenarioSpec, opts replayOptions) error {
	if !trace.IsValidTraceLevel(string(opts.traceLevel)) {
		return fmt.Errorf("unknown trace level %q", opts.traceLevel)
	}
	tables, err := selectTables(opts.tables)
	if err != nil {
		return err
	}

	r, err := workload.NewReplayer(spec, workload.WithTraceLevel(opts.traceLevel))
	if err != nil {
		return err
	}
	result, err := r.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	// A cancelled replay still reports what was collected.
	if err != nil {
		logrus.Warnf("Replay stopped at t=%g: %v", result.EndTime, err)
	}

	fmt.Fprintf(w, "Simulation %s ended at t=%g\n", result.SimulationID, result.EndTime)
	for _, nt := range result.Monitors.Tables() {
		if !tables[nt.Name] {
			continue
		}
		fmt.Fprintf(w, "\n=== %s ===\n", nt.Name)
		nt.Table.Render(w)
	}

	if result.Trace.Enabled() {
		printTraceSummary(w, trace.Summarize(result.Trace))
	}
	if opts.metrics {
		if merr := writeMetrics(w, result); merr != nil {
			return merr
		}
	}
	return err
}

// selectTables resolves table names to a set. No names selects every table.
func selectTables(names []string) (map[string]bool, error) {
	known := map[string]bool{
		"jobs": true, "schedule": true, "hosts": true, "host_states": true,
		"host_pstates": true, "consumed_energy": true, "simulation": true,
	}
	if len(names) == 0 {
		return known, nil
	}
	selected := make(map[string]bool, len(names))
	for _, n := range names {
		if !known[n] {
			return nil, fmt.Errorf("unknown table %q", n)
		}
		selected[n] = true
	}
	return selected, nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintf(w, "\n=== Trace Summary ===\n")
	fmt.Fprintf(w, "Total Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Unique Senders: %d\n", s.UniqueSenders)
	fmt.Fprintf(w, "Time Span: %g - %g\n", s.FirstTime, s.LastTime)
	kinds := make([]string, 0, len(s.KindCounts))
	for k := range s.KindCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", k, s.KindCounts[k])
	}
}

// writeMetrics exports the run summary to a private registry and writes it
// in the Prometheus text format.
func writeMetrics(w io.Writer, result *workload.Result) error {
	registry := prometheus.NewRegistry()
	exporter := monitor.NewExporter(result.SimulationID)
	if err := exporter.Register(registry); err != nil {
		return err
	}
	exporter.Update(result.Monitors.Simulation.Info())

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	fmt.Fprintf(w, "\n=== Metrics ===\n")
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
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
	replayCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	replayCmd.Flags().StringVar(&presetName, "preset", "", "Built-in scenario to replay (see 'batsim presets')")
	replayCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Event trace level (none, events)")
	replayCmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print the run summary in the Prometheus text format")
	replayCmd.Flags().StringSliceVar(&tableNames, "tables", nil, "Monitor tables to print (jobs, schedule, hosts, host_states, host_pstates, consumed_energy, simulation)")

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(presetsCmd)
}
