package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/stepsim/examples/randomwalk"
	"github.com/sarchlab/stepsim/observation"
	"github.com/sarchlab/stepsim/sim"
	"github.com/sarchlab/stepsim/simulation"
)

var runFlags struct {
	steps       int
	walkers     int
	seed        int64
	method      string
	interval    int
	redraw      string
	redrawDelay time.Duration

	output         string
	clickHouseAddr string
	clickHouseDB   string

	noMonitor   bool
	monitorPort int
	browser     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the random-walk model",
	RunE:  runModel,
}

func init() {
	flags := runCmd.Flags()

	flags.IntVar(&runFlags.steps, "steps", 1000,
		"number of steps to simulate")
	flags.IntVar(&runFlags.walkers, "walkers", 100,
		"number of walkers in the world")
	flags.Int64Var(&runFlags.seed, "seed", 0,
		"seed of the random source")
	flags.StringVar(&runFlags.method, "method", "current",
		"aggregation method (current, max, min, mean)")
	flags.IntVar(&runFlags.interval, "interval", 1,
		"aggregation window length in steps")
	flags.StringVar(&runFlags.redraw, "redraw", "delay",
		"chart redraw policy (immediate, delay, suppressed)")
	flags.DurationVar(&runFlags.redrawDelay, "redraw-delay",
		500*time.Millisecond,
		"minimum wall-clock time between chart redraws")

	flags.StringVar(&runFlags.output, "output", "",
		"output file name of the SQLite recording")
	flags.StringVar(&runFlags.clickHouseAddr, "clickhouse-addr", "",
		"record into this ClickHouse server instead of SQLite "+
			"(falls back to STEPSIM_CLICKHOUSE_ADDR)")
	flags.StringVar(&runFlags.clickHouseDB, "clickhouse-db", "",
		"ClickHouse database to record into "+
			"(falls back to STEPSIM_CLICKHOUSE_DB)")

	flags.BoolVar(&runFlags.noMonitor, "no-monitor", false,
		"disable the monitoring server")
	flags.IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random when 0")
	flags.BoolVar(&runFlags.browser, "browser", false,
		"open the monitoring URL in a local browser")

	rootCmd.AddCommand(runCmd)
}

// resolveRecorderEnv fills unset recorder flags from the environment. It
// must run after the root command loads .env, so that values from the file
// are visible; resolving them as flag defaults in init would read the
// environment before the file is loaded.
func resolveRecorderEnv() {
	if runFlags.clickHouseAddr == "" {
		runFlags.clickHouseAddr = os.Getenv("STEPSIM_CLICKHOUSE_ADDR")
	}
	if runFlags.clickHouseDB == "" {
		runFlags.clickHouseDB = os.Getenv("STEPSIM_CLICKHOUSE_DB")
	}
}

func runModel(_ *cobra.Command, _ []string) error {
	resolveRecorderEnv()

	s, err := buildSimulation()
	if err != nil {
		return err
	}
	defer s.Terminate()

	if err := configureChart(s); err != nil {
		return err
	}

	world := randomwalk.NewWorld(runFlags.walkers, runFlags.seed)
	world.Install(s)

	s.RunUntil(sim.VTimeInStep(runFlags.steps))

	mean, err := world.MeanDisplacement()
	if err != nil {
		return err
	}

	fmt.Printf("mean displacement after %d steps: %.4f\n",
		runFlags.steps, mean)

	return nil
}

func buildSimulation() (*simulation.Simulation, error) {
	builder := simulation.MakeBuilder()

	if runFlags.noMonitor {
		builder = builder.WithoutMonitoring()
	} else {
		if runFlags.monitorPort > 0 {
			builder = builder.WithMonitorPort(runFlags.monitorPort)
		}
		if runFlags.browser {
			builder = builder.WithBrowser()
		}
	}

	if runFlags.clickHouseAddr != "" {
		builder = builder.WithClickHouse(
			runFlags.clickHouseAddr, runFlags.clickHouseDB)
	} else if runFlags.output != "" {
		builder = builder.WithOutputFileName(runFlags.output)
	}

	return builder.Build(), nil
}

func configureChart(s *simulation.Simulation) error {
	opts := s.ChartRegistry().Options("displacement")

	method, err := observation.ParseAggregationMethod(runFlags.method)
	if err != nil {
		return err
	}
	opts.SetMethod(method)

	if err := opts.SetIntervalTicks(runFlags.interval); err != nil {
		return err
	}

	mode, err := observation.ParseRedrawMode(runFlags.redraw)
	if err != nil {
		return err
	}
	opts.SetRedraw(mode, runFlags.redrawDelay)

	return nil
}
