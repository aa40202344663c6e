package simulation

import (
	"github.com/sarchlab/stepsim/datarecording"
	"github.com/sarchlab/stepsim/monitoring"
	"github.com/sarchlab/stepsim/observation"
	"github.com/sarchlab/stepsim/sim"
)

// A Simulation bundles the services a stepped model needs: the scheduler
// that drives it, the chart registry, the data recorder that persists
// committed series, and the optional monitoring server.
type Simulation struct {
	id string

	scheduler *sim.Scheduler
	recorder  datarecording.DataRecorder
	registry  *observation.ChartRegistry
	monitor   *monitoring.Monitor

	pipelines   []*observation.Pipeline
	series      []*observation.Series
	seriesIndex map[string]int
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Scheduler returns the scheduler that drives the simulation.
func (s *Simulation) Scheduler() *sim.Scheduler {
	return s.scheduler
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.recorder
}

// GetMonitor returns the monitor used in the simulation. It is nil when
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// ChartRegistry returns the registry of chart configurations.
func (s *Simulation) ChartRegistry() *observation.ChartRegistry {
	return s.registry
}

// Observe attaches a sampler to the named chart. Each call creates one
// pipeline that samples after every step, commits aggregates into an
// in-memory series and the data recorder, and requests chart redraws
// through the monitor. The returned series holds the committed points.
func (s *Simulation) Observe(
	name string,
	chartID observation.ChartID,
	sampler observation.Sampler,
) *observation.Series {
	if _, exists := s.seriesIndex[name]; exists {
		panic("series " + name + " already observed")
	}

	series := observation.NewSeries(name)
	sink := observation.MultiSink{
		series,
		datarecording.NewSeriesWriter(s.recorder, name),
	}

	refreshFunc := func() {}
	if s.monitor != nil {
		refreshFunc = s.monitor.NotifyRefresh
	}

	pipeline := observation.MakePipelineBuilder().
		WithName(name).
		WithOptions(s.registry.Options(chartID)).
		WithSink(sink).
		WithSampler(sampler).
		WithRefreshFunc(refreshFunc).
		Build()

	_, err := s.scheduler.ScheduleRepeatingSecondary(
		pipeline, s.scheduler.CurrentTime(), 1)
	if err != nil {
		panic(err)
	}

	if s.monitor != nil {
		s.monitor.RegisterSeries(series)
		s.monitor.RegisterPipeline(pipeline)
	}

	s.pipelines = append(s.pipelines, pipeline)
	s.series = append(s.series, series)
	s.seriesIndex[name] = len(s.series) - 1

	return series
}

// SeriesByName returns the committed series with the given name, or nil if
// no such property is observed.
func (s *Simulation) SeriesByName(name string) *observation.Series {
	index, ok := s.seriesIndex[name]
	if !ok {
		return nil
	}

	return s.series[index]
}

// Run advances the simulation until no work remains.
func (s *Simulation) Run() error {
	return s.scheduler.Run()
}

// RunUntil advances the simulation step by step until the clock reaches t
// or no work remains. A progress bar tracks the run on the monitor.
func (s *Simulation) RunUntil(t sim.VTimeInStep) {
	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar("Run until", uint64(t))
		defer s.monitor.CompleteProgressBar(bar)
	}

	for s.scheduler.CurrentTime() < t {
		_, ok := s.scheduler.Advance()
		if !ok {
			return
		}

		if bar != nil {
			bar.IncrementCompleted(1)
		}
	}
}

// Terminate stops all the observation pipelines and closes the data
// recorder.
func (s *Simulation) Terminate() {
	for _, p := range s.pipelines {
		p.Stop()
	}

	s.recorder.Close()
}
