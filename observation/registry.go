package observation

import (
	"sort"
	"sync"
	"time"

	"github.com/sarchlab/stepsim/sim"
)

// ChartID is the stable identity of a chart. Pipelines that plot on the
// same chart share one ChartOptions instance through the registry.
type ChartID string

// ChartOptions holds the configuration shared by all the pipelines plotting
// on one chart: how samples aggregate, over how many ticks, and when the
// chart redraws. All access goes through the narrow accessor API.
type ChartOptions struct {
	mu            sync.Mutex
	method        AggregationMethod
	intervalTicks int
	redrawMode    RedrawMode
	redrawDelay   time.Duration
}

// NewChartOptions creates options with the defaults the original charting
// tools ship with: commit the current value every tick, redraw at most
// every half second.
func NewChartOptions() *ChartOptions {
	return &ChartOptions{
		method:        AggregateCurrent,
		intervalTicks: 1,
		redrawMode:    RedrawFixedDelay,
		redrawDelay:   500 * time.Millisecond,
	}
}

// Method returns the aggregation method.
func (o *ChartOptions) Method() AggregationMethod {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.method
}

// SetMethod changes the aggregation method. Pipelines pick the change up at
// their next tick.
func (o *ChartOptions) SetMethod(m AggregationMethod) {
	o.mu.Lock()
	o.method = m
	o.mu.Unlock()
}

// IntervalTicks returns the aggregation window length in ticks.
func (o *ChartOptions) IntervalTicks() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.intervalTicks
}

// SetIntervalTicks changes the aggregation window length. An interval below
// 1 fails with an *sim.InvalidIntervalError and leaves the options
// unchanged.
func (o *ChartOptions) SetIntervalTicks(n int) error {
	if n < 1 {
		return &sim.InvalidIntervalError{Interval: float64(n)}
	}

	o.mu.Lock()
	o.intervalTicks = n
	o.mu.Unlock()

	return nil
}

// Redraw returns the redraw mode and, for fixed-delay mode, the delay.
func (o *ChartOptions) Redraw() (RedrawMode, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.redrawMode, o.redrawDelay
}

// SetRedraw changes the redraw policy.
func (o *ChartOptions) SetRedraw(mode RedrawMode, delay time.Duration) {
	o.mu.Lock()
	o.redrawMode = mode
	o.redrawDelay = delay
	o.mu.Unlock()
}

// A ChartRegistry maps chart identities to their shared options. A pipeline
// joining an existing chart looks its options up directly by ID instead of
// scanning peer objects for a compatible configuration holder.
type ChartRegistry struct {
	mu     sync.Mutex
	charts map[ChartID]*ChartOptions
}

// NewChartRegistry creates an empty registry.
func NewChartRegistry() *ChartRegistry {
	return &ChartRegistry{
		charts: make(map[ChartID]*ChartOptions),
	}
}

// Options returns the shared options of the given chart, creating default
// options on first use.
func (r *ChartRegistry) Options(id ChartID) *ChartOptions {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts, ok := r.charts[id]
	if !ok {
		opts = NewChartOptions()
		r.charts[id] = opts
	}

	return opts
}

// ChartIDs returns the registered chart identities in sorted order.
func (r *ChartRegistry) ChartIDs() []ChartID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]ChartID, 0, len(r.charts))
	for id := range r.charts {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
