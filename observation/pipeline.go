package observation

import (
	"fmt"
	"log"
	"os"

	"github.com/sarchlab/stepsim/sim"
)

// A Sampler supplies the latest value of an observed property. Returning an
// error means the property is unreadable this tick; the tick is skipped.
type Sampler func() (float64, error)

// A SampleUnavailableError reports that a sampler could not produce a value
// for one tick. It is recoverable: the pipeline logs it and keeps going.
type SampleUnavailableError struct {
	Name string
	Err  error
}

func (e *SampleUnavailableError) Error() string {
	return fmt.Sprintf("sample %q unavailable: %v", e.Name, e.Err)
}

func (e *SampleUnavailableError) Unwrap() error {
	return e.Err
}

// A Pipeline connects one observed property to one chart series. On every
// scheduler tick it samples the property, folds the sample into the shared
// chart's aggregation window, and on window elapse commits the reduced
// value to the sink and requests a coalesced redraw.
//
// All pipeline state mutates on the scheduler's thread. The only other
// thread involved is the coalescer's deferred callback, which reads
// committed values only.
type Pipeline struct {
	name       string
	options    *ChartOptions
	aggregator *Aggregator
	coalescer  *RedrawCoalescer
	sink       Sink
	sampler    Sampler
	logger     *log.Logger

	lastObserved sim.VTimeInStep
}

// Name returns the name of the observed property.
func (p *Pipeline) Name() string {
	return p.name
}

// Options returns the shared chart options the pipeline follows.
func (p *Pipeline) Options() *ChartOptions {
	return p.options
}

// Handle lets a Pipeline be registered directly as repeating secondary work
// on the scheduler, so it observes after all the primary work of each step.
func (p *Pipeline) Handle(item *sim.WorkItem) error {
	p.OnTick(item.Time(), p.sampler)
	return nil
}

// OnTick feeds one tick into the pipeline. Calls with a time that is not
// strictly later than the previous observed time are no-ops, since no new
// information can exist. A failing sampler logs a warning and leaves the
// aggregation window untouched.
func (p *Pipeline) OnTick(now sim.VTimeInStep, sampler Sampler) {
	if now <= p.lastObserved {
		return
	}
	p.lastObserved = now

	p.applyOptions()

	value, err := sampler()
	if err != nil {
		p.logger.Printf(
			"warn: %v", &SampleUnavailableError{Name: p.name, Err: err})
		return
	}

	p.aggregator.Accumulate(value)

	if !p.aggregator.WindowElapsed() {
		return
	}

	committed, ok := p.aggregator.Flush()
	if !ok {
		return
	}

	p.sink.Append(now, committed)
	p.coalescer.RequestRefresh()
}

// Stop cancels any pending deferred redraw. Idempotent.
func (p *Pipeline) Stop() {
	p.coalescer.Stop()
}

// applyOptions picks up changes made to the shared chart options. Interval
// changes take effect at the next window; method changes restart the
// current window.
func (p *Pipeline) applyOptions() {
	_ = p.aggregator.Configure(p.options.Method(), p.options.IntervalTicks())
	p.coalescer.Configure(p.options.Redraw())
}

// PipelineBuilder can build observation pipelines.
type PipelineBuilder struct {
	name        string
	options     *ChartOptions
	sink        Sink
	sampler     Sampler
	refreshFunc func()
	logger      *log.Logger
}

// MakePipelineBuilder creates a PipelineBuilder.
func MakePipelineBuilder() PipelineBuilder {
	return PipelineBuilder{}
}

// WithName sets the name of the observed property.
func (b PipelineBuilder) WithName(name string) PipelineBuilder {
	b.name = name
	return b
}

// WithOptions sets the shared chart options the pipeline follows.
func (b PipelineBuilder) WithOptions(o *ChartOptions) PipelineBuilder {
	b.options = o
	return b
}

// WithSink sets the sink that receives committed values.
func (b PipelineBuilder) WithSink(s Sink) PipelineBuilder {
	b.sink = s
	return b
}

// WithSampler sets the sampler that reads the observed property.
func (b PipelineBuilder) WithSampler(s Sampler) PipelineBuilder {
	b.sampler = s
	return b
}

// WithRefreshFunc sets the callback invoked per the coalescing rules.
func (b PipelineBuilder) WithRefreshFunc(f func()) PipelineBuilder {
	b.refreshFunc = f
	return b
}

// WithLogger sets the logger for recoverable sampling warnings.
func (b PipelineBuilder) WithLogger(l *log.Logger) PipelineBuilder {
	b.logger = l
	return b
}

// Build creates a Pipeline.
func (b PipelineBuilder) Build() *Pipeline {
	if b.sink == nil {
		panic("pipeline requires a Sink")
	}

	if b.sampler == nil {
		panic("pipeline requires a Sampler")
	}

	if b.options == nil {
		b.options = NewChartOptions()
	}

	if b.refreshFunc == nil {
		b.refreshFunc = func() {}
	}

	if b.logger == nil {
		b.logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	aggregator, err := NewAggregator(b.options.Method(), b.options.IntervalTicks())
	if err != nil {
		panic(err)
	}

	mode, delay := b.options.Redraw()

	return &Pipeline{
		name:         b.name,
		options:      b.options,
		aggregator:   aggregator,
		coalescer:    NewRedrawCoalescer(b.refreshFunc, mode, delay),
		sink:         b.sink,
		sampler:      b.sampler,
		logger:       b.logger,
		lastObserved: sim.BeforeSimulation,
	}
}
