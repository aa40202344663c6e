package observation

import (
	"fmt"

	"github.com/sarchlab/stepsim/sim"
)

// AggregationMethod defines how the samples collected within one window
// reduce to a single committed value.
type AggregationMethod int

const (
	// AggregateCurrent keeps the most recent sample. Last write wins.
	AggregateCurrent AggregationMethod = iota

	// AggregateMax keeps the largest sample in the window.
	AggregateMax

	// AggregateMin keeps the smallest sample in the window.
	AggregateMin

	// AggregateMean commits the arithmetic mean of the window's samples.
	AggregateMean
)

func (m AggregationMethod) String() string {
	switch m {
	case AggregateCurrent:
		return "current"
	case AggregateMax:
		return "max"
	case AggregateMin:
		return "min"
	case AggregateMean:
		return "mean"
	default:
		return fmt.Sprintf("AggregationMethod(%d)", int(m))
	}
}

// ParseAggregationMethod converts a configuration string to an
// AggregationMethod.
func ParseAggregationMethod(s string) (AggregationMethod, error) {
	switch s {
	case "current":
		return AggregateCurrent, nil
	case "max":
		return AggregateMax, nil
	case "min":
		return AggregateMin, nil
	case "mean":
		return AggregateMean, nil
	default:
		return 0, fmt.Errorf("unknown aggregation method %q", s)
	}
}

// An Aggregator reduces the raw samples observed across one or more ticks
// to a single value per reporting window.
//
// The window is measured in observed ticks, not in wall time. The redraw
// delay of the coalescer is the only wall-clock quantity in this package;
// the two clocks never convert into each other.
type Aggregator struct {
	method   AggregationMethod
	interval int

	// Staged configuration, applied at the next window boundary.
	nextInterval int

	count int
	last  float64
	min   float64
	max   float64
	sum   float64
}

// NewAggregator creates an Aggregator with the given reduction method and
// window length in ticks. An interval below 1 fails with an
// *sim.InvalidIntervalError.
func NewAggregator(
	method AggregationMethod,
	intervalTicks int,
) (*Aggregator, error) {
	if intervalTicks < 1 {
		return nil, &sim.InvalidIntervalError{Interval: float64(intervalTicks)}
	}

	return &Aggregator{
		method:       method,
		interval:     intervalTicks,
		nextInterval: intervalTicks,
	}, nil
}

// Configure sets the reduction policy. An interval change only affects
// windows opened after the current one completes. A method change discards
// the partially accumulated window and starts a fresh one, so that two
// reduction semantics never mix within a single window.
func (a *Aggregator) Configure(
	method AggregationMethod,
	intervalTicks int,
) error {
	if intervalTicks < 1 {
		return &sim.InvalidIntervalError{Interval: float64(intervalTicks)}
	}

	a.nextInterval = intervalTicks

	if method != a.method {
		a.method = method
		a.reset()
	}

	return nil
}

// Method returns the active reduction method.
func (a *Aggregator) Method() AggregationMethod {
	return a.method
}

// Interval returns the active window length in ticks.
func (a *Aggregator) Interval() int {
	return a.interval
}

// Accumulate folds one sample into the current window. It is called at most
// once per tick; a tick whose sample is unavailable is simply never
// accumulated and does not count toward the window.
func (a *Aggregator) Accumulate(value float64) {
	if a.count == 0 {
		a.min = value
		a.max = value
	}

	a.last = value
	if value < a.min {
		a.min = value
	}
	if value > a.max {
		a.max = value
	}
	a.sum += value
	a.count++
}

// WindowElapsed returns true once the current window has accumulated a full
// interval of ticks. A tick with no sample never reaches Accumulate, so the
// sample count is the tick count.
func (a *Aggregator) WindowElapsed() bool {
	return a.count >= a.interval
}

// Flush returns the reduced value of the current window and opens the next
// one, applying any staged interval change. A window that accumulated zero
// samples returns false; callers skip the commit rather than recording a
// spurious zero.
func (a *Aggregator) Flush() (float64, bool) {
	if a.count == 0 {
		a.reset()
		return 0, false
	}

	var value float64
	switch a.method {
	case AggregateCurrent:
		value = a.last
	case AggregateMax:
		value = a.max
	case AggregateMin:
		value = a.min
	case AggregateMean:
		value = a.sum / float64(a.count)
	}

	a.reset()

	return value, true
}

func (a *Aggregator) reset() {
	a.interval = a.nextInterval
	a.count = 0
	a.last = 0
	a.min = 0
	a.max = 0
	a.sum = 0
}
