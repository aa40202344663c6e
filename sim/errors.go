package sim

import "fmt"

// An InvalidTimeError is returned when a caller tries to register work
// strictly in the past. The registration is rejected and no WorkItem is
// added; the scheduler state is unchanged.
type InvalidTimeError struct {
	Time VTimeInStep
	Now  VTimeInStep
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf(
		"cannot schedule work at %.10f, current time is %.10f",
		e.Time, e.Now)
}

// An InvalidIntervalError is returned when a repeat interval or an
// aggregation interval is not positive. Intervals are never silently
// clamped.
type InvalidIntervalError struct {
	Interval float64
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("interval must be positive, got %v", e.Interval)
}
