package observation

import (
	"fmt"
	"sync"

	"github.com/sarchlab/stepsim/sim"
)

// A Point is one committed value on a time series.
type Point struct {
	Time  sim.VTimeInStep `json:"time"`
	Value float64         `json:"value"`
}

// A Sink receives committed aggregated values. The pipeline guarantees that
// the time of successive appends to one sink never decreases.
type Sink interface {
	Append(t sim.VTimeInStep, value float64)
}

// A Series is an in-memory time series and the default Sink. The scheduler
// thread appends; other threads read immutable snapshots.
type Series struct {
	mu     sync.RWMutex
	name   string
	points []Point
}

// NewSeries creates an empty series with the given name.
func NewSeries(name string) *Series {
	return &Series{name: name}
}

// Name returns the series name.
func (s *Series) Name() string {
	return s.name
}

// Append adds a committed point. Time must be non-decreasing across calls;
// a violation is a bug in the caller.
func (s *Series) Append(t sim.VTimeInStep, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.points); n > 0 && t < s.points[n-1].Time {
		panic(fmt.Sprintf(
			"series %s: append at %.10f before %.10f",
			s.name, t, s.points[n-1].Time))
	}

	s.points = append(s.points, Point{Time: t, Value: value})
}

// Len returns the number of committed points.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Snapshot returns a copy of the committed points, safe to read from any
// thread while the scheduler keeps appending.
func (s *Series) Snapshot() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := make([]Point, len(s.points))
	copy(points, s.points)
	return points
}

// MultiSink fans one committed value out to several sinks, e.g. an
// in-memory series for presentation plus a database recorder.
type MultiSink []Sink

// Append forwards the point to every sink in order.
func (m MultiSink) Append(t sim.VTimeInStep, value float64) {
	for _, s := range m {
		s.Append(t, value)
	}
}
