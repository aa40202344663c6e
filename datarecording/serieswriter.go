package datarecording

import (
	"strings"

	"github.com/sarchlab/stepsim/sim"
)

// seriesEntry is the row format of a recorded time series.
type seriesEntry struct {
	Time  float64
	Value float64
}

// A SeriesWriter adapts a DataRecorder into an observation sink, persisting
// every committed aggregate as one row of the series' table.
type SeriesWriter struct {
	recorder DataRecorder
	table    string
}

// NewSeriesWriter creates the table for the named series and returns a
// writer appending to it.
func NewSeriesWriter(recorder DataRecorder, seriesName string) *SeriesWriter {
	w := &SeriesWriter{
		recorder: recorder,
		table:    SeriesTableName(seriesName),
	}

	recorder.CreateTable(w.table, seriesEntry{})

	return w
}

// Append records one committed point.
func (w *SeriesWriter) Append(t sim.VTimeInStep, value float64) {
	w.recorder.InsertData(w.table, seriesEntry{
		Time:  float64(t),
		Value: value,
	})
}

// TableName returns the name of the table the writer appends to.
func (w *SeriesWriter) TableName() string {
	return w.table
}

// SeriesTableName derives a SQL-safe table name from a series name.
func SeriesTableName(seriesName string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, seriesName)

	return "series_" + strings.ToLower(mapped)
}
