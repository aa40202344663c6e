package simulation

import (
	"github.com/rs/xid"

	"github.com/sarchlab/stepsim/datarecording"
	"github.com/sarchlab/stepsim/monitoring"
	"github.com/sarchlab/stepsim/observation"
	"github.com/sarchlab/stepsim/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	outputFileName string

	clickHouseAddr     string
	clickHouseDatabase string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser makes the monitoring server open its URL in a local browser.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithClickHouse records committed series into a ClickHouse database
// instead of the default local SQLite file.
func (b Builder) WithClickHouse(addr, database string) Builder {
	b.clickHouseAddr = addr
	b.clickHouseDatabase = database
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.clickHouseAddr != "" && b.outputFileName != "" {
		panic("output file name cannot be set when recording to ClickHouse")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		seriesIndex: make(map[string]int),
	}

	s.id = xid.New().String()

	s.recorder = b.buildRecorder(s.id)
	s.scheduler = sim.NewScheduler()
	s.registry = observation.NewChartRegistry()

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.openBrowser {
			s.monitor.WithBrowser()
		}
		s.monitor.RegisterScheduler(s.scheduler)
		s.monitor.RegisterChartRegistry(s.registry)
		s.monitor.StartServer()
	}

	return s
}

func (b Builder) buildRecorder(id string) datarecording.DataRecorder {
	if b.clickHouseAddr != "" {
		return datarecording.NewClickHouseRecorder(
			b.clickHouseAddr, b.clickHouseDatabase)
	}

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "stepsim_" + id
	}

	return datarecording.New(outputPath)
}
