package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/stepsim/observation"
	"github.com/sarchlab/stepsim/sim"
)

// Monitor turns a running simulation into a server, allowing external
// observation and control. It also serves as the refresh-callback consumer:
// coalesced redraw requests bump a generation counter that chart clients
// poll.
type Monitor struct {
	scheduler   *sim.Scheduler
	registry    *observation.ChartRegistry
	portNumber  int
	openBrowser bool

	seriesLock sync.Mutex
	series     map[string]*observation.Series
	pipelines  map[string]*observation.Pipeline

	refreshGeneration atomic.Uint64

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		series:    make(map[string]*observation.Series),
		pipelines: make(map[string]*observation.Pipeline),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the server URL in a local browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterScheduler registers the scheduler that drives the simulation.
func (m *Monitor) RegisterScheduler(s *sim.Scheduler) {
	m.scheduler = s
}

// RegisterChartRegistry registers the chart configuration registry.
func (m *Monitor) RegisterChartRegistry(r *observation.ChartRegistry) {
	m.registry = r
}

// RegisterSeries makes a committed series available over the API.
func (m *Monitor) RegisterSeries(s *observation.Series) {
	m.seriesLock.Lock()
	defer m.seriesLock.Unlock()

	m.series[s.Name()] = s
}

// RegisterPipeline makes a pipeline inspectable over the API.
func (m *Monitor) RegisterPipeline(p *observation.Pipeline) {
	m.seriesLock.Lock()
	defer m.seriesLock.Unlock()

	m.pipelines[p.Name()] = p
}

// NotifyRefresh is the refresh callback handed to the redraw coalescers. It
// only bumps a counter; it never touches aggregation state, so it is safe
// to run on the timer thread.
func (m *Monitor) NotifyRefresh() {
	m.refreshGeneration.Add(1)
}

// RefreshGeneration returns the number of refreshes fired so far.
func (m *Monitor) RefreshGeneration() uint64 {
	return m.refreshGeneration.Load()
}

// CreateProgressBar creates a new progress bar tracking totalSteps steps.
func (m *Monitor) CreateProgressBar(
	name string,
	totalSteps uint64,
) *ProgressBar {
	bar := &ProgressBar{
		ID:         sim.GetIDGenerator().Generate(),
		Name:       name,
		StartTime:  time.Now(),
		TotalSteps: totalSteps,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the API listing.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := m.makeRouter()

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	if m.openBrowser {
		_ = browser.OpenURL(url + "/api/charts")
	}

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

func (m *Monitor) makeRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseScheduler)
	r.HandleFunc("/api/continue", m.continueScheduler)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/refresh", m.refresh)
	r.HandleFunc("/api/charts", m.listCharts)
	r.HandleFunc("/api/series", m.listSeries)
	r.HandleFunc("/api/series/{name}", m.seriesPoints)
	r.HandleFunc("/api/pipeline/{name}", m.pipelineDetails)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

func (m *Monitor) pauseScheduler(w http.ResponseWriter, _ *http.Request) {
	m.scheduler.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueScheduler(w http.ResponseWriter, _ *http.Request) {
	m.scheduler.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		err := m.scheduler.Run()
		if err != nil {
			panic(err)
		}
	}()
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.scheduler.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

func (m *Monitor) refresh(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"generation\":%d}", m.refreshGeneration.Load())
}

type chartRsp struct {
	ID       string `json:"id"`
	Method   string `json:"method"`
	Interval int    `json:"interval_ticks"`
	Redraw   string `json:"redraw"`
	DelayMS  int64  `json:"delay_ms"`
}

func (m *Monitor) listCharts(w http.ResponseWriter, _ *http.Request) {
	charts := make([]chartRsp, 0)

	if m.registry != nil {
		for _, id := range m.registry.ChartIDs() {
			opts := m.registry.Options(id)
			mode, delay := opts.Redraw()

			charts = append(charts, chartRsp{
				ID:       string(id),
				Method:   opts.Method().String(),
				Interval: opts.IntervalTicks(),
				Redraw:   mode.String(),
				DelayMS:  delay.Milliseconds(),
			})
		}
	}

	writeJSON(w, charts)
}

func (m *Monitor) listSeries(w http.ResponseWriter, _ *http.Request) {
	m.seriesLock.Lock()
	names := make([]string, 0, len(m.series))
	for name := range m.series {
		names = append(names, name)
	}
	m.seriesLock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) seriesPoints(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m.seriesLock.Lock()
	series, ok := m.series[name]
	m.seriesLock.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Series not found"))
		dieOnErr(err)
		return
	}

	writeJSON(w, series.Snapshot())
}

func (m *Monitor) pipelineDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m.seriesLock.Lock()
	pipeline, ok := m.pipelines[name]
	m.seriesLock.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Pipeline not found"))
		dieOnErr(err)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(pipeline)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
