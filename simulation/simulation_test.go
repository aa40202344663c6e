package simulation

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/stepsim/observation"
	"github.com/sarchlab/stepsim/sim"
)

type countingModel struct {
	count float64
}

func (m *countingModel) Handle(_ *sim.WorkItem) error {
	m.count++
	return nil
}

var _ = Describe("Simulation", func() {
	var (
		simulation *Simulation
		model      *countingModel
	)

	BeforeEach(func() {
		simulation = MakeBuilder().WithoutMonitoring().Build()

		model = &countingModel{}
		_, err := simulation.Scheduler().ScheduleRepeating(model, 0, 1)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		simulation.Terminate()

		os.Remove("stepsim_" + simulation.ID() + ".sqlite3")
	})

	It("should commit observed values after each step", func() {
		series := simulation.Observe("count", "model",
			func() (float64, error) { return model.count, nil })

		simulation.RunUntil(3)

		Expect(series.Snapshot()).To(Equal([]observation.Point{
			{Time: 0, Value: 1},
			{Time: 1, Value: 2},
			{Time: 2, Value: 3},
			{Time: 3, Value: 4},
		}))
	})

	It("should find a series by name", func() {
		series := simulation.Observe("count", "model",
			func() (float64, error) { return model.count, nil })

		Expect(simulation.SeriesByName("count")).To(BeIdenticalTo(series))
		Expect(simulation.SeriesByName("missing")).To(BeNil())
	})

	It("should reject observing the same name twice", func() {
		sampler := func() (float64, error) { return 0, nil }

		simulation.Observe("count", "model", sampler)

		Expect(func() {
			simulation.Observe("count", "model", sampler)
		}).To(Panic())
	})

	It("should share chart options between pipelines on one chart", func() {
		sampler := func() (float64, error) { return 0, nil }

		simulation.Observe("a", "shared", sampler)
		simulation.Observe("b", "shared", sampler)

		opts := simulation.ChartRegistry().Options("shared")
		Expect(opts.SetIntervalTicks(2)).To(Succeed())
		Expect(opts.IntervalTicks()).To(Equal(2))
	})

	Context("Builder with custom output file", func() {
		var customSim *Simulation

		AfterEach(func() {
			if customSim != nil {
				customSim.Terminate()
				os.Remove("test_custom_output.sqlite3")
				customSim = nil
			}
		})

		It("should allow custom output file to be set", func() {
			builder := MakeBuilder().
				WithoutMonitoring().
				WithOutputFileName("test_custom_output")
			customSim = builder.Build()

			Expect(customSim).ToNot(BeNil())
			Expect(customSim.GetDataRecorder()).ToNot(BeNil())
		})
	})
})
