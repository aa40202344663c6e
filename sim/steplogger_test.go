package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("StepLogger", func() {
	var (
		mockCtrl  *gomock.Controller
		scheduler *Scheduler
		buf       *bytes.Buffer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		scheduler = NewScheduler()

		buf = &bytes.Buffer{}
		logger := NewStepLogger(log.New(buf, "", 0))
		scheduler.AcceptHook(logger)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should log every executed work item", func() {
		handler := NewMockHandler(mockCtrl)
		handler.EXPECT().Handle(gomock.Any()).Return(nil).Times(2)

		_, _ = scheduler.ScheduleOnce(handler, 1)
		_, _ = scheduler.ScheduleOnce(handler, 2.5)

		Expect(scheduler.Run()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("1.0000000000"))
		Expect(buf.String()).To(ContainSubstring("2.5000000000"))
		Expect(buf.String()).To(ContainSubstring("MockHandler"))
	})
})
