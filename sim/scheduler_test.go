package sim

import (
	"errors"

	gomock "go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scheduler", func() {
	var (
		mockCtrl  *gomock.Controller
		scheduler *Scheduler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		scheduler = NewScheduler()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should execute work in time order", func() {
		handler := NewMockHandler(mockCtrl)

		late, err := scheduler.ScheduleOnce(handler, 4)
		Expect(err).ToNot(HaveOccurred())
		early, err := scheduler.ScheduleOnce(handler, 2)
		Expect(err).ToNot(HaveOccurred())

		first := handler.EXPECT().Handle(early).Return(nil)
		handler.EXPECT().Handle(late).Return(nil).After(first)

		now, ok := scheduler.Advance()
		Expect(ok).To(BeTrue())
		Expect(now).To(Equal(VTimeInStep(2)))

		now, ok = scheduler.Advance()
		Expect(ok).To(BeTrue())
		Expect(now).To(Equal(VTimeInStep(4)))
	})

	It("should execute same-time work in registration order", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		handler3 := NewMockHandler(mockCtrl)

		item1, _ := scheduler.ScheduleOnce(handler1, 3)
		item2, _ := scheduler.ScheduleOnce(handler2, 3)
		item3, _ := scheduler.ScheduleOnce(handler3, 3)

		first := handler1.EXPECT().Handle(item1).Return(nil)
		second := handler2.EXPECT().Handle(item2).Return(nil).After(first)
		handler3.EXPECT().Handle(item3).Return(nil).After(second)

		now, ok := scheduler.Advance()
		Expect(ok).To(BeTrue())
		Expect(now).To(Equal(VTimeInStep(3)))
	})

	It("should run secondary work after all same-time primary work", func() {
		observer := NewMockHandler(mockCtrl)
		agent := NewMockHandler(mockCtrl)

		secondary, _ := scheduler.ScheduleOnceSecondary(observer, 1)
		primary, _ := scheduler.ScheduleOnce(agent, 1)

		agentDone := agent.EXPECT().Handle(primary).Return(nil)
		observer.EXPECT().Handle(secondary).Return(nil).After(agentDone)

		_, ok := scheduler.Advance()
		Expect(ok).To(BeTrue())
	})

	It("should execute work registered at the current time within the same advance", func() {
		outer := NewMockHandler(mockCtrl)
		inner := NewMockHandler(mockCtrl)

		item, _ := scheduler.ScheduleOnce(outer, 2)

		outerDone := outer.EXPECT().Handle(item).DoAndReturn(
			func(i *WorkItem) error {
				_, err := scheduler.ScheduleOnce(inner, 2)
				Expect(err).ToNot(HaveOccurred())
				return nil
			})
		inner.EXPECT().Handle(gomock.Any()).Return(nil).After(outerDone)

		now, ok := scheduler.Advance()
		Expect(ok).To(BeTrue())
		Expect(now).To(Equal(VTimeInStep(2)))

		_, ok = scheduler.Advance()
		Expect(ok).To(BeFalse())
	})

	It("should execute a repeating item once per step", func() {
		handler := NewMockHandler(mockCtrl)
		handler.EXPECT().Handle(gomock.Any()).Return(nil).Times(10)

		_, err := scheduler.ScheduleRepeating(handler, 0, 1)
		Expect(err).ToNot(HaveOccurred())

		var now VTimeInStep
		for i := 0; i < 10; i++ {
			var ok bool
			now, ok = scheduler.Advance()
			Expect(ok).To(BeTrue())
		}

		Expect(now).To(Equal(VTimeInStep(9)))
		Expect(scheduler.CurrentTime()).To(Equal(VTimeInStep(9)))
	})

	It("should reject work scheduled in the past", func() {
		handler := NewMockHandler(mockCtrl)

		item, err := scheduler.ScheduleOnce(handler, -1)
		Expect(item).To(BeNil())

		var timeErr *InvalidTimeError
		Expect(errors.As(err, &timeErr)).To(BeTrue())
		Expect(timeErr.Time).To(Equal(VTimeInStep(-1)))
		Expect(timeErr.Now).To(Equal(VTimeInStep(0)))

		_, ok := scheduler.Advance()
		Expect(ok).To(BeFalse())
	})

	It("should reject work scheduled before the advanced clock", func() {
		handler := NewMockHandler(mockCtrl)
		handler.EXPECT().Handle(gomock.Any()).Return(nil)

		_, err := scheduler.ScheduleOnce(handler, 5)
		Expect(err).ToNot(HaveOccurred())
		_, ok := scheduler.Advance()
		Expect(ok).To(BeTrue())

		_, err = scheduler.ScheduleOnce(handler, 4)

		var timeErr *InvalidTimeError
		Expect(errors.As(err, &timeErr)).To(BeTrue())
	})

	It("should reject non-positive repeat intervals", func() {
		handler := NewMockHandler(mockCtrl)

		var intervalErr *InvalidIntervalError

		_, err := scheduler.ScheduleRepeating(handler, 0, 0)
		Expect(errors.As(err, &intervalErr)).To(BeTrue())

		_, err = scheduler.ScheduleRepeating(handler, 0, -0.5)
		Expect(errors.As(err, &intervalErr)).To(BeTrue())

		_, err = scheduler.ScheduleRepeatingSecondary(handler, 0, 0)
		Expect(errors.As(err, &intervalErr)).To(BeTrue())
	})

	It("should never execute a cancelled pending item", func() {
		handler := NewMockHandler(mockCtrl)

		item, _ := scheduler.ScheduleOnce(handler, 1)
		scheduler.Cancel(item)

		_, ok := scheduler.Advance()
		Expect(ok).To(BeFalse())
		Expect(item.State()).To(Equal(WorkItemCancelled))
	})

	It("should treat repeated cancellation as a single cancellation", func() {
		handler := NewMockHandler(mockCtrl)

		item, _ := scheduler.ScheduleOnce(handler, 1)
		scheduler.Cancel(item)
		scheduler.Cancel(item)

		Expect(item.State()).To(Equal(WorkItemCancelled))
		_, ok := scheduler.Advance()
		Expect(ok).To(BeFalse())
	})

	It("should not retract an in-flight execution on cancel", func() {
		handler := NewMockHandler(mockCtrl)

		item, _ := scheduler.ScheduleRepeating(handler, 0, 1)

		handler.EXPECT().Handle(item).DoAndReturn(func(i *WorkItem) error {
			scheduler.Cancel(i)
			return nil
		})

		now, ok := scheduler.Advance()
		Expect(ok).To(BeTrue())
		Expect(now).To(Equal(VTimeInStep(0)))

		// The repeating item must not have been re-enqueued.
		_, ok = scheduler.Advance()
		Expect(ok).To(BeFalse())
	})

	It("should retire one-shot items after execution", func() {
		handler := NewMockHandler(mockCtrl)

		item, _ := scheduler.ScheduleOnce(handler, 1)
		handler.EXPECT().Handle(item).Return(nil)

		_, ok := scheduler.Advance()
		Expect(ok).To(BeTrue())
		Expect(item.State()).To(Equal(WorkItemRetired))
	})

	It("should drain all work with Run", func() {
		handler := NewMockHandler(mockCtrl)
		handler.EXPECT().Handle(gomock.Any()).Return(nil).Times(3)

		_, _ = scheduler.ScheduleOnce(handler, 1)
		_, _ = scheduler.ScheduleOnce(handler, 2)
		_, _ = scheduler.ScheduleOnce(handler, 3)

		Expect(scheduler.Run()).To(Succeed())
		Expect(scheduler.CurrentTime()).To(Equal(VTimeInStep(3)))
	})
})
