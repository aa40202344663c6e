package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WorkQueue", func() {
	var queue WorkQueue

	BeforeEach(func() {
		queue = NewWorkQueue()
	})

	It("should pop items in time order", func() {
		item1 := &WorkItem{time: 3, seq: 0}
		item2 := &WorkItem{time: 1, seq: 1}
		item3 := &WorkItem{time: 2, seq: 2}

		queue.Push(item1)
		queue.Push(item2)
		queue.Push(item3)

		Expect(queue.Pop()).To(BeIdenticalTo(item2))
		Expect(queue.Pop()).To(BeIdenticalTo(item3))
		Expect(queue.Pop()).To(BeIdenticalTo(item1))
	})

	It("should break same-time ties by registration sequence", func() {
		items := make([]*WorkItem, 10)
		for i := range items {
			items[i] = &WorkItem{time: 7, seq: uint64(i)}
		}

		// Push in a scrambled order.
		for _, i := range []int{4, 0, 9, 2, 7, 1, 8, 3, 6, 5} {
			queue.Push(items[i])
		}

		for i := range items {
			Expect(queue.Pop()).To(BeIdenticalTo(items[i]))
		}
	})

	It("should peek without removing", func() {
		item := &WorkItem{time: 1}
		queue.Push(item)

		Expect(queue.Peek()).To(BeIdenticalTo(item))
		Expect(queue.Len()).To(Equal(1))
	})

	It("should return nil when empty", func() {
		Expect(queue.Pop()).To(BeNil())
		Expect(queue.Peek()).To(BeNil())
	})
})
