package sim

import (
	"container/heap"
	"sync"
)

// WorkQueue is a queue of WorkItems ordered by due time, with registration
// order breaking ties.
type WorkQueue interface {
	Push(item *WorkItem)
	Pop() *WorkItem
	Len() int
	Peek() *WorkItem
}

// WorkQueueImpl provides a thread safe work queue.
type WorkQueueImpl struct {
	sync.Mutex
	items workItemHeap
}

// NewWorkQueue creates and returns a newly created WorkQueue.
func NewWorkQueue() *WorkQueueImpl {
	q := new(WorkQueueImpl)
	q.items = make([]*WorkItem, 0)
	heap.Init(&q.items)
	return q
}

// Push adds an item to the work queue.
func (q *WorkQueueImpl) Push(item *WorkItem) {
	q.Lock()
	heap.Push(&q.items, item)
	q.Unlock()
}

// Pop returns the item with the earliest (time, sequence) key.
func (q *WorkQueueImpl) Pop() *WorkItem {
	q.Lock()
	defer q.Unlock()

	if q.items.Len() == 0 {
		return nil
	}

	return heap.Pop(&q.items).(*WorkItem)
}

// Len returns the number of items in the queue.
func (q *WorkQueueImpl) Len() int {
	q.Lock()
	l := q.items.Len()
	q.Unlock()
	return l
}

// Peek returns the item in front of the queue without removing it from the
// queue.
func (q *WorkQueueImpl) Peek() *WorkItem {
	q.Lock()
	defer q.Unlock()

	if q.items.Len() == 0 {
		return nil
	}

	return q.items[0]
}

type workItemHeap []*WorkItem

func (h workItemHeap) Len() int {
	return len(h)
}

// Less orders items by due time, breaking same-time ties by registration
// sequence. The tie break is what makes execution order deterministic.
func (h workItemHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h workItemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *workItemHeap) Push(x any) {
	item := x.(*WorkItem)
	*h = append(*h, item)
}

func (h *workItemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
