package sim

import (
	"sync"
)

// A Scheduler owns the simulation clock and the total ordering of pending
// WorkItems. It advances virtual time one discrete step at a time,
// executing all the work due at each step in registration order.
type Scheduler struct {
	HookableBase

	timeLock sync.RWMutex
	time     VTimeInStep

	stateLock sync.Mutex
	nextSeq   uint64

	queue          WorkQueue
	secondaryQueue WorkQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// NewScheduler creates a Scheduler with an empty queue and the clock at 0.
func NewScheduler() *Scheduler {
	s := new(Scheduler)

	s.queue = NewWorkQueue()
	s.secondaryQueue = NewWorkQueue()

	return s
}

// ScheduleOnce registers work to execute exactly once at the given time.
// Registering work strictly in the past fails with an *InvalidTimeError and
// leaves the scheduler unchanged.
func (s *Scheduler) ScheduleOnce(
	h Handler,
	at VTimeInStep,
) (*WorkItem, error) {
	return s.schedule(h, at, 0, false)
}

// ScheduleRepeating registers work that executes at first and then again
// every interval after that, until cancelled. A non-positive interval fails
// with an *InvalidIntervalError.
func (s *Scheduler) ScheduleRepeating(
	h Handler,
	first VTimeInStep,
	interval VTimeInStep,
) (*WorkItem, error) {
	if interval <= 0 {
		return nil, &InvalidIntervalError{Interval: float64(interval)}
	}

	return s.schedule(h, first, interval, false)
}

// ScheduleOnceSecondary is like ScheduleOnce, but the item executes after
// all the primary items due at the same time.
func (s *Scheduler) ScheduleOnceSecondary(
	h Handler,
	at VTimeInStep,
) (*WorkItem, error) {
	return s.schedule(h, at, 0, true)
}

// ScheduleRepeatingSecondary is like ScheduleRepeating, but the item
// executes after all the primary items due at the same time. Observers use
// secondary items so that they always sample post-step state.
func (s *Scheduler) ScheduleRepeatingSecondary(
	h Handler,
	first VTimeInStep,
	interval VTimeInStep,
) (*WorkItem, error) {
	if interval <= 0 {
		return nil, &InvalidIntervalError{Interval: float64(interval)}
	}

	return s.schedule(h, first, interval, true)
}

func (s *Scheduler) schedule(
	h Handler,
	at VTimeInStep,
	interval VTimeInStep,
	secondary bool,
) (*WorkItem, error) {
	if h == nil {
		panic("scheduler: handler must not be nil")
	}

	now := s.readNow()
	if at < now {
		return nil, &InvalidTimeError{Time: at, Now: now}
	}

	s.stateLock.Lock()
	item := &WorkItem{
		ID:        GetIDGenerator().Generate(),
		time:      at,
		seq:       s.nextSeq,
		handler:   h,
		interval:  interval,
		secondary: secondary,
		state:     WorkItemPending,
	}
	s.nextSeq++
	s.stateLock.Unlock()

	if secondary {
		s.secondaryQueue.Push(item)
		return item, nil
	}

	s.queue.Push(item)

	return item, nil
}

// Cancel marks a WorkItem so that it never executes again. Cancelling a
// pending item retires it immediately. Cancelling an item that is currently
// executing lets the in-flight execution complete but suppresses the
// re-enqueue of a repeating item. Cancel is idempotent and never fails on
// items that are already completed or cancelled.
func (s *Scheduler) Cancel(item *WorkItem) {
	if item == nil {
		return
	}

	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	switch item.state {
	case WorkItemPending, WorkItemExecuting:
		item.state = WorkItemCancelled
	}
}

// Advance pops all the WorkItems due at the earliest pending time, executes
// them in (time, sequence) order with primary items before secondary ones,
// re-enqueues repeating items, and moves the clock to that time. It returns
// the new current time, or false when no work remains.
func (s *Scheduler) Advance() (VTimeInStep, bool) {
	t, ok := s.earliestDueTime()
	if !ok {
		return s.readNow(), false
	}

	s.writeNow(t)

	// Handlers may register more work at the current time. Draining one
	// item at a time, primaries first, keeps newly registered same-time
	// work inside this step while preserving registration order.
	for {
		item := s.popDueAt(t)
		if item == nil {
			break
		}

		s.execute(item)
	}

	return t, true
}

// Run advances the scheduler until no work remains. It can be paused with
// Pause and resumed with Continue.
func (s *Scheduler) Run() error {
	s.singleRunLock.Lock()
	defer s.singleRunLock.Unlock()

	for {
		s.pauseLock.Lock()
		_, ok := s.Advance()
		s.pauseLock.Unlock()

		if !ok {
			return nil
		}
	}
}

// Pause prevents the Scheduler from executing more steps until Continue is
// called.
func (s *Scheduler) Pause() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if s.isPaused {
		return
	}

	s.pauseLock.Lock()
	s.isPaused = true
}

// Continue resumes step execution after a Pause.
func (s *Scheduler) Continue() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return
	}

	s.pauseLock.Unlock()
	s.isPaused = false
}

// CurrentTime returns the current time of the clock. Specifically, the time
// of the most recent advance.
func (s *Scheduler) CurrentTime() VTimeInStep {
	return s.readNow()
}

func (s *Scheduler) readNow() VTimeInStep {
	s.timeLock.RLock()
	t := s.time
	s.timeLock.RUnlock()
	return t
}

func (s *Scheduler) writeNow(t VTimeInStep) {
	s.timeLock.Lock()
	s.time = t
	s.timeLock.Unlock()
}

func (s *Scheduler) earliestDueTime() (VTimeInStep, bool) {
	s.dropCancelledHead(s.queue)
	s.dropCancelledHead(s.secondaryQueue)

	primary := s.queue.Peek()
	secondary := s.secondaryQueue.Peek()

	switch {
	case primary == nil && secondary == nil:
		return 0, false
	case primary == nil:
		return secondary.Time(), true
	case secondary == nil:
		return primary.Time(), true
	case primary.Time() <= secondary.Time():
		return primary.Time(), true
	default:
		return secondary.Time(), true
	}
}

// dropCancelledHead removes cancelled items from the front of a queue.
// Cancellation marks items in place; the heap sheds them lazily.
func (s *Scheduler) dropCancelledHead(q WorkQueue) {
	for {
		head := q.Peek()
		if head == nil || s.itemState(head) != WorkItemCancelled {
			return
		}

		q.Pop()
	}
}

func (s *Scheduler) popDueAt(t VTimeInStep) *WorkItem {
	if item := s.popQueueDueAt(s.queue, t); item != nil {
		return item
	}

	return s.popQueueDueAt(s.secondaryQueue, t)
}

func (s *Scheduler) popQueueDueAt(q WorkQueue, t VTimeInStep) *WorkItem {
	for {
		head := q.Peek()
		if head == nil || head.Time() > t {
			return nil
		}

		item := q.Pop()
		if s.itemState(item) == WorkItemCancelled {
			continue
		}

		return item
	}
}

func (s *Scheduler) execute(item *WorkItem) {
	s.setItemState(item, WorkItemExecuting)

	hookCtx := HookCtx{
		Domain: s,
		Pos:    HookPosBeforeStep,
		Item:   item,
	}
	s.InvokeHook(hookCtx)

	_ = item.handler.Handle(item)

	hookCtx.Pos = HookPosAfterStep
	s.InvokeHook(hookCtx)

	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if item.state != WorkItemExecuting {
		// Cancelled while executing. The in-flight execution stands, the
		// item is not re-enqueued.
		return
	}

	if item.interval > 0 {
		item.state = WorkItemPending
		item.time += item.interval

		if item.secondary {
			s.secondaryQueue.Push(item)
		} else {
			s.queue.Push(item)
		}

		return
	}

	item.state = WorkItemRetired
}

func (s *Scheduler) itemState(item *WorkItem) WorkItemState {
	s.stateLock.Lock()
	state := item.state
	s.stateLock.Unlock()
	return state
}

func (s *Scheduler) setItemState(item *WorkItem, state WorkItemState) {
	s.stateLock.Lock()
	item.state = state
	s.stateLock.Unlock()
}
