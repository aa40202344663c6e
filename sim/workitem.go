package sim

// A Handler owns a unit of simulated behavior. The scheduler calls Handle
// every time a WorkItem registered for the handler comes due.
//
// Handlers may register more work from inside Handle, at or after the
// current time. Handlers must not block; the scheduler runs all due work on
// one logical thread of control.
type Handler interface {
	Handle(item *WorkItem) error
}

// WorkItemState tracks where a WorkItem is in its lifecycle.
type WorkItemState int

const (
	// WorkItemPending items sit in the queue waiting for their due time.
	WorkItemPending WorkItemState = iota

	// WorkItemExecuting items are currently inside their handler's Handle.
	WorkItemExecuting

	// WorkItemRetired items have completed their final execution.
	WorkItemRetired

	// WorkItemCancelled items will never execute again. Terminal.
	WorkItemCancelled
)

// A WorkItem is a registered unit of executable work with a due time and an
// optional repeat interval. The pointer returned from the Schedule methods
// doubles as the cancellation handle.
//
// Two items due at the same time execute in registration order. The
// scheduler stamps every item with a registration sequence number and
// orders the queue by (time, sequence), so runs with identical inputs
// replay identically.
type WorkItem struct {
	ID string

	time      VTimeInStep
	seq       uint64
	handler   Handler
	interval  VTimeInStep
	secondary bool
	state     WorkItemState
}

// Time returns the time the item is due to execute next.
func (i *WorkItem) Time() VTimeInStep {
	return i.time
}

// Handler returns the handler that executes the item.
func (i *WorkItem) Handler() Handler {
	return i.handler
}

// Interval returns the repeat interval, or 0 for one-shot items.
func (i *WorkItem) Interval() VTimeInStep {
	return i.interval
}

// IsRepeating returns true if the item re-enqueues itself after executing.
func (i *WorkItem) IsRepeating() bool {
	return i.interval > 0
}

// IsSecondary returns true if the item runs after all primary items due at
// the same time.
func (i *WorkItem) IsSecondary() bool {
	return i.secondary
}

// State returns the current lifecycle state of the item.
func (i *WorkItem) State() WorkItemState {
	return i.state
}
