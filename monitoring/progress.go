package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how far a bounded run has advanced, counting the
// simulation steps completed toward a target. The monitor serves all its
// bars over the API while RunUntil increments them.
type ProgressBar struct {
	sync.Mutex
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	StartTime      time.Time `json:"start_time"`
	TotalSteps     uint64    `json:"total_steps"`
	CompletedSteps uint64    `json:"completed_steps"`
}

// IncrementCompleted records that a number of steps have completed.
func (b *ProgressBar) IncrementCompleted(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.CompletedSteps += amount
}

// Completed returns the number of steps completed so far.
func (b *ProgressBar) Completed() uint64 {
	b.Lock()
	defer b.Unlock()

	return b.CompletedSteps
}
