package sim

// VTimeInStep defines the time in the simulated space in the unit of one
// discrete step.
type VTimeInStep float64

// BeforeSimulation is a time earlier than any time the scheduler can reach.
// Observers use it as the initial value of their last-observed time so that
// the step at time 0 is still considered new.
const BeforeSimulation VTimeInStep = -1

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInStep
}
