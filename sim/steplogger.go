package sim

import (
	"log"
	"reflect"
)

// A LogHook is a hook that is responsible for recording information from the
// simulation
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks
type LogHookBase struct {
	*log.Logger
}

// StepLogger is a hook that prints every WorkItem execution.
type StepLogger struct {
	LogHookBase
}

// NewStepLogger returns a StepLogger that writes into the given logger.
func NewStepLogger(logger *log.Logger) *StepLogger {
	h := new(StepLogger)
	h.Logger = logger
	return h
}

// Func writes the WorkItem information into the logger
func (h *StepLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeStep {
		return
	}

	item, ok := ctx.Item.(*WorkItem)
	if !ok {
		return
	}

	h.Printf("%.10f, %s", item.Time(), reflect.TypeOf(item.Handler()))
}
