package sim

import "log"

// EventLogger is a hook that prints every event that the engine triggers.
// Attach it to an engine to follow a run event by event.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a hook that writes to the given logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes one line per triggered event.
func (l *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt := ctx.Item.(Event)
	l.Printf("%.10f, %T", evt.Time(), evt)
}
