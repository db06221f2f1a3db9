package tracker

import (
	"io"
	"log/slog"
)

// Event records a tracker lifecycle operation or a swallowed persistence
// failure.
type Event struct {
	Op        string
	SessionID string
	TaskKey   string
	Err       error
}

// Observer receives tracker events for logging and operational visibility.
type Observer interface {
	ObserveTracker(event Event)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) ObserveTracker(Event) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes tracker events to the provided writer.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logObserver) ObserveTracker(event Event) {
	attrs := []any{
		"op", event.Op,
		"session_id", event.SessionID,
	}
	if event.TaskKey != "" {
		attrs = append(attrs, "task", event.TaskKey)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.Error("tracker", attrs...)
		return
	}
	o.logger.Info("tracker", attrs...)
}
