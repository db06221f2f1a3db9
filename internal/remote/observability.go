package remote

import (
	"io"
	"log/slog"
)

// FlushEvent records one reconciliation attempt against the remote store.
type FlushEvent struct {
	Op           string
	User         string
	DateKey      string
	SessionID    string
	DeltaSeconds int
	Success      bool
	Err          error
}

// Observer receives reconciliation events. A failed flush is visible here
// even though it is never surfaced to callers.
type Observer interface {
	ObserveFlush(event FlushEvent)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) ObserveFlush(FlushEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes reconciliation events to the provided writer.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logObserver) ObserveFlush(event FlushEvent) {
	attrs := []any{
		"op", event.Op,
		"user", event.User,
		"date", event.DateKey,
		"session_id", event.SessionID,
		"delta_s", event.DeltaSeconds,
		"success", event.Success,
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.Error("remote_flush", attrs...)
		return
	}
	o.logger.Info("remote_flush", attrs...)
}
