package tracker

import "errors"

var (
	// ErrSessionActive indicates a start attempt while a session is
	// already being tracked. The existing session is left untouched.
	ErrSessionActive = errors.New("a tracking session is already active")

	// ErrStatePersistence indicates the durable session slot could not be
	// written at a lifecycle boundary, threatening session durability.
	ErrStatePersistence = errors.New("persisting session state failed")
)
