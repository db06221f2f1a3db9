package jira

import "errors"

var (
	// ErrUnavailable indicates the Jira server is unreachable or failing.
	ErrUnavailable = errors.New("jira server unavailable")

	// ErrUnauthorized indicates Jira rejected the configured credentials.
	ErrUnauthorized = errors.New("jira rejected credentials")

	// ErrTaskNotFound indicates the requested issue does not exist or is
	// not visible to the configured account.
	ErrTaskNotFound = errors.New("jira task not found")

	// ErrInvalidWorkLog indicates a work-log submission missing its task
	// key or carrying a non-positive duration.
	ErrInvalidWorkLog = errors.New("work log requires a task key and a positive duration")
)
