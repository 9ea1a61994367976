// Package scan runs URL scans as asynchronous jobs and streams their
// progress to a single live subscriber per job.
package scan

import (
	"errors"
	"fmt"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid job state transition")

var validTransitions = map[domain.JobStatus][]domain.JobStatus{
	domain.JobQueued: {
		domain.JobCoreRunning,
		domain.JobError,
	},
	domain.JobCoreRunning: {
		domain.JobCoreRunning, // verdict stored as data
		domain.JobStaticRunning,
		domain.JobError,
	},
	domain.JobStaticRunning: {
		domain.JobSandboxRunning,
		domain.JobError,
	},
	domain.JobSandboxRunning: {
		domain.JobDone,
		domain.JobError,
	},
	// Terminal
	domain.JobDone:  {},
	domain.JobError: {},
}

// ValidateTransition checks whether a job may move from one status to another.
// Every allowed move keeps or raises the status rank.
func ValidateTransition(from, to domain.JobStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("%w: unknown source state %s", ErrInvalidTransition, from)
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, from, to)
}
