package scheduler

import "errors"

// Sentinel errors returned by the scheduler API.
var (
	// ErrSchedulerNotRunning means a job was submitted before Start or after Stop.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull means the submission queue has no capacity left.
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidJobType means the job type is not known to the scheduler.
	ErrInvalidJobType = errors.New("invalid job type")

	// ErrJobNotFound means no job exists under the requested ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidConfig means the scheduler configuration failed validation.
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
