// Package job drives asynchronous provider jobs from submission to a terminal
// state within a bounded number of poll attempts.
package job

// Status is the lifecycle state of a Job.
type Status string

// Job lifecycle states. Succeeded, Failed, and TimedOut are terminal.
const (
	StatusSubmitted Status = "submitted"
	StatusPolling   Status = "polling"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

// Job is the record of one asynchronous job. It is only mutated by Poller.Run.
type Job struct {
	Prompt       string
	ProviderID   string
	ExternalID   string
	Status       Status
	ResultURL    string
	AttemptsUsed int
	// Err is the cause of a Failed or TimedOut job, classified in the generation taxonomy.
	Err error
}

// State is the provider-neutral reading of one status poll.
type State int

// Poll readings.
const (
	StatePending State = iota
	StateSucceeded
	StateFailed
)

// Check is the result of polling a job once.
type Check struct {
	State     State
	ResultURL string
	// Detail carries the upstream's failure reason, if any.
	Detail string
}
