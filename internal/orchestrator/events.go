package orchestrator

import "time"

// State is a step of the orchestrator state machine.
type State string

const (
	StateClassify         State = "classify"
	StateResolve          State = "resolve"
	StateLoadTools        State = "load_tools"
	StateReasonOnly       State = "reason_only"
	StateExecuteWithTools State = "execute_with_tools"
)

// Event reports a state transition of one run.
type Event struct {
	TaskID string
	State  State
	// Message is a short human-readable note; it never carries provider errors.
	Message   string
	Timestamp time.Time
}
