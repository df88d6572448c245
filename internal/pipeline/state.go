package pipeline

// State is a step in the life of one run.
type State string

const (
	StateComposing         State = "composing"
	StateStaged            State = "staged"
	StateExecuting         State = "executing"
	StateSucceeded         State = "succeeded"
	StateProcessFailed     State = "process_failed"
	StateOutputUnparseable State = "output_unparseable"
	StateAccepted          State = "accepted"
	StateRejected          State = "rejected_by_postcondition"
)
