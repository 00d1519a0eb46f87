package models

// FinalMessage is the single terminal output of one orchestrator run.
type FinalMessage struct {
	// ID is the task id of the run that produced it, as logged and carried by run events.
	ID string `json:"id"`
	// Content is the assistant's reply.
	Content string `json:"content"`
}

// PendingSet is a capability set that needs a caller decision.
type PendingSet struct {
	// Index is the position of the set in TaskAnalysis.AppSets.
	Index int `json:"index"`
	// Providers are the available candidates, in set order.
	Providers []ProviderDescriptor `json:"providers"`
}

// ChoiceData is what a caller needs to present unresolved capability sets.
type ChoiceData struct {
	Analysis     TaskAnalysis `json:"analysis"`
	AutoSelected []string     `json:"auto_selected"`
	Pending      []PendingSet `json:"pending"`
}

// NeedsChoice reports whether any capability set waits on the caller.
func (c *ChoiceData) NeedsChoice() bool {
	return len(c.Pending) > 0
}
