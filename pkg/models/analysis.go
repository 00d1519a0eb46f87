package models

import (
	"errors"
	"fmt"
	"strings"
)

// TaskAnalysis is the structured classification of a task.
type TaskAnalysis struct {
	// RequiresApp is true when the task needs external providers to be completed.
	RequiresApp bool `json:"requires_app"`
	// Reasoning is the classifier's short justification.
	Reasoning string `json:"reasoning"`
	// AppSets groups candidate providers, one capability set per logical need.
	AppSets [][]string `json:"app_sets"`
	// Choice marks, per capability set, whether the caller picks among the candidates.
	Choice []bool `json:"choice"`
}

// Validate checks the structural invariants of the analysis.
func (a *TaskAnalysis) Validate() error {
	if a == nil {
		return errors.New("analysis is nil")
	}
	if len(a.Choice) != len(a.AppSets) {
		return fmt.Errorf("choice has %d entries, app_sets has %d", len(a.Choice), len(a.AppSets))
	}
	for i, set := range a.AppSets {
		for _, id := range set {
			if strings.TrimSpace(id) == "" {
				return fmt.Errorf("app_sets[%d] contains an empty provider id", i)
			}
		}
	}
	return nil
}

// ProviderIDs returns every provider id referenced by the analysis, in set order.
// Ids repeated across sets are returned once.
func (a *TaskAnalysis) ProviderIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, set := range a.AppSets {
		for _, id := range set {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
