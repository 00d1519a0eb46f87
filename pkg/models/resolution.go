package models

import (
	"sort"
	"strconv"
)

// ResolutionResult is the outcome of resolving every capability set of a task.
type ResolutionResult struct {
	// AutoSelected holds providers chosen without asking the caller.
	// Ids shared by several sets appear once per set.
	AutoSelected []string `json:"auto_selected"`
	// UserChoices maps a set index (decimal string) to the providers picked for it.
	UserChoices map[string][]string `json:"user_choices"`
}

// ResolutionPayload is a pre-supplied resolution, as produced by a UI from ChoiceData.
type ResolutionPayload = ResolutionResult

// NewResolutionResult returns an empty result with an initialized choice map.
func NewResolutionResult() *ResolutionResult {
	return &ResolutionResult{
		AutoSelected: []string{},
		UserChoices:  make(map[string][]string),
	}
}

// SetChoice records the providers picked for the set at index.
func (r *ResolutionResult) SetChoice(index int, ids []string) {
	if r.UserChoices == nil {
		r.UserChoices = make(map[string][]string)
	}
	r.UserChoices[strconv.Itoa(index)] = ids
}

// ProviderIDs flattens the result: auto-selected ids first, then user choices
// in ascending set index. Duplicates are preserved.
func (r *ResolutionResult) ProviderIDs() []string {
	if r == nil {
		return nil
	}
	ids := append([]string(nil), r.AutoSelected...)

	keys := make([]string, 0, len(r.UserChoices))
	for k := range r.UserChoices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	for _, k := range keys {
		ids = append(ids, r.UserChoices[k]...)
	}
	return ids
}

// Empty reports whether the result selects no provider at all.
func (r *ResolutionResult) Empty() bool {
	return len(r.ProviderIDs()) == 0
}
