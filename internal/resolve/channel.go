package resolve

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ShayCichocki/toolroute/pkg/models"
)

// ErrCancelled aborts resolution for the whole task.
var ErrCancelled = errors.New("resolution cancelled")

// Channel turns an ambiguous capability set into chosen provider ids.
// Every implementation validates selections with the same rules.
type Channel interface {
	Choose(ctx context.Context, setIndex int, available []models.ProviderDescriptor) ([]string, error)
}

// ResolutionInputError reports a selection that does not match the available providers.
type ResolutionInputError struct {
	SetIndex int
	Input    string
	Reason   string
}

func (e *ResolutionInputError) Error() string {
	return fmt.Sprintf("set %d: invalid selection %q: %s", e.SetIndex, e.Input, e.Reason)
}

// ParseSelection parses "all" or a comma-separated list of 1-based numbers
// against available and returns the selected provider ids in input order.
// Repeated numbers select a provider once.
func ParseSelection(setIndex int, input string, available []models.ProviderDescriptor) ([]string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &ResolutionInputError{SetIndex: setIndex, Input: input, Reason: "empty selection"}
	}
	if strings.EqualFold(trimmed, "all") {
		ids := make([]string, 0, len(available))
		for _, p := range available {
			ids = append(ids, p.ID)
		}
		return ValidateSelection(setIndex, ids, available)
	}

	var ids []string
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &ResolutionInputError{SetIndex: setIndex, Input: input, Reason: fmt.Sprintf("%q is not a number", part)}
		}
		if n < 1 || n > len(available) {
			return nil, &ResolutionInputError{SetIndex: setIndex, Input: input, Reason: fmt.Sprintf("%d is out of range 1-%d", n, len(available))}
		}
		ids = append(ids, available[n-1].ID)
	}
	return ValidateSelection(setIndex, ids, available)
}

// ValidateSelection checks that every id is one of the available providers
// and collapses duplicates, keeping first occurrences.
func ValidateSelection(setIndex int, ids []string, available []models.ProviderDescriptor) ([]string, error) {
	allowed := make(map[string]bool, len(available))
	for _, p := range available {
		allowed[p.ID] = true
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !allowed[id] {
			return nil, &ResolutionInputError{SetIndex: setIndex, Input: id, Reason: "not an available provider of this set"}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// isCancelWord reports whether input asks to abort the prompt.
func isCancelWord(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "q", "quit", "cancel":
		return true
	}
	return false
}
