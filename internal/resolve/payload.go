package resolve

import (
	"context"
	"strconv"

	"github.com/ShayCichocki/toolroute/pkg/models"
)

// PayloadChannel answers from a pre-supplied mapping of set index to provider ids.
type PayloadChannel struct {
	choices map[string][]string
}

// NewPayloadChannel creates a channel over choices, keyed by decimal set index.
func NewPayloadChannel(choices map[string][]string) *PayloadChannel {
	return &PayloadChannel{choices: choices}
}

// Choose implements Channel. A set without an entry selects nothing.
func (p *PayloadChannel) Choose(ctx context.Context, setIndex int, available []models.ProviderDescriptor) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, ok := p.choices[strconv.Itoa(setIndex)]
	if !ok {
		return nil, nil
	}
	return ValidateSelection(setIndex, ids, available)
}
