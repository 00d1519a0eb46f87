// Package resolve maps the capability sets of a TaskAnalysis onto concrete
// provider ids, asking a Channel when a set needs a caller decision.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/toolroute/internal/logging"
	"github.com/ShayCichocki/toolroute/pkg/models"
)

// DefaultConcurrency caps concurrent descriptor fetches within one set.
const DefaultConcurrency = 4

// DescriptorSource looks up a provider descriptor by id.
type DescriptorSource interface {
	Get(ctx context.Context, id string) (models.ProviderDescriptor, error)
}

// Outcome is what the resolver decided for one capability set.
type Outcome string

const (
	// OutcomeDropped means no provider of the set is available.
	OutcomeDropped Outcome = "dropped"
	// OutcomeAuto means the available providers were selected without asking.
	OutcomeAuto Outcome = "auto"
	// OutcomeChoice means the caller must pick among the available providers.
	OutcomeChoice Outcome = "choice"
)

// SetPlan is the channel-free decision for one capability set.
type SetPlan struct {
	Index     int
	Outcome   Outcome
	Available []models.ProviderDescriptor
	// Selected holds the auto-selected ids when Outcome is OutcomeAuto.
	Selected []string
}

// Config configures a Resolver.
type Config struct {
	Concurrency int
	Logger      *zap.Logger
}

// Resolver resolves capability sets against live catalog data.
type Resolver struct {
	source      DescriptorSource
	concurrency int
	logger      *zap.Logger
}

// New creates a Resolver reading descriptors from source.
func New(source DescriptorSource, cfg Config) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Resolver{
		source:      source,
		concurrency: cfg.Concurrency,
		logger:      logging.OrNop(cfg.Logger),
	}
}

// Resolve plans every set and asks ch for the sets that need a choice.
// If ch returns ErrCancelled the whole resolution is abandoned and an empty
// result is returned without error.
func (r *Resolver) Resolve(ctx context.Context, appSets [][]string, choice []bool, ch Channel) (*models.ResolutionResult, error) {
	plans, err := r.Plan(ctx, appSets, choice)
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, plans, ch)
}

// Plan fetches descriptors and decides each set without consulting a channel.
// Descriptors are fetched fresh on every call.
func (r *Resolver) Plan(ctx context.Context, appSets [][]string, choice []bool) ([]SetPlan, error) {
	if len(choice) != len(appSets) {
		return nil, fmt.Errorf("choice has %d entries, app_sets has %d", len(choice), len(appSets))
	}

	plans := make([]SetPlan, 0, len(appSets))
	for i, set := range appSets {
		available, err := r.available(ctx, i, set)
		if err != nil {
			return nil, err
		}

		plan := SetPlan{Index: i, Available: available}
		switch {
		case len(available) == 0:
			plan.Outcome = OutcomeDropped
		case len(available) == 1 || !choice[i]:
			plan.Outcome = OutcomeAuto
			for _, d := range available {
				plan.Selected = append(plan.Selected, d.ID)
			}
		default:
			plan.Outcome = OutcomeChoice
		}

		r.logger.Debug("capability set planned",
			zap.Int("set_index", i),
			zap.Strings("candidates", set),
			zap.Int("available", len(available)),
			zap.String("outcome", string(plan.Outcome)))
		plans = append(plans, plan)
	}
	return plans, nil
}

// Apply turns plans into a result, delegating choice sets to ch.
func (r *Resolver) Apply(ctx context.Context, plans []SetPlan, ch Channel) (*models.ResolutionResult, error) {
	result := models.NewResolutionResult()
	for _, plan := range plans {
		switch plan.Outcome {
		case OutcomeAuto:
			result.AutoSelected = append(result.AutoSelected, plan.Selected...)
		case OutcomeChoice:
			if ch == nil {
				continue
			}
			ids, err := ch.Choose(ctx, plan.Index, plan.Available)
			if errors.Is(err, ErrCancelled) {
				r.logger.Info("resolution cancelled", zap.Int("set_index", plan.Index))
				return models.NewResolutionResult(), nil
			}
			if err != nil {
				return nil, err
			}
			if len(ids) > 0 {
				result.SetChoice(plan.Index, ids)
			}
		}
	}
	return result, nil
}

// available fetches every descriptor of a set concurrently and keeps the
// available ones in set order. Unknown ids and failed lookups count as unavailable.
// An id repeated inside one set is looked up once.
func (r *Resolver) available(ctx context.Context, setIndex int, set []string) ([]models.ProviderDescriptor, error) {
	ids := uniqueIDs(set)
	descriptors := make([]*models.ProviderDescriptor, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			d, err := r.source.Get(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.logger.Debug("provider lookup failed",
					zap.Int("set_index", setIndex),
					zap.String("provider_id", id),
					zap.Error(err))
				return nil
			}
			descriptors[i] = &d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var available []models.ProviderDescriptor
	for _, d := range descriptors {
		if d != nil && d.Available {
			available = append(available, *d)
		}
	}
	return available, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
