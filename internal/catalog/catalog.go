// Package catalog holds the Provider Catalog: an explicit table mapping a
// provider id to its descriptor and the factory that instantiates a client
// for it. Adding a provider is a data change (a catalog file entry or a
// Register call), never a type lookup by name.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ShayCichocki/toolroute/pkg/models"
)

var (
	// ErrProviderNotFound is returned when an id is not in the catalog.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrProviderUnavailable marks a provider that exists but is switched off.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMissingCredentials is returned by factories that need credentials and got none.
	ErrMissingCredentials = errors.New("missing credentials")
)

// Entry binds a descriptor to the factory that builds its client.
type Entry struct {
	Descriptor models.ProviderDescriptor
	Factory    Factory
	// Operations is the number of operations the provider exposes, for reporting.
	Operations int
}

// Catalog is the in-process provider table.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// New creates a catalog holding the given entries.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry)}
	for _, e := range entries {
		if err := c.Register(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a provider entry.
func (c *Catalog) Register(e Entry) error {
	id := e.Descriptor.ID
	if id == "" {
		return fmt.Errorf("provider id cannot be empty")
	}
	if e.Factory == nil {
		return fmt.Errorf("provider %s: factory cannot be nil", id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	c.entries[id] = e
	c.order = append(c.order, id)
	return nil
}

// Replace swaps the whole table. Entries are validated before anything changes.
func (c *Catalog) Replace(entries []Entry) error {
	fresh, err := New(entries...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = fresh.entries
	c.order = fresh.order
	return nil
}

// List returns every descriptor in registration order.
func (c *Catalog) List(ctx context.Context) []models.ProviderDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.ProviderDescriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id].Descriptor)
	}
	return out
}

// Summaries returns the compact id/name/description view of every provider.
func (c *Catalog) Summaries(ctx context.Context) []models.ProviderSummary {
	descriptors := c.List(ctx)
	out := make([]models.ProviderSummary, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Summary())
	}
	return out
}

// Get returns the descriptor for id.
func (c *Catalog) Get(ctx context.Context, id string) (models.ProviderDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return models.ProviderDescriptor{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return models.ProviderDescriptor{}, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return e.Descriptor, nil
}

// OperationCount reports how many operations a provider exposes, or 0 if unknown.
func (c *Catalog) OperationCount(ctx context.Context, id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id].Operations
}

// Instantiate builds a client for id bound to the given credentials.
func (c *Catalog) Instantiate(ctx context.Context, id string, creds Credentials) (Client, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	if !e.Descriptor.Available {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, id)
	}

	client, err := e.Factory(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", id, err)
	}
	return client, nil
}

// Len returns the number of registered providers.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
