package tools

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/catalog"
	"github.com/ShayCichocki/toolroute/internal/logging"
)

// ClientSource is the part of the provider catalog the loader uses.
type ClientSource interface {
	OperationCount(ctx context.Context, id string) int
	Instantiate(ctx context.Context, id string, creds catalog.Credentials) (catalog.Client, error)
}

// CredentialSource returns the stored credentials of a provider.
// A provider without stored credentials yields zero Credentials and no error.
type CredentialSource interface {
	Lookup(ctx context.Context, providerID string) (catalog.Credentials, error)
}

// ProviderLoadError reports a provider whose tools could not be loaded.
type ProviderLoadError struct {
	ProviderID string
	Err        error
}

func (e *ProviderLoadError) Error() string {
	return fmt.Sprintf("load provider %s: %v", e.ProviderID, e.Err)
}

func (e *ProviderLoadError) Unwrap() error {
	return e.Err
}

// Loader instantiates provider clients and registers their operations as tools.
type Loader struct {
	clients ClientSource
	creds   CredentialSource
	logger  *zap.Logger
}

// NewLoader creates a Loader. creds may be nil, in which case every provider
// is instantiated with empty credentials.
func NewLoader(clients ClientSource, creds CredentialSource, logger *zap.Logger) *Loader {
	return &Loader{
		clients: clients,
		creds:   creds,
		logger:  logging.OrNop(logger),
	}
}

// Load registers every operation of providerID into reg and returns how many
// tools were added. Tools registered before a failure stay in reg.
func (l *Loader) Load(ctx context.Context, providerID string, reg *Registry) (int, error) {
	l.logger.Debug("loading provider",
		zap.String("provider_id", providerID),
		zap.Int("operations", l.clients.OperationCount(ctx, providerID)))

	var creds catalog.Credentials
	if l.creds != nil {
		c, err := l.creds.Lookup(ctx, providerID)
		if err != nil {
			return 0, &ProviderLoadError{ProviderID: providerID, Err: fmt.Errorf("read credentials: %w", err)}
		}
		creds = c
	}

	client, err := l.clients.Instantiate(ctx, providerID, creds)
	if err != nil {
		return 0, &ProviderLoadError{ProviderID: providerID, Err: err}
	}

	added := 0
	for _, op := range client.Operations() {
		if _, err := reg.Register(providerID, op); err != nil {
			return added, &ProviderLoadError{ProviderID: providerID, Err: err}
		}
		added++
	}
	return added, nil
}

// LoadAll loads each provider in order. A failing provider is logged and
// skipped; the ids that loaded and the failures are returned.
func (l *Loader) LoadAll(ctx context.Context, providerIDs []string, reg *Registry) ([]string, []*ProviderLoadError) {
	var (
		loaded []string
		failed []*ProviderLoadError
	)
	for _, id := range providerIDs {
		n, err := l.Load(ctx, id, reg)
		if err != nil {
			var loadErr *ProviderLoadError
			if !errors.As(err, &loadErr) {
				loadErr = &ProviderLoadError{ProviderID: id, Err: err}
			}
			l.logger.Warn("provider load failed, skipping",
				zap.String("provider_id", id),
				zap.Int("registered_before_failure", n),
				zap.Error(loadErr.Err))
			failed = append(failed, loadErr)
			continue
		}
		l.logger.Info("provider loaded",
			zap.String("provider_id", id),
			zap.Int("tool_count", n))
		loaded = append(loaded, id)
	}
	return loaded, failed
}
