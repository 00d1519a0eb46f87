package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/api"
	"github.com/ShayCichocki/toolroute/internal/catalog"
	"github.com/ShayCichocki/toolroute/internal/classify"
	"github.com/ShayCichocki/toolroute/internal/config"
	"github.com/ShayCichocki/toolroute/internal/credentials"
	"github.com/ShayCichocki/toolroute/internal/logging"
	"github.com/ShayCichocki/toolroute/internal/orchestrator"
	"github.com/ShayCichocki/toolroute/internal/resolve"
	"github.com/ShayCichocki/toolroute/internal/tools"
)

// app holds the collaborators shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	catalog  *catalog.Catalog
	store    *credentials.Store
	client   *api.Client
	registry *prometheus.Registry
	orch     *orchestrator.Orchestrator
}

// appOptions selects what a command needs wired.
type appOptions struct {
	// orchestrator wires the model client and the orchestrator.
	orchestrator bool
	channel      resolve.Channel
	onEvent      func(orchestrator.Event)
	onStream     func(api.StreamEvent)
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	a.catalog, err = loadCatalog(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Credentials.DBPath
	if dbPath == "" {
		dbPath = credentials.DefaultPath()
	}
	a.store, err = credentials.OpenMigrated(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	if opts.orchestrator {
		if err := a.wireOrchestrator(opts); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// loadCatalog reads the catalog file. A missing file yields an empty catalog
// so that every task falls back to plain reasoning.
func loadCatalog(path string, logger *zap.Logger) (*catalog.Catalog, error) {
	c, err := catalog.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("catalog file not found, no providers available", zap.String("path", path))
		return catalog.New()
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	logger.Debug("catalog loaded", zap.String("path", path), zap.Int("providers", c.Len()))
	return c, nil
}

func (a *app) wireOrchestrator(opts appOptions) error {
	if err := config.CheckModelAccess(a.cfg); err != nil {
		return fmt.Errorf("%w (set ANTHROPIC_API_KEY or anthropic.api_key, or enable anthropic.use_bedrock)", err)
	}
	apiKey, _ := config.GetAPIKey(a.cfg)

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(a.cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: a.cfg.Anthropic.UseBedrock,
		AWSRegion:     a.cfg.Anthropic.AWSRegion,
		AWSProfile:    a.cfg.Anthropic.AWSProfile,
		BaseURL:       a.cfg.Anthropic.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}
	a.client = client

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := orchestrator.NewEngine(client, orchestrator.EngineConfig{
		SystemPrompt:  a.cfg.Engine.SystemPrompt,
		MaxIterations: a.cfg.Engine.MaxIterations,
		MaxTokens:     int64(a.cfg.Anthropic.MaxTokens),
		OnEvent:       opts.onStream,
	}, a.logger)

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(a.logger),
		orchestrator.WithMetrics(orchestrator.NewMetrics(a.registry)),
	}
	if opts.channel != nil {
		orchOpts = append(orchOpts, orchestrator.WithChannel(opts.channel))
	}
	if opts.onEvent != nil {
		orchOpts = append(orchOpts, orchestrator.WithEventHandler(opts.onEvent))
	}

	a.orch, err = orchestrator.New(orchestrator.RequiredConfig{
		Catalog:    a.catalog,
		Classifier: classify.New(client, a.logger),
		Resolver:   resolve.New(a.catalog, resolve.Config{Concurrency: a.cfg.Resolver.Concurrency, Logger: a.logger}),
		Loader:     tools.NewLoader(a.catalog, a.store, a.logger),
		Engine:     engine,
	}, orchOpts...)
	return err
}

// logUsage reports the token usage of the process per call kind.
func (a *app) logUsage() {
	if a.client == nil {
		return
	}
	usage := a.client.Usage()
	for _, kind := range usage.Kinds() {
		t := usage.Kind(kind)
		a.logger.Debug("token usage",
			zap.String("model", string(a.client.Model())),
			zap.String("kind", string(kind)),
			zap.Int("calls", t.Calls),
			zap.Int64("input_tokens", t.InputTokens),
			zap.Int64("output_tokens", t.OutputTokens))
	}
}

// Close releases the store and flushes the logger.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close credential store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
