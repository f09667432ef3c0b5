package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"pagechat/internal/agent"
	"pagechat/internal/ai"
	"pagechat/internal/config"
	"pagechat/internal/loader"
	"pagechat/internal/tools"
	ivecgo "pagechat/internal/vecgo"
	"pagechat/internal/vecgo/embedding"
)

// app is the ingested page plus everything needed to talk about it.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	service *ivecgo.Service
	tool    *tools.RetrieveTool
	ingest  *ivecgo.IngestResult
	closer  io.Closer
}

// setup loads configuration and ingests the configured page. Any failure
// here aborts the command.
func setup(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.url != "" {
		cfg.Source.URL = opts.url
	}

	logger := newLogger(cfg.Log.Level, opts.verbose, logOut)

	emb, closer, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	web := loader.NewWeb(loader.WebConfig{
		Selectors: cfg.Source.Selectors,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.Source.Timeout,
	}, loader.WithLogger(logger))

	svc, err := ivecgo.NewService(ivecgo.Config{
		ChunkSize:    cfg.Splitter.ChunkSize,
		ChunkOverlap: cfg.Splitter.ChunkOverlap,
		BatchSize:    cfg.Embedding.BatchSize,
		Embedder:     emb,
	}, web, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	res, err := svc.Ingest(ctx, cfg.Source.URL)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to ingest %s: %w", cfg.Source.URL, err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		service: svc,
		tool:    tools.NewRetrieveTool(svc, cfg.Retrieval.K),
		ingest:  res,
		closer:  closer,
	}, nil
}

// newAgent builds a conversational agent over the ingested page.
func (a *app) newAgent(opts ...agent.Option) (*agent.Agent, error) {
	provider, err := ai.NewProvider(a.cfg.Chat, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat provider: %w", err)
	}

	registry := tools.NewRegistry(a.logger)
	if err := registry.Register(a.tool); err != nil {
		return nil, err
	}

	injector := agent.NewInjector(a.tool, agent.Policy(a.cfg.Agent.ContextPolicy), a.cfg.Agent.SystemPrompt)
	opts = append([]agent.Option{agent.WithLogger(a.logger)}, opts...)

	return agent.New(provider, injector, registry, agent.Config{
		Model:             a.cfg.Chat.Model,
		MaxTokens:         a.cfg.Chat.MaxTokens,
		MaxToolIterations: a.cfg.Agent.MaxToolIterations,
	}, opts...), nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

func newLogger(level string, verbose bool, w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "pagechat",
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}
