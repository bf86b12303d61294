package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/interviewvault/vault/internal/agent"
	"github.com/interviewvault/vault/internal/chat"
	"github.com/interviewvault/vault/internal/config"
	"github.com/interviewvault/vault/internal/embed"
	"github.com/interviewvault/vault/internal/index"
	"github.com/interviewvault/vault/internal/knowledge"
	"github.com/interviewvault/vault/internal/log"
	"github.com/interviewvault/vault/internal/retrieval"
	"github.com/interviewvault/vault/internal/websearch"
)

// Setup creates and initializes the application. fetcher supplies user
// data per turn and may be nil (every user then converses without stored
// data). Returns an App with embedded cleanup; call Close to release.
func Setup(ctx context.Context, cfg *config.Config, fetcher chat.Fetcher, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	retrievalSvc, err := provideRetrieval(embedder, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Retrieval = retrievalSvc

	chatSvc, err := provideChat(g, retrievalSvc, fetcher, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Chat = chatSvc

	return a, nil
}

// provideOtelShutdown sets up OTLP tracing before Genkit initialization,
// so Genkit's TracerProvider is ready when the first span starts.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	endpoint := cfg.OTLP.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}

	// Set OTEL env vars for Genkit's TracerProvider to pick up.
	// SAFETY: os.Setenv is not concurrent-safe, but this runs exactly once
	// during startup, before goroutines are spawned.
	if cfg.OTLP.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.OTLP.ServiceName)
	}
	if cfg.OTLP.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.OTLP.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", cfg.OTLP.ServiceName,
		"environment", cfg.OTLP.Environment)

	shutdown := tracing.TracerProvider().Shutdown

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default), ollama, and openai providers.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGemini
	}

	var g *genkit.Genkit

	switch provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		// Keyed by server address, registered in provideGenkit.
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default: // gemini
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideRetrieval assembles the embedding client, index cache, and
// retrieval service over the compiled-in knowledge corpus.
func provideRetrieval(embedder ai.Embedder, cfg *config.Config, logger log.Logger) (*retrieval.Service, error) {
	client, err := embed.NewClient(embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	timeout := time.Duration(cfg.Retrieval.TimeoutMS) * time.Millisecond
	svc, err := retrieval.New(client, index.NewCache(logger), knowledge.Entries(), timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("creating retrieval service: %w", err)
	}
	return svc, nil
}

// provideChat wires the search client, agent loop, and chat service.
func provideChat(g *genkit.Genkit, retrievalSvc *retrieval.Service, fetcher chat.Fetcher, cfg *config.Config, logger log.Logger) (*chat.Service, error) {
	search, err := websearch.NewClient(websearch.Config{
		APIKey:        cfg.Tavily.APIKey,
		BaseURL:       cfg.Tavily.BaseURL,
		Timeout:       time.Duration(cfg.Tavily.TimeoutMS) * time.Millisecond,
		MaxResults:    cfg.Tavily.MaxResults,
		RatePerSecond: cfg.Tavily.RatePerSecond,
		Burst:         cfg.Tavily.Burst,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}

	generator, err := agent.NewGenkitGenerator(g, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	toolkit, err := agent.NewToolkit(search, generator, cfg.JobSites, cfg.Salary, logger)
	if err != nil {
		return nil, fmt.Errorf("creating toolkit: %w", err)
	}

	planner, err := agent.NewGenkitPlanner(g, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating planner: %w", err)
	}

	loop, err := agent.New(planner, toolkit, cfg.Agent.MaxIterations, logger)
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}

	refiner := newLLMRefiner(generator, logger)

	svc, err := chat.New(retrievalSvc, loop, fetcher, refiner, cfg.Agent.TopK, logger)
	if err != nil {
		return nil, fmt.Errorf("creating chat service: %w", err)
	}
	return svc, nil
}
