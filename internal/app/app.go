// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the data store, tool registry,
// dispatcher, Genkit completer, orchestrator, transcript, and HTTP
// server from a validated config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/firebase/genkit/go/genkit"

	"github.com/shoptalk-demo/shoptalk/internal/api"
	"github.com/shoptalk-demo/shoptalk/internal/config"
	"github.com/shoptalk-demo/shoptalk/internal/conversation"
	"github.com/shoptalk-demo/shoptalk/internal/dispatch"
	"github.com/shoptalk-demo/shoptalk/internal/genai"
	"github.com/shoptalk-demo/shoptalk/internal/registry"
	"github.com/shoptalk-demo/shoptalk/internal/store"
	"github.com/shoptalk-demo/shoptalk/internal/transcript"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit       *genkit.Genkit
	Store        *store.Store
	Registry     *registry.Registry
	Dispatcher   *dispatch.Dispatcher
	Orchestrator *conversation.Orchestrator
	Transcript   *transcript.Store
	Server       *api.Server
}

// Setup creates and initializes the application.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	g, err := genai.Init(ctx, genai.InitConfig{
		Provider:   cfg.Provider,
		ModelName:  cfg.ModelName,
		OllamaHost: cfg.OllamaHost,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing genkit: %w", err)
	}
	a.Genkit = g

	a.Store = store.New(logger)

	a.Registry, err = registry.New()
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	a.Dispatcher = dispatch.New(a.Store, logger)

	completer, err := genai.NewCompleter(g, a.Registry, genai.FullModelName(cfg.Provider, cfg.ModelName), logger)
	if err != nil {
		return nil, fmt.Errorf("creating completer: %w", err)
	}

	a.Orchestrator, err = conversation.New(conversation.Config{
		Completer:    completer,
		Dispatcher:   a.Dispatcher,
		Registry:     a.Registry,
		Store:        a.Store,
		Logger:       logger,
		Temperature:  cfg.Temperature,
		ModelTimeout: cfg.ModelTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	a.Transcript = transcript.New()

	a.Server, err = api.NewServer(api.ServerConfig{
		Logger:      logger,
		Converser:   a.Orchestrator,
		Transcript:  a.Transcript,
		Store:       a.Store,
		Registry:    a.Registry,
		CORSOrigins: cfg.CORSOrigins,
		RateRPS:     cfg.RateLimitRPS,
		RateBurst:   cfg.RateLimitBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}

	return a, nil
}

// Handler returns the HTTP handler for the assembled API server.
func (a *App) Handler() http.Handler {
	return a.Server.Handler()
}

// Close releases application resources. All state is in-memory and
// the server owns its own shutdown, so there is nothing to release
// beyond logging the event.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")
	return nil
}
