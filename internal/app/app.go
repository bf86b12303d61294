// Package app provides application initialization and dependency wiring.
//
// Setup builds the full stack in order: tracing, Genkit with the
// configured AI provider, the embedding client and index cache, the
// retrieval service, the web search client, the agent loop, and finally
// the chat service. Close releases everything in reverse.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/interviewvault/vault/internal/chat"
	"github.com/interviewvault/vault/internal/config"
	"github.com/interviewvault/vault/internal/log"
	"github.com/interviewvault/vault/internal/retrieval"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	// Retrieval is exposed for cache invalidation on data writes.
	Retrieval *retrieval.Service

	// Chat answers conversational turns.
	Chat *chat.Service

	otelCleanup func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
