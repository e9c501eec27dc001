// Package app wires the application together: tracing, database,
// model provider, store, assistant, and the HTTP API.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/salesdesk/internal/api"
	"github.com/salesdesk/salesdesk/internal/assistant"
	"github.com/salesdesk/salesdesk/internal/config"
	"github.com/salesdesk/salesdesk/internal/log"
	"github.com/salesdesk/salesdesk/internal/store"
)

// App holds the initialized application components.
type App struct {
	Config    *config.Config
	Logger    log.Logger
	Genkit    *genkit.Genkit
	Pool      *pgxpool.Pool
	Store     *store.Store
	Assistant *assistant.Assistant
	Server    *api.Server

	otelCleanup func()
}

// Close releases resources in reverse initialization order.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
