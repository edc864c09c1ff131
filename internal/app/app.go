// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the runtime: Genkit with the
// configured AI provider, the record store, the optional vector index,
// the retrieval subsystem, the tool registry, and the chat assistant.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitaldesk/vitaldesk/internal/agent/chat"
	"github.com/vitaldesk/vitaldesk/internal/config"
	"github.com/vitaldesk/vitaldesk/internal/knowledge"
	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/rag"
	"github.com/vitaldesk/vitaldesk/internal/store"
	"github.com/vitaldesk/vitaldesk/internal/tools"
)

// App is the assembled application.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	// DBPool is nil when no vector database is configured.
	DBPool *pgxpool.Pool

	Store     *store.Store
	Index     *knowledge.Index // nil when RAG is disabled
	Retriever *rag.Retriever
	Reporter  *rag.Reporter
	Registry  *tools.Registry
	Assistant *chat.Assistant
}

// Close releases held resources.
func (a *App) Close() {
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database pool closed")
	}
}
