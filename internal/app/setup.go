package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/vitaldesk/vitaldesk/db"
	"github.com/vitaldesk/vitaldesk/internal/agent/chat"
	"github.com/vitaldesk/vitaldesk/internal/config"
	"github.com/vitaldesk/vitaldesk/internal/knowledge"
	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/rag"
	"github.com/vitaldesk/vitaldesk/internal/store"
	"github.com/vitaldesk/vitaldesk/internal/tools"
)

// Setup assembles the application from configuration.
// Call Close() on the returned App to release resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Embedder = provideEmbedder(g, cfg)
	if a.Embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}

	a.Store, err = store.Open(cfg.DataFile, logger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}

	// The vector index is optional: without DATABASE_URL, chat runs
	// un-augmented and the status endpoint reports "disabled".
	if cfg.RAGEnabled() {
		if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		a.DBPool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.Index = knowledge.New(a.DBPool, a.Embedder, cfg.RAGIndexName,
			provideEmbedOptions(cfg), logger.With("component", "knowledge"))
	} else {
		logger.Info("no vector database configured, retrieval disabled")
	}

	a.Retriever = rag.NewRetriever(indexOrNil(a.Index), cfg.RAGEnabled(),
		cfg.RAGSimilarityThreshold, logger.With("component", "rag"))
	a.Reporter = rag.NewReporter(statsOrNil(a.Index), cfg.RAGEnabled())

	a.Registry = tools.NewRegistry(g, a.Store, logger.With("component", "tools"))

	a.Assistant, err = chat.New(chat.Config{
		Genkit:            g,
		Registry:          a.Registry,
		Retriever:         a.Retriever,
		Logger:            logger.With("component", "chat"),
		ModelName:         cfg.FullModelName(),
		RAGMaxResults:     cfg.RAGMaxResults,
		MaxHistoryEntries: cfg.MaxHistoryEntries,
		MaxSessions:       cfg.MaxSessions,
		ModelReady:        cfg.ModelConfigured,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat assistant: %w", err)
	}

	return a, nil
}

// indexOrNil avoids handing a typed-nil interface to the retriever.
func indexOrNil(ix *knowledge.Index) rag.Searcher {
	if ix == nil {
		return nil
	}
	return ix
}

func statsOrNil(ix *knowledge.Index) rag.StatsReader {
	if ix == nil {
		return nil
	}
	return ix
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default), openai, and ollama.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
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

// provideEmbedOptions returns the provider-specific embed request
// configuration. Gemini output must be truncated to the documents table
// width; ollama and openai deployments are expected to configure a model
// that natively emits knowledge.VectorDimension-wide vectors
// (e.g. nomic-embed-text).
func provideEmbedOptions(cfg *config.Config) any {
	switch cfg.Provider {
	case config.ProviderOllama, config.ProviderOpenAI:
		return nil
	default:
		return knowledge.GeminiEmbedOptions()
	}
}

// provideEmbedder looks up the embedder registered by the provider
// plugin. Each provider registers embedders differently:
//   - gemini: GoogleAIEmbedder(g, modelName)
//   - ollama: registered in provideGenkit, keyed by server address
//   - openai: auto-registered in Init(), looked up by model name
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}
