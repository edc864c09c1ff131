package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitaldesk/vitaldesk/internal/app"
	"github.com/vitaldesk/vitaldesk/internal/config"
	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/rag"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Ingest documents into the vector index",
	Long: `Index reads .txt and .md files from the documents directory
(RAG_DOCUMENTS_PATH by default, or the given dir), chunks them, and
upserts the embedded chunks into the vector index.

Requires DATABASE_URL to be configured.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		return runIndex(cmd.Context(), dir)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(parent context.Context, dir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.RAGEnabled() {
		return errors.New("DATABASE_URL must be set to index documents")
	}
	if dir == "" {
		dir = cfg.RAGDocumentsPath
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	indexer := rag.NewIndexer(a.Index, rag.IndexerConfig{
		ChunkSize:    cfg.RAGChunkSize,
		ChunkOverlap: cfg.RAGChunkOverlap,
	}, logger.With("component", "indexer"))

	n, err := indexer.IngestDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("indexing documents: %w", err)
	}

	logger.Info("indexing complete", "dir", dir, "chunks", n)
	return nil
}
