package rag

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitaldesk/vitaldesk/internal/knowledge"
	"github.com/vitaldesk/vitaldesk/internal/log"
)

// Upserter is the slice of the vector index the indexer needs.
type Upserter interface {
	Upsert(ctx context.Context, chunks []knowledge.Chunk) error
	DeleteByFilename(ctx context.Context, filename string) error
}

// IndexerConfig holds chunking parameters.
type IndexerConfig struct {
	ChunkSize    int // target chunk length in runes
	ChunkOverlap int // runes repeated between consecutive chunks
}

// Indexer ingests plain-text documents into the vector index.
// Intended as a batch job; the chat path only ever queries.
type Indexer struct {
	index  Upserter
	cfg    IndexerConfig
	logger log.Logger
}

// NewIndexer builds an Indexer over the given index.
func NewIndexer(index Upserter, cfg IndexerConfig, logger log.Logger) *Indexer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Indexer{
		index:  index,
		cfg:    cfg,
		logger: logger,
	}
}

// IngestDir walks dir and ingests every .txt and .md file found.
// Returns the total number of chunks written.
func (ix *Indexer) IngestDir(ctx context.Context, dir string) (int, error) {
	total := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDocument(path) {
			return nil
		}
		n, err := ix.IngestFile(ctx, path)
		if err != nil {
			return err
		}
		total += n
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("ingesting %s: %w", dir, err)
	}
	return total, nil
}

// IngestFile chunks a single document and upserts its chunks, replacing
// any chunks from a previous ingestion of the same file.
func (ix *Indexer) IngestFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from CLI input
	if err != nil {
		return 0, fmt.Errorf("reading document: %w", err)
	}

	filename := filepath.Base(path)
	pieces := ChunkText(string(raw), ix.cfg.ChunkSize, ix.cfg.ChunkOverlap)
	if len(pieces) == 0 {
		ix.logger.Debug("skipping empty document", "file", filename)
		return 0, nil
	}

	// Stale chunks from a longer previous version must not linger.
	if err := ix.index.DeleteByFilename(ctx, filename); err != nil {
		return 0, err
	}

	chunks := make([]knowledge.Chunk, len(pieces))
	for i, text := range pieces {
		chunks[i] = knowledge.Chunk{
			ID:       fmt.Sprintf("%s#%d", filename, i),
			Text:     text,
			Filename: filename,
		}
	}
	if err := ix.index.Upsert(ctx, chunks); err != nil {
		return 0, err
	}

	ix.logger.Info("document indexed", "file", filename, "chunks", len(chunks))
	return len(chunks), nil
}

// ChunkText splits text into chunks of at most size runes, with overlap
// runes repeated between consecutive chunks. Whitespace-only input
// yields no chunks. Overlap must be smaller than size.
func ChunkText(text string, size, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}
