// Package knowledge implements the vector index backing retrieval.
//
// Documents are stored in PostgreSQL with pgvector; similarity queries
// use cosine distance. Embedding generation goes through a Genkit
// ai.Embedder so the index is provider-agnostic.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"

	"github.com/vitaldesk/vitaldesk/internal/log"
)

// softCapacity is the vector count treated as a "full" index when
// reporting fullness. PostgreSQL has no hard cap; this mirrors the
// fullness ratio hosted vector databases expose for UI badges.
const softCapacity = 100_000

// ErrEmptyEmbedding indicates the embedder returned no vector.
var ErrEmptyEmbedding = errors.New("empty embedding returned")

// Index manages document chunks with vector search.
// Safe for concurrent use by multiple goroutines.
type Index struct {
	pool      *pgxpool.Pool
	embedder  ai.Embedder
	embedOpts any
	name      string
	logger    log.Logger
}

// New creates an Index over the given connection pool and embedder.
// embedOpts is the provider-specific embed request configuration; pass
// GeminiEmbedOptions() for Gemini embedders, nil for embedders that
// natively emit VectorDimension-wide vectors.
func New(pool *pgxpool.Pool, embedder ai.Embedder, name string, embedOpts any, logger log.Logger) *Index {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Index{
		pool:      pool,
		embedder:  embedder,
		embedOpts: embedOpts,
		name:      name,
		logger:    logger,
	}
}

// GeminiEmbedOptions truncates Gemini embedding output to VectorDimension.
// gemini-embedding-001 natively emits 3072-dim vectors; without truncation
// the documents table rejects every insert and query.
func GeminiEmbedOptions() *genai.EmbedContentConfig {
	dim := int32(VectorDimension)
	return &genai.EmbedContentConfig{OutputDimensionality: &dim}
}

// Name returns the configured index name.
func (ix *Index) Name() string {
	return ix.name
}

// Embed generates the embedding vector for a single text.
func (ix *Index) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := ix.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: ix.embedOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("generating embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Embeddings[0].Embedding, nil
}

// Upsert embeds and stores the given chunks.
// Existing chunks with the same id are overwritten.
func (ix *Index) Upsert(ctx context.Context, chunks []Chunk) error {
	for _, chunk := range chunks {
		vec, err := ix.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embedding chunk %q: %w", chunk.ID, err)
		}

		embedding := pgvector.NewVector(vec)
		_, err = ix.pool.Exec(ctx, `
			INSERT INTO documents (id, content, filename, embedding)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET content = EXCLUDED.content,
			    filename = EXCLUDED.filename,
			    embedding = EXCLUDED.embedding`,
			chunk.ID, chunk.Text, chunk.Filename, embedding)
		if err != nil {
			return fmt.Errorf("upserting chunk %q: %w", chunk.ID, err)
		}
	}

	ix.logger.Debug("chunks upserted", "count", len(chunks))
	return nil
}

// Query returns the topK nearest chunks to the query text by cosine
// similarity, ordered by the index's own ranking (most similar first).
// Scores are clamped to [0,1]; threshold filtering is the caller's
// policy, not the index's.
func (ix *Index) Query(ctx context.Context, query string, topK int) ([]Match, error) {
	vec, err := ix.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	embedding := pgvector.NewVector(vec)
	rows, err := ix.pool.Query(ctx, `
		SELECT id, content, filename, 1 - (embedding <=> $1) AS score
		FROM documents
		ORDER BY embedding <=> $1
		LIMIT $2`,
		embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Text, &m.Filename, &m.Score); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		m.Score = clamp01(m.Score)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}

	return matches, nil
}

// DeleteByFilename removes all chunks of a source document.
// Used by the indexer before re-ingesting a changed file.
func (ix *Index) DeleteByFilename(ctx context.Context, filename string) error {
	_, err := ix.pool.Exec(ctx, `DELETE FROM documents WHERE filename = $1`, filename)
	if err != nil {
		return fmt.Errorf("deleting chunks for %q: %w", filename, err)
	}
	return nil
}

// Stats returns aggregate index statistics.
func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	var count int64
	if err := ix.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return Stats{}, fmt.Errorf("counting vectors: %w", err)
	}

	return Stats{
		VectorCount:   count,
		IndexFullness: math.Min(float64(count)/softCapacity, 1),
	}, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
