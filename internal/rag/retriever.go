package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vitaldesk/vitaldesk/internal/knowledge"
	"github.com/vitaldesk/vitaldesk/internal/log"
)

// Searcher is the slice of the vector index the retriever needs.
type Searcher interface {
	Query(ctx context.Context, query string, topK int) ([]knowledge.Match, error)
}

// contextHeader opens every rendered context block, before the
// per-file sections.
const contextHeader = "Based on the fitness documents, here's relevant information:\n\n"

// Citation names a source document and how many of its chunks survived
// threshold filtering for a given query.
type Citation struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

// RetrievedChunk is one surviving chunk, exposed for the audit trail.
type RetrievedChunk struct {
	Text     string  `json:"text"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// Augmentation is the result of a retrieval pass. Context is empty when
// nothing relevant was found; callers treat that the same as RAG being
// disabled.
type Augmentation struct {
	Context   string
	Citations []Citation
	Chunks    []RetrievedChunk
}

// Retriever augments user queries with relevant document context.
//
// Retrieval is strictly best-effort: any failure from the index or the
// embedder degrades to an empty Augmentation so chat keeps working.
type Retriever struct {
	searcher  Searcher
	enabled   bool
	threshold float64
	logger    log.Logger
}

// NewRetriever builds a Retriever. A nil searcher or enabled=false
// makes every retrieval a no-op.
func NewRetriever(searcher Searcher, enabled bool, threshold float64, logger log.Logger) *Retriever {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{
		searcher:  searcher,
		enabled:   enabled && searcher != nil,
		threshold: threshold,
		logger:    logger,
	}
}

// Enabled reports whether retrieval is configured at all.
func (r *Retriever) Enabled() bool {
	return r.enabled
}

// RetrieveAndAugment queries the index for the top maxResults chunks,
// drops those below the similarity threshold, and formats the rest into
// a context block grouped by source file.
func (r *Retriever) RetrieveAndAugment(ctx context.Context, query string, maxResults int) Augmentation {
	if !r.enabled {
		return Augmentation{}
	}

	matches, err := r.searcher.Query(ctx, query, maxResults)
	if err != nil {
		r.logger.Warn("retrieval failed, continuing without context", "error", err)
		return Augmentation{}
	}

	var survivors []knowledge.Match
	for _, m := range matches {
		if m.Score >= r.threshold {
			survivors = append(survivors, m)
		}
	}
	if len(survivors) == 0 {
		r.logger.Debug("no chunks above threshold",
			"candidates", len(matches), "threshold", r.threshold)
		return Augmentation{}
	}

	return buildAugmentation(survivors)
}

// buildAugmentation groups surviving chunks by filename and renders the
// deterministic context block: overall header, then per-file enumerated
// chunks. Filenames are sorted; within a file, chunks keep their
// similarity ranking.
func buildAugmentation(survivors []knowledge.Match) Augmentation {
	byFile := make(map[string][]knowledge.Match)
	for _, m := range survivors {
		byFile[m.Filename] = append(byFile[m.Filename], m)
	}

	filenames := make([]string, 0, len(byFile))
	for name := range byFile {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	var (
		b         strings.Builder
		citations []Citation
		chunks    []RetrievedChunk
	)
	b.WriteString(contextHeader)
	for i, name := range filenames {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "From %s:\n", name)
		for j, m := range byFile[name] {
			fmt.Fprintf(&b, "%d. %s\n", j+1, m.Text)
			chunks = append(chunks, RetrievedChunk{
				Text:     m.Text,
				Filename: m.Filename,
				Score:    m.Score,
			})
		}
		citations = append(citations, Citation{
			Filename: name,
			Chunks:   len(byFile[name]),
		})
	}

	return Augmentation{
		Context:   b.String(),
		Citations: citations,
		Chunks:    chunks,
	}
}
