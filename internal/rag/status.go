package rag

import (
	"context"

	"github.com/vitaldesk/vitaldesk/internal/knowledge"
)

// Retrieval service states reported to clients.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
	StatusError    = "error"
)

// Status is the health snapshot of the retrieval subsystem.
type Status struct {
	Status        string  `json:"status"`
	IndexName     string  `json:"indexName,omitempty"`
	VectorCount   int64   `json:"vectorCount"`
	IndexFullness float64 `json:"indexFullness"`
	Reason        string  `json:"reason,omitempty"`
}

// StatsReader is the slice of the vector index the reporter needs.
type StatsReader interface {
	Name() string
	Stats(ctx context.Context) (knowledge.Stats, error)
}

// Reporter answers retrieval status queries. It shares the single
// capability flag with the retriever so the two never disagree about
// whether RAG is configured.
type Reporter struct {
	stats   StatsReader
	enabled bool
}

// NewReporter builds a Reporter. A nil stats source or enabled=false
// reports the disabled state.
func NewReporter(stats StatsReader, enabled bool) *Reporter {
	return &Reporter{
		stats:   stats,
		enabled: enabled && stats != nil,
	}
}

// Report returns the current retrieval status. A reachable index yields
// "active" with live statistics; an unreachable one yields "error" with
// the failure reason; an unconfigured one yields "disabled".
func (r *Reporter) Report(ctx context.Context) Status {
	if !r.enabled {
		return Status{
			Status: StatusDisabled,
			Reason: "no vector database configured",
		}
	}

	stats, err := r.stats.Stats(ctx)
	if err != nil {
		return Status{
			Status: StatusError,
			Reason: err.Error(),
		}
	}

	return Status{
		Status:        StatusActive,
		IndexName:     r.stats.Name(),
		VectorCount:   stats.VectorCount,
		IndexFullness: stats.IndexFullness,
	}
}
