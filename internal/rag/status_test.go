package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitaldesk/vitaldesk/internal/knowledge"
)

type fakeStats struct {
	stats knowledge.Stats
	err   error
}

func (f *fakeStats) Name() string { return "vitaldesk-docs" }

func (f *fakeStats) Stats(_ context.Context) (knowledge.Stats, error) {
	return f.stats, f.err
}

func TestReporter_Disabled(t *testing.T) {
	t.Parallel()

	got := NewReporter(&fakeStats{}, false).Report(context.Background())
	assert.Equal(t, StatusDisabled, got.Status)
	assert.NotEmpty(t, got.Reason)
}

func TestReporter_NilStats(t *testing.T) {
	t.Parallel()

	got := NewReporter(nil, true).Report(context.Background())
	assert.Equal(t, StatusDisabled, got.Status)
}

func TestReporter_Active(t *testing.T) {
	t.Parallel()

	r := NewReporter(&fakeStats{stats: knowledge.Stats{
		VectorCount:   250,
		IndexFullness: 0.0025,
	}}, true)

	got := r.Report(context.Background())
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, "vitaldesk-docs", got.IndexName)
	assert.Equal(t, int64(250), got.VectorCount)
	assert.InDelta(t, 0.0025, got.IndexFullness, 1e-9)
	assert.Empty(t, got.Reason)
}

func TestReporter_IndexError(t *testing.T) {
	t.Parallel()

	r := NewReporter(&fakeStats{err: errors.New("dial tcp: connection refused")}, true)

	got := r.Report(context.Background())
	assert.Equal(t, StatusError, got.Status)
	assert.Contains(t, got.Reason, "connection refused")
}
