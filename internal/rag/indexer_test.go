package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaldesk/vitaldesk/internal/knowledge"
	"github.com/vitaldesk/vitaldesk/internal/log"
)

type fakeUpserter struct {
	upserted []knowledge.Chunk
	deleted  []string
}

func (f *fakeUpserter) Upsert(_ context.Context, chunks []knowledge.Chunk) error {
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeUpserter) DeleteByFilename(_ context.Context, filename string) error {
	f.deleted = append(f.deleted, filename)
	return nil
}

func TestChunkText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name: "fits in one chunk",
			text: "short text",
			size: 100, overlap: 20,
			want: []string{"short text"},
		},
		{
			name: "splits with overlap",
			text: "abcdefghij",
			size: 4, overlap: 2,
			want: []string{"abcd", "cdef", "efgh", "ghij"},
		},
		{
			name: "no overlap",
			text: "abcdefgh",
			size: 4, overlap: 0,
			want: []string{"abcd", "efgh"},
		},
		{
			name: "whitespace only",
			text: "   \n\t  ",
			size: 4, overlap: 0,
			want: nil,
		},
		{
			name: "empty",
			text: "",
			size: 4, overlap: 0,
			want: nil,
		},
		{
			name: "overlap at least size falls back to no overlap",
			text: "abcdefgh",
			size: 4, overlap: 4,
			want: []string{"abcd", "efgh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ChunkText(tt.text, tt.size, tt.overlap))
		})
	}
}

func TestChunkText_RuneBoundaries(t *testing.T) {
	t.Parallel()

	// Multibyte runes must never be split mid-encoding.
	text := strings.Repeat("héllo wörld ", 10)
	for _, chunk := range ChunkText(text, 16, 4) {
		assert.True(t, utf8.ValidString(chunk))
		assert.LessOrEqual(t, len([]rune(chunk)), 16)
	}
}

func TestIngestFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("protein matters. ", 50)), 0o600))

	index := &fakeUpserter{}
	ix := NewIndexer(index, IndexerConfig{ChunkSize: 200, ChunkOverlap: 40}, log.NewNop())

	n, err := ix.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Greater(t, n, 1)
	assert.Equal(t, []string{"guide.md"}, index.deleted)
	require.Len(t, index.upserted, n)

	// Chunk ids are stable per file and position.
	assert.Equal(t, "guide.md#0", index.upserted[0].ID)
	assert.Equal(t, "guide.md", index.upserted[0].Filename)
}

func TestIngestFile_EmptyDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	index := &fakeUpserter{}
	ix := NewIndexer(index, IndexerConfig{ChunkSize: 100, ChunkOverlap: 0}, log.NewNop())

	n, err := ix.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, index.deleted)
}

func TestIngestDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("cardio basics"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("meal prep"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.pdf"), []byte("ignored"), 0o600))

	index := &fakeUpserter{}
	ix := NewIndexer(index, IndexerConfig{ChunkSize: 1000, ChunkOverlap: 200}, log.NewNop())

	n, err := ix.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var files []string
	for _, c := range index.upserted {
		files = append(files, c.Filename)
	}
	assert.ElementsMatch(t, []string{"a.txt", "b.md"}, files)
}
