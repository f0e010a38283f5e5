package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/docchat/internal/pkg/errors"
)

func newDocumentService(chunks ChunkStore, files *fakeFileStore, embedder *fakeEmbedder) *DocumentService {
	return NewDocumentService(chunks, embedder, files, 100, embedder.dimension)
}

func TestIngestChunkCount(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	svc := newDocumentService(store, newFakeFileStore(), &fakeEmbedder{dimension: 8})

	words := make([]string, 250)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	n, err := svc.Ingest(ctx, "u1", "doc.txt", strings.Join(words, " "))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, store.rows, 3)
	for _, row := range store.rows {
		require.Equal(t, "u1", row.UserID)
		require.Equal(t, "doc.txt", row.Source)
		require.Len(t, row.Embedding, 8)
	}
}

func TestIngestEmptyTextIsNoop(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	svc := newDocumentService(store, newFakeFileStore(), &fakeEmbedder{dimension: 8})

	n, err := svc.Ingest(ctx, "u1", "blank.txt", "   \n\t ")
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Empty(t, store.rows)
}

func TestIngestValidatesArgs(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(&memChunkStore{}, newFakeFileStore(), &fakeEmbedder{dimension: 8})

	_, err := svc.Ingest(ctx, "", "doc.txt", "hello")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Ingest(ctx, "u1", "", "hello")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIngestEmbedFailureKeepsStoredCount(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	embedder := &fakeEmbedder{dimension: 8}
	svc := newDocumentService(store, newFakeFileStore(), embedder)

	words := make([]string, 150)
	for i := range words {
		words[i] = "w"
	}
	// First chunk embeds fine, then the provider goes down.
	failAfter := &failingAfterEmbedder{inner: embedder, failAt: 2}
	svc = NewDocumentService(store, failAfter, newFakeFileStore(), 100, 8)

	n, err := svc.Ingest(ctx, "u1", "doc.txt", strings.Join(words, " "))
	require.Error(t, err)
	require.Equal(t, 1, n)
	require.Len(t, store.rows, 1)
}

type failingAfterEmbedder struct {
	inner  *fakeEmbedder
	failAt int
	calls  int
}

func (e *failingAfterEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls++
	if e.calls >= e.failAt {
		return nil, fmt.Errorf("embed backend down")
	}
	return e.inner.Embed(ctx, text, taskType)
}

func (e *failingAfterEmbedder) ModelName() string {
	return e.inner.ModelName()
}

func TestIngestRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	embedder := &fakeEmbedder{dimension: 4}
	svc := NewDocumentService(store, embedder, newFakeFileStore(), 100, 8)

	_, err := svc.Ingest(ctx, "u1", "doc.txt", "hello world")
	require.Error(t, err)
	require.Contains(t, err.Error(), "dimension")
	require.Empty(t, store.rows)
}

func TestIngestFileArchivesUpload(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	files := newFakeFileStore()
	svc := newDocumentService(store, files, &fakeEmbedder{dimension: 8})

	n, err := svc.IngestFile(ctx, "u1", "notes.txt", []byte("alpha beta gamma"))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []byte("alpha beta gamma"), files.saved["u1/notes.txt"])
}

func TestIngestFileArchiveFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	files := newFakeFileStore()
	files.saveErr = fmt.Errorf("bucket unreachable")
	svc := newDocumentService(store, files, &fakeEmbedder{dimension: 8})

	n, err := svc.IngestFile(ctx, "u1", "notes.txt", []byte("alpha beta gamma"))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestIngestFileUnsupportedExtension(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(&memChunkStore{}, newFakeFileStore(), &fakeEmbedder{dimension: 8})

	_, err := svc.IngestFile(ctx, "u1", "image.png", []byte{0x89, 0x50})
	require.ErrorIs(t, err, appErr.ErrUnsupportedFile)
}

func TestDeleteSourceCountsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	files := newFakeFileStore()
	svc := newDocumentService(store, files, &fakeEmbedder{dimension: 8})

	_, err := svc.Ingest(ctx, "u1", "a.txt", "one two three")
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "u1", "b.txt", "four five six")
	require.NoError(t, err)

	count, err := svc.DeleteSource(ctx, "u1", "a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Contains(t, files.deleted, "u1/a.txt")

	count, err = svc.DeleteSource(ctx, "u1", "a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(0), count)

	sources, err := svc.ListSources(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, "b.txt", sources[0].Source)
}

func TestDeleteSourceScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	svc := newDocumentService(store, newFakeFileStore(), &fakeEmbedder{dimension: 8})

	_, err := svc.Ingest(ctx, "u1", "shared-name.txt", "mine")
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "u2", "shared-name.txt", "theirs")
	require.NoError(t, err)

	count, err := svc.DeleteSource(ctx, "u1", "shared-name.txt")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	sources, err := svc.ListSources(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, sources, 1)
}

func TestListSourcesAggregatesChunkCounts(t *testing.T) {
	ctx := context.Background()
	store := &memChunkStore{}
	svc := newDocumentService(store, newFakeFileStore(), &fakeEmbedder{dimension: 8})

	words := make([]string, 150)
	for i := range words {
		words[i] = "x"
	}
	_, err := svc.Ingest(ctx, "u1", "big.txt", strings.Join(words, " "))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "u1", "small.txt", "just one chunk")
	require.NoError(t, err)

	sources, err := svc.ListSources(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	byName := map[string]int64{}
	for _, s := range sources {
		byName[s.Source] = s.ChunkCount
	}
	require.Equal(t, int64(2), byName["big.txt"])
	require.Equal(t, int64(1), byName["small.txt"])
}
