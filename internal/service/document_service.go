package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/extract"
	"github.com/xxxsen/docchat/internal/filestore"
	"github.com/xxxsen/docchat/internal/model"
	appErr "github.com/xxxsen/docchat/internal/pkg/errors"
)

// DocumentService runs the ingestion path: extract, chunk, embed, store.
type DocumentService struct {
	chunks    ChunkStore
	embedder  ai.IEmbedder
	files     filestore.Store
	maxWords  int
	dimension int
}

func NewDocumentService(chunks ChunkStore, embedder ai.IEmbedder, files filestore.Store, maxWords, dimension int) *DocumentService {
	return &DocumentService{
		chunks:    chunks,
		embedder:  embedder,
		files:     files,
		maxWords:  maxWords,
		dimension: dimension,
	}
}

// IngestFile extracts plain text from an uploaded file, archives the raw
// bytes and ingests the text under the filename as source label.
func (s *DocumentService) IngestFile(ctx context.Context, userID, filename string, data []byte) (int, error) {
	if userID == "" || filename == "" {
		return 0, appErr.ErrInvalid
	}
	text, err := extract.Text(filename, data)
	if err != nil {
		return 0, err
	}
	if err := s.files.Save(ctx, archiveKey(userID, filename), bytes.NewReader(data), int64(len(data))); err != nil {
		// The chunk table is the source of truth; a failed archive write
		// should not block ingestion.
		logutil.GetLogger(ctx).Warn("archive upload failed",
			zap.String("user_id", userID),
			zap.String("source", filename),
			zap.Error(err),
		)
	}
	return s.Ingest(ctx, userID, filename, text)
}

// Ingest chunks the text and stores one embedded row per chunk, in document
// order. It is not atomic across chunks: on failure the chunks already
// inserted for this call stay behind, and callers are expected to run
// DeleteSource before retrying.
func (s *DocumentService) Ingest(ctx context.Context, userID, source, text string) (int, error) {
	if userID == "" || source == "" {
		return 0, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("source", source))
	pieces := ai.SplitWords(text, s.maxWords)
	if len(pieces) == 0 {
		logger.Info("nothing to ingest, document text is empty")
		return 0, nil
	}
	stored := 0
	for i, piece := range pieces {
		embedding, err := s.embedder.Embed(ctx, piece, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return stored, fmt.Errorf("embed chunk %d/%d: %w", i+1, len(pieces), err)
		}
		if len(embedding) != s.dimension {
			return stored, fmt.Errorf("embed chunk %d/%d: got dimension %d, want %d", i+1, len(pieces), len(embedding), s.dimension)
		}
		if _, err := s.chunks.Insert(ctx, &model.DocumentChunk{
			UserID:    userID,
			Source:    source,
			Chunk:     piece,
			Embedding: embedding,
		}); err != nil {
			return stored, fmt.Errorf("store chunk %d/%d: %w", i+1, len(pieces), err)
		}
		stored++
	}
	logger.Info("document ingested", zap.Int("chunks", stored))
	return stored, nil
}

// DeleteSource removes all chunks of one document. A zero count is a normal
// result, not an error.
func (s *DocumentService) DeleteSource(ctx context.Context, userID, source string) (int64, error) {
	if userID == "" || source == "" {
		return 0, appErr.ErrInvalid
	}
	count, err := s.chunks.DeleteBySource(ctx, userID, source)
	if err != nil {
		return 0, err
	}
	if err := s.files.Delete(ctx, archiveKey(userID, source)); err != nil {
		logutil.GetLogger(ctx).Warn("archive delete failed",
			zap.String("user_id", userID),
			zap.String("source", source),
			zap.Error(err),
		)
	}
	logutil.GetLogger(ctx).Info("source deleted",
		zap.String("user_id", userID),
		zap.String("source", source),
		zap.Int64("chunks", count),
	)
	return count, nil
}

func (s *DocumentService) ListSources(ctx context.Context, userID string) ([]model.SourceInfo, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	return s.chunks.ListSources(ctx, userID)
}

func archiveKey(userID, source string) string {
	source = strings.ReplaceAll(source, "/", "_")
	return userID + "/" + source
}
