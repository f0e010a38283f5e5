package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/model"
	appErr "github.com/xxxsen/docchat/internal/pkg/errors"
)

const (
	// AnswerNotFound is the answer returned when the user has no chunks
	// close enough to the question. It is a successful outcome and still
	// lands in the history.
	AnswerNotFound = "No relevant information found in your documents."
	// AnswerRefusal is the phrase the generator is instructed to emit when
	// the retrieved context does not cover the question.
	AnswerRefusal = "This question is not covered in my knowledge base."
)

// ChatService answers questions from the user's own document chunks. Each
// call is independent: no conversation state is carried between questions.
type ChatService struct {
	chunks    ChunkStore
	history   HistoryStore
	embedder  ai.IEmbedder
	generator ai.IGenerator
	topK      int
	timeout   time.Duration
}

func NewChatService(chunks ChunkStore, history HistoryStore, embedder ai.IEmbedder, generator ai.IGenerator, topK int, timeout time.Duration) *ChatService {
	return &ChatService{
		chunks:    chunks,
		history:   history,
		embedder:  embedder,
		generator: generator,
		topK:      topK,
		timeout:   timeout,
	}
}

func (s *ChatService) Ask(ctx context.Context, userID, question string) (string, error) {
	if userID == "" || strings.TrimSpace(question) == "" {
		return "", appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))

	vector, err := s.embedder.Embed(ctx, question, "RETRIEVAL_QUERY")
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}
	matches, err := s.chunks.Nearest(ctx, userID, vector, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve chunks: %w", err)
	}
	if len(matches) == 0 {
		logger.Info("no relevant chunks for question")
		if err := s.appendHistory(ctx, userID, question, AnswerNotFound); err != nil {
			return "", err
		}
		return AnswerNotFound, nil
	}

	texts := make([]string, 0, len(matches))
	for _, match := range matches {
		texts = append(texts, match.Chunk)
	}
	answer, err := s.generate(ctx, buildPrompt(question, texts))
	if err != nil {
		// No history row for failed generations, so a retry after the
		// dependency recovers does not leave half-written conversations.
		return "", err
	}
	if err := s.appendHistory(ctx, userID, question, answer); err != nil {
		return "", err
	}
	logger.Info("question answered", zap.Int("context_chunks", len(matches)))
	return answer, nil
}

// generate runs the external model call with a per-attempt timeout and a
// single retry; this is the only network-dependent step of the query path.
func (s *ChatService) generate(ctx context.Context, prompt string) (string, error) {
	answer, err := s.generateOnce(ctx, prompt)
	if err == nil {
		return answer, nil
	}
	if ctx.Err() != nil {
		return "", err
	}
	logutil.GetLogger(ctx).Warn("generator failed, retrying once", zap.Error(err))
	return s.generateOnce(ctx, prompt)
}

func (s *ChatService) generateOnce(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(resp)
	if answer == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return answer, nil
}

func (s *ChatService) appendHistory(ctx context.Context, userID, question, answer string) error {
	_, err := s.history.Append(ctx, &model.ChatHistory{
		UserID:   userID,
		Question: question,
		Answer:   answer,
		Ctime:    time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *ChatService) History(ctx context.Context, userID string, newestFirst bool) ([]*model.ChatHistory, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	return s.history.List(ctx, userID, newestFirst)
}

func (s *ChatService) DeleteHistory(ctx context.Context, userID string, ids []int64) (int64, error) {
	if userID == "" {
		return 0, appErr.ErrInvalid
	}
	return s.history.Delete(ctx, userID, ids)
}

func buildPrompt(question string, contextChunks []string) string {
	return fmt.Sprintf(`You are a helpful assistant. Answer using only the provided context.
Do not use prior knowledge. If the answer is not present in the context, respond with: '%s'

CONTEXT:
%s

QUESTION:
%s`, AnswerRefusal, strings.Join(contextChunks, "\n\n"), question)
}
