package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/handler"
	"github.com/xxxsen/docchat/internal/model"
	appErr "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/service"
)

type memChunkStore struct {
	nextID int64
	rows   []*model.DocumentChunk
}

func (s *memChunkStore) Insert(ctx context.Context, chunk *model.DocumentChunk) (int64, error) {
	s.nextID++
	cp := *chunk
	cp.ID = s.nextID
	s.rows = append(s.rows, &cp)
	return cp.ID, nil
}

func (s *memChunkStore) Nearest(ctx context.Context, userID string, vector []float32, k int) ([]*model.DocumentChunk, error) {
	type scored struct {
		row  *model.DocumentChunk
		dist float64
	}
	var candidates []scored
	for _, row := range s.rows {
		if row.UserID != userID {
			continue
		}
		var dist float64
		for i := 0; i < len(row.Embedding) && i < len(vector); i++ {
			d := float64(row.Embedding[i]) - float64(vector[i])
			dist += d * d
		}
		candidates = append(candidates, scored{row: row, dist: dist})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].row.ID < candidates[j].row.ID
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]*model.DocumentChunk, 0, k)
	for _, c := range candidates[:k] {
		out = append(out, c.row)
	}
	return out, nil
}

func (s *memChunkStore) DeleteBySource(ctx context.Context, userID, source string) (int64, error) {
	kept := s.rows[:0]
	var removed int64
	for _, row := range s.rows {
		if row.UserID == userID && row.Source == source {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return removed, nil
}

func (s *memChunkStore) ListSources(ctx context.Context, userID string) ([]model.SourceInfo, error) {
	counts := map[string]int64{}
	var order []string
	for _, row := range s.rows {
		if row.UserID != userID {
			continue
		}
		if _, ok := counts[row.Source]; !ok {
			order = append(order, row.Source)
		}
		counts[row.Source]++
	}
	out := make([]model.SourceInfo, 0, len(order))
	for _, source := range order {
		out = append(out, model.SourceInfo{Source: source, ChunkCount: counts[source]})
	}
	return out, nil
}

type memHistoryStore struct {
	nextID int64
	rows   []*model.ChatHistory
}

func (s *memHistoryStore) Append(ctx context.Context, entry *model.ChatHistory) (int64, error) {
	s.nextID++
	cp := *entry
	cp.ID = s.nextID
	s.rows = append(s.rows, &cp)
	return cp.ID, nil
}

func (s *memHistoryStore) List(ctx context.Context, userID string, newestFirst bool) ([]*model.ChatHistory, error) {
	var out []*model.ChatHistory
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	if newestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (s *memHistoryStore) Delete(ctx context.Context, userID string, ids []int64) (int64, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	kept := s.rows[:0]
	var removed int64
	for _, row := range s.rows {
		if row.UserID == userID && want[row.ID] {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return removed, nil
}

type memUserStore struct {
	byEmail map[string]*model.User
}

func (s *memUserStore) Create(ctx context.Context, user *model.User) error {
	if _, ok := s.byEmail[user.Email]; ok {
		return appErr.ErrConflict
	}
	cp := *user
	s.byEmail[user.Email] = &cp
	return nil
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, appErr.ErrNotFound
}

type stubEmbedder struct{ dimension int }

func (e stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	for i, r := range text {
		vec[i%e.dimension] += float32(r % 13)
	}
	return vec, nil
}

func (e stubEmbedder) ModelName() string { return "stub" }

type stubGenerator struct{ answer string }

func (g stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.answer, nil
}

type noopFileStore struct{}

func (noopFileStore) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	return nil
}

func (noopFileStore) Delete(ctx context.Context, key string) error { return nil }

var testJWTSecret = []byte("test-secret")

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	chunks := &memChunkStore{}
	history := &memHistoryStore{}
	users := &memUserStore{byEmail: map[string]*model.User{}}
	embedder := stubEmbedder{dimension: 8}

	authService := service.NewAuthService(users, testJWTSecret, time.Hour, true)
	documentService := service.NewDocumentService(chunks, embedder, noopFileStore{}, 100, 8)
	chatService := service.NewChatService(chunks, history, embedder, stubGenerator{answer: "stub answer"}, 3, time.Second)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"), handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Documents: handler.NewDocumentHandler(documentService),
		Chat:      handler.NewChatHandler(chatService),
		JWTSecret: testJWTSecret,
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doUpload(t *testing.T, router *gin.Engine, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "s3cret-pass"}
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "access_token")

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	return envelope.Data.AccessToken
}
