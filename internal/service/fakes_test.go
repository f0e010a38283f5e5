package service

import (
	"context"
	"io"
	"sort"

	"github.com/xxxsen/docchat/internal/model"
)

// memChunkStore is a brute-force in-memory ChunkStore: exact L2 ranking with
// the insert id as tie-break, scoped to one user per call like the real one.
type memChunkStore struct {
	nextID int64
	rows   []*model.DocumentChunk
}

func (s *memChunkStore) Insert(ctx context.Context, chunk *model.DocumentChunk) (int64, error) {
	s.nextID++
	cp := *chunk
	cp.ID = s.nextID
	cp.Embedding = append([]float32(nil), chunk.Embedding...)
	s.rows = append(s.rows, &cp)
	return cp.ID, nil
}

func (s *memChunkStore) Nearest(ctx context.Context, userID string, vector []float32, k int) ([]*model.DocumentChunk, error) {
	type scored struct {
		row  *model.DocumentChunk
		dist float64
	}
	candidates := make([]scored, 0)
	for _, row := range s.rows {
		if row.UserID != userID {
			continue
		}
		candidates = append(candidates, scored{row: row, dist: l2Squared(row.Embedding, vector)})
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
	order := make([]string, 0)
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

func l2Squared(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
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
	out := make([]*model.ChatHistory, 0)
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

// fakeEmbedder returns the vector registered for a text, or a unit vector in
// the configured dimension when none is. Registered vectors let tests control
// the ranking exactly.
type fakeEmbedder struct {
	dimension int
	vectors   map[string][]float32
	err       error
	calls     int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.vectors[text]; ok {
		return append([]float32(nil), vec...), nil
	}
	vec := make([]float32, e.dimension)
	vec[0] = 1
	return vec, nil
}

func (e *fakeEmbedder) ModelName() string {
	return "fake-embed"
}

type fakeGenerator struct {
	answer  string
	errs    []error
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return g.answer, nil
}

type fakeFileStore struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
	delErr  error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{saved: map[string][]byte{}}
}

func (s *fakeFileStore) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.saved[key] = data
	return nil
}

func (s *fakeFileStore) Delete(ctx context.Context, key string) error {
	if s.delErr != nil {
		return s.delErr
	}
	s.deleted = append(s.deleted, key)
	return nil
}
