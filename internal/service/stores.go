package service

import (
	"context"

	"github.com/xxxsen/docchat/internal/model"
)

// ChunkStore is the per-user vector store. Implementations must scope every
// operation to the given user id; chunks of other users are invisible.
type ChunkStore interface {
	Insert(ctx context.Context, chunk *model.DocumentChunk) (int64, error)
	Nearest(ctx context.Context, userID string, vector []float32, k int) ([]*model.DocumentChunk, error)
	DeleteBySource(ctx context.Context, userID, source string) (int64, error)
	ListSources(ctx context.Context, userID string) ([]model.SourceInfo, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type HistoryStore interface {
	Append(ctx context.Context, entry *model.ChatHistory) (int64, error)
	List(ctx context.Context, userID string, newestFirst bool) ([]*model.ChatHistory, error)
	Delete(ctx context.Context, userID string, ids []int64) (int64, error)
}
