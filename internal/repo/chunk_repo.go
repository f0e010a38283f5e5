package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/pkg/dbutil"
)

// ChunkRepo is the vector store for document chunks. Every method takes the
// owning user id and binds it into the statement, so reading or deleting
// another user's chunks is not expressible through this type.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) Insert(ctx context.Context, chunk *model.DocumentChunk) (int64, error) {
	const query = `
		INSERT INTO document_chunks (user_id, source, chunk, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		chunk.UserID,
		chunk.Source,
		chunk.Chunk,
		pgvector.NewVector(chunk.Embedding),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	chunk.ID = id
	return id, nil
}

// Nearest returns up to k chunks of the given user ranked by ascending L2
// distance to the query vector; ties keep insertion order. Fewer rows than
// k, including none, is a normal result.
func (r *ChunkRepo) Nearest(ctx context.Context, userID string, vector []float32, k int) ([]*model.DocumentChunk, error) {
	const query = `
		SELECT id, user_id, source, chunk
		FROM document_chunks
		WHERE user_id = $1
		ORDER BY embedding <-> $2, id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []*model.DocumentChunk
	for rows.Next() {
		var item model.DocumentChunk
		if err := rows.Scan(&item.ID, &item.UserID, &item.Source, &item.Chunk); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	return results, rows.Err()
}

func (r *ChunkRepo) DeleteBySource(ctx context.Context, userID, source string) (int64, error) {
	where := map[string]interface{}{
		"user_id": userID,
		"source":  source,
	}
	sqlStr, args, err := builder.BuildDelete("document_chunks", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ChunkRepo) ListSources(ctx context.Context, userID string) ([]model.SourceInfo, error) {
	const query = `
		SELECT source, count(*)
		FROM document_chunks
		WHERE user_id = $1
		GROUP BY source
		ORDER BY source
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.SourceInfo
	for rows.Next() {
		var item model.SourceInfo
		if err := rows.Scan(&item.Source, &item.ChunkCount); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}
