package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/pkg/dbutil"
)

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Append(ctx context.Context, entry *model.ChatHistory) (int64, error) {
	const query = `
		INSERT INTO chat_history (user_id, question, answer, ctime)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.Question,
		entry.Answer,
		entry.Ctime,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	entry.ID = id
	return id, nil
}

func (r *HistoryRepo) List(ctx context.Context, userID string, newestFirst bool) ([]*model.ChatHistory, error) {
	order := "id asc"
	if newestFirst {
		order = "id desc"
	}
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": order,
	}
	sqlStr, args, err := builder.BuildSelect("chat_history", where, []string{"id", "user_id", "question", "answer", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []*model.ChatHistory
	for rows.Next() {
		var item model.ChatHistory
		if err := rows.Scan(&item.ID, &item.UserID, &item.Question, &item.Answer, &item.Ctime); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	return results, rows.Err()
}

// Delete removes the given entries for one user. Ids owned by someone else
// fall outside the user_id filter and are skipped silently.
func (r *HistoryRepo) Delete(ctx context.Context, userID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	where := map[string]interface{}{
		"user_id": userID,
		"id in":   ids,
	}
	sqlStr, args, err := builder.BuildDelete("chat_history", where)
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
