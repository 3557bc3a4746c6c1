package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/akhbar/internal/model"
)

// PostgresReadingHistoryRepo はPostgreSQLを使用した閲覧履歴リポジトリ。
type PostgresReadingHistoryRepo struct {
	db *sql.DB
}

// NewPostgresReadingHistoryRepo はPostgresReadingHistoryRepoを生成する。
func NewPostgresReadingHistoryRepo(db *sql.DB) *PostgresReadingHistoryRepo {
	return &PostgresReadingHistoryRepo{db: db}
}

// Upsert は閲覧履歴を記録する。
// 同一(user, article)ペアの既存行がある場合はread_atを更新し、行を複製しない。
func (r *PostgresReadingHistoryRepo) Upsert(ctx context.Context, userID, articleID string, readAt time.Time) (*model.ReadingHistoryEntry, error) {
	// 既存行のread_at更新を先に試みる
	entry := &model.ReadingHistoryEntry{UserID: userID, ArticleID: articleID}
	err := r.db.QueryRowContext(ctx,
		`UPDATE reading_history SET read_at = $1
		 WHERE user_id = $2 AND article_id = $3
		 RETURNING id, read_at`,
		readAt, userID, articleID,
	).Scan(&entry.ID, &entry.ReadAt)

	if err == nil {
		return entry, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to touch reading history: %w", err)
	}

	// 既存行なし。新規挿入する。
	entry.ID = uuid.NewString()
	entry.ReadAt = readAt
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO reading_history (id, article_id, user_id, read_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.ID, articleID, userID, readAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reading history: %w", err)
	}

	return entry, nil
}

// ListByUserID はユーザーの閲覧履歴を閲覧日時降順で返す。
// 非表示記事は除外される。
func (r *PostgresReadingHistoryRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.ArticleWithReadAt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.title, a.content, a.summary, a.source, a.category, a.image_url,
		        a.original_url, a.published_at, a.read_time, a.is_breaking, a.is_hidden,
		        a.created_at, h.read_at
		 FROM reading_history h
		 JOIN articles a ON a.id = h.article_id
		 WHERE h.user_id = $1 AND a.is_hidden = FALSE
		 ORDER BY h.read_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reading history: %w", err)
	}
	defer rows.Close()

	results := []model.ArticleWithReadAt{}
	for rows.Next() {
		var row model.ArticleWithReadAt
		err := rows.Scan(
			&row.ID, &row.Title, &row.Content, &row.Summary, &row.Source, &row.Category,
			&row.ImageURL, &row.OriginalURL, &row.PublishedAt, &row.ReadTime,
			&row.IsBreaking, &row.IsHidden, &row.CreatedAt, &row.ReadAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading history: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reading history: %w", err)
	}

	return results, nil
}

// ClearByUserID はユーザーの全閲覧履歴を削除する。
func (r *PostgresReadingHistoryRepo) ClearByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reading_history WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear reading history: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReadingHistoryRepository = (*PostgresReadingHistoryRepo)(nil)
