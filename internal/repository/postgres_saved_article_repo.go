package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/akhbar/internal/model"
)

// PostgresSavedArticleRepo はPostgreSQLを使用した保存記事リポジトリ。
type PostgresSavedArticleRepo struct {
	db *sql.DB
}

// NewPostgresSavedArticleRepo はPostgresSavedArticleRepoを生成する。
func NewPostgresSavedArticleRepo(db *sql.DB) *PostgresSavedArticleRepo {
	return &PostgresSavedArticleRepo{db: db}
}

// IsSaved は(user, article)ペアが保存済みかどうかを返す。
func (r *PostgresSavedArticleRepo) IsSaved(ctx context.Context, userID, articleID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM saved_articles WHERE user_id = $1 AND article_id = $2
		 )`,
		userID, articleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check saved article: %w", err)
	}
	return exists, nil
}

// Save は保存記事を作成する。重複チェックは呼び出し元が行う。
func (r *PostgresSavedArticleRepo) Save(ctx context.Context, saved *model.SavedArticle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO saved_articles (id, article_id, user_id, saved_at)
		 VALUES ($1, $2, $3, $4)`,
		saved.ID, saved.ArticleID, saved.UserID, saved.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert saved article: %w", err)
	}
	return nil
}

// Unsave は保存記事を削除する。見つからない場合はfalseを返す。
func (r *PostgresSavedArticleRepo) Unsave(ctx context.Context, userID, articleID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_articles WHERE user_id = $1 AND article_id = $2`,
		userID, articleID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete saved article: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListByUserID はユーザーの保存記事一覧を保存日時降順で返す。
// 非表示記事は除外される（エンドユーザー向けクエリのため）。
func (r *PostgresSavedArticleRepo) ListByUserID(ctx context.Context, userID string) ([]model.ArticleWithSavedAt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.title, a.content, a.summary, a.source, a.category, a.image_url,
		        a.original_url, a.published_at, a.read_time, a.is_breaking, a.is_hidden,
		        a.created_at, s.saved_at
		 FROM saved_articles s
		 JOIN articles a ON a.id = s.article_id
		 WHERE s.user_id = $1 AND a.is_hidden = FALSE
		 ORDER BY s.saved_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved articles: %w", err)
	}
	defer rows.Close()

	results := []model.ArticleWithSavedAt{}
	for rows.Next() {
		var row model.ArticleWithSavedAt
		err := rows.Scan(
			&row.ID, &row.Title, &row.Content, &row.Summary, &row.Source, &row.Category,
			&row.ImageURL, &row.OriginalURL, &row.PublishedAt, &row.ReadTime,
			&row.IsBreaking, &row.IsHidden, &row.CreatedAt, &row.SavedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved article: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved articles: %w", err)
	}

	return results, nil
}

// compile-time interface check
var _ SavedArticleRepository = (*PostgresSavedArticleRepo)(nil)
