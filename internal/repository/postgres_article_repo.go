package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/akhbar/internal/model"
)

// articleColumns はarticlesテーブルのSELECT対象カラム。
const articleColumns = `id, title, content, summary, source, category, image_url, original_url,
	 published_at, read_time, is_breaking, is_hidden, created_at`

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// scanArticle は1行をmodel.Articleにスキャンする。
func scanArticle(row interface{ Scan(...any) error }) (*model.Article, error) {
	a := &model.Article{}
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.Summary, &a.Source, &a.Category,
		&a.ImageURL, &a.OriginalURL, &a.PublishedAt, &a.ReadTime,
		&a.IsBreaking, &a.IsHidden, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create は記事を作成する。
func (r *PostgresArticleRepo) Create(ctx context.Context, article *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, content, summary, source, category, image_url,
		 original_url, published_at, read_time, is_breaking, is_hidden, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		article.ID, article.Title, article.Content, article.Summary, article.Source,
		article.Category, article.ImageURL, article.OriginalURL, article.PublishedAt,
		article.ReadTime, article.IsBreaking, article.IsHidden, article.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	article, err := scanArticle(r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find article by ID: %w", err)
	}
	return article, nil
}

// List は記事一覧をpublished_at降順で取得する。
// カテゴリフィルタの規則:
//   - CategoryAll（または空）: フィルタなし
//   - CategoryBreaking: is_breaking = true でフィルタ（categoryカラムは見ない）
//   - その他: categoryカラムの完全一致
func (r *PostgresArticleRepo) List(ctx context.Context, q ArticleQuery) ([]*model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE 1=1`
	args := []any{}

	if !q.IncludeHidden {
		query += ` AND is_hidden = FALSE`
	}

	switch q.Category {
	case "", model.CategoryAll:
		// フィルタなし
	case model.CategoryBreaking:
		query += ` AND is_breaking = TRUE`
	default:
		args = append(args, q.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	args = append(args, q.Limit)
	query += fmt.Sprintf(` ORDER BY published_at DESC LIMIT $%d`, len(args))
	args = append(args, q.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []*model.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}

// ListBreaking は非表示でない速報記事をpublished_at降順で取得する。
func (r *PostgresArticleRepo) ListBreaking(ctx context.Context, limit int) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+`
		 FROM articles
		 WHERE is_breaking = TRUE AND is_hidden = FALSE
		 ORDER BY published_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaking articles: %w", err)
	}
	defer rows.Close()

	articles := []*model.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan breaking article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate breaking articles: %w", err)
	}

	return articles, nil
}

// Update は記事を部分更新する。記事が存在しない場合はfalseを返す。
func (r *PostgresArticleRepo) Update(ctx context.Context, id string, update ArticleUpdate) (bool, error) {
	sets := []string{}
	args := []any{}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		appendSet("title", *update.Title)
	}
	if update.Summary != nil {
		appendSet("summary", *update.Summary)
	}
	if update.Category != nil {
		appendSet("category", *update.Category)
	}
	if update.IsBreaking != nil {
		appendSet("is_breaking", *update.IsBreaking)
	}
	if update.IsHidden != nil {
		appendSet("is_hidden", *update.IsHidden)
	}

	if len(sets) == 0 {
		// 更新フィールドなし。存在確認のみ行う。
		article, err := r.FindByID(ctx, id)
		if err != nil {
			return false, err
		}
		return article != nil, nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE articles SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update article: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Hide は記事の非表示フラグを立てる。記事が存在しない場合はfalseを返す。
func (r *PostgresArticleRepo) Hide(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles SET is_hidden = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to hide article: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は記事を物理削除する。記事が存在しない場合はfalseを返す。
// saved_articles、reading_historyの関連行はON DELETE CASCADEで削除される。
func (r *PostgresArticleRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM articles WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete article: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
