package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/akhbar/internal/model"
)

// adBannerColumns はad_bannersテーブルのSELECT対象カラム。
const adBannerColumns = `id, title, image_url, click_url, position, is_active, created_at`

// PostgresAdBannerRepo はPostgreSQLを使用した広告バナーリポジトリ。
type PostgresAdBannerRepo struct {
	db *sql.DB
}

// NewPostgresAdBannerRepo はPostgresAdBannerRepoを生成する。
func NewPostgresAdBannerRepo(db *sql.DB) *PostgresAdBannerRepo {
	return &PostgresAdBannerRepo{db: db}
}

// scanAdBanner は1行をmodel.AdBannerにスキャンする。
func scanAdBanner(row interface{ Scan(...any) error }) (*model.AdBanner, error) {
	b := &model.AdBanner{}
	err := row.Scan(&b.ID, &b.Title, &b.ImageURL, &b.ClickURL, &b.Position, &b.IsActive, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create は広告バナーを作成する。
func (r *PostgresAdBannerRepo) Create(ctx context.Context, banner *model.AdBanner) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ad_banners (id, title, image_url, click_url, position, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		banner.ID, banner.Title, banner.ImageURL, banner.ClickURL,
		banner.Position, banner.IsActive, banner.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ad banner: %w", err)
	}
	return nil
}

// FindByID は指定IDの広告バナーを取得する。見つからない場合はnilを返す。
func (r *PostgresAdBannerRepo) FindByID(ctx context.Context, id string) (*model.AdBanner, error) {
	banner, err := scanAdBanner(r.db.QueryRowContext(ctx,
		`SELECT `+adBannerColumns+` FROM ad_banners WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ad banner by ID: %w", err)
	}
	return banner, nil
}

// ListActive は有効な広告バナーを作成日時降順で返す。
// positionが空でない場合は表示位置でフィルタする。
func (r *PostgresAdBannerRepo) ListActive(ctx context.Context, position model.AdPosition) ([]*model.AdBanner, error) {
	query := `SELECT ` + adBannerColumns + ` FROM ad_banners WHERE is_active = TRUE`
	args := []any{}

	if position != "" {
		args = append(args, position)
		query += fmt.Sprintf(` AND position = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad banners: %w", err)
	}
	defer rows.Close()

	banners := []*model.AdBanner{}
	for rows.Next() {
		banner, err := scanAdBanner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad banner: %w", err)
		}
		banners = append(banners, banner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ad banners: %w", err)
	}

	return banners, nil
}

// Update は広告バナーを部分更新する。更新後のバナーを返す。見つからない場合はnilを返す。
func (r *PostgresAdBannerRepo) Update(ctx context.Context, id string, update AdBannerUpdate) (*model.AdBanner, error) {
	sets := []string{}
	args := []any{}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		appendSet("title", *update.Title)
	}
	if update.ImageURL != nil {
		appendSet("image_url", *update.ImageURL)
	}
	if update.ClickURL != nil {
		appendSet("click_url", *update.ClickURL)
	}
	if update.Position != nil {
		appendSet("position", *update.Position)
	}
	if update.IsActive != nil {
		appendSet("is_active", *update.IsActive)
	}

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE ad_banners SET %s WHERE id = $%d RETURNING `+adBannerColumns,
		strings.Join(sets, ", "), len(args))

	banner, err := scanAdBanner(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update ad banner: %w", err)
	}
	return banner, nil
}

// Delete は広告バナーを削除する。見つからない場合はfalseを返す。
func (r *PostgresAdBannerRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ad_banners WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete ad banner: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ AdBannerRepository = (*PostgresAdBannerRepo)(nil)
