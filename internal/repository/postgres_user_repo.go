package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/akhbar/internal/model"
)

// userColumns はusersテーブルのSELECT対象カラム。
const userColumns = `id, username, password_hash, is_admin,
	 push_notifications, breaking_news, email_updates, created_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// scanUser は1行をmodel.Userにスキャンする。
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin,
		&u.NotificationPreferences.PushNotifications,
		&u.NotificationPreferences.BreakingNews,
		&u.NotificationPreferences.EmailUpdates,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, is_admin,
		 push_notifications, breaking_news, email_updates, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Username, user.PasswordHash, user.IsAdmin,
		user.NotificationPreferences.PushNotifications,
		user.NotificationPreferences.BreakingNews,
		user.NotificationPreferences.EmailUpdates,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// UpdateNotificationPrefs はユーザーの通知設定を更新する。
// 更新後のユーザーを返す。見つからない場合はnilを返す。
func (r *PostgresUserRepo) UpdateNotificationPrefs(ctx context.Context, userID string, prefs model.NotificationPreferences) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET push_notifications = $1, breaking_news = $2, email_updates = $3
		 WHERE id = $4
		 RETURNING `+userColumns,
		prefs.PushNotifications, prefs.BreakingNews, prefs.EmailUpdates, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update notification preferences: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
