package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/akhbar/internal/model"
)

// PostgresPushSubscriptionRepo はPostgreSQLを使用したプッシュ購読リポジトリ。
type PostgresPushSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresPushSubscriptionRepo はPostgresPushSubscriptionRepoを生成する。
func NewPostgresPushSubscriptionRepo(db *sql.DB) *PostgresPushSubscriptionRepo {
	return &PostgresPushSubscriptionRepo{db: db}
}

// Save はプッシュ購読を登録する。
// 同一(user, endpoint)の既存購読は同一トランザクション内で削除してから挿入する。
func (r *PostgresPushSubscriptionRepo) Save(ctx context.Context, sub *model.PushSubscription) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`,
		sub.UserID, sub.Endpoint,
	)
	if err != nil {
		return fmt.Errorf("failed to delete existing push subscription: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert push subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByUserID はユーザーのプッシュ購読一覧を返す。
func (r *PostgresPushSubscriptionRepo) ListByUserID(ctx context.Context, userID string) ([]*model.PushSubscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, endpoint, p256dh, auth, created_at
		 FROM push_subscriptions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*model.PushSubscription{}
	for rows.Next() {
		sub := &model.PushSubscription{}
		err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate push subscriptions: %w", err)
	}

	return subs, nil
}

// compile-time interface check
var _ PushSubscriptionRepository = (*PostgresPushSubscriptionRepo)(nil)
