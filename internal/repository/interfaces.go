// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/akhbar/internal/model"
)

// ArticleQuery は記事一覧取得のフィルタ条件を表す。
type ArticleQuery struct {
	// Category はフィルタ対象のカテゴリ。
	// CategoryAllはフィルタなし、CategoryBreakingはis_breakingフラグでフィルタする。
	Category model.Category
	// Limit は取得件数上限。
	Limit int
	// Offset は取得開始位置。
	Offset int
	// IncludeHidden は非表示記事を含めるかどうか。管理者向け一覧でのみtrue。
	IncludeHidden bool
}

// ArticleUpdate は記事の部分更新フィールドを表す。nilフィールドは変更しない。
type ArticleUpdate struct {
	Title      *string
	Summary    *string
	Category   *model.Category
	IsBreaking *bool
	IsHidden   *bool
}

// ArticleRepository は記事データの永続化インターフェース。
type ArticleRepository interface {
	// Create は記事を作成する。
	Create(ctx context.Context, article *model.Article) error

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)

	// List は記事一覧をpublished_at降順で取得する。
	List(ctx context.Context, q ArticleQuery) ([]*model.Article, error)

	// ListBreaking は非表示でない速報記事をpublished_at降順で取得する。
	ListBreaking(ctx context.Context, limit int) ([]*model.Article, error)

	// Update は記事を部分更新する。記事が存在しない場合はfalseを返す。
	Update(ctx context.Context, id string, update ArticleUpdate) (bool, error)

	// Hide は記事の非表示フラグを立てる。記事が存在しない場合はfalseを返す。
	// 行の削除は行わない（ソフト非表示）。
	Hide(ctx context.Context, id string) (bool, error)

	// Delete は記事を物理削除する。記事が存在しない場合はfalseを返す。
	// 関連するsaved_articles、reading_historyはCASCADE削除される。
	Delete(ctx context.Context, id string) (bool, error)
}

// SavedArticleRepository は保存記事データの永続化インターフェース。
type SavedArticleRepository interface {
	// IsSaved は(user, article)ペアが保存済みかどうかを返す。
	IsSaved(ctx context.Context, userID, articleID string) (bool, error)

	// Save は保存記事を作成する。重複チェックは呼び出し元が行う。
	Save(ctx context.Context, saved *model.SavedArticle) error

	// Unsave は保存記事を削除する。見つからない場合はfalseを返す。
	Unsave(ctx context.Context, userID, articleID string) (bool, error)

	// ListByUserID はユーザーの保存記事一覧を保存日時降順で返す。
	// 非表示記事は除外される。
	ListByUserID(ctx context.Context, userID string) ([]model.ArticleWithSavedAt, error)
}

// ReadingHistoryRepository は閲覧履歴データの永続化インターフェース。
type ReadingHistoryRepository interface {
	// Upsert は閲覧履歴を記録する。
	// 同一(user, article)ペアの既存行がある場合はread_atを更新し、行を複製しない。
	Upsert(ctx context.Context, userID, articleID string, readAt time.Time) (*model.ReadingHistoryEntry, error)

	// ListByUserID はユーザーの閲覧履歴を閲覧日時降順で返す。
	// 非表示記事は除外される。
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.ArticleWithReadAt, error)

	// ClearByUserID はユーザーの全閲覧履歴を削除する。
	ClearByUserID(ctx context.Context, userID string) error
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// UpdateNotificationPrefs はユーザーの通知設定を更新する。
	// 更新後のユーザーを返す。見つからない場合はnilを返す。
	UpdateNotificationPrefs(ctx context.Context, userID string, prefs model.NotificationPreferences) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// PushSubscriptionRepository はプッシュ購読データの永続化インターフェース。
type PushSubscriptionRepository interface {
	// Save はプッシュ購読を登録する。
	// 同一(user, endpoint)の既存購読は削除してから挿入する。
	Save(ctx context.Context, sub *model.PushSubscription) error

	// ListByUserID はユーザーのプッシュ購読一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.PushSubscription, error)
}

// AdBannerUpdate は広告バナーの部分更新フィールドを表す。nilフィールドは変更しない。
type AdBannerUpdate struct {
	Title    *string
	ImageURL *string
	ClickURL *string
	Position *model.AdPosition
	IsActive *bool
}

// AdBannerRepository は広告バナーデータの永続化インターフェース。
type AdBannerRepository interface {
	// Create は広告バナーを作成する。
	Create(ctx context.Context, banner *model.AdBanner) error

	// FindByID は指定IDの広告バナーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AdBanner, error)

	// ListActive は有効な広告バナーを作成日時降順で返す。
	// positionが空でない場合は表示位置でフィルタする。
	ListActive(ctx context.Context, position model.AdPosition) ([]*model.AdBanner, error)

	// Update は広告バナーを部分更新する。更新後のバナーを返す。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, update AdBannerUpdate) (*model.AdBanner, error)

	// Delete は広告バナーを削除する。見つからない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}
