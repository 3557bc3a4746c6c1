// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID                      string
	Username                string
	PasswordHash            string
	IsAdmin                 bool
	NotificationPreferences NotificationPreferences
	CreatedAt               time.Time
}

// NotificationPreferences は通知設定の3つの独立したフラグを表す。
type NotificationPreferences struct {
	PushNotifications bool `json:"pushNotifications"`
	BreakingNews      bool `json:"breakingNews"`
	EmailUpdates      bool `json:"emailUpdates"`
}

// DefaultNotificationPreferences はユーザー作成時のデフォルト通知設定を返す。
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		PushNotifications: true,
		BreakingNews:      true,
		EmailUpdates:      false,
	}
}

// Session はユーザーのログインセッションを表す。
// 不透明なセッションIDをCookie値として参照する。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PushSubscription はWeb Pushプロトコルの購読情報を表す。
// (user, endpoint) ペアにつき最大1件。再登録時は旧購読を削除してから挿入する。
type PushSubscription struct {
	ID        string
	UserID    string
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}
