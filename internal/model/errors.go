// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, article, ad, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeArticleNotFound      = "ARTICLE_NOT_FOUND"
	ErrCodeInvalidCategory      = "INVALID_CATEGORY"
	ErrCodeAlreadySaved         = "ALREADY_SAVED"
	ErrCodeSavedNotFound        = "SAVED_ARTICLE_NOT_FOUND"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeUsernameTaken        = "USERNAME_TAKEN"
	ErrCodePasswordTooShort     = "PASSWORD_TOO_SHORT"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeAdBannerNotFound     = "AD_BANNER_NOT_FOUND"
	ErrCodeInvalidAdPosition    = "INVALID_AD_POSITION"
	ErrCodeInvalidSubscription  = "INVALID_SUBSCRIPTION"
)

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "article",
		Action:   "記事IDを確認してください。",
	}
}

// NewInvalidCategoryError は無効なカテゴリエラーを生成する。
func NewInvalidCategoryError(category string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("無効なカテゴリです: %s", category),
		Category: "validation",
		Action:   "カテゴリには all、breaking、politics、tech、sports、business のいずれかを指定してください。",
	}
}

// NewAlreadySavedError は記事重複保存エラーを生成する。
func NewAlreadySavedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySaved,
		Message:  "この記事は既に保存されています。",
		Category: "article",
		Action:   "保存済み一覧から該当記事を確認してください。",
	}
}

// NewSavedArticleNotFoundError は保存記事未検出エラーを生成する。
func NewSavedArticleNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSavedNotFound,
		Message:  "保存された記事が見つかりません。",
		Category: "article",
		Action:   "保存済み一覧を確認してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名の存在有無を区別しない固定メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  "このユーザー名は既に使用されています。",
		Category: "auth",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewPasswordTooShortError はパスワード長不足エラーを生成する。
func NewPasswordTooShortError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  "パスワードは6文字以上で指定してください。",
		Category: "validation",
		Action:   "6文字以上のパスワードを入力してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewAdBannerNotFoundError は広告バナー未検出エラーを生成する。
func NewAdBannerNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeAdBannerNotFound,
		Message:  fmt.Sprintf("指定された広告バナーが見つかりません: %s", id),
		Category: "ad",
		Action:   "広告バナーIDを確認してください。",
	}
}

// NewInvalidAdPositionError は無効な広告表示位置エラーを生成する。
func NewInvalidAdPositionError(position string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAdPosition,
		Message:  fmt.Sprintf("無効な表示位置です: %s", position),
		Category: "validation",
		Action:   "表示位置には top、middle、bottom のいずれかを指定してください。",
	}
}

// NewInvalidSubscriptionError は無効なプッシュ購読データエラーを生成する。
func NewInvalidSubscriptionError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSubscription,
		Message:  "プッシュ購読データが不正です。",
		Category: "validation",
		Action:   "endpoint と keys（p256dh, auth）を指定してください。",
	}
}
