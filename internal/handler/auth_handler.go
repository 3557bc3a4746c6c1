package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/akhbar/internal/model"
)

// sessionCookieName はセッションIDを保持するCookie名。
const sessionCookieName = "session_id"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録し、セッションを発行する。
	Register(ctx context.Context, username, password string) (*model.User, *model.Session, error)
	// Login は資格情報を照合し、セッションを発行する。
	Login(ctx context.Context, username, password string) (*model.User, *model.Session, error)
	// AdminLogin は運用資格情報を照合し、管理者セッションを発行する。
	AdminLogin(ctx context.Context, username, password string) (*model.User, *model.Session, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, sessionID string) error
	// CurrentUser はセッションIDから現在のユーザーを取得する。
	CurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーのCookie設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	CookieDomain  string
	SessionMaxAge time.Duration
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{service: service, config: config}
}

// credentialsRequest はログイン・登録リクエストのボディ。
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID                      string                        `json:"id"`
	Username                string                        `json:"username"`
	IsAdmin                 bool                          `json:"isAdmin"`
	NotificationPreferences model.NotificationPreferences `json:"notificationPreferences"`
	CreatedAt               time.Time                     `json:"createdAt"`
}

// toUserResponse はmodel.UserをAPIレスポンスに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:                      u.ID,
		Username:                u.Username,
		IsAdmin:                 u.IsAdmin,
		NotificationPreferences: u.NotificationPreferences,
		CreatedAt:               u.CreatedAt,
	}
}

// Register はユーザー登録を処理する。
// POST /api/auth/register {username, password}
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, session, err := h.service.Register(r.Context(), username, password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login はログインを処理する。
// POST /api/auth/login {username, password}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, session, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// AdminLogin は管理者ログインを処理する。
// POST /api/admin/login {username, password}
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	username, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, session, err := h.service.AdminLogin(r.Context(), username, password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout はログアウトを処理する。
// POST /api/auth/logout
// Cookieがない場合も204を返す（冪等）。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のユーザー情報を取得する。
// GET /api/auth/user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		writeUnauthorized(w)
		return
	}

	user, err := h.service.CurrentUser(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// decodeCredentials はログイン・登録リクエストのボディを解析する。
// 解析失敗と必須フィールド欠落には400を書き込みfalseを返す。
func decodeCredentials(w http.ResponseWriter, r *http.Request) (username, password string, ok bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return "", "", false
	}
	if req.Username == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "usernameとpasswordが必要です。",
			Category: "validation",
			Action:   "usernameとpasswordを指定してください。",
		})
		return "", "", false
	}
	return req.Username, req.Password, true
}

// setSessionCookie はセッションIDのHTTP Only Cookieを設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを無効化する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
