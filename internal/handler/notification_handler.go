package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/akhbar/internal/middleware"
	"github.com/hitoshi/akhbar/internal/model"
)

// PushSubscriptionStore はプッシュ購読ハンドラーが必要とするリポジトリインターフェース。
type PushSubscriptionStore interface {
	// Save はプッシュ購読を登録する。同一(user, endpoint)の既存購読は置き換える。
	Save(ctx context.Context, sub *model.PushSubscription) error
}

// NotificationPrefsUpdater は通知設定の更新に必要なインターフェース。
type NotificationPrefsUpdater interface {
	// UpdateNotificationPrefs は通知設定を更新し、更新後のユーザーを返す。
	UpdateNotificationPrefs(ctx context.Context, userID string, prefs model.NotificationPreferences) (*model.User, error)
}

// NotificationHandler はプッシュ購読と通知設定のHTTPハンドラー。
type NotificationHandler struct {
	subscriptions PushSubscriptionStore
	users         NotificationPrefsUpdater
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(subscriptions PushSubscriptionStore, users NotificationPrefsUpdater) *NotificationHandler {
	return &NotificationHandler{subscriptions: subscriptions, users: users}
}

// subscribeRequest はWeb Push購読登録リクエストのボディ。
// ブラウザのPushSubscription.toJSON()の形式に合わせる。
type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe はプッシュ購読を登録する。
// POST /api/notifications/subscribe {endpoint, keys: {p256dh, auth}}
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidSubscriptionError())
		return
	}

	sub := &model.PushSubscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.subscriptions.Save(r.Context(), sub); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": sub.ID})
}

// UpdatePreferences は通知設定の3フラグを更新する。
// PUT /api/notifications/preferences {pushNotifications, breakingNews, emailUpdates}
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var prefs model.NotificationPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, err := h.users.UpdateNotificationPrefs(r.Context(), userID, prefs)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
