package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/akhbar/internal/model"
)

// mockPushSubscriptionStore はPushSubscriptionStoreのモック実装。
type mockPushSubscriptionStore struct {
	saveFn func(ctx context.Context, sub *model.PushSubscription) error
}

func (m *mockPushSubscriptionStore) Save(ctx context.Context, sub *model.PushSubscription) error {
	return m.saveFn(ctx, sub)
}

// mockPrefsUpdater はNotificationPrefsUpdaterのモック実装。
type mockPrefsUpdater struct {
	updateFn func(ctx context.Context, userID string, prefs model.NotificationPreferences) (*model.User, error)
}

func (m *mockPrefsUpdater) UpdateNotificationPrefs(ctx context.Context, userID string, prefs model.NotificationPreferences) (*model.User, error) {
	return m.updateFn(ctx, userID, prefs)
}

func TestNotificationHandler_Subscribe_Success(t *testing.T) {
	var saved *model.PushSubscription
	subs := &mockPushSubscriptionStore{
		saveFn: func(ctx context.Context, sub *model.PushSubscription) error {
			saved = sub
			return nil
		},
	}
	h := NewNotificationHandler(subs, &mockPrefsUpdater{})

	body := `{"endpoint":"https://push.example.com/sub/1","keys":{"p256dh":"pk","auth":"secret"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/subscribe", bytes.NewBufferString(body))
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()
	h.Subscribe(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if saved == nil {
		t.Fatal("subscription not saved")
	}
	if saved.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", saved.UserID, "user-1")
	}
	if saved.Endpoint != "https://push.example.com/sub/1" {
		t.Errorf("Endpoint = %q", saved.Endpoint)
	}
	if saved.P256dh != "pk" || saved.Auth != "secret" {
		t.Errorf("keys = (%q, %q), want (pk, secret)", saved.P256dh, saved.Auth)
	}
	if saved.ID == "" {
		t.Error("ID is empty")
	}

	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["id"] != saved.ID {
		t.Errorf("id = %q, want %q", result["id"], saved.ID)
	}
}

func TestNotificationHandler_Subscribe_InvalidSubscription(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "エンドポイントなし", body: `{"keys":{"p256dh":"pk","auth":"secret"}}`},
		{name: "p256dhなし", body: `{"endpoint":"https://push.example.com/sub/1","keys":{"auth":"secret"}}`},
		{name: "authなし", body: `{"endpoint":"https://push.example.com/sub/1","keys":{"p256dh":"pk"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewNotificationHandler(&mockPushSubscriptionStore{}, &mockPrefsUpdater{})

			req := httptest.NewRequest(http.MethodPost, "/api/notifications/subscribe", bytes.NewBufferString(tt.body))
			req = withUserID(req, "user-1")
			w := httptest.NewRecorder()
			h.Subscribe(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			apiErr := parseAPIErrorResponse(t, w)
			if apiErr["code"] != model.ErrCodeInvalidSubscription {
				t.Errorf("code = %q, want %q", apiErr["code"], model.ErrCodeInvalidSubscription)
			}
		})
	}
}

func TestNotificationHandler_Subscribe_Unauthenticated(t *testing.T) {
	h := NewNotificationHandler(&mockPushSubscriptionStore{}, &mockPrefsUpdater{})

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/subscribe", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	h.Subscribe(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestNotificationHandler_UpdatePreferences_Success(t *testing.T) {
	users := &mockPrefsUpdater{
		updateFn: func(ctx context.Context, userID string, prefs model.NotificationPreferences) (*model.User, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want %q", userID, "user-1")
			}
			if !prefs.BreakingNews || prefs.PushNotifications || prefs.EmailUpdates {
				t.Errorf("prefs = %+v", prefs)
			}
			return &model.User{
				ID:                      userID,
				Username:                "hitoshi",
				NotificationPreferences: prefs,
				CreatedAt:               time.Now().UTC(),
			}, nil
		},
	}
	h := NewNotificationHandler(&mockPushSubscriptionStore{}, users)

	body := `{"pushNotifications":false,"breakingNews":true,"emailUpdates":false}`
	req := httptest.NewRequest(http.MethodPut, "/api/notifications/preferences", bytes.NewBufferString(body))
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()
	h.UpdatePreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var result userResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.NotificationPreferences.BreakingNews {
		t.Error("breakingNews = false, want true")
	}
}

func TestNotificationHandler_UpdatePreferences_UserNotFound(t *testing.T) {
	users := &mockPrefsUpdater{
		updateFn: func(ctx context.Context, userID string, prefs model.NotificationPreferences) (*model.User, error) {
			return nil, nil
		},
	}
	h := NewNotificationHandler(&mockPushSubscriptionStore{}, users)

	req := httptest.NewRequest(http.MethodPut, "/api/notifications/preferences", bytes.NewBufferString(`{}`))
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()
	h.UpdatePreferences(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
