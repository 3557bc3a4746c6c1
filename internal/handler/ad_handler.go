package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/akhbar/internal/model"
	"github.com/hitoshi/akhbar/internal/repository"
)

// AdBannerStore は広告バナーハンドラーが必要とするリポジトリインターフェース。
type AdBannerStore interface {
	// Create は広告バナーを作成する。
	Create(ctx context.Context, banner *model.AdBanner) error
	// ListActive は有効な広告バナーを返す。positionが空でない場合は表示位置でフィルタする。
	ListActive(ctx context.Context, position model.AdPosition) ([]*model.AdBanner, error)
	// Update は広告バナーを部分更新する。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, update repository.AdBannerUpdate) (*model.AdBanner, error)
	// Delete は広告バナーを削除する。見つからない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// AdHandler は広告バナーのHTTPハンドラー。
// 作成・更新・削除は管理者ルート、一覧取得は公開ルートに配置される。
type AdHandler struct {
	ads AdBannerStore
}

// NewAdHandler はAdHandlerを生成する。
func NewAdHandler(ads AdBannerStore) *AdHandler {
	return &AdHandler{ads: ads}
}

// createAdRequest は広告バナー作成リクエストのボディ。
type createAdRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	ClickURL string `json:"clickUrl"`
	Position string `json:"position"`
	IsActive *bool  `json:"isActive"`
}

// updateAdRequest は広告バナー部分更新リクエストのボディ。nilフィールドは変更しない。
type updateAdRequest struct {
	Title    *string `json:"title"`
	ImageURL *string `json:"imageUrl"`
	ClickURL *string `json:"clickUrl"`
	Position *string `json:"position"`
	IsActive *bool   `json:"isActive"`
}

// adBannerResponse は広告バナーのAPIレスポンス。
type adBannerResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	ClickURL  string    `json:"clickUrl"`
	Position  string    `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// toAdBannerResponse はmodel.AdBannerをAPIレスポンスに変換する。
func toAdBannerResponse(b *model.AdBanner) adBannerResponse {
	return adBannerResponse{
		ID:        b.ID,
		Title:     b.Title,
		ImageURL:  b.ImageURL,
		ClickURL:  b.ClickURL,
		Position:  string(b.Position),
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
	}
}

// ListAds は有効な広告バナーの一覧を取得する。
// GET /api/ads?position=
func (h *AdHandler) ListAds(w http.ResponseWriter, r *http.Request) {
	var position model.AdPosition
	if raw := r.URL.Query().Get("position"); raw != "" {
		position = model.AdPosition(raw)
		if !position.IsValid() {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAdPositionError(raw))
			return
		}
	}

	banners, err := h.ads.ListActive(r.Context(), position)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]adBannerResponse, 0, len(banners))
	for _, b := range banners {
		responses = append(responses, toAdBannerResponse(b))
	}
	writeJSON(w, http.StatusOK, responses)
}

// CreateAd は広告バナーを作成する。
// POST /api/admin/ads {title, imageUrl, clickUrl, position, isActive}
func (h *AdHandler) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req createAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.Title == "" || req.ImageURL == "" || req.ClickURL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "title、imageUrl、clickUrlが必要です。",
			Category: "validation",
			Action:   "必須フィールドを指定してください。",
		})
		return
	}
	position := model.AdPosition(req.Position)
	if !position.IsValid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAdPositionError(req.Position))
		return
	}

	// isActive省略時は有効として作成する
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	banner := &model.AdBanner{
		ID:        uuid.NewString(),
		Title:     req.Title,
		ImageURL:  req.ImageURL,
		ClickURL:  req.ClickURL,
		Position:  position,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.ads.Create(r.Context(), banner); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAdBannerResponse(banner))
}

// UpdateAd は広告バナーを部分更新する。
// PUT /api/admin/ads/:id
func (h *AdHandler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	bannerID := chi.URLParam(r, "id")

	var req updateAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	update := repository.AdBannerUpdate{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		ClickURL: req.ClickURL,
		IsActive: req.IsActive,
	}
	if req.Position != nil {
		position := model.AdPosition(*req.Position)
		if !position.IsValid() {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAdPositionError(*req.Position))
			return
		}
		update.Position = &position
	}

	banner, err := h.ads.Update(r.Context(), bannerID, update)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if banner == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewAdBannerNotFoundError(bannerID))
		return
	}

	writeJSON(w, http.StatusOK, toAdBannerResponse(banner))
}

// DeleteAd は広告バナーを削除する。
// DELETE /api/admin/ads/:id
func (h *AdHandler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	bannerID := chi.URLParam(r, "id")

	found, err := h.ads.Delete(r.Context(), bannerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewAdBannerNotFoundError(bannerID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
