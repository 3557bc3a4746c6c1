package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/akhbar/internal/model"
)

// SavedArticleStore は保存記事ハンドラーが必要とするリポジトリインターフェース。
type SavedArticleStore interface {
	// IsSaved は(user, article)ペアが保存済みかどうかを返す。
	IsSaved(ctx context.Context, userID, articleID string) (bool, error)
	// Save は保存記事を作成する。
	Save(ctx context.Context, saved *model.SavedArticle) error
	// Unsave は保存記事を削除する。見つからない場合はfalseを返す。
	Unsave(ctx context.Context, userID, articleID string) (bool, error)
	// ListByUserID はユーザーの保存記事一覧を保存日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]model.ArticleWithSavedAt, error)
}

// ArticleExistenceChecker は記事の存在確認に必要なインターフェース。
type ArticleExistenceChecker interface {
	FindByID(ctx context.Context, id string) (*model.Article, error)
}

// SavedHandler は保存記事のHTTPハンドラー。
type SavedHandler struct {
	saved    SavedArticleStore
	articles ArticleExistenceChecker
}

// NewSavedHandler はSavedHandlerを生成する。
func NewSavedHandler(saved SavedArticleStore, articles ArticleExistenceChecker) *SavedHandler {
	return &SavedHandler{saved: saved, articles: articles}
}

// saveArticleRequest は記事保存リクエストのボディ。
type saveArticleRequest struct {
	UserID    string `json:"userId"`
	ArticleID string `json:"articleId"`
}

// savedArticleResponse は保存記事のAPIレスポンス。
type savedArticleResponse struct {
	articleResponse
	SavedAt time.Time `json:"savedAt"`
}

// ListSaved はユーザーの保存記事一覧を取得する。
// GET /api/saved?userId=
func (h *SavedHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "userIdパラメータが必要です。",
			Category: "validation",
			Action:   "userIdを指定してください。",
		})
		return
	}

	saved, err := h.saved.ListByUserID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]savedArticleResponse, 0, len(saved))
	for _, s := range saved {
		responses = append(responses, savedArticleResponse{
			articleResponse: toArticleResponse(&s.Article),
			SavedAt:         s.SavedAt,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

// SaveArticle は記事を保存する。
// POST /api/saved {userId, articleId}
// 記事が存在しない場合は404、保存済みの場合は409を返す。
func (h *SavedHandler) SaveArticle(w http.ResponseWriter, r *http.Request) {
	var req saveArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.UserID == "" || req.ArticleID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "userIdとarticleIdが必要です。",
			Category: "validation",
			Action:   "userIdとarticleIdを指定してください。",
		})
		return
	}

	article, err := h.articles.FindByID(r.Context(), req.ArticleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArticleNotFoundError(req.ArticleID))
		return
	}

	alreadySaved, err := h.saved.IsSaved(r.Context(), req.UserID, req.ArticleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if alreadySaved {
		writeAPIErrorResponse(w, http.StatusConflict, model.NewAlreadySavedError())
		return
	}

	saved := &model.SavedArticle{
		ID:        uuid.NewString(),
		ArticleID: req.ArticleID,
		UserID:    req.UserID,
		SavedAt:   time.Now().UTC(),
	}
	if err := h.saved.Save(r.Context(), saved); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, savedArticleResponse{
		articleResponse: toArticleResponse(article),
		SavedAt:         saved.SavedAt,
	})
}

// UnsaveArticle は保存記事を削除する。
// DELETE /api/saved/:articleId?userId=
func (h *SavedHandler) UnsaveArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleId")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "userIdパラメータが必要です。",
			Category: "validation",
			Action:   "userIdを指定してください。",
		})
		return
	}

	found, err := h.saved.Unsave(r.Context(), userID, articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewSavedArticleNotFoundError())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
