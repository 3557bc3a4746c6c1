package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/akhbar/internal/middleware"
	"github.com/hitoshi/akhbar/internal/model"
)

// defaultHistoryLimit は閲覧履歴一覧の取得件数（デフォルト）。
const defaultHistoryLimit = 50

// ReadingHistoryStore は閲覧履歴ハンドラーが必要とするリポジトリインターフェース。
type ReadingHistoryStore interface {
	// Upsert は閲覧履歴を記録する。再閲覧はread_atを更新する。
	Upsert(ctx context.Context, userID, articleID string, readAt time.Time) (*model.ReadingHistoryEntry, error)
	// ListByUserID はユーザーの閲覧履歴を閲覧日時降順で返す。
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.ArticleWithReadAt, error)
	// ClearByUserID はユーザーの全閲覧履歴を削除する。
	ClearByUserID(ctx context.Context, userID string) error
}

// HistoryHandler は閲覧履歴のHTTPハンドラー。
type HistoryHandler struct {
	history  ReadingHistoryStore
	articles ArticleExistenceChecker
}

// NewHistoryHandler はHistoryHandlerを生成する。
func NewHistoryHandler(history ReadingHistoryStore, articles ArticleExistenceChecker) *HistoryHandler {
	return &HistoryHandler{history: history, articles: articles}
}

// recordHistoryRequest は閲覧記録リクエストのボディ。
type recordHistoryRequest struct {
	ArticleID string `json:"articleId"`
}

// historyEntryResponse は閲覧履歴エントリのAPIレスポンス。
type historyEntryResponse struct {
	articleResponse
	ReadAt time.Time `json:"readAt"`
}

// ListHistory はユーザーの閲覧履歴を取得する。
// GET /api/history?limit=
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	limit := parseIntParam(r, "limit", defaultHistoryLimit)

	entries, err := h.history.ListByUserID(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, historyEntryResponse{
			articleResponse: toArticleResponse(&e.Article),
			ReadAt:          e.ReadAt,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

// RecordHistory は記事の閲覧を記録する。
// POST /api/history {articleId}
// 同一記事の再閲覧は既存行のread_atを更新する（行を複製しない）。
func (h *HistoryHandler) RecordHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req recordHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.ArticleID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "articleIdが必要です。",
			Category: "validation",
			Action:   "articleIdを指定してください。",
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

	entry, err := h.history.Upsert(r.Context(), userID, req.ArticleID, time.Now().UTC())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, historyEntryResponse{
		articleResponse: toArticleResponse(article),
		ReadAt:          entry.ReadAt,
	})
}

// ClearHistory はユーザーの全閲覧履歴を削除する。
// DELETE /api/history
func (h *HistoryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.history.ClearByUserID(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
