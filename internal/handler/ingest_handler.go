package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hitoshi/akhbar/internal/ingest"
	"github.com/hitoshi/akhbar/internal/model"
)

// IngestServiceInterface は取り込みハンドラーが必要とするサービスインターフェース。
type IngestServiceInterface interface {
	// Refresh は通常の取り込みパスを実行する。
	Refresh(ctx context.Context, category model.Category, pageSize int) (*ingest.Result, error)
	// RefreshBreaking は速報の取り込みパスを実行する。
	RefreshBreaking(ctx context.Context) (*ingest.Result, error)
}

// IngestHandler は取り込みトリガーのHTTPハンドラー。
type IngestHandler struct {
	service  IngestServiceInterface
	pageSize int
}

// NewIngestHandler はIngestHandlerを生成する。
func NewIngestHandler(service IngestServiceInterface, pageSize int) *IngestHandler {
	return &IngestHandler{service: service, pageSize: pageSize}
}

// refreshRequest は取り込みトリガーリクエストのボディ。
type refreshRequest struct {
	Category string `json:"category"`
}

// refreshResponse は取り込み実行結果のレスポンス。
type refreshResponse struct {
	Count    int               `json:"count"`
	Articles []articleResponse `json:"articles"`
}

// RefreshArticles は通常の取り込みを実行する。
// POST /api/articles/refresh {category}
// 外部ソースの全体障害は成功扱いの空結果として返す（上流の障害をクライアントに波及させない）。
func (h *IngestHandler) RefreshArticles(w http.ResponseWriter, r *http.Request) {
	// ボディ省略はカテゴリ指定なしとして扱う
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeInvalidRequestBody(w)
		return
	}

	category := model.CategoryAll
	if req.Category != "" {
		category = model.Category(req.Category)
		if !category.IsValid() {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCategoryError(req.Category))
			return
		}
	}

	result, err := h.service.Refresh(r.Context(), category, h.pageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Count:    len(result.Stored),
		Articles: toArticleResponses(result.Stored),
	})
}

// RefreshBreaking は速報の取り込みを実行する。
// POST /api/breaking/refresh
func (h *IngestHandler) RefreshBreaking(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RefreshBreaking(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Count:    len(result.Stored),
		Articles: toArticleResponses(result.Stored),
	})
}
