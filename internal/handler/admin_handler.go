package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/akhbar/internal/model"
	"github.com/hitoshi/akhbar/internal/repository"
)

// ArticleAdminStore は管理者ハンドラーが必要とするリポジトリインターフェース。
type ArticleAdminStore interface {
	// List は非表示記事を含む記事一覧を返す。
	List(ctx context.Context, q repository.ArticleQuery) ([]*model.Article, error)
	// Hide は記事の非表示フラグを立てる。記事が存在しない場合はfalseを返す。
	Hide(ctx context.Context, id string) (bool, error)
	// Delete は記事を物理削除する。記事が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// AdminHandler は記事管理のHTTPハンドラー。
// ルーティング側でNewAdminMiddlewareによる権限チェックを前提とする。
type AdminHandler struct {
	articles ArticleAdminStore
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(articles ArticleAdminStore) *AdminHandler {
	return &AdminHandler{articles: articles}
}

// ListAllArticles は非表示記事を含む記事一覧を取得する。
// GET /api/admin/articles?category=&limit=&offset=
func (h *AdminHandler) ListAllArticles(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategoryParam(w, r)
	if !ok {
		return
	}
	limit := parseIntParam(r, "limit", defaultArticlesPerPage)
	offset := parseIntParam(r, "offset", 0)

	articles, err := h.articles.List(r.Context(), repository.ArticleQuery{
		Category:      category,
		Limit:         limit,
		Offset:        offset,
		IncludeHidden: true,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponses(articles))
}

// HideArticle は記事を非表示にする。行は削除しない。
// POST /api/admin/articles/:id/hide
func (h *AdminHandler) HideArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	found, err := h.articles.Hide(r.Context(), articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArticleNotFoundError(articleID))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"hidden": true})
}

// DeleteArticle は記事を物理削除する。関連する保存記事・閲覧履歴も削除される。
// DELETE /api/admin/articles/:id
func (h *AdminHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	found, err := h.articles.Delete(r.Context(), articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArticleNotFoundError(articleID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
