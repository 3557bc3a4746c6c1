// Package handler はHTTP APIのリクエストハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/akhbar/internal/model"
	"github.com/hitoshi/akhbar/internal/repository"
)

const (
	// defaultArticlesPerPage は記事一覧の1回の取得件数（デフォルト）。
	defaultArticlesPerPage = 20
	// breakingListLimit は速報一覧の取得件数。
	breakingListLimit = 5
)

// ArticleReader は記事ハンドラーが必要とするリポジトリインターフェース。
// repository.ArticleRepositoryの部分集合として定義する。
type ArticleReader interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)
	// List は記事一覧をpublished_at降順で返す。
	List(ctx context.Context, q repository.ArticleQuery) ([]*model.Article, error)
	// ListBreaking は非表示でない速報記事を返す。
	ListBreaking(ctx context.Context, limit int) ([]*model.Article, error)
}

// ArticleHandler は記事閲覧のHTTPハンドラー。
type ArticleHandler struct {
	articles ArticleReader
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(articles ArticleReader) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

// --- レスポンス型 ---

// articleResponse は記事のAPIレスポンス。
type articleResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl"`
	OriginalURL string    `json:"originalUrl"`
	PublishedAt time.Time `json:"publishedAt"`
	ReadTime    int       `json:"readTime"`
	IsBreaking  bool      `json:"isBreaking"`
	IsHidden    bool      `json:"isHidden"`
	CreatedAt   time.Time `json:"createdAt"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// toArticleResponse はmodel.ArticleをAPIレスポンスに変換する。
func toArticleResponse(a *model.Article) articleResponse {
	return articleResponse{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Summary:     a.Summary,
		Source:      a.Source,
		Category:    string(a.Category),
		ImageURL:    a.ImageURL,
		OriginalURL: a.OriginalURL,
		PublishedAt: a.PublishedAt,
		ReadTime:    a.ReadTime,
		IsBreaking:  a.IsBreaking,
		IsHidden:    a.IsHidden,
		CreatedAt:   a.CreatedAt,
	}
}

// toArticleResponses は記事スライスをAPIレスポンスに変換する。
// nilスライスも空配列としてシリアライズされる。
func toArticleResponses(articles []*model.Article) []articleResponse {
	responses := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, toArticleResponse(a))
	}
	return responses
}

// ListArticles は非表示でない記事の一覧を取得する。
// GET /api/articles?category=&limit=&offset=
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategoryParam(w, r)
	if !ok {
		return
	}
	limit := parseIntParam(r, "limit", defaultArticlesPerPage)
	offset := parseIntParam(r, "offset", 0)

	articles, err := h.articles.List(r.Context(), repository.ArticleQuery{
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponses(articles))
}

// GetArticle は記事詳細を取得する。
// GET /api/articles/:id
func (h *ArticleHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	article, err := h.articles.FindByID(r.Context(), articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil || article.IsHidden {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArticleNotFoundError(articleID))
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// ListBreaking は速報記事の上位5件を取得する。
// GET /api/breaking
func (h *ArticleHandler) ListBreaking(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.ListBreaking(r.Context(), breakingListLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponses(articles))
}

// --- 共通ヘルパー ---

// parseCategoryParam はcategoryクエリパラメータを検証して返す。
// 空の場合はCategoryAll。閉じた列挙の外の値には400を書き込みfalseを返す。
func parseCategoryParam(w http.ResponseWriter, r *http.Request) (model.Category, bool) {
	raw := r.URL.Query().Get("category")
	if raw == "" {
		return model.CategoryAll, true
	}
	category := model.Category(raw)
	if !category.IsValid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCategoryError(raw))
		return "", false
	}
	return category, true
}

// parseIntParam は整数クエリパラメータを解析する。欠落・不正な値はデフォルト値。
func parseIntParam(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorized は401の統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗の400レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeArticleNotFound, model.ErrCodeSavedNotFound,
		model.ErrCodeUserNotFound, model.ErrCodeAdBannerNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidCategory, model.ErrCodePasswordTooShort,
		model.ErrCodeInvalidAdPosition, model.ErrCodeInvalidSubscription:
		return http.StatusBadRequest
	case model.ErrCodeAlreadySaved, model.ErrCodeUsernameTaken:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
