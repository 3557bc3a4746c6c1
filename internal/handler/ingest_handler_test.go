package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/akhbar/internal/ingest"
	"github.com/hitoshi/akhbar/internal/model"
)

// mockIngestService はIngestServiceInterfaceのモック実装。
type mockIngestService struct {
	refreshFn         func(ctx context.Context, category model.Category, pageSize int) (*ingest.Result, error)
	refreshBreakingFn func(ctx context.Context) (*ingest.Result, error)
}

func (m *mockIngestService) Refresh(ctx context.Context, category model.Category, pageSize int) (*ingest.Result, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, category, pageSize)
	}
	return &ingest.Result{Stored: []*model.Article{}}, nil
}

func (m *mockIngestService) RefreshBreaking(ctx context.Context) (*ingest.Result, error) {
	if m.refreshBreakingFn != nil {
		return m.refreshBreakingFn(ctx)
	}
	return &ingest.Result{Stored: []*model.Article{}}, nil
}

func storedArticle(id string, category model.Category) *model.Article {
	return &model.Article{
		ID:          id,
		Title:       "記事 " + id,
		Category:    category,
		PublishedAt: time.Now().UTC(),
		ReadTime:    3,
	}
}

func TestIngestHandler_RefreshArticles_Success(t *testing.T) {
	svc := &mockIngestService{
		refreshFn: func(ctx context.Context, category model.Category, pageSize int) (*ingest.Result, error) {
			if category != model.CategoryTech {
				t.Errorf("category = %s, want tech", category)
			}
			if pageSize != 20 {
				t.Errorf("pageSize = %d, want 20", pageSize)
			}
			return &ingest.Result{Stored: []*model.Article{
				storedArticle("a1", model.CategoryTech),
				storedArticle("a2", model.CategoryBusiness),
			}}, nil
		},
	}
	h := NewIngestHandler(svc, 20)

	req := httptest.NewRequest(http.MethodPost, "/api/articles/refresh", bytes.NewBufferString(`{"category":"tech"}`))
	w := httptest.NewRecorder()
	h.RefreshArticles(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result refreshResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Count != 2 {
		t.Errorf("count = %d, want 2", result.Count)
	}
	if len(result.Articles) != 2 {
		t.Errorf("len(articles) = %d, want 2", len(result.Articles))
	}
}

func TestIngestHandler_RefreshArticles_InvalidCategory(t *testing.T) {
	h := NewIngestHandler(&mockIngestService{}, 20)

	req := httptest.NewRequest(http.MethodPost, "/api/articles/refresh", bytes.NewBufferString(`{"category":"weather"}`))
	w := httptest.NewRecorder()
	h.RefreshArticles(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidCategory {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeInvalidCategory)
	}
}

func TestIngestHandler_RefreshArticles_EmptyBodyDefaultsToAll(t *testing.T) {
	var gotCategory model.Category
	svc := &mockIngestService{
		refreshFn: func(ctx context.Context, category model.Category, pageSize int) (*ingest.Result, error) {
			gotCategory = category
			return &ingest.Result{Stored: []*model.Article{}}, nil
		},
	}
	h := NewIngestHandler(svc, 20)

	req := httptest.NewRequest(http.MethodPost, "/api/articles/refresh", nil)
	w := httptest.NewRecorder()
	h.RefreshArticles(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCategory != model.CategoryAll {
		t.Errorf("category = %s, want all", gotCategory)
	}
}

func TestIngestHandler_RefreshArticles_UpstreamFailureIsEmptySuccess(t *testing.T) {
	// パイプラインは上流障害を空結果として返す。ハンドラーはそれを200で中継する。
	svc := &mockIngestService{
		refreshFn: func(ctx context.Context, category model.Category, pageSize int) (*ingest.Result, error) {
			return &ingest.Result{Stored: []*model.Article{}}, nil
		},
	}
	h := NewIngestHandler(svc, 20)

	req := httptest.NewRequest(http.MethodPost, "/api/articles/refresh", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	h.RefreshArticles(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var result refreshResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("count = %d, want 0", result.Count)
	}
	if result.Articles == nil {
		t.Error("articles = null, want empty array")
	}
}

func TestIngestHandler_RefreshBreaking(t *testing.T) {
	svc := &mockIngestService{
		refreshBreakingFn: func(ctx context.Context) (*ingest.Result, error) {
			return &ingest.Result{Stored: []*model.Article{
				storedArticle("b1", model.CategoryBreaking),
			}}, nil
		},
	}
	h := NewIngestHandler(svc, 20)

	req := httptest.NewRequest(http.MethodPost, "/api/breaking/refresh", nil)
	w := httptest.NewRecorder()
	h.RefreshBreaking(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var result refreshResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Count != 1 || result.Articles[0].Category != "breaking" {
		t.Errorf("result = %+v, want single breaking article", result)
	}
}
