package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/akhbar/internal/model"
	"github.com/hitoshi/akhbar/internal/newsclient"
	"github.com/hitoshi/akhbar/internal/repository"
	"github.com/hitoshi/akhbar/internal/summarizer"
)

type mockNewsSource struct {
	topHeadlinesFunc func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error)
}

func (m *mockNewsSource) TopHeadlines(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
	return m.topHeadlinesFunc(ctx, category, pageSize)
}

type mockAnalyzer struct {
	analyzeFunc func(ctx context.Context, title, content string) (*summarizer.Analysis, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, title, content string) (*summarizer.Analysis, error) {
	return m.analyzeFunc(ctx, title, content)
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) SanitizeContent(raw string) string { return raw }
func (passthroughSanitizer) SanitizeText(raw string) string    { return raw }

type countingCollector struct {
	sourceFetchFailures int
	itemsSkipped        int
	summarizeFallbacks  int
	articlesStored      int
}

func (c *countingCollector) RecordSourceFetchFailure()           { c.sourceFetchFailures++ }
func (c *countingCollector) RecordItemSkipped()                  { c.itemsSkipped++ }
func (c *countingCollector) RecordSummarizeFallback()            { c.summarizeFallbacks++ }
func (c *countingCollector) RecordArticleStored()                { c.articlesStored++ }
func (c *countingCollector) RecordIngestLatency(_ time.Duration) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawArticle(title string) newsclient.RawArticle {
	return newsclient.RawArticle{
		Title:       title,
		Content:     "本文: " + title,
		URL:         "https://example.com/" + title,
		SourceName:  "Example News",
		PublishedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func okAnalyzer() *mockAnalyzer {
	return &mockAnalyzer{
		analyzeFunc: func(ctx context.Context, title, content string) (*summarizer.Analysis, error) {
			return &summarizer.Analysis{Summary: "要約", ReadTime: 4, Category: model.CategoryPolitics}, nil
		},
	}
}

func TestService_Refresh_StoresAnalyzedArticles(t *testing.T) {
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			if category != model.CategoryPolitics {
				t.Errorf("category = %s, want %s", category, model.CategoryPolitics)
			}
			if pageSize != 20 {
				t.Errorf("pageSize = %d, want 20", pageSize)
			}
			return []newsclient.RawArticle{rawArticle("a"), rawArticle("b")}, nil
		},
	}
	store := repository.NewMemoryStore()
	metrics := &countingCollector{}

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, metrics, NeverBreakingPolicy, testLogger())

	result, err := svc.Refresh(context.Background(), model.CategoryPolitics, 20)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(result.Stored) != 2 {
		t.Fatalf("len(Stored) = %d, want 2", len(result.Stored))
	}
	if metrics.articlesStored != 2 {
		t.Errorf("articlesStored = %d, want 2", metrics.articlesStored)
	}

	stored := result.Stored[0]
	if stored.ID == "" {
		t.Error("stored article has empty ID")
	}
	if stored.Summary != "要約" {
		t.Errorf("Summary = %q, want %q", stored.Summary, "要約")
	}
	if stored.ReadTime != 4 {
		t.Errorf("ReadTime = %d, want 4", stored.ReadTime)
	}
	if stored.Category != model.CategoryPolitics {
		t.Errorf("Category = %s, want %s", stored.Category, model.CategoryPolitics)
	}
	if stored.IsBreaking {
		t.Error("IsBreaking = true, want false")
	}
}

func TestService_Refresh_SkipsLowQualityItems(t *testing.T) {
	removed := rawArticle("x")
	removed.Title = "[Removed]"
	untitled := rawArticle("y")
	untitled.Title = ""
	empty := newsclient.RawArticle{Title: "empty", SourceName: "Example News"}

	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			return []newsclient.RawArticle{removed, untitled, empty, rawArticle("keep")}, nil
		},
	}
	store := repository.NewMemoryStore()
	metrics := &countingCollector{}

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, metrics, NeverBreakingPolicy, testLogger())

	result, err := svc.Refresh(context.Background(), model.CategoryAll, 0)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(result.Stored) != 1 {
		t.Fatalf("len(Stored) = %d, want 1", len(result.Stored))
	}
	if result.Stored[0].Title != "keep" {
		t.Errorf("Title = %q, want %q", result.Stored[0].Title, "keep")
	}
	if metrics.itemsSkipped != 3 {
		t.Errorf("itemsSkipped = %d, want 3", metrics.itemsSkipped)
	}
}

func TestService_Refresh_SkipsItemsWithEmptyContent(t *testing.T) {
	// 概要があっても本文が空の記事は保存しない。
	raw := newsclient.RawArticle{
		Title:       "description only",
		Description: "概要のみの記事",
		SourceName:  "Example News",
		PublishedAt: time.Now().UTC(),
	}
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			return []newsclient.RawArticle{raw}, nil
		},
	}
	store := repository.NewMemoryStore()
	metrics := &countingCollector{}

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, metrics, NeverBreakingPolicy, testLogger())

	result, err := svc.Refresh(context.Background(), model.CategoryAll, 0)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(result.Stored) != 0 {
		t.Fatalf("len(Stored) = %d, want 0", len(result.Stored))
	}
	if metrics.itemsSkipped != 1 {
		t.Errorf("itemsSkipped = %d, want 1", metrics.itemsSkipped)
	}
}

func TestService_Refresh_SummarizeFailureUsesFallback(t *testing.T) {
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			return []newsclient.RawArticle{rawArticle("a")}, nil
		},
	}
	analyzer := &mockAnalyzer{
		analyzeFunc: func(ctx context.Context, title, content string) (*summarizer.Analysis, error) {
			return nil, errors.New("summarize error")
		},
	}
	store := repository.NewMemoryStore()
	metrics := &countingCollector{}

	svc := NewService(source, analyzer, store, passthroughSanitizer{}, metrics, NeverBreakingPolicy, testLogger())

	result, err := svc.Refresh(context.Background(), model.CategoryAll, 0)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(result.Stored) != 1 {
		t.Fatalf("len(Stored) = %d, want 1", len(result.Stored))
	}

	stored := result.Stored[0]
	if stored.Summary != "Unable to generate summary at this time." {
		t.Errorf("Summary = %q, want fallback", stored.Summary)
	}
	if stored.ReadTime != 3 {
		t.Errorf("ReadTime = %d, want 3", stored.ReadTime)
	}
	if stored.Category != model.CategoryTech {
		t.Errorf("Category = %s, want %s", stored.Category, model.CategoryTech)
	}
	if metrics.summarizeFallbacks != 1 {
		t.Errorf("summarizeFallbacks = %d, want 1", metrics.summarizeFallbacks)
	}
}

func TestService_Refresh_SourceFailureReturnsEmpty(t *testing.T) {
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			return nil, errors.New("upstream 500")
		},
	}
	store := repository.NewMemoryStore()
	metrics := &countingCollector{}

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, metrics, NeverBreakingPolicy, testLogger())

	result, err := svc.Refresh(context.Background(), model.CategoryAll, 0)
	if err != nil {
		t.Fatalf("Refresh() error = %v, want nil", err)
	}
	if len(result.Stored) != 0 {
		t.Errorf("len(Stored) = %d, want 0", len(result.Stored))
	}
	if metrics.sourceFetchFailures != 1 {
		t.Errorf("sourceFetchFailures = %d, want 1", metrics.sourceFetchFailures)
	}
}

func TestService_Refresh_StoreFailureSkipsArticle(t *testing.T) {
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			return []newsclient.RawArticle{rawArticle("fail"), rawArticle("ok")}, nil
		},
	}
	store := &mockArticleRepository{
		createFunc: func(ctx context.Context, article *model.Article) error {
			if article.Title == "fail" {
				return errors.New("insert error")
			}
			return nil
		},
	}

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, &countingCollector{}, NeverBreakingPolicy, testLogger())

	result, err := svc.Refresh(context.Background(), model.CategoryAll, 0)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(result.Stored) != 1 {
		t.Fatalf("len(Stored) = %d, want 1", len(result.Stored))
	}
	if result.Stored[0].Title != "ok" {
		t.Errorf("Title = %q, want %q", result.Stored[0].Title, "ok")
	}
}

func TestService_Refresh_BreakingCategoryForcesFlag(t *testing.T) {
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			return []newsclient.RawArticle{rawArticle("a")}, nil
		},
	}
	store := repository.NewMemoryStore()

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, &countingCollector{}, NeverBreakingPolicy, testLogger())

	result, err := svc.Refresh(context.Background(), model.CategoryBreaking, 0)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !result.Stored[0].IsBreaking {
		t.Error("IsBreaking = false, want true for breaking category")
	}
}

func TestService_Refresh_PolicyPromotesToBreaking(t *testing.T) {
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			return []newsclient.RawArticle{rawArticle("a"), rawArticle("b")}, nil
		},
	}
	store := repository.NewMemoryStore()

	calls := 0
	alternating := func() bool {
		calls++
		return calls%2 == 1
	}

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, &countingCollector{}, alternating, testLogger())

	result, err := svc.Refresh(context.Background(), model.CategoryPolitics, 0)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !result.Stored[0].IsBreaking {
		t.Error("first article: IsBreaking = false, want true")
	}
	if result.Stored[1].IsBreaking {
		t.Error("second article: IsBreaking = true, want false")
	}
}

func TestService_RefreshBreaking_TakesFirstThree(t *testing.T) {
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			if pageSize != 5 {
				t.Errorf("pageSize = %d, want 5", pageSize)
			}
			return []newsclient.RawArticle{
				rawArticle("1"), rawArticle("2"), rawArticle("3"), rawArticle("4"), rawArticle("5"),
			}, nil
		},
	}
	store := repository.NewMemoryStore()

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, &countingCollector{}, NeverBreakingPolicy, testLogger())

	result, err := svc.RefreshBreaking(context.Background())
	if err != nil {
		t.Fatalf("RefreshBreaking() error = %v", err)
	}
	if len(result.Stored) != 3 {
		t.Fatalf("len(Stored) = %d, want 3", len(result.Stored))
	}
	for _, article := range result.Stored {
		if !article.IsBreaking {
			t.Errorf("article %q: IsBreaking = false, want true", article.Title)
		}
		if article.Category != model.CategoryBreaking {
			t.Errorf("article %q: Category = %s, want breaking", article.Title, article.Category)
		}
	}
}

func TestService_RefreshBreaking_SourceFailureReturnsEmpty(t *testing.T) {
	source := &mockNewsSource{
		topHeadlinesFunc: func(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error) {
			return nil, errors.New("upstream timeout")
		},
	}
	store := repository.NewMemoryStore()

	svc := NewService(source, okAnalyzer(), store, passthroughSanitizer{}, &countingCollector{}, NeverBreakingPolicy, testLogger())

	result, err := svc.RefreshBreaking(context.Background())
	if err != nil {
		t.Fatalf("RefreshBreaking() error = %v, want nil", err)
	}
	if len(result.Stored) != 0 {
		t.Errorf("len(Stored) = %d, want 0", len(result.Stored))
	}
}

func TestRandomBreakingPolicy_Bounds(t *testing.T) {
	never := RandomBreakingPolicy(0)
	for i := 0; i < 100; i++ {
		if never() {
			t.Fatal("RandomBreakingPolicy(0) returned true")
		}
	}
	always := RandomBreakingPolicy(1)
	for i := 0; i < 100; i++ {
		if !always() {
			t.Fatal("RandomBreakingPolicy(1) returned false")
		}
	}
}

type mockArticleRepository struct {
	createFunc func(ctx context.Context, article *model.Article) error
}

func (m *mockArticleRepository) Create(ctx context.Context, article *model.Article) error {
	return m.createFunc(ctx, article)
}

func (m *mockArticleRepository) FindByID(ctx context.Context, id string) (*model.Article, error) {
	return nil, nil
}

func (m *mockArticleRepository) List(ctx context.Context, q repository.ArticleQuery) ([]*model.Article, error) {
	return nil, nil
}

func (m *mockArticleRepository) ListBreaking(ctx context.Context, limit int) ([]*model.Article, error) {
	return nil, nil
}

func (m *mockArticleRepository) Update(ctx context.Context, id string, update repository.ArticleUpdate) (bool, error) {
	return false, nil
}

func (m *mockArticleRepository) Hide(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (m *mockArticleRepository) Delete(ctx context.Context, id string) (bool, error) {
	return false, nil
}
