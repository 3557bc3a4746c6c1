// Package ingest は記事の取り込みパイプラインを提供する。
// 外部ニュースソースからの取得、品質フィルタ、LLMによる要約・分類、
// サニタイズ、永続化を1回の同期パスで実行する。
package ingest

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/akhbar/internal/model"
	"github.com/hitoshi/akhbar/internal/newsclient"
	"github.com/hitoshi/akhbar/internal/repository"
	"github.com/hitoshi/akhbar/internal/summarizer"
)

const (
	// removedTitle はソース側の削除済み記事を示すプレースホルダ。
	// このタイトルを持つ記事は品質ゲートで破棄される。
	removedTitle = "[Removed]"

	// fallbackSummary は要約サービス失敗時の固定フォールバック文。
	fallbackSummary = "Unable to generate summary at this time."
	// fallbackReadTime は要約サービス失敗時の読了時間（分）。
	fallbackReadTime = 3
	// fallbackCategory は要約サービス失敗時のカテゴリ。
	fallbackCategory = model.CategoryTech

	// DefaultPageSize は通常取り込みのデフォルト取得件数。
	DefaultPageSize = 20
	// breakingPageSize は速報取り込みの取得件数。
	breakingPageSize = 5
	// breakingKeepCount は速報取り込みで保存する最大件数（最新順の先頭）。
	breakingKeepCount = 3
)

// NewsSource は外部ニュースソースのインターフェース。
type NewsSource interface {
	TopHeadlines(ctx context.Context, category model.Category, pageSize int) ([]newsclient.RawArticle, error)
}

// Analyzer は記事の要約・分類サービスのインターフェース。
type Analyzer interface {
	Analyze(ctx context.Context, title, content string) (*summarizer.Analysis, error)
}

// Sanitizer は保存前の記事テキストのサニタイズインターフェース。
type Sanitizer interface {
	SanitizeContent(raw string) string
	SanitizeText(raw string) string
}

// Collector は取り込みメトリクスの収集インターフェース。
type Collector interface {
	RecordSourceFetchFailure()
	RecordItemSkipped()
	RecordSummarizeFallback()
	RecordArticleStored()
	RecordIngestLatency(duration time.Duration)
}

// BreakingPolicy は通常取り込みにおける速報への昇格判定を表す。
// 記事ごとに1回呼ばれ、trueを返すとis_breakingが立つ。
// 判定をポリシー関数として注入することで、テストでは決定的な実装を、
// 本番では確率的な実装を使用できる。
type BreakingPolicy func() bool

// RandomBreakingPolicy は確率pで速報に昇格させるポリシーを返す。
// 本番構成ではp=0.1（記事ごとに独立した10%の確率）を使用する。
func RandomBreakingPolicy(p float64) BreakingPolicy {
	return func() bool {
		return rand.Float64() < p
	}
}

// NeverBreakingPolicy は昇格を行わないポリシー。
func NeverBreakingPolicy() bool { return false }

// Result は取り込み実行の結果を表す。
// Storedには実際に保存できた記事のみが含まれる。
type Result struct {
	Stored []*model.Article
}

// Service は記事の取り込みパイプラインを実行する。
type Service struct {
	source    NewsSource
	analyzer  Analyzer
	articles  repository.ArticleRepository
	sanitizer Sanitizer
	metrics   Collector
	policy    BreakingPolicy
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// policyがnilの場合は昇格なしとして扱う。
func NewService(
	source NewsSource,
	analyzer Analyzer,
	articles repository.ArticleRepository,
	sanitizer Sanitizer,
	metrics Collector,
	policy BreakingPolicy,
	logger *slog.Logger,
) *Service {
	if policy == nil {
		policy = NeverBreakingPolicy
	}
	return &Service{
		source:    source,
		analyzer:  analyzer,
		articles:  articles,
		sanitizer: sanitizer,
		metrics:   metrics,
		policy:    policy,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Refresh は通常の取り込みパスを実行する。
//
// 障害時の方針:
//   - ソース全体の失敗（非2xx等）はバッチを中止し、空の結果とnilエラーを返す。
//     呼び出し元には「成功したが空」として見える。
//   - 記事単位の要約失敗はフォールバックレコードで代替し、バッチを継続する。
//   - 記事単位の保存失敗はログに記録してスキップする。
func (s *Service) Refresh(ctx context.Context, category model.Category, pageSize int) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.RecordIngestLatency(time.Since(start)) }()

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	raws, err := s.source.TopHeadlines(ctx, category, pageSize)
	if err != nil {
		s.logger.Error("failed to fetch news articles",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSourceFetchFailure()
		return &Result{Stored: []*model.Article{}}, nil
	}

	result := &Result{Stored: []*model.Article{}}
	for _, raw := range raws {
		if !s.passesQualityGate(raw) {
			s.metrics.RecordItemSkipped()
			continue
		}

		article := s.buildArticle(ctx, raw)
		article.IsBreaking = category == model.CategoryBreaking || s.policy()

		if s.store(ctx, article) {
			result.Stored = append(result.Stored, article)
		}
	}

	return result, nil
}

// RefreshBreaking は速報の取り込みパスを実行する。
// カテゴリフィルタなしの最新順クエリから先頭3件のみを取り込み、
// カテゴリと速報フラグを無条件に "breaking"/true とする。
// 障害時の方針はRefreshと同一。
func (s *Service) RefreshBreaking(ctx context.Context) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.RecordIngestLatency(time.Since(start)) }()

	raws, err := s.source.TopHeadlines(ctx, model.CategoryBreaking, breakingPageSize)
	if err != nil {
		s.logger.Error("failed to fetch breaking news",
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSourceFetchFailure()
		return &Result{Stored: []*model.Article{}}, nil
	}

	if len(raws) > breakingKeepCount {
		raws = raws[:breakingKeepCount]
	}

	result := &Result{Stored: []*model.Article{}}
	for _, raw := range raws {
		if !s.passesQualityGate(raw) {
			s.metrics.RecordItemSkipped()
			continue
		}

		article := s.buildArticle(ctx, raw)
		article.Category = model.CategoryBreaking
		article.IsBreaking = true

		if s.store(ctx, article) {
			result.Stored = append(result.Stored, article)
		}
	}

	return result, nil
}

// passesQualityGate はソース側のデータ品質ゲートを適用する。
// タイトルまたは本文が空の記事、およびソースの削除済みプレースホルダ
// "[Removed]" を持つ記事を破棄する。概要のみの記事も破棄対象。
func (s *Service) passesQualityGate(raw newsclient.RawArticle) bool {
	if raw.Title == "" || raw.Title == removedTitle {
		return false
	}
	return raw.Content != ""
}

// buildArticle は1件の未加工記事から正規化されたArticleを組み立てる。
// 要約サービスの失敗はバッチを中止せず、固定フォールバックで代替する
// （記事単位の劣化であり、パイプライン全体の中止は行わない）。
func (s *Service) buildArticle(ctx context.Context, raw newsclient.RawArticle) *model.Article {
	content := raw.Content

	analysis, err := s.analyzer.Analyze(ctx, raw.Title, content)
	if err != nil {
		s.logger.Error("failed to summarize article, using fallback",
			slog.String("title", raw.Title),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSummarizeFallback()
		analysis = &summarizer.Analysis{
			Summary:  fallbackSummary,
			ReadTime: fallbackReadTime,
			Category: fallbackCategory,
		}
	}

	return &model.Article{
		ID:          uuid.NewString(),
		Title:       raw.Title,
		Content:     s.sanitizer.SanitizeContent(content),
		Summary:     s.sanitizer.SanitizeText(analysis.Summary),
		Source:      raw.SourceName,
		Category:    analysis.Category,
		ImageURL:    raw.ImageURL,
		OriginalURL: raw.URL,
		PublishedAt: raw.PublishedAt,
		ReadTime:    analysis.ReadTime,
		CreatedAt:   s.now(),
	}
}

// store は記事を1件永続化する。失敗時はログに記録してfalseを返す。
func (s *Service) store(ctx context.Context, article *model.Article) bool {
	if err := s.articles.Create(ctx, article); err != nil {
		s.logger.Error("failed to store article",
			slog.String("article_id", article.ID),
			slog.String("title", article.Title),
			slog.String("error", err.Error()),
		)
		return false
	}
	s.metrics.RecordArticleStored()
	return true
}
