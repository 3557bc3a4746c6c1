// Package newsclient は外部ニュースソースAPIのクライアントを提供する。
// トップヘッドライン取得エンドポイントを呼び出し、未加工の記事リストを返す。
package newsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/akhbar/internal/model"
)

// RawArticle はニュースソースAPIから取得した未加工の記事を表す。
// フィルタ・要約・正規化は取り込みパイプラインの責務。
type RawArticle struct {
	Title       string
	Description string
	Content     string
	URL         string
	ImageURL    string
	PublishedAt time.Time
	SourceName  string
}

// Config はClientの設定。
type Config struct {
	APIKey  string
	BaseURL string // 例: "https://newsapi.org/v2"。テスト用に差し替え可能。
	Timeout time.Duration
}

// Client はニュースソースAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientがnilの場合はConfig.Timeoutを設定したクライアントを生成する。
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
	}
}

// apiResponse はニュースソースAPIのレスポンスボディ。
type apiResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

// apiArticle はニュースソースAPIのレスポンス中の1記事。
type apiArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// TopHeadlines はトップヘッドラインを取得する。
// カテゴリの変換規則:
//   - "tech" はソース側の用語 "technology" に変換する
//   - "all" と "breaking" はカテゴリフィルタとして送信しない
//   - "breaking" は公開日時の降順ソートを明示的に要求する
//
// ソース側の障害（非2xx、status != "ok"）はエラーとして返す。
func (c *Client) TopHeadlines(ctx context.Context, category model.Category, pageSize int) ([]RawArticle, error) {
	reqURL, err := url.Parse(c.baseURL + "/top-headlines")
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint URL: %w", err)
	}

	q := reqURL.Query()
	q.Set("apiKey", c.apiKey)
	q.Set("language", "en")
	q.Set("pageSize", strconv.Itoa(pageSize))

	switch category {
	case "", model.CategoryAll:
		// カテゴリフィルタなし
	case model.CategoryBreaking:
		// カテゴリフィルタなし。ソースの暗黙の並び順に頼らず最新順を要求する。
		q.Set("sortBy", "publishedAt")
	case model.CategoryTech:
		q.Set("category", "technology")
	default:
		q.Set("category", string(category))
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to call news source API",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("news source API returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("news source request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("failed to parse news source API response",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("news source error: status %q", result.Status)
	}

	articles := make([]RawArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			// 日付が解析できない記事は取得時刻で代替する
			publishedAt = time.Now().UTC()
		}

		sourceName := a.Source.Name
		if sourceName == "" {
			sourceName = "Unknown Source"
		}

		articles = append(articles, RawArticle{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: publishedAt,
			SourceName:  sourceName,
		})
	}

	return articles, nil
}
