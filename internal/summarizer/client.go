// Package summarizer はLLMによる記事の要約・分類クライアントを提供する。
// OpenAI互換のchat completionsエンドポイントを呼び出し、
// 要約・読了時間・カテゴリの構造化された分析結果を返す。
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/akhbar/internal/model"
)

const (
	// systemPrompt は分析用の固定システムプロンプト。
	systemPrompt = "You are a news analysis expert. Analyze articles and provide concise summaries with appropriate categorization. Always respond with valid JSON."

	// defaultSummary は要約フィールド欠落時のデフォルト値。
	defaultSummary = "Summary not available"
	// defaultReadTime は読了時間欠落時のデフォルト値（分）。
	defaultReadTime = 3
	// minReadTime / maxReadTime は読了時間のクランプ範囲（分）。
	minReadTime = 1
	maxReadTime = 10
)

// Analysis は記事の分析結果を表す。
// ReadTimeは常に[1, 10]の範囲、Categoryは常に有効な保存カテゴリ。
type Analysis struct {
	Summary  string
	ReadTime int
	Category model.Category
}

// Config はClientの設定。
type Config struct {
	APIKey  string
	BaseURL string // 例: "https://api.openai.com/v1"。テスト用に差し替え可能。
	Model   string
	Timeout time.Duration
}

// Client はOpenAI互換APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string
	model      string
}

// NewClient はClientの新しいインスタンスを生成する。
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
		model:      cfg.Model,
	}
}

// chatRequest はchat completionsリクエストのボディ。
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat respFormat    `json:"response_format"`
	MaxTokens      int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

// chatResponse はchat completionsレスポンスのボディ。
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// analysisPayload はLLMの返すJSONオブジェクト。
// readTimeは数値または数値文字列で返ることがあるためjson.Numberで受ける。
type analysisPayload struct {
	Summary  string      `json:"summary"`
	ReadTime json.Number `json:"readTime"`
	Category string      `json:"category"`
}

// Analyze は記事のタイトルと本文から要約・読了時間・カテゴリを取得する。
// LLMの返す値は以下の規則で正規化される:
//   - readTime: [1, 10]にクランプ。欠落時は3。
//   - category: {politics, tech, sports, business, breaking}に対して検証。
//     無効または欠落時は "tech"。
//   - summary: 欠落時は "Summary not available"。
//
// 呼び出し自体の失敗（ネットワーク、非2xx、不正なレスポンス）はエラーとして返し、
// フォールバックの適用は呼び出し元（取り込みパイプライン）が行う。
func (c *Client) Analyze(ctx context.Context, title, content string) (*Analysis, error) {
	prompt := fmt.Sprintf(`Please analyze this news article and provide a JSON response with the following format:
{
  "summary": "A concise 2-3 sentence summary highlighting the key points",
  "readTime": "Estimated reading time in minutes (integer)",
  "category": "One of: politics, tech, sports, business, breaking"
}

Article Title: %s
Article Content: %s`, title, content)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: respFormat{Type: "json_object"},
		MaxTokens:      500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to call summarization API",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("summarization API returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("summarization request failed: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("chat response contains no choices")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}

	return normalize(payload), nil
}

// normalize はLLMの返す値をAnalysisの不変条件に合わせて正規化する。
func normalize(payload analysisPayload) *Analysis {
	analysis := &Analysis{
		Summary:  payload.Summary,
		ReadTime: defaultReadTime,
		Category: model.CategoryTech,
	}

	if analysis.Summary == "" {
		analysis.Summary = defaultSummary
	}

	// 0は欠落扱い（デフォルトの3を維持）
	if payload.ReadTime != "" {
		if v, err := payload.ReadTime.Int64(); err == nil && v != 0 {
			analysis.ReadTime = clampReadTime(int(v))
		}
	}

	category := model.Category(payload.Category)
	if category.IsStorable() {
		analysis.Category = category
	}

	return analysis
}

// clampReadTime は読了時間を[minReadTime, maxReadTime]にクランプする。
func clampReadTime(minutes int) int {
	if minutes < minReadTime {
		return minReadTime
	}
	if minutes > maxReadTime {
		return maxReadTime
	}
	return minutes
}
