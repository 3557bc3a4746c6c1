// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は外部ニュースソース由来の記事テキストをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// ニュースAPIのcontentフィールドには提供元によってHTML断片が混入することがあり、
// 信頼できない入力として扱う。bluemondayライブラリの許可リストベースの
// ポリシーで安全なタグのみを通過させる。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は記事テキストのサニタイズ機能のインターフェースを定義する。
// 取り込みパイプラインが記事の保存前に使用する。
type ContentSanitizerService interface {
	// SanitizeContent は記事本文をサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeContent(raw string) string

	// SanitizeText は要約などの短文からすべてのタグを除去し、
	// プレーンテキストを返す。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	contentPolicy *bluemonday.Policy
	textPolicy    *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// 本文ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, strong, em
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
//
// 要約ポリシーは全タグを除去する（StrictPolicy）。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 許可タグの設定（属性なしのシンプルなタグ）
	// script, iframe, style等は許可リストに含めないことで自動的に除去される
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em",
	)

	// aタグの設定:
	// - href属性を許可、相対URLは不許可
	// - target="_blank" と rel="noreferrer noopener" を強制付与
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		contentPolicy: p,
		textPolicy:    bluemonday.StrictPolicy(),
	}
}

// SanitizeContent は記事本文をサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeContent(raw string) string {
	return s.contentPolicy.Sanitize(raw)
}

// SanitizeText は全タグを除去したプレーンテキストを返す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	return s.textPolicy.Sanitize(raw)
}
