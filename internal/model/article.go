// Package model はドメインモデルを定義する。
package model

import "time"

// Article は外部ニュースソースから取り込んだ記事を表す。
type Article struct {
	ID          string
	Title       string
	Content     string // サニタイズ済み
	Summary     string // サニタイズ済みプレーンテキスト
	Source      string
	Category    Category
	ImageURL    string
	OriginalURL string
	PublishedAt time.Time
	ReadTime    int // 推定読了時間（分）。1〜10の範囲。
	IsBreaking  bool
	IsHidden    bool
	CreatedAt   time.Time
}

// Category は記事のカテゴリを表す。
// "all" と "breaking" は疑似カテゴリであり、保存カテゴリとしては使用されない
// （"all" はフィルタなし、"breaking" はis_breakingフラグによるフィルタ）。
type Category string

const (
	// CategoryAll は全カテゴリ（フィルタなし）を表す疑似カテゴリ。
	CategoryAll Category = "all"
	// CategoryBreaking は速報記事（is_breakingフラグ）を表す。
	CategoryBreaking Category = "breaking"
	// CategoryPolitics は政治カテゴリ。
	CategoryPolitics Category = "politics"
	// CategoryTech はテクノロジーカテゴリ。
	CategoryTech Category = "tech"
	// CategorySports はスポーツカテゴリ。
	CategorySports Category = "sports"
	// CategoryBusiness はビジネスカテゴリ。
	CategoryBusiness Category = "business"
)

// IsValid はリクエストで指定可能なカテゴリかどうかを返す。
// 疑似カテゴリ（all, breaking）を含む閉じた列挙に対して検証する。
func (c Category) IsValid() bool {
	switch c {
	case CategoryAll, CategoryBreaking, CategoryPolitics, CategoryTech, CategorySports, CategoryBusiness:
		return true
	}
	return false
}

// IsStorable は記事の保存カテゴリとして有効かどうかを返す。
// 要約サービスの返すカテゴリの検証に使用する（"all" は保存不可）。
func (c Category) IsStorable() bool {
	switch c {
	case CategoryBreaking, CategoryPolitics, CategoryTech, CategorySports, CategoryBusiness:
		return true
	}
	return false
}

// SavedArticle はユーザーと保存記事の関連を表す。
// (user, article) ペアにつき最大1行。挿入前の存在チェックで保証される。
type SavedArticle struct {
	ID        string
	ArticleID string
	UserID    string
	SavedAt   time.Time
}

// ReadingHistoryEntry はユーザーの閲覧履歴エントリを表す。
// 同一記事の再閲覧はread_atを更新し、行を複製しない。
type ReadingHistoryEntry struct {
	ID        string
	ArticleID string
	UserID    string
	ReadAt    time.Time
}

// ArticleWithSavedAt は記事と保存日時を結合した読み取りモデル。
// saved_articlesテーブルとJOINして取得される。
type ArticleWithSavedAt struct {
	Article
	SavedAt time.Time
}

// ArticleWithReadAt は記事と閲覧日時を結合した読み取りモデル。
// reading_historyテーブルとJOINして取得される。
type ArticleWithReadAt struct {
	Article
	ReadAt time.Time
}
