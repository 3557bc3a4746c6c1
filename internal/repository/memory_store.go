package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/hitoshi/akhbar/internal/model"
)

// MemoryStore は記事と保存記事のインメモリ実装。
// 永続リポジトリと同じインターフェースを実装するテストダブルであり、
// 本番ではPostgres実装を使用する。閲覧履歴・プッシュ購読・広告バナーは
// カバーしない（必要になった時点で追加する）。
type MemoryStore struct {
	mu       sync.RWMutex
	articles map[string]*model.Article
	saved    map[string]*model.SavedArticle // key: userID + "/" + articleID
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		articles: make(map[string]*model.Article),
		saved:    make(map[string]*model.SavedArticle),
	}
}

func savedKey(userID, articleID string) string {
	return userID + "/" + articleID
}

// Create は記事を作成する。
func (s *MemoryStore) Create(ctx context.Context, article *model.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *article
	s.articles[article.ID] = &copied
	return nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	article, ok := s.articles[id]
	if !ok {
		return nil, nil
	}
	copied := *article
	return &copied, nil
}

// List は記事一覧をpublished_at降順で取得する。
// フィルタ規則はPostgres実装と同一。
func (s *MemoryStore) List(ctx context.Context, q ArticleQuery) ([]*model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*model.Article{}
	for _, a := range s.articles {
		if !q.IncludeHidden && a.IsHidden {
			continue
		}
		switch q.Category {
		case "", model.CategoryAll:
			// フィルタなし
		case model.CategoryBreaking:
			if !a.IsBreaking {
				continue
			}
		default:
			if a.Category != q.Category {
				continue
			}
		}
		copied := *a
		matched = append(matched, &copied)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].PublishedAt.After(matched[j].PublishedAt)
	})

	if q.Offset >= len(matched) {
		return []*model.Article{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	return matched, nil
}

// ListBreaking は非表示でない速報記事をpublished_at降順で取得する。
func (s *MemoryStore) ListBreaking(ctx context.Context, limit int) ([]*model.Article, error) {
	return s.List(ctx, ArticleQuery{Category: model.CategoryBreaking, Limit: limit})
}

// Update は記事を部分更新する。記事が存在しない場合はfalseを返す。
func (s *MemoryStore) Update(ctx context.Context, id string, update ArticleUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[id]
	if !ok {
		return false, nil
	}
	if update.Title != nil {
		article.Title = *update.Title
	}
	if update.Summary != nil {
		article.Summary = *update.Summary
	}
	if update.Category != nil {
		article.Category = *update.Category
	}
	if update.IsBreaking != nil {
		article.IsBreaking = *update.IsBreaking
	}
	if update.IsHidden != nil {
		article.IsHidden = *update.IsHidden
	}
	return true, nil
}

// Hide は記事の非表示フラグを立てる。記事が存在しない場合はfalseを返す。
func (s *MemoryStore) Hide(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[id]
	if !ok {
		return false, nil
	}
	article.IsHidden = true
	return true, nil
}

// Delete は記事を削除する。記事が存在しない場合はfalseを返す。
// 関連する保存記事も併せて削除する（Postgres実装のCASCADEに対応）。
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[id]; !ok {
		return false, nil
	}
	delete(s.articles, id)
	for key, sa := range s.saved {
		if sa.ArticleID == id {
			delete(s.saved, key)
		}
	}
	return true, nil
}

// IsSaved は(user, article)ペアが保存済みかどうかを返す。
func (s *MemoryStore) IsSaved(ctx context.Context, userID, articleID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.saved[savedKey(userID, articleID)]
	return ok, nil
}

// Save は保存記事を作成する。重複チェックは呼び出し元が行う。
func (s *MemoryStore) Save(ctx context.Context, saved *model.SavedArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *saved
	s.saved[savedKey(saved.UserID, saved.ArticleID)] = &copied
	return nil
}

// Unsave は保存記事を削除する。見つからない場合はfalseを返す。
func (s *MemoryStore) Unsave(ctx context.Context, userID, articleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := savedKey(userID, articleID)
	if _, ok := s.saved[key]; !ok {
		return false, nil
	}
	delete(s.saved, key)
	return true, nil
}

// ListByUserID はユーザーの保存記事一覧を保存日時降順で返す。
// 非表示記事は除外される。
func (s *MemoryStore) ListByUserID(ctx context.Context, userID string) ([]model.ArticleWithSavedAt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []model.ArticleWithSavedAt{}
	for _, sa := range s.saved {
		if sa.UserID != userID {
			continue
		}
		article, ok := s.articles[sa.ArticleID]
		if !ok || article.IsHidden {
			continue
		}
		results = append(results, model.ArticleWithSavedAt{
			Article: *article,
			SavedAt: sa.SavedAt,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].SavedAt.After(results[j].SavedAt)
	})

	return results, nil
}

// compile-time interface checks
var (
	_ ArticleRepository      = (*MemoryStore)(nil)
	_ SavedArticleRepository = (*MemoryStore)(nil)
)
