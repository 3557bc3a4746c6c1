package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/akhbar/internal/model"
)

func newArticle(id string, category model.Category, publishedAt time.Time) *model.Article {
	return &model.Article{
		ID:          id,
		Title:       "عنوان " + id,
		Content:     "محتوى",
		Summary:     "ملخص",
		Source:      "Test Source",
		Category:    category,
		OriginalURL: "https://news.example.com/" + id,
		PublishedAt: publishedAt,
		ReadTime:    3,
		CreatedAt:   publishedAt,
	}
}

func TestMemoryStore_CreateAndFindByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	article := newArticle("a1", model.CategoryTech, time.Now().UTC())
	if err := store.Create(ctx, article); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.FindByID(ctx, "a1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got == nil || got.ID != "a1" {
		t.Fatalf("got = %+v, want a1", got)
	}

	// 返却値はコピーであり、変更してもストアに影響しない
	got.Title = "changed"
	again, _ := store.FindByID(ctx, "a1")
	if again.Title == "changed" {
		t.Error("FindByID returned a reference into the store")
	}
}

func TestMemoryStore_FindByID_Missing(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestMemoryStore_List_SortsByPublishedAtDesc(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		a := newArticle(fmt.Sprintf("a%d", i), model.CategoryTech, base.Add(time.Duration(i)*time.Hour))
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	articles, err := store.List(ctx, ArticleQuery{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("len = %d, want 3", len(articles))
	}
	for i := 0; i < len(articles)-1; i++ {
		if articles[i].PublishedAt.Before(articles[i+1].PublishedAt) {
			t.Errorf("articles not sorted desc: %v before %v", articles[i].PublishedAt, articles[i+1].PublishedAt)
		}
	}
}

func TestMemoryStore_List_Filters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	tech := newArticle("tech1", model.CategoryTech, now)
	sports := newArticle("sports1", model.CategorySports, now)
	breaking := newArticle("breaking1", model.CategoryPolitics, now)
	breaking.IsBreaking = true
	hidden := newArticle("hidden1", model.CategoryTech, now)
	hidden.IsHidden = true

	for _, a := range []*model.Article{tech, sports, breaking, hidden} {
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		query   ArticleQuery
		wantIDs map[string]bool
	}{
		{
			name:    "フィルタなしは非表示以外すべて",
			query:   ArticleQuery{},
			wantIDs: map[string]bool{"tech1": true, "sports1": true, "breaking1": true},
		},
		{
			name:    "allも同様",
			query:   ArticleQuery{Category: model.CategoryAll},
			wantIDs: map[string]bool{"tech1": true, "sports1": true, "breaking1": true},
		},
		{
			name:    "カテゴリ指定",
			query:   ArticleQuery{Category: model.CategorySports},
			wantIDs: map[string]bool{"sports1": true},
		},
		{
			name:    "breakingはis_breakingフラグでフィルタ",
			query:   ArticleQuery{Category: model.CategoryBreaking},
			wantIDs: map[string]bool{"breaking1": true},
		},
		{
			name:    "IncludeHiddenで非表示記事も含む",
			query:   ArticleQuery{IncludeHidden: true},
			wantIDs: map[string]bool{"tech1": true, "sports1": true, "breaking1": true, "hidden1": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, err := store.List(ctx, tt.query)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(articles) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(articles), len(tt.wantIDs))
			}
			for _, a := range articles {
				if !tt.wantIDs[a.ID] {
					t.Errorf("unexpected article %q", a.ID)
				}
			}
		})
	}
}

func TestMemoryStore_List_LimitAndOffset(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		a := newArticle(fmt.Sprintf("a%d", i), model.CategoryTech, base.Add(time.Duration(i)*time.Hour))
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	articles, err := store.List(ctx, ArticleQuery{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("len = %d, want 2", len(articles))
	}
	// 降順なのでoffset 1は2番目に新しい記事
	if articles[0].ID != "a3" || articles[1].ID != "a2" {
		t.Errorf("page = [%s, %s], want [a3, a2]", articles[0].ID, articles[1].ID)
	}

	// 範囲外のoffsetは空スライス
	articles, err = store.List(ctx, ArticleQuery{Offset: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if articles == nil || len(articles) != 0 {
		t.Errorf("out-of-range offset = %v, want empty slice", articles)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, newArticle("a1", model.CategoryTech, time.Now().UTC())); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	isBreaking := true
	newSummary := "ملخص جديد"
	found, err := store.Update(ctx, "a1", ArticleUpdate{
		Summary:    &newSummary,
		IsBreaking: &isBreaking,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}

	got, _ := store.FindByID(ctx, "a1")
	if got.Summary != newSummary {
		t.Errorf("Summary = %q, want %q", got.Summary, newSummary)
	}
	if !got.IsBreaking {
		t.Error("IsBreaking = false, want true")
	}
	// 未指定フィールドは変更されない
	if got.Category != model.CategoryTech {
		t.Errorf("Category = %q, want unchanged tech", got.Category)
	}

	found, err = store.Update(ctx, "missing", ArticleUpdate{Summary: &newSummary})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if found {
		t.Error("found = true for missing article, want false")
	}
}

func TestMemoryStore_SavedArticles(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Create(ctx, newArticle("a1", model.CategoryTech, now)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	saved, err := store.IsSaved(ctx, "user-1", "a1")
	if err != nil {
		t.Fatalf("IsSaved failed: %v", err)
	}
	if saved {
		t.Fatal("IsSaved = true before save")
	}

	if err := store.Save(ctx, &model.SavedArticle{
		ID:        "s1",
		UserID:    "user-1",
		ArticleID: "a1",
		SavedAt:   now,
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	saved, _ = store.IsSaved(ctx, "user-1", "a1")
	if !saved {
		t.Fatal("IsSaved = false after save")
	}

	// 別ユーザーには影響しない
	saved, _ = store.IsSaved(ctx, "user-2", "a1")
	if saved {
		t.Error("IsSaved = true for another user")
	}

	list, err := store.ListByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "a1" {
		t.Fatalf("list = %+v, want single a1", list)
	}
	if !list[0].SavedAt.Equal(now) {
		t.Errorf("SavedAt = %v, want %v", list[0].SavedAt, now)
	}

	found, err := store.Unsave(ctx, "user-1", "a1")
	if err != nil {
		t.Fatalf("Unsave failed: %v", err)
	}
	if !found {
		t.Fatal("Unsave found = false")
	}

	found, _ = store.Unsave(ctx, "user-1", "a1")
	if found {
		t.Error("second Unsave found = true, want false")
	}
}

func TestMemoryStore_ListByUserID_ExcludesHidden(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Create(ctx, newArticle("a1", model.CategoryTech, now)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Save(ctx, &model.SavedArticle{ID: "s1", UserID: "user-1", ArticleID: "a1", SavedAt: now}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Hide(ctx, "a1"); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}

	list, err := store.ListByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("list = %+v, want empty", list)
	}
}

func TestMemoryStore_Delete_CascadesSavedArticles(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Create(ctx, newArticle("a1", model.CategoryTech, now)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Save(ctx, &model.SavedArticle{ID: "s1", UserID: "user-1", ArticleID: "a1", SavedAt: now}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	found, err := store.Delete(ctx, "a1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !found {
		t.Fatal("Delete found = false")
	}

	saved, _ := store.IsSaved(ctx, "user-1", "a1")
	if saved {
		t.Error("saved article survived article delete")
	}
}

func TestMemoryStore_ListBreaking(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		a := newArticle(fmt.Sprintf("b%d", i), model.CategoryPolitics, base.Add(time.Duration(i)*time.Hour))
		a.IsBreaking = true
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := store.Create(ctx, newArticle("normal", model.CategoryTech, base)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	articles, err := store.ListBreaking(ctx, 3)
	if err != nil {
		t.Fatalf("ListBreaking failed: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("len = %d, want 3", len(articles))
	}
	for _, a := range articles {
		if !a.IsBreaking {
			t.Errorf("article %q is not breaking", a.ID)
		}
	}
	// 最新の3件が返る
	if articles[0].ID != "b3" {
		t.Errorf("first = %q, want b3", articles[0].ID)
	}
}
