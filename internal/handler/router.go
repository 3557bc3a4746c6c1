package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/akhbar/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 記事
	ArticleReader ArticleReader
	ArticleAdmin  ArticleAdminStore

	// 取り込み
	IngestService   IngestServiceInterface
	RefreshPageSize int

	// 保存記事・履歴
	SavedStore   SavedArticleStore
	HistoryStore ReadingHistoryStore

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 通知
	PushSubscriptions PushSubscriptionStore
	PrefsUpdater      NotificationPrefsUpdater

	// 広告
	AdStore AdBannerStore

	// ヘルスチェック・メトリクス
	DB             DBPinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → RateLimit(General) を全ルートに適用し、
//	認証が必要なルートグループにSession、管理者ルートにAdminを追加する。
//	取り込みトリガーには専用のRefreshレート制限を重ねる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	articleHandler := NewArticleHandler(deps.ArticleReader)
	ingestHandler := NewIngestHandler(deps.IngestService, deps.RefreshPageSize)
	savedHandler := NewSavedHandler(deps.SavedStore, deps.ArticleReader)
	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	historyHandler := NewHistoryHandler(deps.HistoryStore, deps.ArticleReader)
	notificationHandler := NewNotificationHandler(deps.PushSubscriptions, deps.PrefsUpdater)
	adminHandler := NewAdminHandler(deps.ArticleAdmin)
	adHandler := NewAdHandler(deps.AdStore)

	// --- 運用エンドポイント（レート制限の外） ---
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Get("/manifest.json", Manifest)

	// --- 認証不要のルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/articles", func(r chi.Router) {
			r.Get("/", articleHandler.ListArticles)
			// 取り込みトリガーは外部APIを呼ぶため専用のレート制限を追加
			r.With(deps.RateLimiter.RefreshMiddleware()).Post("/refresh", ingestHandler.RefreshArticles)
			r.Get("/{id}", articleHandler.GetArticle)
		})

		r.Route("/api/breaking", func(r chi.Router) {
			r.Get("/", articleHandler.ListBreaking)
			r.With(deps.RateLimiter.RefreshMiddleware()).Post("/refresh", ingestHandler.RefreshBreaking)
		})

		r.Route("/api/saved", func(r chi.Router) {
			r.Get("/", savedHandler.ListSaved)
			r.Post("/", savedHandler.SaveArticle)
			r.Delete("/{articleId}", savedHandler.UnsaveArticle)
		})

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/user", authHandler.Me)
		})

		r.Post("/api/admin/login", authHandler.AdminLogin)

		r.Get("/api/ads", adHandler.ListAds)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/history", func(r chi.Router) {
			r.Get("/", historyHandler.ListHistory)
			r.Post("/", historyHandler.RecordHistory)
			r.Delete("/", historyHandler.ClearHistory)
		})

		r.Route("/api/notifications", func(r chi.Router) {
			r.Post("/subscribe", notificationHandler.Subscribe)
			r.Put("/preferences", notificationHandler.UpdatePreferences)
		})
	})

	// --- 管理者ルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAdminMiddleware(deps.SessionFinder, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/admin/articles", func(r chi.Router) {
			r.Get("/", adminHandler.ListAllArticles)
			r.Post("/{id}/hide", adminHandler.HideArticle)
			r.Delete("/{id}", adminHandler.DeleteArticle)
		})

		r.Route("/api/admin/ads", func(r chi.Router) {
			r.Post("/", adHandler.CreateAd)
			r.Put("/{id}", adHandler.UpdateAd)
			r.Delete("/{id}", adHandler.DeleteAd)
		})
	})

	return r
}
