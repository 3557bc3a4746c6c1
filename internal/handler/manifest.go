package handler

import (
	"context"
	"net/http"
)

// manifestJSON はPWAマニフェストの静的コンテンツ。
// クライアントのインストール表示に使用される。
const manifestJSON = `{
  "name": "Akhbar - Bilingual News",
  "short_name": "Akhbar",
  "description": "English and Arabic news, summarized.",
  "start_url": "/",
  "display": "standalone",
  "background_color": "#ffffff",
  "theme_color": "#1a1a2e",
  "lang": "en",
  "dir": "ltr",
  "icons": [
    {
      "src": "/icons/icon-192.png",
      "sizes": "192x192",
      "type": "image/png"
    },
    {
      "src": "/icons/icon-512.png",
      "sizes": "512x512",
      "type": "image/png"
    }
  ]
}
`

// Manifest は静的なPWAマニフェストを返す。
// GET /manifest.json
func Manifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/manifest+json")
	w.Write([]byte(manifestJSON))
}

// DBPinger はヘルスチェックに必要なデータベース疎通確認のインターフェース。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(db DBPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
