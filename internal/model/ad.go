// Package model はドメインモデルを定義する。
package model

import "time"

// AdBanner はプロモーション用の広告バナーを表す。
type AdBanner struct {
	ID        string
	Title     string
	ImageURL  string
	ClickURL  string
	Position  AdPosition
	IsActive  bool
	CreatedAt time.Time
}

// AdPosition は広告バナーの表示位置を表す。
type AdPosition string

const (
	// AdPositionTop はフィード上部の表示位置。
	AdPositionTop AdPosition = "top"
	// AdPositionMiddle はフィード中部の表示位置。
	AdPositionMiddle AdPosition = "middle"
	// AdPositionBottom はフィード下部の表示位置。
	AdPositionBottom AdPosition = "bottom"
)

// IsValid は有効な表示位置かどうかを返す。
func (p AdPosition) IsValid() bool {
	switch p {
	case AdPositionTop, AdPositionMiddle, AdPositionBottom:
		return true
	}
	return false
}
