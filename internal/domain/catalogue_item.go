// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "time"

// CatalogueItem はカタログアイテムエンティティを表す。
// NumberOfSparesは導出フィールドであり、スペア定義が未設定の間はnilのまま維持される。
// 値の更新はスペア数再計算プロトコル経由でのみ行われる。
type CatalogueItem struct {
	ID                   string
	Name                 string
	Description          string
	ExpectedLifetimeDays *int
	NumberOfSpares       *int
	CreatedTime          time.Time
	ModifiedTime         time.Time
}
