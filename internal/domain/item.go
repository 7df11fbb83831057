package domain

import "time"

// Item はカタログアイテムの実体（個体）を表す。
// アイテムは必ず1つのカタログアイテムに属し、1つのシステムに設置される。
// 所属システムのタイプがスペア数のカウント対象かどうかを決定する。
type Item struct {
	ID              string
	CatalogueItemID string
	SystemID        string
	UsageStatusID   string
	SerialNumber    *string
	Notes           *string
	CreatedTime     time.Time
	ModifiedTime    time.Time
}
