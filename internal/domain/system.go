package domain

import "time"

// System はアイテムの設置場所となるシステムエンティティを表す。
type System struct {
	ID           string
	ParentID     *string
	TypeID       string
	Name         string
	Description  string
	Code         string
	CreatedTime  time.Time
	ModifiedTime time.Time
}

// SystemType はシステムの分類を表す。
// スペア定義はシステムタイプIDの集合によってスペア保管場所を指定する。
type SystemType struct {
	ID    string
	Value string
}
