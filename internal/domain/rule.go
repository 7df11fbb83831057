package domain

// Rule はアイテム操作の許可ルールを表す。
// SrcSystemTypeIDがnilのルールは新規作成(設置元なし)を許可する。
type Rule struct {
	ID               string
	SrcSystemTypeID  *string
	DstSystemTypeID  string
	DstUsageStatusID string
}
