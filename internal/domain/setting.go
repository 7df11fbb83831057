package domain

// SparesDefinition はスペア定義を表すシングルトン設定。
// ここに列挙されたシステムタイプに属するシステム内のアイテムがスペアとしてカウントされる。
// 更新は常に全体置換であり、置換のたびに全カタログアイテムの再計算が行われる。
type SparesDefinition struct {
	SystemTypeIDs []string
}
