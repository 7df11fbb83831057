package domain

// MigrationStatus はマイグレーションの適用状態を表す
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// MigrationInfo はマイグレーションの一覧表示用情報を表す。
// Nameは14桁のタイムスタンプ接頭辞を持ち、辞書順が時系列順と一致する。
type MigrationInfo struct {
	Name        string
	Description string
	Status      MigrationStatus
}
