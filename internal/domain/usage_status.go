package domain

import "time"

// UsageStatus はアイテムの利用状況を表す。
type UsageStatus struct {
	ID           string
	Value        string
	CreatedTime  time.Time
	ModifiedTime time.Time
}
