// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"

	"inventory-management-service/internal/domain"
)

// CatalogueItemRepository はカタログアイテムのデータアクセスのインターフェース。
type CatalogueItemRepository interface {
	Create(ctx context.Context, catalogueItem *domain.CatalogueItem) error
	FindByID(ctx context.Context, id string) (*domain.CatalogueItem, error)
	FindAll(ctx context.Context) ([]*domain.CatalogueItem, error)
	ListIDs(ctx context.Context) ([]string, error)
	UpdateNumberOfSpares(ctx context.Context, id string, numberOfSpares *int) error
}

// ItemRepository はアイテムのデータアクセスのインターフェース。
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	FindAll(ctx context.Context, systemID, catalogueItemID *string) ([]*domain.Item, error)
	UpdateSystemID(ctx context.Context, id, systemID string) error
	Delete(ctx context.Context, id string) error
	CountInCatalogueItemWithSystemTypeOneOf(ctx context.Context, catalogueItemID string, systemTypeIDs []string) (int, error)
}

// SystemRepository はシステムのデータアクセスのインターフェース。
type SystemRepository interface {
	Create(ctx context.Context, system *domain.System) error
	FindByID(ctx context.Context, id string) (*domain.System, error)
	FindAll(ctx context.Context) ([]*domain.System, error)
	WriteLock(ctx context.Context, id string) error
}

// SystemTypeRepository はシステムタイプのデータアクセスのインターフェース。
type SystemTypeRepository interface {
	FindByID(ctx context.Context, id string) (*domain.SystemType, error)
	FindAll(ctx context.Context) ([]*domain.SystemType, error)
}

// UsageStatusRepository は利用状況のデータアクセスのインターフェース。
type UsageStatusRepository interface {
	Create(ctx context.Context, usageStatus *domain.UsageStatus) error
	FindByID(ctx context.Context, id string) (*domain.UsageStatus, error)
	FindAll(ctx context.Context) ([]*domain.UsageStatus, error)
}

// RuleRepository はルールのデータアクセスのインターフェース。
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.Rule) error
	FindAll(ctx context.Context) ([]*domain.Rule, error)
	CheckExists(ctx context.Context, srcSystemTypeID *string, dstSystemTypeID, dstUsageStatusID string) (bool, error)
}

// SettingRepository は設定のデータアクセスのインターフェース。
type SettingRepository interface {
	GetSparesDefinition(ctx context.Context) (*domain.SparesDefinition, error)
	UpsertSparesDefinition(ctx context.Context, definition *domain.SparesDefinition) error
}
