package usecase

import (
	"context"
	"fmt"

	"inventory-management-service/internal/domain"
)

// SettingService はスペア定義のビジネスロジックを提供する。
type SettingService struct {
	settings       SettingRepository
	systemTypes    SystemTypeRepository
	catalogueItems CatalogueItemRepository
	items          ItemRepository
	runner         TxRunner
}

// NewSettingService は新しいSettingServiceを生成する。
func NewSettingService(
	settings SettingRepository,
	systemTypes SystemTypeRepository,
	catalogueItems CatalogueItemRepository,
	items ItemRepository,
	runner TxRunner,
) *SettingService {
	return &SettingService{
		settings:       settings,
		systemTypes:    systemTypes,
		catalogueItems: catalogueItems,
		items:          items,
		runner:         runner,
	}
}

// GetSparesDefinition は現在のスペア定義を取得する。未設定の場合はErrMissingRecordを返す。
func (s *SettingService) GetSparesDefinition(ctx context.Context) (*domain.SparesDefinition, error) {
	definition, err := s.settings.GetSparesDefinition(ctx)
	if err != nil {
		return nil, err
	}
	if definition == nil {
		return nil, fmt.Errorf("%w: spares definition", domain.ErrMissingRecord)
	}
	return definition, nil
}

// SetSparesDefinition はスペア定義を置き換え、全カタログアイテムのスペア数を
// 新しい定義で再計算する。定義の置換と全再計算は1つのトランザクションで行われ、
// すべて成功するかすべて失敗するかのいずれかになる。
//
// 定義の更新を再計算より先に行うことで、並行するアイテム変更の再計算は
// 旧定義で完結するか、このトランザクションと書き込み競合してリトライされるかの
// どちらかになり、新旧の定義が混ざった状態でカウントされることはない。
//
// この一括処理はカタログアイテムごとの書き込みロックを取らない。実行中は
// 管理者の排他的アクセスが前提である。
func (s *SettingService) SetSparesDefinition(ctx context.Context, definition *domain.SparesDefinition) error {
	for _, systemTypeID := range definition.SystemTypeIDs {
		systemType, err := s.systemTypes.FindByID(ctx, systemTypeID)
		if err != nil {
			return err
		}
		if systemType == nil {
			return fmt.Errorf("%w: system type %s", domain.ErrMissingRecord, systemTypeID)
		}
	}

	return s.runner.WithTransaction(ctx, "updating spares definition", func(ctx context.Context) error {
		if err := s.settings.UpsertSparesDefinition(ctx, definition); err != nil {
			return err
		}

		catalogueItemIDs, err := s.catalogueItems.ListIDs(ctx)
		if err != nil {
			return err
		}
		for _, catalogueItemID := range catalogueItemIDs {
			count, err := s.items.CountInCatalogueItemWithSystemTypeOneOf(ctx, catalogueItemID, definition.SystemTypeIDs)
			if err != nil {
				return err
			}
			if err := s.catalogueItems.UpdateNumberOfSpares(ctx, catalogueItemID, &count); err != nil {
				return err
			}
		}
		return nil
	})
}
