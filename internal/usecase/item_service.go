package usecase

import (
	"context"
	"fmt"

	"inventory-management-service/internal/domain"
)

// ItemService はアイテムのビジネスロジックを提供する。
// アイテムの作成・移動・削除はスペア数に影響するため、
// すべての変更操作がスペア数再計算プロトコルを経由する。
type ItemService struct {
	items          ItemRepository
	catalogueItems CatalogueItemRepository
	systems        SystemRepository
	usageStatuses  UsageStatusRepository
	rules          RuleRepository
	settings       SettingRepository
	runner         TxRunner
	retrier        Retrier
}

// NewItemService は新しいItemServiceを生成する。
func NewItemService(
	items ItemRepository,
	catalogueItems CatalogueItemRepository,
	systems SystemRepository,
	usageStatuses UsageStatusRepository,
	rules RuleRepository,
	settings SettingRepository,
	runner TxRunner,
	retrier Retrier,
) *ItemService {
	return &ItemService{
		items:          items,
		catalogueItems: catalogueItems,
		systems:        systems,
		usageStatuses:  usageStatuses,
		rules:          rules,
		settings:       settings,
		runner:         runner,
		retrier:        retrier,
	}
}

// withSparesRecalculation は変更操作をスペア数再計算プロトコルで包んで実行する。
//
// スペア定義が未設定の場合はトランザクションを開かずにmutateだけを実行する
// (number_of_sparesはnilのまま)。定義がある場合は1つのトランザクション内で
// カタログアイテムを書き込みロックし、移動先システムがあればそれもロックした上で
// mutateを実行し、定義に合致するアイテムを数え直して書き込む。
//
// ロック取得は同一カタログアイテムに対する並行再計算と書き込み競合を起こす。
// 競合した場合はトランザクション全体をランダムバックオフ付きでリトライする。
// 定義は試行ごとに読み直す。一括再定義(§設定サービス)と競合した試行が
// リトライされたとき、新しい定義で数え直すためである。
func (s *ItemService) withSparesRecalculation(ctx context.Context, catalogueItemID string, dstSystemID *string, mutate func(ctx context.Context) error) error {
	return s.retrier.Do(ctx, func() error {
		definition, err := s.settings.GetSparesDefinition(ctx)
		if err != nil {
			return err
		}
		if definition == nil {
			return mutate(ctx)
		}

		return s.runner.WithTransaction(ctx, "updating number of spares", func(ctx context.Context) error {
			if err := s.catalogueItems.UpdateNumberOfSpares(ctx, catalogueItemID, nil); err != nil {
				return err
			}
			if dstSystemID != nil {
				if err := s.systems.WriteLock(ctx, *dstSystemID); err != nil {
					return err
				}
			}
			if err := mutate(ctx); err != nil {
				return err
			}
			count, err := s.items.CountInCatalogueItemWithSystemTypeOneOf(ctx, catalogueItemID, definition.SystemTypeIDs)
			if err != nil {
				return err
			}
			return s.catalogueItems.UpdateNumberOfSpares(ctx, catalogueItemID, &count)
		})
	})
}

// CreateItem は新しいアイテムを作成する。設置先システムのタイプと利用状況の組み合わせが
// 作成ルール(設置元なし)で許可されていない場合はErrInvalidActionを返す。
func (s *ItemService) CreateItem(ctx context.Context, item *domain.Item) error {
	catalogueItem, err := s.catalogueItems.FindByID(ctx, item.CatalogueItemID)
	if err != nil {
		return err
	}
	if catalogueItem == nil {
		return fmt.Errorf("%w: catalogue item %s", domain.ErrMissingRecord, item.CatalogueItemID)
	}

	system, err := s.systems.FindByID(ctx, item.SystemID)
	if err != nil {
		return err
	}
	if system == nil {
		return fmt.Errorf("%w: system %s", domain.ErrMissingRecord, item.SystemID)
	}

	usageStatus, err := s.usageStatuses.FindByID(ctx, item.UsageStatusID)
	if err != nil {
		return err
	}
	if usageStatus == nil {
		return fmt.Errorf("%w: usage status %s", domain.ErrMissingRecord, item.UsageStatusID)
	}

	allowed, err := s.rules.CheckExists(ctx, nil, system.TypeID, item.UsageStatusID)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: creating an item in a system of type %s with usage status %s is not allowed",
			domain.ErrInvalidAction, system.TypeID, item.UsageStatusID)
	}

	return s.withSparesRecalculation(ctx, item.CatalogueItemID, &item.SystemID, func(ctx context.Context) error {
		return s.items.Create(ctx, item)
	})
}

// MoveItem はアイテムを別のシステムへ移動する。移動元システムのタイプから移動先システムの
// タイプ・利用状況への遷移がルールで許可されていない場合はErrInvalidActionを返す。
func (s *ItemService) MoveItem(ctx context.Context, id, dstSystemID string) error {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item %s", domain.ErrMissingRecord, id)
	}

	srcSystem, err := s.systems.FindByID(ctx, item.SystemID)
	if err != nil {
		return err
	}
	if srcSystem == nil {
		return fmt.Errorf("%w: system %s", domain.ErrMissingRecord, item.SystemID)
	}

	dstSystem, err := s.systems.FindByID(ctx, dstSystemID)
	if err != nil {
		return err
	}
	if dstSystem == nil {
		return fmt.Errorf("%w: system %s", domain.ErrMissingRecord, dstSystemID)
	}

	allowed, err := s.rules.CheckExists(ctx, &srcSystem.TypeID, dstSystem.TypeID, item.UsageStatusID)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: moving an item from a system of type %s to a system of type %s with usage status %s is not allowed",
			domain.ErrInvalidAction, srcSystem.TypeID, dstSystem.TypeID, item.UsageStatusID)
	}

	return s.withSparesRecalculation(ctx, item.CatalogueItemID, &dstSystemID, func(ctx context.Context) error {
		return s.items.UpdateSystemID(ctx, id, dstSystemID)
	})
}

// DeleteItem はアイテムを削除する。
func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item %s", domain.ErrMissingRecord, id)
	}

	return s.withSparesRecalculation(ctx, item.CatalogueItemID, nil, func(ctx context.Context) error {
		return s.items.Delete(ctx, id)
	})
}

// GetItem は指定されたIDのアイテムを取得する。
func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrMissingRecord, id)
	}
	return item, nil
}

// ListItems はアイテムの一覧を取得する。systemID/catalogueItemIDによる絞り込みが可能。
func (s *ItemService) ListItems(ctx context.Context, systemID, catalogueItemID *string) ([]*domain.Item, error) {
	return s.items.FindAll(ctx, systemID, catalogueItemID)
}
