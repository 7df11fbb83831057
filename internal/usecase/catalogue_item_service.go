package usecase

import (
	"context"
	"fmt"

	"inventory-management-service/internal/domain"
)

// CatalogueItemService はカタログアイテムのビジネスロジックを提供する。
type CatalogueItemService struct {
	catalogueItems CatalogueItemRepository
}

// NewCatalogueItemService は新しいCatalogueItemServiceを生成する。
func NewCatalogueItemService(catalogueItems CatalogueItemRepository) *CatalogueItemService {
	return &CatalogueItemService{catalogueItems: catalogueItems}
}

// CreateCatalogueItem は新しいカタログアイテムを作成する。
// NumberOfSparesは再計算プロトコル経由でのみ更新されるため、作成時は常にnil。
func (s *CatalogueItemService) CreateCatalogueItem(ctx context.Context, catalogueItem *domain.CatalogueItem) error {
	catalogueItem.NumberOfSpares = nil
	return s.catalogueItems.Create(ctx, catalogueItem)
}

// GetCatalogueItem は指定されたIDのカタログアイテムを取得する。
func (s *CatalogueItemService) GetCatalogueItem(ctx context.Context, id string) (*domain.CatalogueItem, error) {
	catalogueItem, err := s.catalogueItems.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if catalogueItem == nil {
		return nil, fmt.Errorf("%w: catalogue item %s", domain.ErrMissingRecord, id)
	}
	return catalogueItem, nil
}

// ListCatalogueItems はカタログアイテムの一覧を取得する。
func (s *CatalogueItemService) ListCatalogueItems(ctx context.Context) ([]*domain.CatalogueItem, error) {
	return s.catalogueItems.FindAll(ctx)
}
