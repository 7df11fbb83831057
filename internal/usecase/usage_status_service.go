package usecase

import (
	"context"
	"fmt"

	"inventory-management-service/internal/domain"
)

// UsageStatusService は利用状況のビジネスロジックを提供する。
type UsageStatusService struct {
	usageStatuses UsageStatusRepository
}

// NewUsageStatusService は新しいUsageStatusServiceを生成する。
func NewUsageStatusService(usageStatuses UsageStatusRepository) *UsageStatusService {
	return &UsageStatusService{usageStatuses: usageStatuses}
}

// CreateUsageStatus は新しい利用状況を作成する。
func (s *UsageStatusService) CreateUsageStatus(ctx context.Context, usageStatus *domain.UsageStatus) error {
	return s.usageStatuses.Create(ctx, usageStatus)
}

// GetUsageStatus は指定されたIDの利用状況を取得する。
func (s *UsageStatusService) GetUsageStatus(ctx context.Context, id string) (*domain.UsageStatus, error) {
	usageStatus, err := s.usageStatuses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if usageStatus == nil {
		return nil, fmt.Errorf("%w: usage status %s", domain.ErrMissingRecord, id)
	}
	return usageStatus, nil
}

// ListUsageStatuses は利用状況の一覧を取得する。
func (s *UsageStatusService) ListUsageStatuses(ctx context.Context) ([]*domain.UsageStatus, error) {
	return s.usageStatuses.FindAll(ctx)
}
