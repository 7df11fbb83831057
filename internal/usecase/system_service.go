package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"inventory-management-service/internal/domain"
)

var codeSeparatorRegexp = regexp.MustCompile(`\s+`)

// generateCode はシステム名からURLセーフなコードを生成する。
// 小文字化して前後の空白を除き、連続する空白をハイフンに置き換える。
func generateCode(name string) string {
	return codeSeparatorRegexp.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// SystemService はシステムとシステムタイプのビジネスロジックを提供する。
type SystemService struct {
	systems     SystemRepository
	systemTypes SystemTypeRepository
}

// NewSystemService は新しいSystemServiceを生成する。
func NewSystemService(systems SystemRepository, systemTypes SystemTypeRepository) *SystemService {
	return &SystemService{systems: systems, systemTypes: systemTypes}
}

// CreateSystem は新しいシステムを作成する。親システムとシステムタイプの存在を検証し、
// コードを名前から生成する。
func (s *SystemService) CreateSystem(ctx context.Context, system *domain.System) error {
	if system.ParentID != nil {
		parent, err := s.systems.FindByID(ctx, *system.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("%w: system %s", domain.ErrMissingRecord, *system.ParentID)
		}
	}

	systemType, err := s.systemTypes.FindByID(ctx, system.TypeID)
	if err != nil {
		return err
	}
	if systemType == nil {
		return fmt.Errorf("%w: system type %s", domain.ErrMissingRecord, system.TypeID)
	}

	system.Code = generateCode(system.Name)
	return s.systems.Create(ctx, system)
}

// GetSystem は指定されたIDのシステムを取得する。
func (s *SystemService) GetSystem(ctx context.Context, id string) (*domain.System, error) {
	system, err := s.systems.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if system == nil {
		return nil, fmt.Errorf("%w: system %s", domain.ErrMissingRecord, id)
	}
	return system, nil
}

// ListSystems はシステムの一覧を取得する。
func (s *SystemService) ListSystems(ctx context.Context) ([]*domain.System, error) {
	return s.systems.FindAll(ctx)
}

// GetSystemType は指定されたIDのシステムタイプを取得する。
func (s *SystemService) GetSystemType(ctx context.Context, id string) (*domain.SystemType, error) {
	systemType, err := s.systemTypes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if systemType == nil {
		return nil, fmt.Errorf("%w: system type %s", domain.ErrMissingRecord, id)
	}
	return systemType, nil
}

// ListSystemTypes はシステムタイプの一覧を取得する。
func (s *SystemService) ListSystemTypes(ctx context.Context) ([]*domain.SystemType, error) {
	return s.systemTypes.FindAll(ctx)
}
