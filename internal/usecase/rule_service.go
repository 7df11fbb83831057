package usecase

import (
	"context"
	"fmt"

	"inventory-management-service/internal/domain"
)

// RuleService はアイテム操作ルールのビジネスロジックを提供する。
type RuleService struct {
	rules         RuleRepository
	systemTypes   SystemTypeRepository
	usageStatuses UsageStatusRepository
}

// NewRuleService は新しいRuleServiceを生成する。
func NewRuleService(rules RuleRepository, systemTypes SystemTypeRepository, usageStatuses UsageStatusRepository) *RuleService {
	return &RuleService{
		rules:         rules,
		systemTypes:   systemTypes,
		usageStatuses: usageStatuses,
	}
}

// CreateRule は新しいルールを作成する。参照するシステムタイプと利用状況の存在を検証する。
func (s *RuleService) CreateRule(ctx context.Context, rule *domain.Rule) error {
	if rule.SrcSystemTypeID != nil {
		srcType, err := s.systemTypes.FindByID(ctx, *rule.SrcSystemTypeID)
		if err != nil {
			return err
		}
		if srcType == nil {
			return fmt.Errorf("%w: system type %s", domain.ErrMissingRecord, *rule.SrcSystemTypeID)
		}
	}

	dstType, err := s.systemTypes.FindByID(ctx, rule.DstSystemTypeID)
	if err != nil {
		return err
	}
	if dstType == nil {
		return fmt.Errorf("%w: system type %s", domain.ErrMissingRecord, rule.DstSystemTypeID)
	}

	usageStatus, err := s.usageStatuses.FindByID(ctx, rule.DstUsageStatusID)
	if err != nil {
		return err
	}
	if usageStatus == nil {
		return fmt.Errorf("%w: usage status %s", domain.ErrMissingRecord, rule.DstUsageStatusID)
	}

	return s.rules.Create(ctx, rule)
}

// ListRules はルールの一覧を取得する。
func (s *RuleService) ListRules(ctx context.Context) ([]*domain.Rule, error) {
	return s.rules.FindAll(ctx)
}
