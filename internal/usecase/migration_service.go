package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"inventory-management-service/internal/domain"
	"inventory-management-service/internal/migrations"
)

// LatestMigration は「利用可能な最新のマイグレーション」を指すセンチネル値。
const LatestMigration = "latest"

// MigrationRegistry は登録済みマイグレーションの探索と読み込みのインターフェース。
type MigrationRegistry interface {
	Available() []string
	Load(name string) (migrations.Migration, error)
}

// MigrationCursorRepository はマイグレーションカーソルを管理するインターフェース。
type MigrationCursorRepository interface {
	GetLastApplied(ctx context.Context) (*string, error)
	SetLastApplied(ctx context.Context, name *string) error
}

// MigrationPlan は実行予定のマイグレーション列を表す。
// Namesは実行順(前進なら昇順、後退なら降順)に並ぶ。
// FinalCursorは実行成功後にカーソルへ書き込む値。
type MigrationPlan struct {
	Names       []string
	units       []migrations.Migration
	FinalCursor *string
}

// MigrationService はマイグレーション実行のビジネスロジックを提供する。
type MigrationService struct {
	registry MigrationRegistry
	repo     MigrationCursorRepository
	runner   TxRunner
}

// NewMigrationService は新しいMigrationServiceを生成する。
func NewMigrationService(registry MigrationRegistry, repo MigrationCursorRepository, runner TxRunner) *MigrationService {
	return &MigrationService{
		registry: registry,
		repo:     repo,
		runner:   runner,
	}
}

// findMigrationIndex は昇順のマイグレーション名リストからnameの位置を返す。
// LatestMigrationは末尾の位置に解決される。
func findMigrationIndex(name string, available []string) (int, error) {
	if name == LatestMigration {
		if len(available) == 0 {
			return 0, fmt.Errorf("%w: no migrations available", domain.ErrMigrationNotFound)
		}
		return len(available) - 1, nil
	}
	for i, candidate := range available {
		if candidate == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", domain.ErrMigrationNotFound, name)
}

// ListAvailable は登録済みマイグレーションの一覧を適用状態付きで返す。
func (s *MigrationService) ListAvailable(ctx context.Context) ([]domain.MigrationInfo, error) {
	available := s.registry.Available()

	lastIndex := -1
	last, err := s.repo.GetLastApplied(ctx)
	if err != nil {
		return nil, err
	}
	if last != nil {
		if idx, err := findMigrationIndex(*last, available); err == nil {
			lastIndex = idx
		}
	}

	infos := make([]domain.MigrationInfo, len(available))
	for i, name := range available {
		migration, err := s.registry.Load(name)
		if err != nil {
			return nil, err
		}
		status := domain.MigrationStatusPending
		if i <= lastIndex {
			status = domain.MigrationStatusApplied
		}
		infos[i] = domain.MigrationInfo{
			Name:        name,
			Description: migration.Description(),
			Status:      status,
		}
	}
	return infos, nil
}

// GetLastApplied は現在のカーソル値を返す。
func (s *MigrationService) GetLastApplied(ctx context.Context) (*string, error) {
	return s.repo.GetLastApplied(ctx)
}

// SetLastApplied はカーソルを無条件に上書きする。通常実行に加えて、
// リリース飛ばしなどで不整合になったカーソルを運用者が強制修正するためにも使う。
// nil以外の名前は登録済みマイグレーションであることを検証する。
func (s *MigrationService) SetLastApplied(ctx context.Context, name *string) error {
	if name != nil {
		if _, err := findMigrationIndex(*name, s.registry.Available()); err != nil {
			return err
		}
	}
	return s.repo.SetLastApplied(ctx, name)
}

// LoadForwardMigrationsTo は現在のカーソルから指定されたマイグレーション(含む)までの
// 前進マイグレーション列を返す。
//
// カーソルが現在のリストに見つからない場合はリリース飛ばしの可能性があるため、
// 警告を出して先頭からの適用として扱う(意図的な再適用のケースを妨げない)。
// 指定がカーソル以前のマイグレーションを指す場合はErrMigrationOutOfRangeを返す。
func (s *MigrationService) LoadForwardMigrationsTo(ctx context.Context, name string) (*MigrationPlan, error) {
	available := s.registry.Available()

	startIndex := 0
	last, err := s.repo.GetLastApplied(ctx)
	if err != nil {
		return nil, err
	}
	if last != nil {
		lastIndex, err := findMigrationIndex(*last, available)
		if err != nil {
			slog.WarnContext(ctx, "last applied migration not found in current migrations, have you skipped a version?",
				"operation", "load_forward_migrations_to",
				"last_applied", *last,
			)
		} else {
			startIndex = lastIndex + 1
		}
	}

	endIndex, err := findMigrationIndex(name, available)
	if err != nil {
		return nil, err
	}

	if startIndex > endIndex {
		lastName := "none"
		if last != nil {
			lastName = *last
		}
		return nil, fmt.Errorf("%w: migration %q is the same as or before the last applied migration %q, nothing to migrate",
			domain.ErrMigrationOutOfRange, name, lastName)
	}

	plan := &MigrationPlan{FinalCursor: &available[endIndex]}
	for i := startIndex; i <= endIndex; i++ {
		migration, err := s.registry.Load(available[i])
		if err != nil {
			return nil, err
		}
		plan.Names = append(plan.Names, available[i])
		plan.units = append(plan.units, migration)
	}
	return plan, nil
}

// LoadBackwardMigrationsTo は現在のカーソルから指定されたマイグレーションの直後までを
// 逆時系列順に巻き戻すマイグレーション列を返す。指定されたマイグレーション自体は
// 適用されたまま残り、実行成功後のカーソルになる。空文字列を指定すると全マイグレーションを
// 巻き戻し、カーソルは未適用状態に戻る。
//
// カーソルが未設定の場合はErrNothingToRevertを返す。カーソルが現在のリストに
// 見つからない場合は安全に巻き戻せる起点が無いためErrMigrationNotFoundを返す。
func (s *MigrationService) LoadBackwardMigrationsTo(ctx context.Context, name string) (*MigrationPlan, error) {
	available := s.registry.Available()

	last, err := s.repo.GetLastApplied(ctx)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, domain.ErrNothingToRevert
	}

	startIndex, err := findMigrationIndex(*last, available)
	if err != nil {
		return nil, fmt.Errorf("last applied migration not found in current migrations, have you skipped a version? %w", err)
	}

	targetIndex := -1
	if name != "" {
		targetIndex, err = findMigrationIndex(name, available)
		if err != nil {
			return nil, err
		}
	}

	if startIndex <= targetIndex {
		return nil, fmt.Errorf("%w: migration %q is the same as or after the last applied migration %q, nothing to migrate",
			domain.ErrMigrationOutOfRange, name, *last)
	}

	plan := &MigrationPlan{}
	if targetIndex >= 0 {
		plan.FinalCursor = &available[targetIndex]
	}
	for i := startIndex; i > targetIndex; i-- {
		migration, err := s.registry.Load(available[i])
		if err != nil {
			return nil, err
		}
		plan.Names = append(plan.Names, available[i])
		plan.units = append(plan.units, migration)
	}
	return plan, nil
}

// ExecuteForward は前進マイグレーション列を1つのトランザクションで実行する。
// すべてのForwardが成功した後にカーソルを更新してコミットする。途中で失敗した場合は
// 全体がロールバックされ、カーソルは変化しない。コミット後、トランザクション内で
// 実行できない後処理をトランザクション外で実行順に呼び出す。
func (s *MigrationService) ExecuteForward(ctx context.Context, plan *MigrationPlan) error {
	err := s.runner.WithTransaction(ctx, "applying forward migrations", func(ctx context.Context) error {
		for i, migration := range plan.units {
			slog.InfoContext(ctx, "performing forward migration",
				"operation", "execute_forward",
				"name", plan.Names[i],
			)
			if err := migration.Forward(ctx); err != nil {
				return fmt.Errorf("forward migration %q: %w", plan.Names[i], err)
			}
		}
		return s.repo.SetLastApplied(ctx, plan.FinalCursor)
	})
	if err != nil {
		return err
	}

	// カーソルは既に確定している。ここでの失敗はデータ整合性の破壊ではなく
	// 片付け残しを意味するため、別系統のエラーとして報告する。
	for i, migration := range plan.units {
		slog.InfoContext(ctx, "finalising forward migration",
			"operation", "execute_forward",
			"name", plan.Names[i],
		)
		if err := migration.ForwardAfterTransaction(ctx); err != nil {
			return fmt.Errorf("%w: forward migration %q: %v", domain.ErrMigrationFinalize, plan.Names[i], err)
		}
	}
	return nil
}

// ExecuteBackward は後退マイグレーション列を1つのトランザクションで実行する。
// 実行順は逆時系列であり、成功後のカーソルは巻き戻した範囲の直前のマイグレーション
// (全件巻き戻した場合は未適用状態)になる。
func (s *MigrationService) ExecuteBackward(ctx context.Context, plan *MigrationPlan) error {
	err := s.runner.WithTransaction(ctx, "applying backward migrations", func(ctx context.Context) error {
		for i, migration := range plan.units {
			slog.InfoContext(ctx, "performing backward migration",
				"operation", "execute_backward",
				"name", plan.Names[i],
			)
			if err := migration.Backward(ctx); err != nil {
				return fmt.Errorf("backward migration %q: %w", plan.Names[i], err)
			}
		}
		return s.repo.SetLastApplied(ctx, plan.FinalCursor)
	})
	if err != nil {
		return err
	}

	for i, migration := range plan.units {
		slog.InfoContext(ctx, "finalising backward migration",
			"operation", "execute_backward",
			"name", plan.Names[i],
		)
		if err := migration.BackwardAfterTransaction(ctx); err != nil {
			return fmt.Errorf("%w: backward migration %q: %v", domain.ErrMigrationFinalize, plan.Names[i], err)
		}
	}
	return nil
}
