package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"inventory-management-service/internal/domain"
	"inventory-management-service/internal/migrations"
)

// callLog は複数モックをまたいだ呼び出し順を記録する。
type callLog struct {
	entries []string
}

func (l *callLog) add(entry string) {
	l.entries = append(l.entries, entry)
}

// mockTxRunner はテスト用のトランザクションランナー。
// fnをそのまま実行し、開始・コミット・中断をログに記録する。
type mockTxRunner struct {
	log    *callLog
	labels []string
}

func (m *mockTxRunner) WithTransaction(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	m.labels = append(m.labels, label)
	if m.log != nil {
		m.log.add("tx_begin")
	}
	err := fn(ctx)
	if m.log != nil {
		if err != nil {
			m.log.add("tx_abort")
		} else {
			m.log.add("tx_commit")
		}
	}
	return err
}

// mockMigration はテスト用のマイグレーション。
type mockMigration struct {
	name             string
	description      string
	log              *callLog
	forwardErr       error
	backwardErr      error
	forwardAfterErr  error
	backwardAfterErr error
}

func (m *mockMigration) Description() string { return m.description }

func (m *mockMigration) Forward(ctx context.Context) error {
	m.log.add("forward:" + m.name)
	return m.forwardErr
}

func (m *mockMigration) Backward(ctx context.Context) error {
	m.log.add("backward:" + m.name)
	return m.backwardErr
}

func (m *mockMigration) ForwardAfterTransaction(ctx context.Context) error {
	m.log.add("forward_after:" + m.name)
	return m.forwardAfterErr
}

func (m *mockMigration) BackwardAfterTransaction(ctx context.Context) error {
	m.log.add("backward_after:" + m.name)
	return m.backwardAfterErr
}

// mockMigrationRegistry はテスト用のレジストリ。
type mockMigrationRegistry struct {
	names []string
	units map[string]migrations.Migration
}

func (m *mockMigrationRegistry) Available() []string { return m.names }

func (m *mockMigrationRegistry) Load(name string) (migrations.Migration, error) {
	unit, ok := m.units[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMigrationNotFound, name)
	}
	return unit, nil
}

// mockMigrationCursorRepository はテスト用のカーソルリポジトリ。
type mockMigrationCursorRepository struct {
	log    *callLog
	last   *string
	getErr error
	setErr error
}

func (m *mockMigrationCursorRepository) GetLastApplied(ctx context.Context) (*string, error) {
	return m.last, m.getErr
}

func (m *mockMigrationCursorRepository) SetLastApplied(ctx context.Context, name *string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.log != nil {
		if name == nil {
			m.log.add("set_cursor:none")
		} else {
			m.log.add("set_cursor:" + *name)
		}
	}
	m.last = name
	return nil
}

const (
	testMigration1 = "20240101000000_first"
	testMigration2 = "20240201000000_second"
	testMigration3 = "20240301000000_third"
)

// newMigrationFixture は3つのマイグレーションを登録したテスト環境を構築する。
func newMigrationFixture(t *testing.T, cursor *string) (*MigrationService, *mockMigrationCursorRepository, *mockMigrationRegistry, *callLog) {
	t.Helper()

	log := &callLog{}
	names := []string{testMigration1, testMigration2, testMigration3}
	registry := &mockMigrationRegistry{
		names: names,
		units: make(map[string]migrations.Migration),
	}
	for _, name := range names {
		registry.units[name] = &mockMigration{name: name, description: "migration " + name, log: log}
	}
	repo := &mockMigrationCursorRepository{log: log, last: cursor}
	runner := &mockTxRunner{log: log}
	return NewMigrationService(registry, repo, runner), repo, registry, log
}

func strPtr(s string) *string { return &s }

func TestMigrationService_ListAvailable(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, strPtr(testMigration2))

	infos, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(infos) != 3 {
		t.Fatalf("want 3 migrations, got %d", len(infos))
	}
	wantStatuses := []domain.MigrationStatus{
		domain.MigrationStatusApplied,
		domain.MigrationStatusApplied,
		domain.MigrationStatusPending,
	}
	for i, info := range infos {
		if info.Status != wantStatuses[i] {
			t.Errorf("migration %s: want status %s, got %s", info.Name, wantStatuses[i], info.Status)
		}
	}
}

func TestMigrationService_LoadForwardMigrationsTo_Latest(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, nil)

	plan, err := svc.LoadForwardMigrationsTo(context.Background(), LatestMigration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{testMigration1, testMigration2, testMigration3}
	if len(plan.Names) != len(want) {
		t.Fatalf("want %d migrations, got %d", len(want), len(plan.Names))
	}
	for i, name := range want {
		if plan.Names[i] != name {
			t.Errorf("position %d: want %s, got %s", i, name, plan.Names[i])
		}
	}
	if plan.FinalCursor == nil || *plan.FinalCursor != testMigration3 {
		t.Errorf("want final cursor %s, got %v", testMigration3, plan.FinalCursor)
	}
}

func TestMigrationService_LoadForwardMigrationsTo_FromCursor(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, strPtr(testMigration1))

	plan, err := svc.LoadForwardMigrationsTo(context.Background(), testMigration2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Names) != 1 || plan.Names[0] != testMigration2 {
		t.Fatalf("want plan [%s], got %v", testMigration2, plan.Names)
	}
	if plan.FinalCursor == nil || *plan.FinalCursor != testMigration2 {
		t.Errorf("want final cursor %s, got %v", testMigration2, plan.FinalCursor)
	}
}

func TestMigrationService_LoadForwardMigrationsTo_NotFound(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, nil)

	_, err := svc.LoadForwardMigrationsTo(context.Background(), "20990101000000_unknown")
	if !errors.Is(err, domain.ErrMigrationNotFound) {
		t.Fatalf("want ErrMigrationNotFound, got %v", err)
	}
}

func TestMigrationService_LoadForwardMigrationsTo_OutOfRange(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, strPtr(testMigration3))

	_, err := svc.LoadForwardMigrationsTo(context.Background(), testMigration1)
	if !errors.Is(err, domain.ErrMigrationOutOfRange) {
		t.Fatalf("want ErrMigrationOutOfRange, got %v", err)
	}
}

func TestMigrationService_LoadForwardMigrationsTo_UnknownCursor(t *testing.T) {
	// カーソルが現在のリストに無い場合は警告の上で先頭から適用する
	svc, _, _, _ := newMigrationFixture(t, strPtr("19990101000000_removed"))

	plan, err := svc.LoadForwardMigrationsTo(context.Background(), LatestMigration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Names) != 3 {
		t.Fatalf("want all 3 migrations planned, got %v", plan.Names)
	}
}

func TestMigrationService_LoadBackwardMigrationsTo(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, strPtr(testMigration3))

	plan, err := svc.LoadBackwardMigrationsTo(context.Background(), testMigration1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 指定されたマイグレーション自体は適用されたまま残る
	want := []string{testMigration3, testMigration2}
	if len(plan.Names) != len(want) {
		t.Fatalf("want plan %v, got %v", want, plan.Names)
	}
	for i, name := range want {
		if plan.Names[i] != name {
			t.Errorf("position %d: want %s, got %s", i, name, plan.Names[i])
		}
	}
	if plan.FinalCursor == nil || *plan.FinalCursor != testMigration1 {
		t.Errorf("want final cursor %s, got %v", testMigration1, plan.FinalCursor)
	}
}

func TestMigrationService_LoadBackwardMigrationsTo_All(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, strPtr(testMigration3))

	plan, err := svc.LoadBackwardMigrationsTo(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{testMigration3, testMigration2, testMigration1}
	if len(plan.Names) != len(want) {
		t.Fatalf("want plan %v, got %v", want, plan.Names)
	}
	if plan.FinalCursor != nil {
		t.Errorf("want nil final cursor, got %s", *plan.FinalCursor)
	}
}

func TestMigrationService_LoadBackwardMigrationsTo_NothingToRevert(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, nil)

	_, err := svc.LoadBackwardMigrationsTo(context.Background(), "")
	if !errors.Is(err, domain.ErrNothingToRevert) {
		t.Fatalf("want ErrNothingToRevert, got %v", err)
	}
}

func TestMigrationService_LoadBackwardMigrationsTo_OutOfRange(t *testing.T) {
	svc, _, _, _ := newMigrationFixture(t, strPtr(testMigration2))

	_, err := svc.LoadBackwardMigrationsTo(context.Background(), testMigration2)
	if !errors.Is(err, domain.ErrMigrationOutOfRange) {
		t.Fatalf("want ErrMigrationOutOfRange, got %v", err)
	}

	_, err = svc.LoadBackwardMigrationsTo(context.Background(), testMigration3)
	if !errors.Is(err, domain.ErrMigrationOutOfRange) {
		t.Fatalf("want ErrMigrationOutOfRange, got %v", err)
	}
}

func TestMigrationService_ExecuteForward_Order(t *testing.T) {
	svc, repo, _, log := newMigrationFixture(t, nil)

	plan, err := svc.LoadForwardMigrationsTo(context.Background(), LatestMigration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ExecuteForward(context.Background(), plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// カーソル更新はコミット前、後処理はコミット後に実行される
	want := []string{
		"tx_begin",
		"forward:" + testMigration1,
		"forward:" + testMigration2,
		"forward:" + testMigration3,
		"set_cursor:" + testMigration3,
		"tx_commit",
		"forward_after:" + testMigration1,
		"forward_after:" + testMigration2,
		"forward_after:" + testMigration3,
	}
	if len(log.entries) != len(want) {
		t.Fatalf("want call sequence %v, got %v", want, log.entries)
	}
	for i, entry := range want {
		if log.entries[i] != entry {
			t.Errorf("position %d: want %s, got %s", i, entry, log.entries[i])
		}
	}
	if repo.last == nil || *repo.last != testMigration3 {
		t.Errorf("want cursor %s, got %v", testMigration3, repo.last)
	}
}

func TestMigrationService_ExecuteForward_FailureLeavesCursorUnchanged(t *testing.T) {
	svc, repo, registry, log := newMigrationFixture(t, strPtr(testMigration1))
	registry.units[testMigration2].(*mockMigration).forwardErr = errors.New("boom")

	plan, err := svc.LoadForwardMigrationsTo(context.Background(), LatestMigration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ExecuteForward(context.Background(), plan); err == nil {
		t.Fatal("want error, got nil")
	}

	if repo.last == nil || *repo.last != testMigration1 {
		t.Errorf("want cursor unchanged at %s, got %v", testMigration1, repo.last)
	}
	for _, entry := range log.entries {
		if entry == "set_cursor:"+testMigration3 {
			t.Error("cursor must not advance when a migration fails")
		}
		if entry == "forward_after:"+testMigration2 || entry == "forward_after:"+testMigration3 {
			t.Errorf("hook %s must not run after a failed batch", entry)
		}
	}
}

func TestMigrationService_ExecuteForward_HookFailure(t *testing.T) {
	svc, repo, registry, _ := newMigrationFixture(t, nil)
	registry.units[testMigration1].(*mockMigration).forwardAfterErr = errors.New("cleanup failed")

	plan, err := svc.LoadForwardMigrationsTo(context.Background(), LatestMigration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = svc.ExecuteForward(context.Background(), plan)
	if !errors.Is(err, domain.ErrMigrationFinalize) {
		t.Fatalf("want ErrMigrationFinalize, got %v", err)
	}
	// 後処理の失敗ではカーソルは巻き戻らない
	if repo.last == nil || *repo.last != testMigration3 {
		t.Errorf("want cursor %s despite hook failure, got %v", testMigration3, repo.last)
	}
}

func TestMigrationService_ExecuteBackward_Order(t *testing.T) {
	svc, repo, _, log := newMigrationFixture(t, strPtr(testMigration3))

	plan, err := svc.LoadBackwardMigrationsTo(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ExecuteBackward(context.Background(), plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"tx_begin",
		"backward:" + testMigration3,
		"backward:" + testMigration2,
		"backward:" + testMigration1,
		"set_cursor:none",
		"tx_commit",
		"backward_after:" + testMigration3,
		"backward_after:" + testMigration2,
		"backward_after:" + testMigration1,
	}
	if len(log.entries) != len(want) {
		t.Fatalf("want call sequence %v, got %v", want, log.entries)
	}
	for i, entry := range want {
		if log.entries[i] != entry {
			t.Errorf("position %d: want %s, got %s", i, entry, log.entries[i])
		}
	}
	if repo.last != nil {
		t.Errorf("want cursor reset, got %s", *repo.last)
	}
}

func TestMigrationService_ForwardBackwardRoundTrip(t *testing.T) {
	svc, repo, _, _ := newMigrationFixture(t, nil)
	ctx := context.Background()

	forwardPlan, err := svc.LoadForwardMigrationsTo(ctx, LatestMigration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ExecuteForward(ctx, forwardPlan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backwardPlan, err := svc.LoadBackwardMigrationsTo(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ExecuteBackward(ctx, backwardPlan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.last != nil {
		t.Errorf("want unapplied state after round trip, got %s", *repo.last)
	}
	if _, err := svc.LoadBackwardMigrationsTo(ctx, ""); !errors.Is(err, domain.ErrNothingToRevert) {
		t.Errorf("want ErrNothingToRevert after full revert, got %v", err)
	}
}

func TestMigrationService_SetLastApplied(t *testing.T) {
	svc, repo, _, _ := newMigrationFixture(t, nil)
	ctx := context.Background()

	if err := svc.SetLastApplied(ctx, strPtr(testMigration2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.last == nil || *repo.last != testMigration2 {
		t.Errorf("want cursor %s, got %v", testMigration2, repo.last)
	}

	err := svc.SetLastApplied(ctx, strPtr("20990101000000_unknown"))
	if !errors.Is(err, domain.ErrMigrationNotFound) {
		t.Fatalf("want ErrMigrationNotFound, got %v", err)
	}

	if err := svc.SetLastApplied(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.last != nil {
		t.Errorf("want cursor reset, got %s", *repo.last)
	}
}
