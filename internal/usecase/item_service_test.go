package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"inventory-management-service/internal/domain"
)

// mockCatalogueItemRepository はテスト用のモックリポジトリ。
type mockCatalogueItemRepository struct {
	log               *callLog
	createErr         error
	findByIDResult    *domain.CatalogueItem
	findByIDErr       error
	findAllResult     []*domain.CatalogueItem
	findAllErr        error
	listIDsResult     []string
	listIDsErr        error
	updateSparesErrs  []error
	updateSparesIDs   []string
	updateSparesSeen  []*int
	createdCatalogues []*domain.CatalogueItem
}

func (m *mockCatalogueItemRepository) Create(ctx context.Context, catalogueItem *domain.CatalogueItem) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.createdCatalogues = append(m.createdCatalogues, catalogueItem)
	return nil
}

func (m *mockCatalogueItemRepository) FindByID(ctx context.Context, id string) (*domain.CatalogueItem, error) {
	return m.findByIDResult, m.findByIDErr
}

func (m *mockCatalogueItemRepository) FindAll(ctx context.Context) ([]*domain.CatalogueItem, error) {
	return m.findAllResult, m.findAllErr
}

func (m *mockCatalogueItemRepository) ListIDs(ctx context.Context) ([]string, error) {
	if m.log != nil {
		m.log.add("list_ids")
	}
	return m.listIDsResult, m.listIDsErr
}

func (m *mockCatalogueItemRepository) UpdateNumberOfSpares(ctx context.Context, id string, numberOfSpares *int) error {
	if m.log != nil {
		if numberOfSpares == nil {
			m.log.add("update_spares:" + id + ":nil")
		} else {
			m.log.add(fmt.Sprintf("update_spares:%s:%d", id, *numberOfSpares))
		}
	}
	m.updateSparesIDs = append(m.updateSparesIDs, id)
	m.updateSparesSeen = append(m.updateSparesSeen, numberOfSpares)
	if len(m.updateSparesErrs) > 0 {
		err := m.updateSparesErrs[0]
		m.updateSparesErrs = m.updateSparesErrs[1:]
		return err
	}
	return nil
}

// mockItemRepository はテスト用のモックリポジトリ。
type mockItemRepository struct {
	log            *callLog
	createErr      error
	findByIDResult *domain.Item
	findByIDErr    error
	findAllResult  []*domain.Item
	findAllErr     error
	updateErr      error
	deleteErr      error
	countResults   map[string]int
	countErr       error
	createdItems   []*domain.Item
}

func (m *mockItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if m.log != nil {
		m.log.add("create_item")
	}
	if m.createErr != nil {
		return m.createErr
	}
	m.createdItems = append(m.createdItems, item)
	return nil
}

func (m *mockItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	return m.findByIDResult, m.findByIDErr
}

func (m *mockItemRepository) FindAll(ctx context.Context, systemID, catalogueItemID *string) ([]*domain.Item, error) {
	return m.findAllResult, m.findAllErr
}

func (m *mockItemRepository) UpdateSystemID(ctx context.Context, id, systemID string) error {
	if m.log != nil {
		m.log.add("move_item:" + id + ":" + systemID)
	}
	return m.updateErr
}

func (m *mockItemRepository) Delete(ctx context.Context, id string) error {
	if m.log != nil {
		m.log.add("delete_item:" + id)
	}
	return m.deleteErr
}

func (m *mockItemRepository) CountInCatalogueItemWithSystemTypeOneOf(ctx context.Context, catalogueItemID string, systemTypeIDs []string) (int, error) {
	if m.log != nil {
		m.log.add("count:" + catalogueItemID)
	}
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.countResults[catalogueItemID], nil
}

// mockSystemRepository はテスト用のモックリポジトリ。
type mockSystemRepository struct {
	log            *callLog
	createErr      error
	findByIDResult map[string]*domain.System
	findByIDErr    error
	findAllResult  []*domain.System
	findAllErr     error
	writeLockErr   error
	createdSystems []*domain.System
}

func (m *mockSystemRepository) Create(ctx context.Context, system *domain.System) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.createdSystems = append(m.createdSystems, system)
	return nil
}

func (m *mockSystemRepository) FindByID(ctx context.Context, id string) (*domain.System, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	return m.findByIDResult[id], nil
}

func (m *mockSystemRepository) FindAll(ctx context.Context) ([]*domain.System, error) {
	return m.findAllResult, m.findAllErr
}

func (m *mockSystemRepository) WriteLock(ctx context.Context, id string) error {
	if m.log != nil {
		m.log.add("lock_system:" + id)
	}
	return m.writeLockErr
}

// mockSystemTypeRepository はテスト用のモックリポジトリ。
type mockSystemTypeRepository struct {
	types         map[string]*domain.SystemType
	findByIDErr   error
	findAllResult []*domain.SystemType
	findAllErr    error
}

func (m *mockSystemTypeRepository) FindByID(ctx context.Context, id string) (*domain.SystemType, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	return m.types[id], nil
}

func (m *mockSystemTypeRepository) FindAll(ctx context.Context) ([]*domain.SystemType, error) {
	return m.findAllResult, m.findAllErr
}

// mockUsageStatusRepository はテスト用のモックリポジトリ。
type mockUsageStatusRepository struct {
	createErr       error
	findByIDResult  *domain.UsageStatus
	findByIDErr     error
	findAllResult   []*domain.UsageStatus
	findAllErr      error
	createdStatuses []*domain.UsageStatus
}

func (m *mockUsageStatusRepository) Create(ctx context.Context, usageStatus *domain.UsageStatus) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.createdStatuses = append(m.createdStatuses, usageStatus)
	return nil
}

func (m *mockUsageStatusRepository) FindByID(ctx context.Context, id string) (*domain.UsageStatus, error) {
	return m.findByIDResult, m.findByIDErr
}

func (m *mockUsageStatusRepository) FindAll(ctx context.Context) ([]*domain.UsageStatus, error) {
	return m.findAllResult, m.findAllErr
}

// mockRuleRepository はテスト用のモックリポジトリ。
type mockRuleRepository struct {
	createErr     error
	findAllResult []*domain.Rule
	findAllErr    error
	existsResult  bool
	existsErr     error
	createdRules  []*domain.Rule
}

func (m *mockRuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.createdRules = append(m.createdRules, rule)
	return nil
}

func (m *mockRuleRepository) FindAll(ctx context.Context) ([]*domain.Rule, error) {
	return m.findAllResult, m.findAllErr
}

func (m *mockRuleRepository) CheckExists(ctx context.Context, srcSystemTypeID *string, dstSystemTypeID, dstUsageStatusID string) (bool, error) {
	return m.existsResult, m.existsErr
}

// mockSettingRepository はテスト用のモックリポジトリ。
type mockSettingRepository struct {
	log        *callLog
	definition *domain.SparesDefinition
	getErr     error
	upsertErr  error
}

func (m *mockSettingRepository) GetSparesDefinition(ctx context.Context) (*domain.SparesDefinition, error) {
	return m.definition, m.getErr
}

func (m *mockSettingRepository) UpsertSparesDefinition(ctx context.Context, definition *domain.SparesDefinition) error {
	if m.log != nil {
		m.log.add("upsert_definition")
	}
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.definition = definition
	return nil
}

// loopRetrier は書き込み競合をその場でリトライするテスト用リトライヤ。
type loopRetrier struct {
	maxAttempts int
	attempts    int
}

func (r *loopRetrier) Do(ctx context.Context, fn func() error) error {
	limit := r.maxAttempts
	if limit == 0 {
		limit = 10
	}
	for {
		r.attempts++
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrWriteConflict) || r.attempts >= limit {
			return err
		}
	}
}

type itemFixture struct {
	items          *mockItemRepository
	catalogueItems *mockCatalogueItemRepository
	systems        *mockSystemRepository
	systemTypes    *mockSystemTypeRepository
	usageStatuses  *mockUsageStatusRepository
	rules          *mockRuleRepository
	settings       *mockSettingRepository
	runner         *mockTxRunner
	retrier        *loopRetrier
	log            *callLog
}

const (
	testCatalogueItemID = "65f000000000000000000001"
	testSrcSystemID     = "65f000000000000000000002"
	testDstSystemID     = "65f000000000000000000003"
	testUsageStatusID   = "65f000000000000000000004"
	testItemID          = "65f000000000000000000005"
	testSystemTypeID    = "65f000000000000000000006"
)

func newItemFixture(t *testing.T, definition *domain.SparesDefinition) (*ItemService, *itemFixture) {
	t.Helper()

	log := &callLog{}
	f := &itemFixture{
		items: &mockItemRepository{
			log:          log,
			countResults: map[string]int{testCatalogueItemID: 2},
		},
		catalogueItems: &mockCatalogueItemRepository{
			log:            log,
			findByIDResult: &domain.CatalogueItem{ID: testCatalogueItemID},
		},
		systems: &mockSystemRepository{
			log: log,
			findByIDResult: map[string]*domain.System{
				testSrcSystemID: {ID: testSrcSystemID, TypeID: testSystemTypeID},
				testDstSystemID: {ID: testDstSystemID, TypeID: testSystemTypeID},
			},
		},
		usageStatuses: &mockUsageStatusRepository{
			findByIDResult: &domain.UsageStatus{ID: testUsageStatusID, Value: "In Use"},
		},
		rules:    &mockRuleRepository{existsResult: true},
		settings: &mockSettingRepository{log: log, definition: definition},
		runner:   &mockTxRunner{log: log},
		retrier:  &loopRetrier{},
		log:      log,
	}
	svc := NewItemService(f.items, f.catalogueItems, f.systems, f.usageStatuses, f.rules, f.settings, f.runner, f.retrier)
	return svc, f
}

func TestItemService_CreateItem_NoDefinitionFastPath(t *testing.T) {
	svc, f := newItemFixture(t, nil)

	item := &domain.Item{
		CatalogueItemID: testCatalogueItemID,
		SystemID:        testDstSystemID,
		UsageStatusID:   testUsageStatusID,
	}
	if err := svc.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 定義未設定時はトランザクションも再計算も行わない
	if len(f.runner.labels) != 0 {
		t.Errorf("want no transactions, got %d", len(f.runner.labels))
	}
	if len(f.catalogueItems.updateSparesIDs) != 0 {
		t.Errorf("want no spares updates, got %d", len(f.catalogueItems.updateSparesIDs))
	}
	if len(f.items.createdItems) != 1 {
		t.Errorf("want 1 created item, got %d", len(f.items.createdItems))
	}
}

func TestItemService_CreateItem_RecalculatesSpares(t *testing.T) {
	definition := &domain.SparesDefinition{SystemTypeIDs: []string{testSystemTypeID}}
	svc, f := newItemFixture(t, definition)

	item := &domain.Item{
		CatalogueItemID: testCatalogueItemID,
		SystemID:        testDstSystemID,
		UsageStatusID:   testUsageStatusID,
	}
	if err := svc.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ロック → 変更 → 数え直し → 書き込みの順で1トランザクション内に実行される
	want := []string{
		"tx_begin",
		"update_spares:" + testCatalogueItemID + ":nil",
		"lock_system:" + testDstSystemID,
		"create_item",
		"count:" + testCatalogueItemID,
		"update_spares:" + testCatalogueItemID + ":2",
		"tx_commit",
	}
	if len(f.log.entries) != len(want) {
		t.Fatalf("want call sequence %v, got %v", want, f.log.entries)
	}
	for i, entry := range want {
		if f.log.entries[i] != entry {
			t.Errorf("position %d: want %s, got %s", i, entry, f.log.entries[i])
		}
	}
}

func TestItemService_CreateItem_RuleNotAllowed(t *testing.T) {
	svc, f := newItemFixture(t, nil)
	f.rules.existsResult = false

	item := &domain.Item{
		CatalogueItemID: testCatalogueItemID,
		SystemID:        testDstSystemID,
		UsageStatusID:   testUsageStatusID,
	}
	err := svc.CreateItem(context.Background(), item)
	if !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("want ErrInvalidAction, got %v", err)
	}
	if len(f.items.createdItems) != 0 {
		t.Errorf("want no created items, got %d", len(f.items.createdItems))
	}
}

func TestItemService_CreateItem_MissingCatalogueItem(t *testing.T) {
	svc, f := newItemFixture(t, nil)
	f.catalogueItems.findByIDResult = nil

	item := &domain.Item{
		CatalogueItemID: testCatalogueItemID,
		SystemID:        testDstSystemID,
		UsageStatusID:   testUsageStatusID,
	}
	err := svc.CreateItem(context.Background(), item)
	if !errors.Is(err, domain.ErrMissingRecord) {
		t.Fatalf("want ErrMissingRecord, got %v", err)
	}
}

func TestItemService_CreateItem_RetriesOnWriteConflict(t *testing.T) {
	definition := &domain.SparesDefinition{SystemTypeIDs: []string{testSystemTypeID}}
	svc, f := newItemFixture(t, definition)
	// 最初のロック取得が競合し、2回目の試行で成功する
	f.catalogueItems.updateSparesErrs = []error{domain.ErrWriteConflict}

	item := &domain.Item{
		CatalogueItemID: testCatalogueItemID,
		SystemID:        testDstSystemID,
		UsageStatusID:   testUsageStatusID,
	}
	if err := svc.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.retrier.attempts != 2 {
		t.Errorf("want 2 attempts, got %d", f.retrier.attempts)
	}
	if len(f.items.createdItems) != 1 {
		t.Errorf("want 1 created item, got %d", len(f.items.createdItems))
	}
}

func TestItemService_CreateItem_WriteConflictExhausted(t *testing.T) {
	definition := &domain.SparesDefinition{SystemTypeIDs: []string{testSystemTypeID}}
	svc, f := newItemFixture(t, definition)
	f.retrier.maxAttempts = 3
	f.catalogueItems.updateSparesErrs = []error{
		domain.ErrWriteConflict,
		domain.ErrWriteConflict,
		domain.ErrWriteConflict,
	}

	item := &domain.Item{
		CatalogueItemID: testCatalogueItemID,
		SystemID:        testDstSystemID,
		UsageStatusID:   testUsageStatusID,
	}
	err := svc.CreateItem(context.Background(), item)
	if !errors.Is(err, domain.ErrWriteConflict) {
		t.Fatalf("want ErrWriteConflict after exhausted retries, got %v", err)
	}
	if len(f.items.createdItems) != 0 {
		t.Errorf("want no created items, got %d", len(f.items.createdItems))
	}
}

func TestItemService_MoveItem_LocksDestinationSystem(t *testing.T) {
	definition := &domain.SparesDefinition{SystemTypeIDs: []string{testSystemTypeID}}
	svc, f := newItemFixture(t, definition)
	f.items.findByIDResult = &domain.Item{
		ID:              testItemID,
		CatalogueItemID: testCatalogueItemID,
		SystemID:        testSrcSystemID,
		UsageStatusID:   testUsageStatusID,
	}

	if err := svc.MoveItem(context.Background(), testItemID, testDstSystemID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"tx_begin",
		"update_spares:" + testCatalogueItemID + ":nil",
		"lock_system:" + testDstSystemID,
		"move_item:" + testItemID + ":" + testDstSystemID,
		"count:" + testCatalogueItemID,
		"update_spares:" + testCatalogueItemID + ":2",
		"tx_commit",
	}
	if len(f.log.entries) != len(want) {
		t.Fatalf("want call sequence %v, got %v", want, f.log.entries)
	}
	for i, entry := range want {
		if f.log.entries[i] != entry {
			t.Errorf("position %d: want %s, got %s", i, entry, f.log.entries[i])
		}
	}
}

func TestItemService_MoveItem_NotFound(t *testing.T) {
	svc, _ := newItemFixture(t, nil)

	err := svc.MoveItem(context.Background(), testItemID, testDstSystemID)
	if !errors.Is(err, domain.ErrMissingRecord) {
		t.Fatalf("want ErrMissingRecord, got %v", err)
	}
}

func TestItemService_DeleteItem_NoDestinationLock(t *testing.T) {
	definition := &domain.SparesDefinition{SystemTypeIDs: []string{testSystemTypeID}}
	svc, f := newItemFixture(t, definition)
	f.items.findByIDResult = &domain.Item{
		ID:              testItemID,
		CatalogueItemID: testCatalogueItemID,
		SystemID:        testSrcSystemID,
		UsageStatusID:   testUsageStatusID,
	}

	if err := svc.DeleteItem(context.Background(), testItemID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 削除では移動先システムのロックは不要
	want := []string{
		"tx_begin",
		"update_spares:" + testCatalogueItemID + ":nil",
		"delete_item:" + testItemID,
		"count:" + testCatalogueItemID,
		"update_spares:" + testCatalogueItemID + ":2",
		"tx_commit",
	}
	if len(f.log.entries) != len(want) {
		t.Fatalf("want call sequence %v, got %v", want, f.log.entries)
	}
	for i, entry := range want {
		if f.log.entries[i] != entry {
			t.Errorf("position %d: want %s, got %s", i, entry, f.log.entries[i])
		}
	}
}

func TestItemService_GetItem_NotFound(t *testing.T) {
	svc, _ := newItemFixture(t, nil)

	_, err := svc.GetItem(context.Background(), testItemID)
	if !errors.Is(err, domain.ErrMissingRecord) {
		t.Fatalf("want ErrMissingRecord, got %v", err)
	}
}
