// Package migrations はデータベーススキーマのマイグレーションを定義する。
//
// 各マイグレーションは `<14桁タイムスタンプ>_<スラッグ>` という名前のファイルとして
// このパッケージに追加し、init関数でregisterに登録する。タイムスタンプ接頭辞により
// 名前の辞書順が時系列順と一致する。
package migrations

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"inventory-management-service/internal/domain"
)

// Migration は前進・後退の両方向を持つ1つのスキーマ変更を表す。
// ForwardAfterTransaction/BackwardAfterTransactionはトランザクション内で実行できない
// 操作(コレクションの削除など)のための後処理であり、コミット後に呼ばれる。
type Migration interface {
	Description() string
	Forward(ctx context.Context) error
	Backward(ctx context.Context) error
	ForwardAfterTransaction(ctx context.Context) error
	BackwardAfterTransaction(ctx context.Context) error
}

// Factory はデータベースハンドルからマイグレーションを生成する。
type Factory func(db *mongo.Database) Migration

var migrationNameRegexp = regexp.MustCompile(`^\d{14}_[a-z0-9_]+$`)

var registry = map[string]Factory{}

// register はマイグレーションを登録する。名前の重複と形式不正は作成時のミスのため
// panicで検出する。
func register(name string, factory Factory) {
	if !migrationNameRegexp.MatchString(name) {
		panic(fmt.Sprintf("migrations: invalid migration name %q", name))
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("migrations: duplicate migration name %q", name))
	}
	registry[name] = factory
}

// Registry は登録済みマイグレーションの探索と読み込みを提供する。
type Registry struct {
	db *mongo.Database
}

// NewRegistry は新しいRegistryを生成する。
func NewRegistry(db *mongo.Database) *Registry {
	return &Registry{db: db}
}

// Available は登録済みマイグレーションの名前を昇順(=時系列順)で返す。
func (r *Registry) Available() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load は指定された名前のマイグレーションを生成して返す。
// 登録されていない場合はdomain.ErrMigrationNotFoundを返す。
func (r *Registry) Load(name string) (Migration, error) {
	factory, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrMigrationNotFound, name)
	}
	return factory(r.db), nil
}

// baseMigration は後処理を持たないマイグレーションのための埋め込み用実装。
type baseMigration struct{}

func (baseMigration) ForwardAfterTransaction(ctx context.Context) error  { return nil }
func (baseMigration) BackwardAfterTransaction(ctx context.Context) error { return nil }

// mustObjectID は既知の16進数文字列からObjectIDを生成する。
// マイグレーションが投入する固定マスタのIDに使用する。
func mustObjectID(hex string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic(fmt.Sprintf("migrations: invalid ObjectID %q", hex))
	}
	return oid
}
