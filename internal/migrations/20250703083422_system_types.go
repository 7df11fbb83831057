package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	register("20250703083422_system_types", func(db *mongo.Database) Migration {
		return &systemTypesMigration{db: db}
	})
}

// systemTypesMigrationTypes はマイグレーションで投入する固定のシステムタイプ。
// IDを固定しているのは、環境間でスペア定義の設定値を揃えられるようにするため。
var systemTypesMigrationTypes = []bson.M{
	{"_id": mustObjectID("685e5dce53de8fb6d8f55d67"), "value": "operational"},
	{"_id": mustObjectID("685e5dce53de8fb6d8f55d68"), "value": "storage"},
	{"_id": mustObjectID("685e5dce53de8fb6d8f55d69"), "value": "scrapped"},
}

// systemTypesMigration はシステムタイプのマスタを導入し、既存システムに
// type_idを付与する。巻き戻し時はコレクション自体を削除するが、コレクションの
// 削除はトランザクション内で実行できないため後処理フェーズで行う。
type systemTypesMigration struct {
	baseMigration
	db *mongo.Database
}

func (m *systemTypesMigration) Description() string {
	return "Introduces system types and assigns a type to all systems"
}

func (m *systemTypesMigration) Forward(ctx context.Context) error {
	docs := make([]interface{}, len(systemTypesMigrationTypes))
	for i, doc := range systemTypesMigrationTypes {
		docs[i] = doc
	}
	if _, err := m.db.Collection("system_types").InsertMany(ctx, docs); err != nil {
		return err
	}

	// 既存システムは従来すべて運用系として扱われていたため、operationalを割り当てる
	_, err := m.db.Collection("systems").UpdateMany(ctx,
		bson.M{"type_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"type_id": systemTypesMigrationTypes[0]["_id"]}},
	)
	return err
}

func (m *systemTypesMigration) Backward(ctx context.Context) error {
	if _, err := m.db.Collection("systems").UpdateMany(ctx,
		bson.M{},
		bson.M{"$unset": bson.M{"type_id": ""}},
	); err != nil {
		return err
	}

	_, err := m.db.Collection("system_types").DeleteMany(ctx, bson.M{})
	return err
}

func (m *systemTypesMigration) BackwardAfterTransaction(ctx context.Context) error {
	return m.db.Collection("system_types").Drop(ctx)
}
