package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	register("20241125102300_number_of_spares", func(db *mongo.Database) Migration {
		return &numberOfSparesMigration{db: db}
	})
}

// numberOfSparesMigration はカタログアイテムにnumber_of_sparesフィールドを追加する。
// 値はスペア定義が設定されるまでnullのまま維持される。
type numberOfSparesMigration struct {
	baseMigration
	db *mongo.Database
}

func (m *numberOfSparesMigration) Description() string {
	return "Adds number_of_spares to all catalogue items"
}

func (m *numberOfSparesMigration) Forward(ctx context.Context) error {
	_, err := m.db.Collection("catalogue_items").UpdateMany(ctx,
		bson.M{"number_of_spares": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"number_of_spares": nil}},
	)
	return err
}

func (m *numberOfSparesMigration) Backward(ctx context.Context) error {
	_, err := m.db.Collection("catalogue_items").UpdateMany(ctx,
		bson.M{},
		bson.M{"$unset": bson.M{"number_of_spares": ""}},
	)
	return err
}
