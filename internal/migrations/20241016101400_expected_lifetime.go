package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	register("20241016101400_expected_lifetime", func(db *mongo.Database) Migration {
		return &expectedLifetimeMigration{db: db}
	})
}

// expectedLifetimeMigration はカタログアイテムにexpected_lifetime_daysフィールドを追加する。
type expectedLifetimeMigration struct {
	baseMigration
	db *mongo.Database
}

func (m *expectedLifetimeMigration) Description() string {
	return "Adds expected_lifetime_days to all catalogue items"
}

func (m *expectedLifetimeMigration) Forward(ctx context.Context) error {
	_, err := m.db.Collection("catalogue_items").UpdateMany(ctx,
		bson.M{"expected_lifetime_days": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"expected_lifetime_days": nil}},
	)
	return err
}

func (m *expectedLifetimeMigration) Backward(ctx context.Context) error {
	_, err := m.db.Collection("catalogue_items").UpdateMany(ctx,
		bson.M{},
		bson.M{"$unset": bson.M{"expected_lifetime_days": ""}},
	)
	return err
}
