package repository

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// migrationsCollection はマイグレーション管理用のコレクション名。
const migrationsCollection = "database_migrations"

// lastMigrationDocumentID はカーソルドキュメントの固定ID。
// 最後に適用されたマイグレーション名を単一ドキュメントで保持する。
const lastMigrationDocumentID = "last_migration"

// MigrationRepository はマイグレーションカーソルを管理するリポジトリ。
type MigrationRepository struct {
	collection *mongo.Collection
}

// NewMigrationRepository は新しいMigrationRepositoryを生成する。
func NewMigrationRepository(db *mongo.Database) *MigrationRepository {
	return &MigrationRepository{collection: db.Collection(migrationsCollection)}
}

// GetLastApplied は最後に適用されたマイグレーション名を取得する。
// 一度も適用されていない場合はnilを返す。
func (r *MigrationRepository) GetLastApplied(ctx context.Context) (*string, error) {
	var doc struct {
		Name string `bson:"name"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": lastMigrationDocumentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to get last applied migration",
			"operation", "get_last_applied",
			"error", err,
		)
		return nil, err
	}
	return &doc.Name, nil
}

// SetLastApplied はカーソルを無条件に上書きする。
// nilを渡すとカーソルドキュメントを削除し、未適用状態に戻す。
func (r *MigrationRepository) SetLastApplied(ctx context.Context, name *string) error {
	if name == nil {
		_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lastMigrationDocumentID})
		if err != nil {
			slog.ErrorContext(ctx, "failed to clear last applied migration",
				"operation", "set_last_applied",
				"error", err,
			)
			return err
		}
		return nil
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": lastMigrationDocumentID},
		bson.M{"$set": bson.M{"name": *name}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set last applied migration",
			"operation", "set_last_applied",
			"name", *name,
			"error", err,
		)
		return err
	}
	return nil
}
