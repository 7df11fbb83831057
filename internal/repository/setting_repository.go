package repository

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"inventory-management-service/internal/domain"
)

// settingsCollection は設定のコレクション名。
const settingsCollection = "settings"

// sparesDefinitionSettingID はスペア定義ドキュメントの固定ID。
// 設定はエンティティごとに1ドキュメントのシングルトンとして保存される。
const sparesDefinitionSettingID = "spares_definition"

// SparesDefinitionModel はMongoDB用のモデル定義。
type SparesDefinitionModel struct {
	ID            string               `bson:"_id"`
	SystemTypeIDs []primitive.ObjectID `bson:"system_type_ids"`
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *SparesDefinitionModel) toDomain() *domain.SparesDefinition {
	ids := make([]string, len(m.SystemTypeIDs))
	for i, oid := range m.SystemTypeIDs {
		ids[i] = oid.Hex()
	}
	return &domain.SparesDefinition{SystemTypeIDs: ids}
}

// SettingRepository は設定のデータアクセスを提供する。
type SettingRepository struct {
	collection *mongo.Collection
}

// NewSettingRepository は新しいSettingRepositoryを生成する。
func NewSettingRepository(db *mongo.Database) *SettingRepository {
	return &SettingRepository{collection: db.Collection(settingsCollection)}
}

// GetSparesDefinition はスペア定義を取得する。未設定の場合はnilを返す。
func (r *SettingRepository) GetSparesDefinition(ctx context.Context) (*domain.SparesDefinition, error) {
	var model SparesDefinitionModel
	err := r.collection.FindOne(ctx, bson.M{"_id": sparesDefinitionSettingID}).Decode(&model)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to get spares definition",
			"operation", "get_spares_definition",
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// UpsertSparesDefinition はスペア定義を全体置換で保存する。
func (r *SettingRepository) UpsertSparesDefinition(ctx context.Context, definition *domain.SparesDefinition) error {
	oids, err := parseObjectIDs(definition.SystemTypeIDs)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": sparesDefinitionSettingID},
		bson.M{"$set": bson.M{"system_type_ids": oids}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert spares definition",
			"operation", "upsert_spares_definition",
			"error", err,
		)
		return err
	}
	return nil
}
