package repository

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"inventory-management-service/internal/domain"
)

// systemTypesCollection はシステムタイプのコレクション名。
const systemTypesCollection = "system_types"

// SystemTypeModel はMongoDB用のモデル定義。
type SystemTypeModel struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Value string             `bson:"value"`
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *SystemTypeModel) toDomain() *domain.SystemType {
	return &domain.SystemType{
		ID:    m.ID.Hex(),
		Value: m.Value,
	}
}

// SystemTypeRepository はシステムタイプのデータアクセスを提供する。
// システムタイプはマイグレーションで投入される固定マスタであり、書き込みAPIは持たない。
type SystemTypeRepository struct {
	collection *mongo.Collection
}

// NewSystemTypeRepository は新しいSystemTypeRepositoryを生成する。
func NewSystemTypeRepository(db *mongo.Database) *SystemTypeRepository {
	return &SystemTypeRepository{collection: db.Collection(systemTypesCollection)}
}

// FindByID は指定されたIDのシステムタイプを取得する。存在しない場合はnilを返す。
func (r *SystemTypeRepository) FindByID(ctx context.Context, id string) (*domain.SystemType, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var model SystemTypeModel
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&model); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find system type",
			"operation", "find_by_id",
			"system_type_id", id,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAll は全システムタイプを取得する。
func (r *SystemTypeRepository) FindAll(ctx context.Context) ([]*domain.SystemType, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to find system types",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []SystemTypeModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	systemTypes := make([]*domain.SystemType, len(models))
	for i := range models {
		systemTypes[i] = models[i].toDomain()
	}
	return systemTypes, nil
}
