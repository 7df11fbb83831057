package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"inventory-management-service/internal/domain"
)

// systemsCollection はシステムのコレクション名。
const systemsCollection = "systems"

// SystemModel はMongoDB用のモデル定義。
type SystemModel struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	ParentID     *primitive.ObjectID `bson:"parent_id"`
	TypeID       primitive.ObjectID  `bson:"type_id"`
	Name         string              `bson:"name"`
	Description  string              `bson:"description"`
	Code         string              `bson:"code"`
	CreatedTime  time.Time           `bson:"created_time"`
	ModifiedTime time.Time           `bson:"modified_time"`
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *SystemModel) toDomain() *domain.System {
	system := &domain.System{
		ID:           m.ID.Hex(),
		TypeID:       m.TypeID.Hex(),
		Name:         m.Name,
		Description:  m.Description,
		Code:         m.Code,
		CreatedTime:  m.CreatedTime,
		ModifiedTime: m.ModifiedTime,
	}
	if m.ParentID != nil {
		parentID := m.ParentID.Hex()
		system.ParentID = &parentID
	}
	return system
}

// SystemRepository はシステムのデータアクセスを提供する。
type SystemRepository struct {
	collection *mongo.Collection
}

// NewSystemRepository は新しいSystemRepositoryを生成する。
func NewSystemRepository(db *mongo.Database) *SystemRepository {
	return &SystemRepository{collection: db.Collection(systemsCollection)}
}

// Create は新しいシステムを保存する。
func (r *SystemRepository) Create(ctx context.Context, system *domain.System) error {
	typeID, err := parseObjectID(system.TypeID)
	if err != nil {
		return err
	}

	var parentOID *primitive.ObjectID
	if system.ParentID != nil {
		oid, err := parseObjectID(*system.ParentID)
		if err != nil {
			return err
		}
		parentOID = &oid
	}

	now := time.Now().UTC()
	model := &SystemModel{
		ParentID:     parentOID,
		TypeID:       typeID,
		Name:         system.Name,
		Description:  system.Description,
		Code:         system.Code,
		CreatedTime:  now,
		ModifiedTime: now,
	}
	result, err := r.collection.InsertOne(ctx, model)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create system",
			"operation", "create",
			"name", system.Name,
			"error", err,
		)
		return err
	}
	system.ID = result.InsertedID.(primitive.ObjectID).Hex()
	system.CreatedTime = now
	system.ModifiedTime = now
	return nil
}

// FindByID は指定されたIDのシステムを取得する。存在しない場合はnilを返す。
func (r *SystemRepository) FindByID(ctx context.Context, id string) (*domain.System, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var model SystemModel
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&model); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find system",
			"operation", "find_by_id",
			"system_id", id,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAll は全システムを取得する。
func (r *SystemRepository) FindAll(ctx context.Context) ([]*domain.System, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to find systems",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []SystemModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	systems := make([]*domain.System, len(models))
	for i := range models {
		systems[i] = models[i].toDomain()
	}
	return systems, nil
}

// WriteLock はシステムのドキュメントに同値のmodified_timeを書き戻す。
// データは変化しないが、トランザクション内で書き込みとして記録されるため、
// 同じシステムに触れる並行トランザクションに書き込み競合を発生させる。
// アイテム移動中にシステムタイプが変更されてカウントがずれるのを防ぐ。
func (r *SystemRepository) WriteLock(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	var model SystemModel
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&model); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrMissingRecord
		}
		return err
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"modified_time": model.ModifiedTime}},
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to write lock system",
			"operation", "write_lock",
			"system_id", id,
			"error", err,
		)
		return err
	}
	return nil
}
