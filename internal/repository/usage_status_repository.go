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

// usageStatusesCollection は利用状況のコレクション名。
const usageStatusesCollection = "usage_statuses"

// UsageStatusModel はMongoDB用のモデル定義。
type UsageStatusModel struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Value        string             `bson:"value"`
	CreatedTime  time.Time          `bson:"created_time"`
	ModifiedTime time.Time          `bson:"modified_time"`
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *UsageStatusModel) toDomain() *domain.UsageStatus {
	return &domain.UsageStatus{
		ID:           m.ID.Hex(),
		Value:        m.Value,
		CreatedTime:  m.CreatedTime,
		ModifiedTime: m.ModifiedTime,
	}
}

// UsageStatusRepository は利用状況のデータアクセスを提供する。
type UsageStatusRepository struct {
	collection *mongo.Collection
}

// NewUsageStatusRepository は新しいUsageStatusRepositoryを生成する。
func NewUsageStatusRepository(db *mongo.Database) *UsageStatusRepository {
	return &UsageStatusRepository{collection: db.Collection(usageStatusesCollection)}
}

// Create は新しい利用状況を保存する。
func (r *UsageStatusRepository) Create(ctx context.Context, usageStatus *domain.UsageStatus) error {
	now := time.Now().UTC()
	model := &UsageStatusModel{
		Value:        usageStatus.Value,
		CreatedTime:  now,
		ModifiedTime: now,
	}
	result, err := r.collection.InsertOne(ctx, model)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create usage status",
			"operation", "create",
			"value", usageStatus.Value,
			"error", err,
		)
		return err
	}
	usageStatus.ID = result.InsertedID.(primitive.ObjectID).Hex()
	usageStatus.CreatedTime = now
	usageStatus.ModifiedTime = now
	return nil
}

// FindByID は指定されたIDの利用状況を取得する。存在しない場合はnilを返す。
func (r *UsageStatusRepository) FindByID(ctx context.Context, id string) (*domain.UsageStatus, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var model UsageStatusModel
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&model); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find usage status",
			"operation", "find_by_id",
			"usage_status_id", id,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAll は全利用状況を取得する。
func (r *UsageStatusRepository) FindAll(ctx context.Context) ([]*domain.UsageStatus, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to find usage statuses",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []UsageStatusModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	usageStatuses := make([]*domain.UsageStatus, len(models))
	for i := range models {
		usageStatuses[i] = models[i].toDomain()
	}
	return usageStatuses, nil
}
