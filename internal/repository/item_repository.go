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

// itemsCollection はアイテムのコレクション名。
const itemsCollection = "items"

// ItemModel はMongoDB用のモデル定義。
type ItemModel struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	CatalogueItemID primitive.ObjectID `bson:"catalogue_item_id"`
	SystemID        primitive.ObjectID `bson:"system_id"`
	UsageStatusID   primitive.ObjectID `bson:"usage_status_id"`
	SerialNumber    *string            `bson:"serial_number"`
	Notes           *string            `bson:"notes,omitempty"`
	CreatedTime     time.Time          `bson:"created_time"`
	ModifiedTime    time.Time          `bson:"modified_time"`
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *ItemModel) toDomain() *domain.Item {
	return &domain.Item{
		ID:              m.ID.Hex(),
		CatalogueItemID: m.CatalogueItemID.Hex(),
		SystemID:        m.SystemID.Hex(),
		UsageStatusID:   m.UsageStatusID.Hex(),
		SerialNumber:    m.SerialNumber,
		Notes:           m.Notes,
		CreatedTime:     m.CreatedTime,
		ModifiedTime:    m.ModifiedTime,
	}
}

// ItemRepository はアイテムのデータアクセスを提供する。
type ItemRepository struct {
	collection *mongo.Collection
}

// NewItemRepository は新しいItemRepositoryを生成する。
func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{collection: db.Collection(itemsCollection)}
}

// Create は新しいアイテムを保存する。
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	catalogueItemID, err := parseObjectID(item.CatalogueItemID)
	if err != nil {
		return err
	}
	systemID, err := parseObjectID(item.SystemID)
	if err != nil {
		return err
	}
	usageStatusID, err := parseObjectID(item.UsageStatusID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	model := &ItemModel{
		CatalogueItemID: catalogueItemID,
		SystemID:        systemID,
		UsageStatusID:   usageStatusID,
		SerialNumber:    item.SerialNumber,
		Notes:           item.Notes,
		CreatedTime:     now,
		ModifiedTime:    now,
	}
	result, err := r.collection.InsertOne(ctx, model)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create item",
			"operation", "create",
			"catalogue_item_id", item.CatalogueItemID,
			"system_id", item.SystemID,
			"error", err,
		)
		return err
	}
	item.ID = result.InsertedID.(primitive.ObjectID).Hex()
	item.CreatedTime = now
	item.ModifiedTime = now
	return nil
}

// FindByID は指定されたIDのアイテムを取得する。存在しない場合はnilを返す。
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var model ItemModel
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&model); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find item",
			"operation", "find_by_id",
			"item_id", id,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAll はアイテムを取得する。systemID/catalogueItemIDによる絞り込みが可能。
func (r *ItemRepository) FindAll(ctx context.Context, systemID, catalogueItemID *string) ([]*domain.Item, error) {
	query := bson.M{}
	if systemID != nil {
		oid, err := parseObjectID(*systemID)
		if err != nil {
			return nil, err
		}
		query["system_id"] = oid
	}
	if catalogueItemID != nil {
		oid, err := parseObjectID(*catalogueItemID)
		if err != nil {
			return nil, err
		}
		query["catalogue_item_id"] = oid
	}

	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "failed to find items",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []ItemModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	items := make([]*domain.Item, len(models))
	for i := range models {
		items[i] = models[i].toDomain()
	}
	return items, nil
}

// UpdateSystemID はアイテムの所属システムを変更する。
func (r *ItemRepository) UpdateSystemID(ctx context.Context, id, systemID string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	systemOID, err := parseObjectID(systemID)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"system_id":     systemOID,
			"modified_time": time.Now().UTC(),
		}},
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update item system",
			"operation", "update_system_id",
			"item_id", id,
			"system_id", systemID,
			"error", err,
		)
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrMissingRecord
	}
	return nil
}

// Delete は指定されたIDのアイテムを削除する。
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete item",
			"operation", "delete",
			"item_id", id,
			"error", err,
		)
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrMissingRecord
	}
	return nil
}

// CountInCatalogueItemWithSystemTypeOneOf は指定されたカタログアイテムに属するアイテムのうち、
// 所属システムのタイプが指定されたシステムタイプのいずれかに一致するものを数える。
// スペア数の再計算に使用する。
func (r *ItemRepository) CountInCatalogueItemWithSystemTypeOneOf(ctx context.Context, catalogueItemID string, systemTypeIDs []string) (int, error) {
	catalogueItemOID, err := parseObjectID(catalogueItemID)
	if err != nil {
		return 0, err
	}
	systemTypeOIDs, err := parseObjectIDs(systemTypeIDs)
	if err != nil {
		return 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"catalogue_item_id": catalogueItemOID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         systemsCollection,
			"localField":   "system_id",
			"foreignField": "_id",
			"as":           "system",
		}}},
		{{Key: "$unwind", Value: "$system"}},
		{{Key: "$match", Value: bson.M{"system.type_id": bson.M{"$in": systemTypeOIDs}}}},
		{{Key: "$count", Value: "count"}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count items by system type",
			"operation", "count_in_catalogue_item_with_system_type_one_of",
			"catalogue_item_id", catalogueItemID,
			"error", err,
		)
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Count, nil
}
