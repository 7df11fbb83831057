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

// catalogueItemsCollection はカタログアイテムのコレクション名。
const catalogueItemsCollection = "catalogue_items"

// CatalogueItemModel はMongoDB用のモデル定義。
type CatalogueItemModel struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	Name                 string             `bson:"name"`
	Description          string             `bson:"description"`
	ExpectedLifetimeDays *int               `bson:"expected_lifetime_days,omitempty"`
	NumberOfSpares       *int               `bson:"number_of_spares"`
	CreatedTime          time.Time          `bson:"created_time"`
	ModifiedTime         time.Time          `bson:"modified_time"`
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *CatalogueItemModel) toDomain() *domain.CatalogueItem {
	return &domain.CatalogueItem{
		ID:                   m.ID.Hex(),
		Name:                 m.Name,
		Description:          m.Description,
		ExpectedLifetimeDays: m.ExpectedLifetimeDays,
		NumberOfSpares:       m.NumberOfSpares,
		CreatedTime:          m.CreatedTime,
		ModifiedTime:         m.ModifiedTime,
	}
}

// CatalogueItemRepository はカタログアイテムのデータアクセスを提供する。
type CatalogueItemRepository struct {
	collection *mongo.Collection
}

// NewCatalogueItemRepository は新しいCatalogueItemRepositoryを生成する。
func NewCatalogueItemRepository(db *mongo.Database) *CatalogueItemRepository {
	return &CatalogueItemRepository{collection: db.Collection(catalogueItemsCollection)}
}

// Create は新しいカタログアイテムを保存する。
// NumberOfSparesは再計算プロトコルの管理下にあるため、作成時はnilのまま保存する。
func (r *CatalogueItemRepository) Create(ctx context.Context, catalogueItem *domain.CatalogueItem) error {
	now := time.Now().UTC()
	model := &CatalogueItemModel{
		Name:                 catalogueItem.Name,
		Description:          catalogueItem.Description,
		ExpectedLifetimeDays: catalogueItem.ExpectedLifetimeDays,
		NumberOfSpares:       nil,
		CreatedTime:          now,
		ModifiedTime:         now,
	}
	result, err := r.collection.InsertOne(ctx, model)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create catalogue item",
			"operation", "create",
			"name", catalogueItem.Name,
			"error", err,
		)
		return err
	}
	catalogueItem.ID = result.InsertedID.(primitive.ObjectID).Hex()
	catalogueItem.NumberOfSpares = nil
	catalogueItem.CreatedTime = now
	catalogueItem.ModifiedTime = now
	return nil
}

// FindByID は指定されたIDのカタログアイテムを取得する。存在しない場合はnilを返す。
func (r *CatalogueItemRepository) FindByID(ctx context.Context, id string) (*domain.CatalogueItem, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var model CatalogueItemModel
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&model); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find catalogue item",
			"operation", "find_by_id",
			"catalogue_item_id", id,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAll は全カタログアイテムを取得する。
func (r *CatalogueItemRepository) FindAll(ctx context.Context) ([]*domain.CatalogueItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to find catalogue items",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []CatalogueItemModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	catalogueItems := make([]*domain.CatalogueItem, len(models))
	for i := range models {
		catalogueItems[i] = models[i].toDomain()
	}
	return catalogueItems, nil
}

// ListIDs は全カタログアイテムのIDを取得する。
// スペア定義変更時の一括再計算で走査対象を列挙するために使用する。
func (r *CatalogueItemRepository) ListIDs(ctx context.Context) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to list catalogue item ids",
			"operation", "list_ids",
			"error", err,
		)
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID.Hex()
	}
	return ids, nil
}

// UpdateNumberOfSpares はカタログアイテムのスペア数を更新する。
// トランザクション内で先にnilを書き込むことで書き込みロックとしても機能し、
// 同一カタログアイテムに対する並行再計算を直列化する。
func (r *CatalogueItemRepository) UpdateNumberOfSpares(ctx context.Context, id string, numberOfSpares *int) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"number_of_spares": numberOfSpares}},
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update number of spares",
			"operation", "update_number_of_spares",
			"catalogue_item_id", id,
			"error", err,
		)
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrMissingRecord
	}
	return nil
}
