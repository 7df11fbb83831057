package repository

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"inventory-management-service/internal/domain"
)

// rulesCollection はルールのコレクション名。
const rulesCollection = "rules"

// RuleModel はMongoDB用のモデル定義。
type RuleModel struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty"`
	SrcSystemTypeID  *primitive.ObjectID `bson:"src_system_type_id"`
	DstSystemTypeID  primitive.ObjectID  `bson:"dst_system_type_id"`
	DstUsageStatusID primitive.ObjectID  `bson:"dst_usage_status_id"`
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *RuleModel) toDomain() *domain.Rule {
	rule := &domain.Rule{
		ID:               m.ID.Hex(),
		DstSystemTypeID:  m.DstSystemTypeID.Hex(),
		DstUsageStatusID: m.DstUsageStatusID.Hex(),
	}
	if m.SrcSystemTypeID != nil {
		srcID := m.SrcSystemTypeID.Hex()
		rule.SrcSystemTypeID = &srcID
	}
	return rule
}

// RuleRepository はルールのデータアクセスを提供する。
type RuleRepository struct {
	collection *mongo.Collection
}

// NewRuleRepository は新しいRuleRepositoryを生成する。
func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{collection: db.Collection(rulesCollection)}
}

// Create は新しいルールを保存する。
func (r *RuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	dstTypeID, err := parseObjectID(rule.DstSystemTypeID)
	if err != nil {
		return err
	}
	dstUsageStatusID, err := parseObjectID(rule.DstUsageStatusID)
	if err != nil {
		return err
	}

	var srcTypeOID *primitive.ObjectID
	if rule.SrcSystemTypeID != nil {
		oid, err := parseObjectID(*rule.SrcSystemTypeID)
		if err != nil {
			return err
		}
		srcTypeOID = &oid
	}

	model := &RuleModel{
		SrcSystemTypeID:  srcTypeOID,
		DstSystemTypeID:  dstTypeID,
		DstUsageStatusID: dstUsageStatusID,
	}
	result, err := r.collection.InsertOne(ctx, model)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create rule",
			"operation", "create",
			"error", err,
		)
		return err
	}
	rule.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// FindAll は全ルールを取得する。
func (r *RuleRepository) FindAll(ctx context.Context) ([]*domain.Rule, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to find rules",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []RuleModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	rules := make([]*domain.Rule, len(models))
	for i := range models {
		rules[i] = models[i].toDomain()
	}
	return rules, nil
}

// CheckExists は指定された移動元タイプ・移動先タイプ・移動先利用状況の組を
// 許可するルールが存在するか確認する。srcSystemTypeIDがnilの場合は新規作成ルールを探す。
func (r *RuleRepository) CheckExists(ctx context.Context, srcSystemTypeID *string, dstSystemTypeID, dstUsageStatusID string) (bool, error) {
	dstTypeOID, err := parseObjectID(dstSystemTypeID)
	if err != nil {
		return false, err
	}
	dstUsageStatusOID, err := parseObjectID(dstUsageStatusID)
	if err != nil {
		return false, err
	}

	query := bson.M{
		"dst_system_type_id":  dstTypeOID,
		"dst_usage_status_id": dstUsageStatusOID,
	}
	if srcSystemTypeID != nil {
		srcTypeOID, err := parseObjectID(*srcSystemTypeID)
		if err != nil {
			return false, err
		}
		query["src_system_type_id"] = srcTypeOID
	} else {
		query["src_system_type_id"] = nil
	}

	count, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check rule existence",
			"operation", "check_exists",
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}
