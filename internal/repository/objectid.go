// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"inventory-management-service/internal/domain"
)

// parseObjectID は文字列IDをObjectIDへ変換する。
// 形式が不正な場合はdomain.ErrInvalidObjectIDを返す。
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", domain.ErrInvalidObjectID, id)
	}
	return oid, nil
}

// parseObjectIDs は文字列IDのスライスをまとめて変換する。
func parseObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, len(ids))
	for i, id := range ids {
		oid, err := parseObjectID(id)
		if err != nil {
			return nil, err
		}
		oids[i] = oid
	}
	return oids, nil
}
