// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AuditLog は監査ログの構造体。
type AuditLog struct {
	EventID    string `json:"event_id"`
	Operation  string `json:"operation"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id,omitempty"`
	Result     string `json:"result"`
	Timestamp  string `json:"timestamp"`
}

// WriteAuditLog は監査ログを出力する。
func WriteAuditLog(ctx context.Context, operation string, entityType string, entityID string, result string) {
	slog.InfoContext(ctx, "inventory operation completed",
		"event_id", uuid.NewString(),
		"operation", operation,
		"entity_type", entityType,
		"entity_id", entityID,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
