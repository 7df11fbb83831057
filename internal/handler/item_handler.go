// Package handler はHTTPハンドラを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"inventory-management-service/internal/domain"
	"inventory-management-service/internal/middleware"
	"inventory-management-service/internal/usecase"
	"inventory-management-service/pkg/httputil"
)

// ItemHandler はアイテムのHTTPハンドラを提供する。
type ItemHandler struct {
	service *usecase.ItemService
}

// NewItemHandler は新しいItemHandlerを生成する。
func NewItemHandler(service *usecase.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// ItemCreateRequest はアイテム作成のリクエスト形式。
type ItemCreateRequest struct {
	CatalogueItemID string  `json:"catalogue_item_id"`
	SystemID        string  `json:"system_id"`
	UsageStatusID   string  `json:"usage_status_id"`
	SerialNumber    *string `json:"serial_number"`
	Notes           *string `json:"notes"`
}

// ItemMoveRequest はアイテム移動のリクエスト形式。
type ItemMoveRequest struct {
	SystemID string `json:"system_id"`
}

// ItemResponse はアイテムのレスポンス形式。
type ItemResponse struct {
	ID              string  `json:"id"`
	CatalogueItemID string  `json:"catalogue_item_id"`
	SystemID        string  `json:"system_id"`
	UsageStatusID   string  `json:"usage_status_id"`
	SerialNumber    *string `json:"serial_number"`
	Notes           *string `json:"notes"`
	CreatedTime     string  `json:"created_time"`
	ModifiedTime    string  `json:"modified_time"`
}

// ItemListResponse はアイテム一覧のレスポンス形式。
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

func toItemResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		CatalogueItemID: item.CatalogueItemID,
		SystemID:        item.SystemID,
		UsageStatusID:   item.UsageStatusID,
		SerialNumber:    item.SerialNumber,
		Notes:           item.Notes,
		CreatedTime:     item.CreatedTime.Format(time.RFC3339),
		ModifiedTime:    item.ModifiedTime.Format(time.RFC3339),
	}
}

// CreateItem は新しいアイテムを作成する。
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	item := &domain.Item{
		CatalogueItemID: req.CatalogueItemID,
		SystemID:        req.SystemID,
		UsageStatusID:   req.UsageStatusID,
		SerialNumber:    req.SerialNumber,
		Notes:           req.Notes,
	}
	if err := h.service.CreateItem(r.Context(), item); err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_ITEM", "item", "", "FAILED")
		writeItemError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_ITEM", "item", item.ID, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, toItemResponse(item))
}

// GetItem は指定されたIDのアイテムを取得する。
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	item, err := h.service.GetItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingRecord) || errors.Is(err, domain.ErrInvalidObjectID) {
			httputil.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "item not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, toItemResponse(item))
}

// ListItems はアイテム一覧を取得する。system_id/catalogue_item_idクエリで絞り込める。
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	var systemID, catalogueItemID *string
	if v := r.URL.Query().Get("system_id"); v != "" {
		systemID = &v
	}
	if v := r.URL.Query().Get("catalogue_item_id"); v != "" {
		catalogueItemID = &v
	}

	items, err := h.service.ListItems(r.Context(), systemID, catalogueItemID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidObjectID) {
			httputil.Error(w, http.StatusBadRequest, "INVALID_ID", "invalid ID format")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response := ItemListResponse{Items: make([]ItemResponse, len(items))}
	for i, item := range items {
		response.Items[i] = toItemResponse(item)
	}
	httputil.JSON(w, http.StatusOK, response)
}

// MoveItem はアイテムを別のシステムへ移動する。
func (h *ItemHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	var req ItemMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.MoveItem(r.Context(), itemID, req.SystemID); err != nil {
		middleware.WriteAuditLog(r.Context(), "MOVE_ITEM", "item", itemID, "FAILED")
		writeItemError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "MOVE_ITEM", "item", itemID, "SUCCESS")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem はアイテムを削除する。
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	if err := h.service.DeleteItem(r.Context(), itemID); err != nil {
		middleware.WriteAuditLog(r.Context(), "DELETE_ITEM", "item", itemID, "FAILED")
		writeItemError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "DELETE_ITEM", "item", itemID, "SUCCESS")
	w.WriteHeader(http.StatusNoContent)
}

// writeItemError はアイテム変更操作のエラーをHTTPステータスに対応付ける。
func writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidObjectID):
		httputil.Error(w, http.StatusUnprocessableEntity, "INVALID_ID", "invalid ID format")
	case errors.Is(err, domain.ErrMissingRecord):
		httputil.Error(w, http.StatusUnprocessableEntity, "MISSING_RECORD", err.Error())
	case errors.Is(err, domain.ErrInvalidAction):
		httputil.Error(w, http.StatusUnprocessableEntity, "INVALID_ACTION", err.Error())
	case errors.Is(err, domain.ErrWriteConflict):
		httputil.Error(w, http.StatusConflict, "WRITE_CONFLICT", "the operation conflicted with a concurrent update, please retry")
	default:
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
