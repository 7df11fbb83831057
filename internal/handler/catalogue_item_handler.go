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

// CatalogueItemHandler はカタログアイテムのHTTPハンドラを提供する。
type CatalogueItemHandler struct {
	service *usecase.CatalogueItemService
}

// NewCatalogueItemHandler は新しいCatalogueItemHandlerを生成する。
func NewCatalogueItemHandler(service *usecase.CatalogueItemService) *CatalogueItemHandler {
	return &CatalogueItemHandler{service: service}
}

// CatalogueItemCreateRequest はカタログアイテム作成のリクエスト形式。
type CatalogueItemCreateRequest struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	ExpectedLifetimeDays *int   `json:"expected_lifetime_days"`
}

// CatalogueItemResponse はカタログアイテムのレスポンス形式。
type CatalogueItemResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	ExpectedLifetimeDays *int   `json:"expected_lifetime_days"`
	NumberOfSpares       *int   `json:"number_of_spares"`
	CreatedTime          string `json:"created_time"`
	ModifiedTime         string `json:"modified_time"`
}

// CatalogueItemListResponse はカタログアイテム一覧のレスポンス形式。
type CatalogueItemListResponse struct {
	CatalogueItems []CatalogueItemResponse `json:"catalogue_items"`
}

func toCatalogueItemResponse(catalogueItem *domain.CatalogueItem) CatalogueItemResponse {
	return CatalogueItemResponse{
		ID:                   catalogueItem.ID,
		Name:                 catalogueItem.Name,
		Description:          catalogueItem.Description,
		ExpectedLifetimeDays: catalogueItem.ExpectedLifetimeDays,
		NumberOfSpares:       catalogueItem.NumberOfSpares,
		CreatedTime:          catalogueItem.CreatedTime.Format(time.RFC3339),
		ModifiedTime:         catalogueItem.ModifiedTime.Format(time.RFC3339),
	}
}

// CreateCatalogueItem は新しいカタログアイテムを作成する。
func (h *CatalogueItemHandler) CreateCatalogueItem(w http.ResponseWriter, r *http.Request) {
	var req CatalogueItemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	catalogueItem := &domain.CatalogueItem{
		Name:                 req.Name,
		Description:          req.Description,
		ExpectedLifetimeDays: req.ExpectedLifetimeDays,
	}
	if err := h.service.CreateCatalogueItem(r.Context(), catalogueItem); err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_CATALOGUE_ITEM", "catalogue_item", "", "FAILED")
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_CATALOGUE_ITEM", "catalogue_item", catalogueItem.ID, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, toCatalogueItemResponse(catalogueItem))
}

// GetCatalogueItem は指定されたIDのカタログアイテムを取得する。
func (h *CatalogueItemHandler) GetCatalogueItem(w http.ResponseWriter, r *http.Request) {
	catalogueItemID := chi.URLParam(r, "catalogue_item_id")

	catalogueItem, err := h.service.GetCatalogueItem(r.Context(), catalogueItemID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingRecord) || errors.Is(err, domain.ErrInvalidObjectID) {
			httputil.Error(w, http.StatusNotFound, "CATALOGUE_ITEM_NOT_FOUND", "catalogue item not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, toCatalogueItemResponse(catalogueItem))
}

// ListCatalogueItems はカタログアイテム一覧を取得する。
func (h *CatalogueItemHandler) ListCatalogueItems(w http.ResponseWriter, r *http.Request) {
	catalogueItems, err := h.service.ListCatalogueItems(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response := CatalogueItemListResponse{
		CatalogueItems: make([]CatalogueItemResponse, len(catalogueItems)),
	}
	for i, catalogueItem := range catalogueItems {
		response.CatalogueItems[i] = toCatalogueItemResponse(catalogueItem)
	}
	httputil.JSON(w, http.StatusOK, response)
}
