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

// SystemHandler はシステムとシステムタイプのHTTPハンドラを提供する。
type SystemHandler struct {
	service *usecase.SystemService
}

// NewSystemHandler は新しいSystemHandlerを生成する。
func NewSystemHandler(service *usecase.SystemService) *SystemHandler {
	return &SystemHandler{service: service}
}

// SystemCreateRequest はシステム作成のリクエスト形式。
type SystemCreateRequest struct {
	ParentID    *string `json:"parent_id"`
	TypeID      string  `json:"type_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

// SystemResponse はシステムのレスポンス形式。
type SystemResponse struct {
	ID           string  `json:"id"`
	ParentID     *string `json:"parent_id"`
	TypeID       string  `json:"type_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Code         string  `json:"code"`
	CreatedTime  string  `json:"created_time"`
	ModifiedTime string  `json:"modified_time"`
}

// SystemListResponse はシステム一覧のレスポンス形式。
type SystemListResponse struct {
	Systems []SystemResponse `json:"systems"`
}

// SystemTypeResponse はシステムタイプのレスポンス形式。
type SystemTypeResponse struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// SystemTypeListResponse はシステムタイプ一覧のレスポンス形式。
type SystemTypeListResponse struct {
	SystemTypes []SystemTypeResponse `json:"system_types"`
}

func toSystemResponse(system *domain.System) SystemResponse {
	return SystemResponse{
		ID:           system.ID,
		ParentID:     system.ParentID,
		TypeID:       system.TypeID,
		Name:         system.Name,
		Description:  system.Description,
		Code:         system.Code,
		CreatedTime:  system.CreatedTime.Format(time.RFC3339),
		ModifiedTime: system.ModifiedTime.Format(time.RFC3339),
	}
}

// CreateSystem は新しいシステムを作成する。
func (h *SystemHandler) CreateSystem(w http.ResponseWriter, r *http.Request) {
	var req SystemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	system := &domain.System{
		ParentID:    req.ParentID,
		TypeID:      req.TypeID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.service.CreateSystem(r.Context(), system); err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_SYSTEM", "system", "", "FAILED")
		switch {
		case errors.Is(err, domain.ErrInvalidObjectID):
			httputil.Error(w, http.StatusUnprocessableEntity, "INVALID_ID", "invalid ID format")
		case errors.Is(err, domain.ErrMissingRecord):
			httputil.Error(w, http.StatusUnprocessableEntity, "MISSING_RECORD", err.Error())
		default:
			httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_SYSTEM", "system", system.ID, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, toSystemResponse(system))
}

// GetSystem は指定されたIDのシステムを取得する。
func (h *SystemHandler) GetSystem(w http.ResponseWriter, r *http.Request) {
	systemID := chi.URLParam(r, "system_id")

	system, err := h.service.GetSystem(r.Context(), systemID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingRecord) || errors.Is(err, domain.ErrInvalidObjectID) {
			httputil.Error(w, http.StatusNotFound, "SYSTEM_NOT_FOUND", "system not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, toSystemResponse(system))
}

// ListSystems はシステム一覧を取得する。
func (h *SystemHandler) ListSystems(w http.ResponseWriter, r *http.Request) {
	systems, err := h.service.ListSystems(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response := SystemListResponse{Systems: make([]SystemResponse, len(systems))}
	for i, system := range systems {
		response.Systems[i] = toSystemResponse(system)
	}
	httputil.JSON(w, http.StatusOK, response)
}

// GetSystemType は指定されたIDのシステムタイプを取得する。
func (h *SystemHandler) GetSystemType(w http.ResponseWriter, r *http.Request) {
	systemTypeID := chi.URLParam(r, "system_type_id")

	systemType, err := h.service.GetSystemType(r.Context(), systemTypeID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingRecord) || errors.Is(err, domain.ErrInvalidObjectID) {
			httputil.Error(w, http.StatusNotFound, "SYSTEM_TYPE_NOT_FOUND", "system type not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, SystemTypeResponse{ID: systemType.ID, Value: systemType.Value})
}

// ListSystemTypes はシステムタイプ一覧を取得する。
func (h *SystemHandler) ListSystemTypes(w http.ResponseWriter, r *http.Request) {
	systemTypes, err := h.service.ListSystemTypes(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response := SystemTypeListResponse{SystemTypes: make([]SystemTypeResponse, len(systemTypes))}
	for i, systemType := range systemTypes {
		response.SystemTypes[i] = SystemTypeResponse{ID: systemType.ID, Value: systemType.Value}
	}
	httputil.JSON(w, http.StatusOK, response)
}
