package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"inventory-management-service/internal/domain"
	"inventory-management-service/internal/middleware"
	"inventory-management-service/internal/usecase"
	"inventory-management-service/pkg/httputil"
)

// SettingHandler は設定のHTTPハンドラを提供する。
type SettingHandler struct {
	service *usecase.SettingService
}

// NewSettingHandler は新しいSettingHandlerを生成する。
func NewSettingHandler(service *usecase.SettingService) *SettingHandler {
	return &SettingHandler{service: service}
}

// SparesDefinitionRequest はスペア定義更新のリクエスト形式。
type SparesDefinitionRequest struct {
	SystemTypeIDs []string `json:"system_type_ids"`
}

// SparesDefinitionResponse はスペア定義のレスポンス形式。
type SparesDefinitionResponse struct {
	SystemTypeIDs []string `json:"system_type_ids"`
}

// GetSparesDefinition は現在のスペア定義を取得する。
func (h *SettingHandler) GetSparesDefinition(w http.ResponseWriter, r *http.Request) {
	definition, err := h.service.GetSparesDefinition(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrMissingRecord) {
			httputil.Error(w, http.StatusNotFound, "SPARES_DEFINITION_NOT_FOUND", "spares definition not set")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, SparesDefinitionResponse{SystemTypeIDs: definition.SystemTypeIDs})
}

// SetSparesDefinition はスペア定義を置き換え、全カタログアイテムのスペア数を再計算する。
func (h *SettingHandler) SetSparesDefinition(w http.ResponseWriter, r *http.Request) {
	var req SparesDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if len(req.SystemTypeIDs) == 0 {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "system_type_ids must not be empty")
		return
	}

	definition := &domain.SparesDefinition{SystemTypeIDs: req.SystemTypeIDs}
	if err := h.service.SetSparesDefinition(r.Context(), definition); err != nil {
		middleware.WriteAuditLog(r.Context(), "SET_SPARES_DEFINITION", "spares_definition", "", "FAILED")
		switch {
		case errors.Is(err, domain.ErrInvalidObjectID):
			httputil.Error(w, http.StatusUnprocessableEntity, "INVALID_ID", "invalid ID format")
		case errors.Is(err, domain.ErrMissingRecord):
			httputil.Error(w, http.StatusUnprocessableEntity, "MISSING_RECORD", err.Error())
		case errors.Is(err, domain.ErrWriteConflict):
			httputil.Error(w, http.StatusConflict, "WRITE_CONFLICT", "the operation conflicted with a concurrent update, please retry")
		default:
			httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	middleware.WriteAuditLog(r.Context(), "SET_SPARES_DEFINITION", "spares_definition", "", "SUCCESS")
	httputil.JSON(w, http.StatusOK, SparesDefinitionResponse{SystemTypeIDs: req.SystemTypeIDs})
}
