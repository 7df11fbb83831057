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

// UsageStatusHandler は利用状況のHTTPハンドラを提供する。
type UsageStatusHandler struct {
	service *usecase.UsageStatusService
}

// NewUsageStatusHandler は新しいUsageStatusHandlerを生成する。
func NewUsageStatusHandler(service *usecase.UsageStatusService) *UsageStatusHandler {
	return &UsageStatusHandler{service: service}
}

// UsageStatusCreateRequest は利用状況作成のリクエスト形式。
type UsageStatusCreateRequest struct {
	Value string `json:"value"`
}

// UsageStatusResponse は利用状況のレスポンス形式。
type UsageStatusResponse struct {
	ID           string `json:"id"`
	Value        string `json:"value"`
	CreatedTime  string `json:"created_time"`
	ModifiedTime string `json:"modified_time"`
}

// UsageStatusListResponse は利用状況一覧のレスポンス形式。
type UsageStatusListResponse struct {
	UsageStatuses []UsageStatusResponse `json:"usage_statuses"`
}

func toUsageStatusResponse(usageStatus *domain.UsageStatus) UsageStatusResponse {
	return UsageStatusResponse{
		ID:           usageStatus.ID,
		Value:        usageStatus.Value,
		CreatedTime:  usageStatus.CreatedTime.Format(time.RFC3339),
		ModifiedTime: usageStatus.ModifiedTime.Format(time.RFC3339),
	}
}

// CreateUsageStatus は新しい利用状況を作成する。
func (h *UsageStatusHandler) CreateUsageStatus(w http.ResponseWriter, r *http.Request) {
	var req UsageStatusCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Value == "" {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "value is required")
		return
	}

	usageStatus := &domain.UsageStatus{Value: req.Value}
	if err := h.service.CreateUsageStatus(r.Context(), usageStatus); err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_USAGE_STATUS", "usage_status", "", "FAILED")
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_USAGE_STATUS", "usage_status", usageStatus.ID, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, toUsageStatusResponse(usageStatus))
}

// GetUsageStatus は指定されたIDの利用状況を取得する。
func (h *UsageStatusHandler) GetUsageStatus(w http.ResponseWriter, r *http.Request) {
	usageStatusID := chi.URLParam(r, "usage_status_id")

	usageStatus, err := h.service.GetUsageStatus(r.Context(), usageStatusID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingRecord) || errors.Is(err, domain.ErrInvalidObjectID) {
			httputil.Error(w, http.StatusNotFound, "USAGE_STATUS_NOT_FOUND", "usage status not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, toUsageStatusResponse(usageStatus))
}

// ListUsageStatuses は利用状況一覧を取得する。
func (h *UsageStatusHandler) ListUsageStatuses(w http.ResponseWriter, r *http.Request) {
	usageStatuses, err := h.service.ListUsageStatuses(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response := UsageStatusListResponse{
		UsageStatuses: make([]UsageStatusResponse, len(usageStatuses)),
	}
	for i, usageStatus := range usageStatuses {
		response.UsageStatuses[i] = toUsageStatusResponse(usageStatus)
	}
	httputil.JSON(w, http.StatusOK, response)
}
