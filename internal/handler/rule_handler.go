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

// RuleHandler はアイテム操作ルールのHTTPハンドラを提供する。
type RuleHandler struct {
	service *usecase.RuleService
}

// NewRuleHandler は新しいRuleHandlerを生成する。
func NewRuleHandler(service *usecase.RuleService) *RuleHandler {
	return &RuleHandler{service: service}
}

// RuleCreateRequest はルール作成のリクエスト形式。
// src_system_type_idがnullのルールは新規作成(設置元なし)を許可する。
type RuleCreateRequest struct {
	SrcSystemTypeID  *string `json:"src_system_type_id"`
	DstSystemTypeID  string  `json:"dst_system_type_id"`
	DstUsageStatusID string  `json:"dst_usage_status_id"`
}

// RuleResponse はルールのレスポンス形式。
type RuleResponse struct {
	ID               string  `json:"id"`
	SrcSystemTypeID  *string `json:"src_system_type_id"`
	DstSystemTypeID  string  `json:"dst_system_type_id"`
	DstUsageStatusID string  `json:"dst_usage_status_id"`
}

// RuleListResponse はルール一覧のレスポンス形式。
type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
}

func toRuleResponse(rule *domain.Rule) RuleResponse {
	return RuleResponse{
		ID:               rule.ID,
		SrcSystemTypeID:  rule.SrcSystemTypeID,
		DstSystemTypeID:  rule.DstSystemTypeID,
		DstUsageStatusID: rule.DstUsageStatusID,
	}
}

// CreateRule は新しいルールを作成する。
func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	rule := &domain.Rule{
		SrcSystemTypeID:  req.SrcSystemTypeID,
		DstSystemTypeID:  req.DstSystemTypeID,
		DstUsageStatusID: req.DstUsageStatusID,
	}
	if err := h.service.CreateRule(r.Context(), rule); err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_RULE", "rule", "", "FAILED")
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

	middleware.WriteAuditLog(r.Context(), "CREATE_RULE", "rule", rule.ID, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, toRuleResponse(rule))
}

// ListRules はルール一覧を取得する。
func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListRules(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response := RuleListResponse{Rules: make([]RuleResponse, len(rules))}
	for i, rule := range rules {
		response.Rules[i] = toRuleResponse(rule)
	}
	httputil.JSON(w, http.StatusOK, response)
}
