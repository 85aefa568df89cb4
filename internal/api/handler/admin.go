package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/adesina-dev/panelpay/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminHandler carries the manual overrides and catalog management.
type AdminHandler struct {
	adminSvc *service.AdminService
}

func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

type overrideOrderRequest struct {
	Status string `json:"status"`
}

// OverrideOrderStatus handles POST /v1/admin/orders/{id}/status.
func (h *AdminHandler) OverrideOrderStatus(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return
	}

	var req overrideOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	next := domain.OrderStatus(strings.TrimSpace(strings.ToLower(req.Status)))
	if err := h.adminSvc.OverrideOrderStatus(r.Context(), orderID, next, actorID); err != nil {
		h.respondOverrideError(w, r, err, "order")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{"id": orderID, "status": next})
}

type decideWithdrawalRequest struct {
	Decision string `json:"decision"`
}

// DecideWithdrawal handles POST /v1/admin/withdrawals/{id}/decision.
// Approval performs the guarded debit; moving an approved withdrawal to
// rejected refunds it.
func (h *AdminHandler) DecideWithdrawal(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	withdrawalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-withdrawal-id", "Invalid withdrawal ID")
		return
	}

	var req decideWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	next := domain.WithdrawalStatus(strings.TrimSpace(strings.ToLower(req.Decision)))
	if err := h.adminSvc.DecideWithdrawal(r.Context(), withdrawalID, next, actorID); err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			RespondError(w, r, http.StatusConflict, "withdrawal/insufficient-funds", "User balance no longer covers this withdrawal")
			return
		}
		h.respondOverrideError(w, r, err, "withdrawal")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{"id": withdrawalID, "status": next})
}

// SettleDeposit handles POST /v1/admin/deposits/{id}/settle.
func (h *AdminHandler) SettleDeposit(w http.ResponseWriter, r *http.Request) {
	depositID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-deposit-id", "Invalid deposit ID")
		return
	}

	settlement, err := h.adminSvc.SettleDepositManually(r.Context(), depositID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "deposit/not-found", "Deposit not found")
			return
		}
		zap.L().Error("manual deposit settle failed", zap.Error(err), zap.String("deposit_id", depositID.String()))
		RespondError(w, r, http.StatusInternalServerError, "deposit/settle-failed", "Failed to settle deposit")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"reference":  settlement.Reference,
		"credited":   settlement.Credited,
		"bonus_paid": settlement.BonusPaid,
	})
}

type serviceRequest struct {
	Name              string          `json:"name"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	MinQuantity       int             `json:"min_quantity"`
	MaxQuantity       int             `json:"max_quantity"`
	ProviderServiceID string          `json:"provider_service_id"`
}

// CreateService handles POST /v1/admin/services.
func (h *AdminHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	svc := &models.Service{
		Name:              req.Name,
		PricePerUnit:      req.PricePerUnit,
		MinQuantity:       req.MinQuantity,
		MaxQuantity:       req.MaxQuantity,
		ProviderServiceID: req.ProviderServiceID,
	}
	if err := h.adminSvc.CreateService(r.Context(), svc); err != nil {
		if errors.Is(err, service.ErrValidation) {
			RespondError(w, r, http.StatusBadRequest, "service/invalid-request", err.Error())
			return
		}
		zap.L().Error("create service failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "service/create-failed", "Failed to create service")
		return
	}

	RespondJSON(w, http.StatusCreated, svc)
}

// UpdateService handles PUT /v1/admin/services/{id}.
func (h *AdminHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-service-id", "Invalid service ID")
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	svc := &models.Service{
		ID:                serviceID,
		Name:              req.Name,
		PricePerUnit:      req.PricePerUnit,
		MinQuantity:       req.MinQuantity,
		MaxQuantity:       req.MaxQuantity,
		ProviderServiceID: req.ProviderServiceID,
	}
	if err := h.adminSvc.UpdateService(r.Context(), svc); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			RespondError(w, r, http.StatusBadRequest, "service/invalid-request", err.Error())
		case errors.Is(err, models.ErrNotFound):
			RespondError(w, r, http.StatusNotFound, "service/not-found", "Service not found")
		default:
			zap.L().Error("update service failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "service/update-failed", "Failed to update service")
		}
		return
	}

	RespondJSON(w, http.StatusOK, svc)
}

// DeleteService handles DELETE /v1/admin/services/{id}.
func (h *AdminHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-service-id", "Invalid service ID")
		return
	}

	if err := h.adminSvc.DeleteService(r.Context(), serviceID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "service/not-found", "Service not found")
			return
		}
		zap.L().Error("delete service failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "service/delete-failed", "Failed to delete service")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) respondOverrideError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		RespondError(w, r, http.StatusBadRequest, entity+"/invalid-status", err.Error())
	case errors.Is(err, models.ErrNotFound):
		RespondError(w, r, http.StatusNotFound, entity+"/not-found", "Resource not found")
	case errors.Is(err, models.ErrInvalidTransition):
		RespondError(w, r, http.StatusConflict, entity+"/invalid-transition", "Status transition not allowed")
	default:
		zap.L().Error("admin override failed", zap.Error(err), zap.String("entity", entity))
		RespondError(w, r, http.StatusInternalServerError, entity+"/override-failed", "Failed to apply override")
	}
}
