package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/adesina-dev/panelpay/internal/repository"
	"github.com/adesina-dev/panelpay/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WithdrawalHandler admits and reads withdrawal requests.
type WithdrawalHandler struct {
	withdrawalSvc *service.WithdrawalService
	repo          *repository.Repository
}

func NewWithdrawalHandler(withdrawalSvc *service.WithdrawalService, repo *repository.Repository) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc, repo: repo}
}

type withdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	AccountName   string          `json:"accountName"`
	AccountNumber string          `json:"accountNumber"`
	Bank          string          `json:"bank"`
}

// RequestWithdrawal handles POST /v1/withdrawals.
// The response envelope is {"success": true} or {"error": "..."}; payout
// destinations are submitted by browser clients that key off those fields.
func (h *WithdrawalHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	withdrawal, err := h.withdrawalSvc.Request(r.Context(), service.WithdrawalRequest{
		UserID:        actorID,
		Amount:        req.Amount,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		Bank:          req.Bank,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			RespondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, models.ErrInsufficientFunds):
			RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "Insufficient balance"})
		default:
			zap.L().Error("request withdrawal failed", zap.Error(err))
			RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to request withdrawal"})
		}
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"withdrawal": withdrawal,
	})
}

// GetWithdrawal handles GET /v1/withdrawals/{id}.
func (h *WithdrawalHandler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	withdrawalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-withdrawal-id", "Invalid withdrawal ID")
		return
	}

	withdrawal, err := h.repo.GetWithdrawal(r.Context(), withdrawalID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "withdrawal/not-found", "Withdrawal not found")
			return
		}
		zap.L().Error("get withdrawal failed", zap.Error(err), zap.String("withdrawal_id", withdrawalID.String()))
		RespondError(w, r, http.StatusInternalServerError, "withdrawal/read-failed", "Failed to get withdrawal")
		return
	}
	if !isAdmin && withdrawal.UserID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	RespondJSON(w, http.StatusOK, withdrawal)
}
