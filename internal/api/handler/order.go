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
	"go.uber.org/zap"
)

// OrderHandler places and reads fulfillment orders.
type OrderHandler struct {
	orderSvc *service.OrderService
	repo     *repository.Repository
}

func NewOrderHandler(orderSvc *service.OrderService, repo *repository.Repository) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, repo: repo}
}

type placeOrderRequest struct {
	ServiceID int64  `json:"service_id"`
	Quantity  int    `json:"quantity"`
	Link      string `json:"link"`
}

// PlaceOrder handles POST /v1/orders.
// The buyer is debited and the order inserted in one transaction; the
// dispatcher picks it up afterwards.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	order, err := h.orderSvc.Place(r.Context(), service.PlaceOrderRequest{
		UserID:     actorID,
		ServiceID:  req.ServiceID,
		Quantity:   req.Quantity,
		TargetLink: req.Link,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			RespondError(w, r, http.StatusBadRequest, "order/invalid-request", err.Error())
		case errors.Is(err, models.ErrInsufficientFunds):
			RespondError(w, r, http.StatusBadRequest, "order/insufficient-funds", "Insufficient funds")
		default:
			zap.L().Error("place order failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "order/create-failed", "Failed to place order")
		}
		return
	}

	RespondJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /v1/orders/{id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return
	}

	order, err := h.repo.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "order/not-found", "Order not found")
			return
		}
		zap.L().Error("get order failed", zap.Error(err), zap.String("order_id", orderID.String()))
		RespondError(w, r, http.StatusInternalServerError, "order/read-failed", "Failed to get order")
		return
	}
	if !isAdmin && order.UserID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	RespondJSON(w, http.StatusOK, order)
}
