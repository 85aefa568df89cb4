package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/adesina-dev/panelpay/internal/repository"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the public service catalog.
type CatalogHandler struct {
	repo *repository.Repository
}

func NewCatalogHandler(repo *repository.Repository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

// ListServices handles GET /v1/services.
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.ListServices(r.Context())
	if err != nil {
		zap.L().Error("list services failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "service/list-failed", "Failed to list services")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"items": services,
		"count": len(services),
	})
}

// GetService handles GET /v1/services/{id}.
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-service-id", "Invalid service ID")
		return
	}

	svc, err := h.repo.GetService(r.Context(), serviceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "service/not-found", "Service not found")
			return
		}
		zap.L().Error("get service failed", zap.Error(err), zap.Int64("service_id", serviceID))
		RespondError(w, r, http.StatusInternalServerError, "service/read-failed", "Failed to get service")
		return
	}

	RespondJSON(w, http.StatusOK, svc)
}
