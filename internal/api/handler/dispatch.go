package handler

import (
	"net/http"

	"github.com/adesina-dev/panelpay/internal/service"
	"go.uber.org/zap"
)

// DispatchHandler exposes the manual dispatch trigger.
type DispatchHandler struct {
	dispatchSvc *service.DispatchService
}

func NewDispatchHandler(dispatchSvc *service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatchSvc: dispatchSvc}
}

// Run handles POST /v1/admin/dispatch/run.
// It processes one batch synchronously and reports what happened to each
// order; the poll worker keeps running regardless.
func (h *DispatchHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.dispatchSvc.ProcessPending(r.Context())
	if err != nil {
		zap.L().Error("manual dispatch run failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "dispatch/run-failed", "Failed to dispatch pending orders")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
