package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/adesina-dev/panelpay/internal/service"
	"go.uber.org/zap"
)

// ProfileHandler enrolls and reads platform profiles.
type ProfileHandler struct {
	profileSvc *service.ProfileService
}

func NewProfileHandler(profileSvc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

type enrollRequest struct {
	Email        string `json:"email"`
	ReferralCode string `json:"referral_code"`
}

// Enroll handles POST /v1/profiles.
// The profile id comes from the authenticated subject; the identity provider
// already owns the credentials.
func (h *ProfileHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	profile, err := h.profileSvc.Enroll(r.Context(), actorID, req.Email, req.ReferralCode)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			RespondError(w, r, http.StatusBadRequest, "profile/invalid-request", err.Error())
			return
		}
		if status, problemType, message, ok := mapDBError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		zap.L().Error("enroll profile failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "profile/create-failed", "Failed to create profile")
		return
	}

	RespondJSON(w, http.StatusCreated, profile)
}

// Me handles GET /v1/profiles/me.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	profile, err := h.profileSvc.Get(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "profile/not-found", "Profile not found")
			return
		}
		zap.L().Error("get profile failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "profile/read-failed", "Failed to get profile")
		return
	}

	RespondJSON(w, http.StatusOK, profile)
}
